package script

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/tenon/internal/logger"
	"github.com/chazu/tenon/pkg/csg"
	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/graph"
	"github.com/chazu/tenon/pkg/mesh"
	"github.com/chazu/tenon/pkg/stl"
	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms script source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: rotate-z -> rotate_z
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSolid wraps a graph node id so solids can be passed between builtins.
type sexpSolid struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(solid %q)", s.name)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpVec wraps an exact coordinate triple.
type sexpVec struct {
	v exact.Vec
}

func (v *sexpVec) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec %s %s %s)", v.v.X.RatString(), v.v.Y.RatString(), v.v.Z.RatString())
}
func (v *sexpVec) Type() *zygo.RegisteredType { return nil }

// sexpRat wraps an exact rational scalar.
type sexpRat struct {
	r *big.Rat
}

func (r *sexpRat) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rat %s)", r.r.RatString())
}
func (r *sexpRat) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value; treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an int from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toRat extracts an exact rational from an integer, a float, or a rat
// value. Floats convert exactly; every finite float is a dyadic rational.
func toRat(s zygo.Sexp) (*big.Rat, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return big.NewRat(v.Val, 1), nil
	case *zygo.SexpFloat:
		return exact.FromFloat(v.Val)
	case *sexpRat:
		return v.r, nil
	}
	return nil, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toVec extracts a coordinate triple from a sexpVec.
func toVec(s zygo.Sexp) (exact.Vec, error) {
	if v, ok := s.(*sexpVec); ok {
		return v.v, nil
	}
	return exact.Vec{}, fmt.Errorf("expected vec, got %T (%s)", s, s.SexpString(nil))
}

// toSolid extracts a solid reference from a sexpSolid.
func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if ref, ok := s.(*sexpSolid); ok {
		return ref, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// nameArg reads the optional :name keyword.
func nameArg(pa kwArgs, builtin string) (string, error) {
	v, ok := pa.kw["name"]
	if !ok {
		return "", nil
	}
	s, err := toString(v)
	if err != nil {
		return "", fmt.Errorf("%s: name: %w", builtin, err)
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// Run state
// ---------------------------------------------------------------------------

// runState carries everything one script run accumulates: the graph
// being assembled, the evaluator that caches built meshes, and the
// files written so far.
type runState struct {
	g      *graph.Graph
	gen    *mesh.IDGen
	ev     *graph.Evaluator
	saves  []SaveRecord
	cells  int
	outDir string
	ascii  bool
}

func newRunState(e *Engine) *runState {
	g := graph.New()
	gen := mesh.NewIDGen()
	return &runState{
		g:      g,
		gen:    gen,
		ev:     graph.NewEvaluator(g, gen),
		cells:  e.cells,
		outDir: e.outDir,
		ascii:  e.ascii,
	}
}

func (st *runState) result() *Result {
	return &Result{
		Graph:      st.g,
		Saves:      st.saves,
		Reports:    st.ev.Reports(),
		Validation: graph.ValidateAll(st.g),
	}
}

// solid wraps a freshly added node for return to the script.
func (st *runState) solid(n *graph.Node) *sexpSolid {
	name := n.Name
	if name == "" {
		name = n.Kind.String() + "/" + n.ID.Short()
	}
	return &sexpSolid{id: n.ID, name: name}
}

// write encodes m in the engine's configured STL flavor.
func (st *runState) write(m *mesh.Mesh, path string) error {
	if !st.ascii {
		return stl.WriteFile(m, path)
	}
	data, err := stl.EncodeASCII(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing STL file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the modeling builtins into a zygomys
// environment. The builtins populate st.g during evaluation; save,
// volume, and stats pull meshes through st.ev so work is shared across
// calls.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are converted to recognizable
// string literals.
func registerBuiltins(env *zygo.Zlisp, st *runState) {

	// -----------------------------------------------------------------------
	// (vec 1 2 3) — components may be integers, floats, or (rat n d)
	// -----------------------------------------------------------------------
	env.AddFunction("vec", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec requires exactly 3 arguments, got %d", len(args))
		}
		x, err := toRat(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec: x: %w", err)
		}
		y, err := toRat(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec: y: %w", err)
		}
		z, err := toRat(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec: z: %w", err)
		}
		return &sexpVec{v: exact.NewVec(x, y, z)}, nil
	})

	// -----------------------------------------------------------------------
	// (rat 1 3) — an exact rational scalar
	// -----------------------------------------------------------------------
	env.AddFunction("rat", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("rat requires a numerator and a denominator, got %d arguments", len(args))
		}
		num, ok := args[0].(*zygo.SexpInt)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("rat: numerator: expected integer, got %T", args[0])
		}
		den, ok := args[1].(*zygo.SexpInt)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("rat: denominator: expected integer, got %T", args[1])
		}
		if den.Val == 0 {
			return zygo.SexpNull, fmt.Errorf("rat: denominator must not be zero")
		}
		return &sexpRat{r: big.NewRat(num.Val, den.Val)}, nil
	})

	// -----------------------------------------------------------------------
	// (box :from (vec 0 0 0) :to (vec 4 2 1) :name "slab")
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		d := graph.PrimitiveData{Kind: graph.PrimBox}

		v, ok := pa.kw["from"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("box: missing :from corner")
		}
		lo, err := toVec(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: from: %w", err)
		}
		d.Lo = lo

		v, ok = pa.kw["to"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("box: missing :to corner")
		}
		hi, err := toVec(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: to: %w", err)
		}
		d.Hi = hi

		nodeName, err := nameArg(pa, "box")
		if err != nil {
			return zygo.SexpNull, err
		}
		return st.solid(st.g.AddPrimitive(nodeName, d)), nil
	})

	// -----------------------------------------------------------------------
	// (cube 40 :name "block") — axis-aligned cube with one corner at the origin
	// -----------------------------------------------------------------------
	env.AddFunction("cube", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("cube requires a size argument")
		}
		size, err := toRat(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cube: size: %w", err)
		}
		nodeName, err := nameArg(pa, "cube")
		if err != nil {
			return zygo.SexpNull, err
		}
		d := graph.PrimitiveData{Kind: graph.PrimCube, Size: size}
		return st.solid(st.g.AddPrimitive(nodeName, d)), nil
	})

	// -----------------------------------------------------------------------
	// (sphere :radius 10 :cells 96 :name "ball")
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		d := graph.PrimitiveData{Kind: graph.PrimSphere, Cells: st.cells}

		v, ok := pa.kw["radius"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("sphere: missing :radius")
		}
		r, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
		}
		d.Radius = r

		if v, ok := pa.kw["cells"]; ok {
			c, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: cells: %w", err)
			}
			d.Cells = c
		}

		nodeName, err := nameArg(pa, "sphere")
		if err != nil {
			return zygo.SexpNull, err
		}
		return st.solid(st.g.AddPrimitive(nodeName, d)), nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :radius 5 :height 20 :cells 64 :name "peg")
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		d := graph.PrimitiveData{Kind: graph.PrimCylinder, Cells: st.cells}

		v, ok := pa.kw["radius"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("cylinder: missing :radius")
		}
		r, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
		}
		d.Radius = r

		v, ok = pa.kw["height"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("cylinder: missing :height")
		}
		h, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
		}
		d.Height = h

		if v, ok := pa.kw["cells"]; ok {
			c, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: cells: %w", err)
			}
			d.Cells = c
		}

		nodeName, err := nameArg(pa, "cylinder")
		if err != nil {
			return zygo.SexpNull, err
		}
		return st.solid(st.g.AddPrimitive(nodeName, d)), nil
	})

	// -----------------------------------------------------------------------
	// (load "gear.stl" :name "gear")
	// -----------------------------------------------------------------------
	env.AddFunction("load", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("load requires a path argument")
		}
		path, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("load: path: %w", err)
		}
		nodeName, err := nameArg(pa, "load")
		if err != nil {
			return zygo.SexpNull, err
		}
		return st.solid(st.g.AddLoad(nodeName, path)), nil
	})

	// -----------------------------------------------------------------------
	// (translate solid (vec 1 0 0))  (scale solid 2)
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("translate requires a solid and a vec")
		}
		ref, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: solid: %w", err)
		}
		off, err := toVec(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: offset: %w", err)
		}
		nodeName, err := nameArg(pa, "translate")
		if err != nil {
			return zygo.SexpNull, err
		}
		d := graph.TransformData{Kind: graph.XformTranslate, Offset: off}
		return st.solid(st.g.AddTransform(nodeName, d, ref.id)), nil
	})

	env.AddFunction("scale", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("scale requires a solid and a factor")
		}
		ref, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scale: solid: %w", err)
		}
		factor, err := toRat(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scale: factor: %w", err)
		}
		nodeName, err := nameArg(pa, "scale")
		if err != nil {
			return zygo.SexpNull, err
		}
		d := graph.TransformData{Kind: graph.XformScale, Factor: factor}
		return st.solid(st.g.AddTransform(nodeName, d, ref.id)), nil
	})

	// -----------------------------------------------------------------------
	// (rotate-x solid 1)  (rotate-y solid 2)  (rotate-z solid -1)
	//
	// Rotation is in quarter turns so coordinates stay exact. Registered
	// as rotate_x etc because zygomys does not support hyphens in
	// identifiers; the preprocessor converts rotate-x in the source.
	// -----------------------------------------------------------------------
	for _, rot := range []struct {
		fn   string
		axis mesh.Axis
	}{
		{"rotate_x", mesh.AxisX},
		{"rotate_y", mesh.AxisY},
		{"rotate_z", mesh.AxisZ},
	} {
		axis := rot.axis
		display := strings.ReplaceAll(rot.fn, "_", "-")
		env.AddFunction(rot.fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if len(pa.positional) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires a solid and a quarter-turn count", display)
			}
			ref, err := toSolid(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: solid: %w", display, err)
			}
			quarters, err := toInt(pa.positional[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: quarters: %w", display, err)
			}
			nodeName, err := nameArg(pa, display)
			if err != nil {
				return zygo.SexpNull, err
			}
			d := graph.TransformData{Kind: graph.XformRotate, Axis: axis, Quarters: quarters}
			return st.solid(st.g.AddTransform(nodeName, d, ref.id)), nil
		})
	}

	// -----------------------------------------------------------------------
	// (union a b ...)  (intersect a b ...)  (subtract a b ...)
	// -----------------------------------------------------------------------
	for _, bop := range []struct {
		fn string
		op csg.Operator
	}{
		{"union", csg.OpUnion},
		{"intersect", csg.OpIntersection},
		{"subtract", csg.OpDifference},
	} {
		op := bop.op
		fn := bop.fn
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if len(pa.positional) == 0 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least one solid", fn)
			}
			ids := make([]graph.NodeID, 0, len(pa.positional))
			for i, a := range pa.positional {
				ref, err := toSolid(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: input %d: %w", fn, i+1, err)
				}
				ids = append(ids, ref.id)
			}
			nodeName, err := nameArg(pa, fn)
			if err != nil {
				return zygo.SexpNull, err
			}
			return st.solid(st.g.AddBoolean(nodeName, op, ids...)), nil
		})
	}

	// -----------------------------------------------------------------------
	// (save solid "out.stl") — builds the solid and writes it to disk.
	// Relative paths resolve against the engine's output directory.
	// -----------------------------------------------------------------------
	env.AddFunction("save", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("save requires a solid and a path")
		}
		ref, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("save: solid: %w", err)
		}
		path, err := toString(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("save: path: %w", err)
		}

		m, err := st.ev.Mesh(ref.id)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("save: building %s: %w", ref.name, err)
		}

		if !filepath.IsAbs(path) && st.outDir != "" {
			path = filepath.Join(st.outDir, path)
		}
		if err := st.write(m, path); err != nil {
			return zygo.SexpNull, fmt.Errorf("save: %w", err)
		}

		st.g.AddRoot(ref.id)
		st.saves = append(st.saves, SaveRecord{
			Node:  ref.id,
			Name:  m.Name(),
			Path:  path,
			Faces: m.NumFaces(),
		})
		logger.Log.Info("saved STL",
			zap.String("name", m.Name()),
			zap.String("path", path),
			zap.Int("faces", m.NumFaces()))
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (volume solid) — exact volume, rounded to float for the script.
	// -----------------------------------------------------------------------
	env.AddFunction("volume", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("volume requires a solid argument")
		}
		ref, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("volume: solid: %w", err)
		}
		m, err := st.ev.Mesh(ref.id)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("volume: building %s: %w", ref.name, err)
		}
		return &zygo.SexpFloat{Val: m.VolumeFloat()}, nil
	})

	// -----------------------------------------------------------------------
	// (stats solid)
	// -----------------------------------------------------------------------
	env.AddFunction("stats", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("stats requires a solid argument")
		}
		ref, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stats: solid: %w", err)
		}
		m, err := st.ev.Mesh(ref.id)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stats: building %s: %w", ref.name, err)
		}
		line := fmt.Sprintf("%s: %d vertices, %d faces, volume %.6g, area %.6g",
			m.Name(), m.NumVertices(), m.NumFaces(), m.VolumeFloat(), m.Area())
		logger.Log.Debug("mesh stats", zap.String("mesh", m.Name()),
			zap.Int("vertices", m.NumVertices()), zap.Int("faces", m.NumFaces()))
		return &zygo.SexpStr{S: line}, nil
	})
}
