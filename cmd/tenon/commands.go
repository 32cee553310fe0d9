package main

import (
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chazu/tenon/internal/logger"
	"github.com/chazu/tenon/pkg/csg"
	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/mesh"
	"github.com/chazu/tenon/pkg/primitive"
	"github.com/chazu/tenon/pkg/script"
	"github.com/chazu/tenon/pkg/stl"
	"go.uber.org/zap"
)

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Config file path (default: search for tenon.yaml)")
	outDir := fs.String("out", "", "Directory for relative save paths (overrides config)")
	format := fs.String("format", "", "STL output format: binary or ascii (overrides config)")
	cells := fs.Int("cells", 0, "Tessellation resolution for curved primitives (overrides config)")
	timeout := fs.Duration("timeout", 0, "Evaluation time limit (overrides config)")
	verbose := fs.Bool("v", false, "Print a line for every boolean combine")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tenon run [options] <script.lisp>")
		os.Exit(1)
	}

	cfg := setup(*cfgPath)
	defer logger.Sync()

	opts := script.Options{
		Timeout: time.Duration(cfg.Script.TimeoutSeconds) * time.Second,
		Cells:   cfg.Engine.Cells,
		OutDir:  cfg.Output.Dir,
		Format:  cfg.Output.Format,
	}
	if *timeout > 0 {
		opts.Timeout = *timeout
	}
	if *cells > 0 {
		opts.Cells = *cells
	}
	if *outDir != "" {
		opts.OutDir = *outDir
	}
	if *format != "" {
		opts.Format = *format
	}

	path := fs.Arg(0)
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	eng := script.NewEngine(opts)
	res, evalErrs, err := eng.Run(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, e.Error())
		}
		os.Exit(1)
	}

	for _, w := range res.Validation.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
	}

	for _, s := range res.Saves {
		fmt.Printf("wrote %s (%s, %d faces)\n", s.Path, s.Name, s.Faces)
	}
	if *verbose {
		for _, r := range res.Reports {
			fmt.Printf("%s of %s: %d candidate pairs, %d segments, %d fragments, %d kept in %s\n",
				r.Op, strings.Join(r.Inputs, "+"), r.Candidates, r.Segments, r.Fragments, r.Kept, r.Duration)
		}
	}
	if len(res.Saves) == 0 {
		fmt.Fprintln(os.Stderr, "script completed but saved no meshes")
	}
}

func cmdOp(args []string) {
	fs := flag.NewFlagSet("op", flag.ExitOnError)
	out := fs.String("o", "out.stl", "Output STL path")
	format := fs.String("format", "", "Output format: binary or ascii (overrides config)")
	cfgPath := fs.String("config", "", "Config file path")

	// The operator comes before the flags so invocations read like the
	// operation they perform: tenon op subtract -o out.stl a.stl b.stl
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tenon op <union|intersect|subtract> [options] <a.stl> <b.stl> [more.stl...]")
		os.Exit(1)
	}
	op, err := csg.ParseOperator(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fs.Parse(args[1:])

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: tenon op <union|intersect|subtract> [options] <a.stl> <b.stl> [more.stl...]")
		os.Exit(1)
	}

	cfg := setup(*cfgPath)
	defer logger.Sync()
	if *format == "" {
		*format = cfg.Output.Format
	}

	gen := mesh.NewIDGen()
	var ms []*mesh.Mesh
	for _, p := range fs.Args() {
		m, err := stl.ParseFile(gen, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		ms = append(ms, m)
	}

	name := strings.TrimSuffix(filepath.Base(*out), filepath.Ext(*out))
	result, report, err := csg.Evaluate(csg.Request{Op: op, Meshes: ms, Gen: gen, Name: name})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Log.Info("combine finished",
		zap.String("op", op.String()),
		zap.Int("candidates", report.Candidates),
		zap.Int("kept", report.Kept),
		zap.Duration("elapsed", report.Duration))

	if err := writeSTL(result, *out, *format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s (%d faces, %d candidate pairs, %d kept fragments, %s)\n",
		*out, result.NumFaces(), report.Candidates, report.Kept, report.Duration)
	if report.Empty {
		fmt.Println("note: the result is empty")
	}
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tenon info <file.stl>")
		os.Exit(1)
	}

	m, err := stl.ParseFile(mesh.NewIDGen(), fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	b := m.Bounds()
	fmt.Printf("Name:     %s\n", m.Name())
	fmt.Printf("Vertices: %d\n", m.NumVertices())
	fmt.Printf("Faces:    %d\n", m.NumFaces())
	fmt.Printf("Bounds:   [%g %g %g] to [%g %g %g]\n",
		b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
	fmt.Printf("Volume:   %g (exact %s)\n", m.VolumeFloat(), m.Volume().RatString())
	fmt.Printf("Area:     %g\n", m.Area())
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tenon check <file.stl>")
		os.Exit(1)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res, err := stl.Check(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, w := range res.Warnings {
		if w.Face >= 0 {
			fmt.Printf("warning: face %d: %s\n", w.Face, w.Message)
		} else {
			fmt.Printf("warning: %s\n", w.Message)
		}
	}
	if !res.OK() {
		for _, e := range res.Errors {
			fmt.Println(e.Error())
		}
		fmt.Printf("%s: %d errors, %d warnings\n", fs.Arg(0), len(res.Errors), len(res.Warnings))
		os.Exit(1)
	}
	fmt.Printf("%s: watertight (%d warnings)\n", fs.Arg(0), len(res.Warnings))
}

func cmdPrimitive(args []string) {
	fs := flag.NewFlagSet("primitive", flag.ExitOnError)
	out := fs.String("o", "", "Output STL path (default: <shape>.stl)")
	name := fs.String("name", "", "Mesh name (default: output file base)")
	size := fs.String("size", "1", "Cube edge length (exact: 40, 2.5, or 1/3)")
	from := fs.String("from", "0,0,0", "Box corner as an exact x,y,z triple")
	to := fs.String("to", "1,1,1", "Box corner as an exact x,y,z triple")
	radius := fs.Float64("radius", 1, "Sphere/cylinder radius")
	height := fs.Float64("height", 1, "Cylinder height")
	cells := fs.Int("cells", 0, "Tessellation resolution (0 = config default)")
	format := fs.String("format", "", "Output format: binary or ascii (overrides config)")
	cfgPath := fs.String("config", "", "Config file path")

	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tenon primitive <box|cube|sphere|cylinder> [options]")
		os.Exit(1)
	}
	shape := args[0]
	fs.Parse(args[1:])

	cfg := setup(*cfgPath)
	defer logger.Sync()
	if *cells == 0 {
		*cells = cfg.Engine.Cells
	}
	if *format == "" {
		*format = cfg.Output.Format
	}
	if *out == "" {
		*out = shape + ".stl"
	}
	meshName := *name
	if meshName == "" {
		meshName = strings.TrimSuffix(filepath.Base(*out), filepath.Ext(*out))
	}

	gen := mesh.NewIDGen()
	var m *mesh.Mesh
	var err error
	switch shape {
	case "box":
		var lo, hi exact.Vec
		lo, err = parseVec(*from)
		if err == nil {
			hi, err = parseVec(*to)
		}
		if err == nil {
			m, err = primitive.Box(gen, meshName, lo, hi)
		}
	case "cube":
		r, ok := new(big.Rat).SetString(*size)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: invalid -size %q\n", *size)
			os.Exit(1)
		}
		m, err = primitive.Cube(gen, meshName, r)
	case "sphere":
		m, err = primitive.Sphere(gen, meshName, *radius, *cells)
	case "cylinder":
		m, err = primitive.Cylinder(gen, meshName, *height, *radius, *cells)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shape: %s\n", shape)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := writeSTL(m, *out, *format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d faces)\n", *out, m.NumFaces())
}

// writeSTL encodes m at path in the requested flavor.
func writeSTL(m *mesh.Mesh, path, format string) error {
	if strings.EqualFold(format, "ascii") {
		data, err := stl.EncodeASCII(m)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	}
	return stl.WriteFile(m, path)
}

// parseVec parses an exact "x,y,z" triple; each component accepts any
// big.Rat form (integer, decimal, or n/d).
func parseVec(s string) (exact.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return exact.Vec{}, fmt.Errorf("expected x,y,z but got %q", s)
	}
	comps := make([]*big.Rat, 3)
	for i, p := range parts {
		r, ok := new(big.Rat).SetString(strings.TrimSpace(p))
		if !ok {
			return exact.Vec{}, fmt.Errorf("invalid coordinate %q", p)
		}
		comps[i] = r
	}
	return exact.NewVec(comps[0], comps[1], comps[2]), nil
}
