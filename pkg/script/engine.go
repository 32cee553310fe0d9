// Package script provides the Lisp scripting front end for Tenon.
// It wraps zygomys in a sandboxed environment; builtins assemble an
// operation graph, evaluate the solids a script asks for, and write
// STL output.
package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/tenon/internal/logger"
	"github.com/chazu/tenon/pkg/csg"
	"github.com/chazu/tenon/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// SaveRecord describes one STL file written by a script's save form.
type SaveRecord struct {
	Node  graph.NodeID
	Name  string
	Path  string
	Faces int
}

// Result bundles the full output of a script run.
type Result struct {
	Graph      *graph.Graph
	Saves      []SaveRecord
	Reports    []*csg.Report
	Validation graph.ValidationResult
}

// DefaultTimeout is the evaluation limit used when Options leaves
// Timeout zero.
const DefaultTimeout = 30 * time.Second

// Options configures an Engine. The zero value selects the default
// timeout, the default tessellation resolution, binary STL output, and
// the current directory for relative save paths.
type Options struct {
	Timeout time.Duration
	Cells   int
	OutDir  string
	Format  string // "binary" (default) or "ascii"
}

// Engine wraps the zygomys interpreter for script evaluation.
// It is safe for concurrent use; each call to Run creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	timeout time.Duration
	cells   int
	outDir  string
	ascii   bool
}

// NewEngine creates a new Engine with the given options.
func NewEngine(opts Options) *Engine {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		timeout: timeout,
		cells:   opts.Cells,
		outDir:  opts.OutDir,
		ascii:   strings.EqualFold(opts.Format, "ascii"),
	}
}

// Run evaluates Lisp source code and returns the graph it built, the
// files it saved, and the combine reports, along with graph validation.
// Each call creates a fresh zygomys sandbox for deterministic
// evaluation.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval failure: returns nil result + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Run(source string) (*Result, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan runOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- runOutcome{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.run(source)
		ch <- runOutcome{result: res, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation, e.timeout)
}

// run performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) run(source string) (*Result, []EvalError, error) {
	st := newRunState(e)

	// Empty source is a valid script that produces an empty graph.
	if strings.TrimSpace(source) == "" {
		return st.result(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or
	// syscalls; the save builtin is the only way a script touches disk.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, st)

	start := time.Now()
	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	res := st.result()
	logger.Log.Debug("script evaluated",
		zap.Int("nodes", res.Graph.NodeCount()),
		zap.Int("saves", len(res.Saves)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	// Fallback: no line info available.
	return []EvalError{{
		Line:    0,
		Col:     0,
		Message: strings.TrimSpace(msg),
	}}
}
