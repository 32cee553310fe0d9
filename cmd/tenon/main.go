// tenon is a CLI for exact mesh booleans: it runs modeling scripts,
// combines STL files, and inspects mesh geometry.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/chazu/tenon/internal/config"
	"github.com/chazu/tenon/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run":
		cmdRun(args)
	case "op":
		cmdOp(args)
	case "info":
		cmdInfo(args)
	case "check":
		cmdCheck(args)
	case "primitive", "prim":
		cmdPrimitive(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tenon - exact mesh boolean toolkit

Usage:
  tenon <command> [options]

Commands:
  run <script.lisp>                     Run a modeling script
  op <union|intersect|subtract> <a.stl> <b.stl> [more.stl...]
                                        Combine STL files
  info <file.stl>                       Show mesh statistics
  check <file.stl>                      Validate mesh geometry and topology
  primitive <box|cube|sphere|cylinder>  Generate a primitive STL

Examples:
  tenon run bracket.lisp
  tenon op subtract -o notched.stl plate.stl hole.stl
  tenon info notched.stl
  tenon check suspect.stl
  tenon primitive cylinder -radius 5 -height 20 -o peg.stl`)
}

// setup loads the config file, initializes logging, and applies the
// worker cap. Called by every subcommand after flag parsing.
func setup(cfgPath string) *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.FileConfig{
		Path:       cfg.Logging.LogFile,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Engine.Workers > 0 {
		runtime.GOMAXPROCS(cfg.Engine.Workers)
	}
	return cfg
}
