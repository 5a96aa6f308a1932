// Clockwork CLI - the main entry point for running Clockwork programs
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"
	"github.com/tliron/commonlog"

	"github.com/chazu/clockwork/config"
	"github.com/chazu/clockwork/vm"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("clockwork")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	traceFlag := flag.Bool("trace", false, "Trace the stack and each instruction during execution")
	disasmFlag := flag.Bool("disasm", false, "Print a disassembly of each compiled chunk")
	noRC := flag.Bool("no-rc", false, "Skip loading ~/.clockwork.toml")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clockwork [options] [path]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the script at path, or starts a REPL when no path is given.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	cfg := config.Default()
	if !*noRC {
		loaded, err := config.LoadDefault()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			cfg = loaded
			if cfg.Path != "" {
				log.Infof("loaded configuration from %s", cfg.Path)
			}
		}
	}

	machine := vm.New()
	machine.Trace = *traceFlag || cfg.Debug.Trace
	machine.Disasm = *disasmFlag || cfg.Debug.Disasm

	status := 0
	args := flag.Args()
	switch len(args) {
	case 0:
		repl(machine, cfg)
	case 1:
		status = runFile(machine, args[0])
	default:
		fmt.Fprintln(os.Stderr, "Usage: clockwork <path>")
	}

	machine.Free()
	os.Exit(status)
}

// runFile interprets one script and maps the result to an exit status.
func runFile(machine *vm.VM, path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open file %q.\n", path)
		return 74
	}

	switch machine.Interpret(string(source)) {
	case vm.ResultCompileError:
		return 65
	case vm.ResultRuntimeError:
		return 70
	default:
		return 0
	}
}

// repl reads lines until EOF, interpreting each one against the same VM so
// globals and interned strings persist across lines.
func repl(machine *vm.VM, cfg *config.Config) {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(cfg.REPL.History); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(cfg.REPL.History); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		line, err := ln.Prompt(cfg.REPL.Prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			log.Errorf("read error: %v", err)
			return
		}

		if line != "" {
			ln.AppendHistory(line)
		}
		machine.Interpret(line)
	}
}
