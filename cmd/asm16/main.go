package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang/glog"
	"github.com/grimdork/climate/arg"
	"github.com/k0kubun/pp/v3"

	"github.com/Urethramancer/dcpu16/assembler"
	"github.com/Urethramancer/dcpu16/disassembler"
)

type config struct {
	input       string
	output      string
	listing     string
	includeDirs []string
	optimize    bool
	passes      int
	symbols     bool
	disassemble bool
	verbose     int
}

type symbol struct {
	Name    string
	Address string
}

// parseArgs reads the command line without the program name. ok is false
// when help was printed instead.
func parseArgs(args []string) (cfg config, ok bool, err error) {
	opt := arg.New("asm16")
	opt.SetDefaultHelp(true)
	opt.SetOption(arg.GroupDefault, "l", "listing", "Write a listing to this file.", "", false, arg.VarString, nil)
	opt.SetOption(arg.GroupDefault, "I", "include", "Directories searched for <bracketed> includes, separated by "+string(filepath.ListSeparator)+".", "", false, arg.VarString, nil)
	opt.SetOption(arg.GroupDefault, "n", "no-optimize", "Disable peephole substitutions.", false, false, arg.VarBool, nil)
	opt.SetOption(arg.GroupDefault, "p", "passes", "Finalizing layout passes allowed.", assembler.DefaultMaxPasses, false, arg.VarInt, nil)
	opt.SetOption(arg.GroupDefault, "s", "symbols", "Print the label table to standard error.", false, false, arg.VarBool, nil)
	opt.SetOption(arg.GroupDefault, "d", "disassemble", "Print a disassembly of the result instead of hex.", false, false, arg.VarBool, nil)
	opt.SetOption(arg.GroupDefault, "v", "verbose", "Log level: 1 shows substitutions and convergence, 2 every pass.", 0, false, arg.VarInt, nil)
	opt.SetPositional("INPUT", "Source file to assemble.", "", true, arg.VarString)
	opt.SetPositional("OUTPUT", "Binary output file. Without it the words are printed as hex.", "", false, arg.VarString)
	if err = opt.Parse(args); err != nil {
		if err == arg.ErrNoArgs {
			opt.PrintHelp()
			return cfg, false, nil
		}
		return cfg, false, err
	}
	if opt.GetBool("help") {
		opt.PrintHelp()
		return cfg, false, nil
	}

	cfg = config{
		input:       opt.GetPosString("INPUT"),
		output:      opt.GetPosString("OUTPUT"),
		listing:     opt.GetString("listing"),
		optimize:    !opt.GetBool("no-optimize"),
		passes:      opt.GetInt("passes"),
		symbols:     opt.GetBool("symbols"),
		disassemble: opt.GetBool("disassemble"),
		verbose:     opt.GetInt("verbose"),
	}
	if dirs := opt.GetString("include"); dirs != "" {
		cfg.includeDirs = filepath.SplitList(dirs)
	}
	return cfg, true, nil
}

func run(cfg config, stdout, stderr io.Writer) error {
	asm := assembler.New()
	asm.Optimize = cfg.optimize
	asm.MaxPasses = cfg.passes
	asm.IncludeDirs = cfg.includeDirs
	asm.Echo = stdout

	prog, err := asm.AssembleFile(cfg.input)
	if err != nil {
		return err
	}

	if cfg.symbols {
		var syms []symbol
		for _, name := range prog.LabelNames() {
			v, _ := prog.Label(name)
			syms = append(syms, symbol{Name: name, Address: fmt.Sprintf("0x%04X", v)})
		}
		pp.Fprintf(stderr, "Symbols: %v\n", syms)
	}

	if cfg.listing != "" {
		if err := os.WriteFile(cfg.listing, []byte(prog.Listing()), 0644); err != nil {
			return fmt.Errorf("failed to write listing: %w", err)
		}
	}

	switch {
	case cfg.output != "":
		if err := os.WriteFile(cfg.output, prog.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		glog.V(1).Infof("wrote %d words to %s", len(prog.Words), cfg.output)
	case cfg.disassemble:
		text, err := disassembler.DisassembleWords(prog.Words)
		if err != nil {
			return fmt.Errorf("disassembly error: %w", err)
		}
		fmt.Fprint(stdout, text)
	default:
		fmt.Fprintln(stdout, prog.Hex())
	}
	return nil
}

func main() {
	cfg, ok, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(2)
	}
	if !ok {
		return
	}

	flag.Set("logtostderr", "true")
	flag.Set("v", strconv.Itoa(cfg.verbose))
	flag.CommandLine.Parse(nil)
	defer glog.Flush()

	if err := run(cfg, os.Stdout, os.Stderr); err != nil {
		glog.Exitf("%s", err)
	}
}
