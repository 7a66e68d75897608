package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/golang/glog"
	"github.com/grimdork/climate/arg"

	"github.com/Urethramancer/dcpu16/disassembler"
)

type config struct {
	input   string
	output  string
	verbose int
}

// parseArgs reads the command line without the program name. ok is false
// when help was printed instead.
func parseArgs(args []string) (cfg config, ok bool, err error) {
	opt := arg.New("dis16")
	opt.SetDefaultHelp(true)
	opt.SetOption(arg.GroupDefault, "v", "verbose", "Log level.", 0, false, arg.VarInt, nil)
	opt.SetPositional("INPUT", "Big-endian memory image.", "", true, arg.VarString)
	opt.SetPositional("OUTPUT", "Source file to write. Standard output if omitted.", "", false, arg.VarString)
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
	return config{
		input:   opt.GetPosString("INPUT"),
		output:  opt.GetPosString("OUTPUT"),
		verbose: opt.GetInt("verbose"),
	}, true, nil
}

func run(cfg config, stdout io.Writer) error {
	// The image is used as-is, big-endian.
	code, err := os.ReadFile(cfg.input)
	if err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	text, err := disassembler.Disassemble(code)
	if err != nil {
		return fmt.Errorf("disassembly error: %w", err)
	}

	if cfg.output == "" {
		fmt.Fprint(stdout, text)
		return nil
	}
	if err := os.WriteFile(cfg.output, []byte(text), 0644); err != nil {
		return fmt.Errorf("error writing output file: %w", err)
	}
	fmt.Fprintf(stdout, "Disassembly written to %s\n", cfg.output)
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

	if err := run(cfg, os.Stdout); err != nil {
		glog.Exitf("%s", err)
	}
}
