package main

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseArgs(t *testing.T) {
	cfg, ok, err := parseArgs([]string{"prog.dasm"})
	if err != nil || !ok {
		t.Fatalf("parseArgs: %v, %v", ok, err)
	}
	if cfg.input != "prog.dasm" || cfg.output != "" || !cfg.optimize {
		t.Errorf("got %+v", cfg)
	}

	cfg, ok, err = parseArgs([]string{"-n", "prog.dasm", "prog.bin"})
	if err != nil || !ok {
		t.Fatalf("parseArgs: %v, %v", ok, err)
	}
	if cfg.input != "prog.dasm" || cfg.output != "prog.bin" || cfg.optimize {
		t.Errorf("got %+v", cfg)
	}
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "prog.dasm")
	if err := os.WriteFile(name, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return name
}

const program = "SET A, 0x30\n:loop\nSET PC, loop\n"

func TestRunHex(t *testing.T) {
	var out, errOut bytes.Buffer
	cfg := config{input: writeSource(t, program), optimize: true, passes: 8}
	if err := run(cfg, &out, &errOut); err != nil {
		t.Fatal(err)
	}
	if out.String() != "7C01 0030 89C1\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestRunOutputFile(t *testing.T) {
	var out, errOut bytes.Buffer
	input := writeSource(t, program)
	cfg := config{
		input:    input,
		output:   filepath.Join(filepath.Dir(input), "prog.bin"),
		listing:  filepath.Join(filepath.Dir(input), "prog.lst"),
		optimize: true,
		passes:   8,
		symbols:  true,
	}
	if err := run(cfg, &out, &errOut); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(cfg.output)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte{0x7C, 0x01, 0x00, 0x30, 0x89, 0xC1}) {
		t.Errorf("image % X", data)
	}
	listing, err := os.ReadFile(cfg.listing)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(listing), "SET PC, loop") {
		t.Errorf("listing:\n%s", listing)
	}
	if !strings.Contains(errOut.String(), "LOOP") || !strings.Contains(errOut.String(), "0x0002") {
		t.Errorf("symbols: %q", errOut.String())
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunDisassemble(t *testing.T) {
	var out, errOut bytes.Buffer
	cfg := config{input: writeSource(t, program), optimize: true, passes: 8, disassemble: true}
	if err := run(cfg, &out, &errOut); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "SET      PC, loc_0002") {
		t.Errorf("got:\n%s", out.String())
	}
}

func TestRunMissingInput(t *testing.T) {
	var out, errOut bytes.Buffer
	cfg := config{input: filepath.Join(t.TempDir(), "missing.dasm"), passes: 8}
	if err := run(cfg, &out, &errOut); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v", err)
	}
}
