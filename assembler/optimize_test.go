package assembler_test

import (
	"strings"
	"testing"

	"github.com/Urethramancer/dcpu16/assembler"
	"github.com/Urethramancer/dcpu16/disassembler"
)

func TestPeephole(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"mul", "MUL A, 4", "8807"},
		{"div", "DIV X, 0x100", "A038"},
		{"mod", "MOD B, 16", "BC19"},
		{"mul_not_power", "MUL A, 6", "9804"},
		{"mul_register", "MUL A, B", "0404"},
		{"add_negative", "ADD A, 0xFFFF", "8403"},
		{"sub_negative", "SUB A, 0xFFFE", "8802"},
		{"add_long", "ADD A, 0x1234", "7C02 1234"},
		{"jump_relative", ".fill 0x30\nSET PC, next\nSET A, 1\n:next", strings.Repeat("0000 ", 0x30) + "85C2 8401"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestPeepholeDisabled(t *testing.T) {
	asm := assembler.New()
	asm.Optimize = false
	p, err := asm.Assemble("MUL A, 4\nADD A, 0xFFFF\n.fill 0x30\nSET PC, next\n:next", "plain.dasm")
	if err != nil {
		t.Fatal(err)
	}
	want := "9004 7C02 FFFF " + strings.Repeat("0000 ", 0x30) + "7DC1 0035"
	if got := p.Hex(); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

// The optimizer may only ever shorten a line.
func TestPeepholeNeverLengthens(t *testing.T) {
	src := `
:start
SET PC, start
SET PC, end
MUL A, 8
DIV B, 3
MOD C, 0x8000
ADD A, 0xFFFF
SUB PC, 0xFFFF
ADD [A+1], 0x100
SUB B, label
:label
.fill 0x40
SET PC, start
:end
`
	plain := assembler.New()
	plain.Optimize = false
	p1, err := plain.Assemble(src, "plain.dasm")
	if err != nil {
		t.Fatal(err)
	}
	p2, err := assembler.New().Assemble(src, "opt.dasm")
	if err != nil {
		t.Fatal(err)
	}
	if len(p1.Lines) != len(p2.Lines) {
		t.Fatalf("line counts differ: %d and %d", len(p1.Lines), len(p2.Lines))
	}
	for i := range p1.Lines {
		if len(p2.Lines[i].Words) > len(p1.Lines[i].Words) {
			t.Errorf("%s grew from %d to %d words", p1.Lines[i].Source, len(p1.Lines[i].Words), len(p2.Lines[i].Words))
		}
	}
	if len(p2.Words) >= len(p1.Words) {
		t.Errorf("nothing was shortened: %d vs %d words", len(p2.Words), len(p1.Words))
	}
}

func TestPeepholeListing(t *testing.T) {
	p := assembleAndMatchHex(t, "listing", "MOD A, 8", "9C09")
	if got := p.Lines[0].Resolved; got != "AND A, 7" {
		t.Errorf("resolved as %q", got)
	}
	if got := p.Lines[0].Source; got != "MOD A, 8" {
		t.Errorf("source shown as %q", got)
	}
}

func TestPeepholeDecodes(t *testing.T) {
	p, err := assembler.New().Assemble("MUL A, 4\nMOD B, 16\nDIV X, 0x100\nADD A, 0xFFFF\nSUB C, 0xFFFE", "decode.dasm")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"SHL A, 2", "AND B, 15", "SHR X, 8", "SUB A, 1", "ADD C, 2"}
	for i, l := range p.Lines {
		mn, ops, used := disassembler.Decode(l.Words)
		got := mn + " " + strings.Join(ops, ", ")
		if got != want[i] || used != len(l.Words) {
			t.Errorf("%s: decoded %q (%d words), want %q", l.Source, got, used, want[i])
		}
	}
}
