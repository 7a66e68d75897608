package cpu_test

import (
	"testing"

	"github.com/Urethramancer/dcpu16/cpu"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		op, a, b uint16
		want     uint16
	}{
		{"SET_A_next", cpu.OPSET, cpu.ModeRegister + cpu.A, cpu.ModeNextWord, 0x7C01},
		{"JSR_0", cpu.OPNonBasic, cpu.OPJSR, cpu.ModeLiteral, 0x8010},
		{"ADD_PC_lit", cpu.OPADD, cpu.ModePC, cpu.ModeLiteral + 1, 0x85C2},
		{"IFB_J_I", cpu.OPIFB, cpu.J, cpu.I, 0x187F},
	}
	for _, tc := range tests {
		got := cpu.Encode(tc.op, tc.a, tc.b)
		if got != tc.want {
			t.Errorf("[%s] got %04X, want %04X", tc.name, got, tc.want)
		}
		op, a, b := cpu.Fields(got)
		if op != tc.op || a != tc.a || b != tc.b {
			t.Errorf("[%s] fields %X %X %X", tc.name, op, a, b)
		}
	}
}

func TestLookup(t *testing.T) {
	m, ok := cpu.Lookup("ifb")
	if !ok || m.Opcode != cpu.OPIFB || m.NonBasic || m.Operands() != 2 {
		t.Errorf("ifb: %+v %v", m, ok)
	}
	m, ok = cpu.Lookup("Jsr")
	if !ok || !m.NonBasic || m.Operands() != 1 {
		t.Errorf("jsr: %+v %v", m, ok)
	}
	if _, ok := cpu.Lookup("MOVE"); ok {
		t.Error("MOVE should not be an instruction")
	}
	if cpu.BasicName(cpu.OPBOR) != "BOR" || cpu.NonBasicName(cpu.OPJSR) != "JSR" {
		t.Error("reverse lookup failed")
	}
}

func TestFixedOperand(t *testing.T) {
	tests := []struct {
		src  string
		want uint16
	}{
		{"a", 0x00},
		{"J", 0x07},
		{"[ b ]", 0x09},
		{"[i]", 0x0E},
		{"pop", 0x18},
		{"[SP++]", 0x18},
		{"peek", 0x19},
		{"[sp]", 0x19},
		{"PUSH", 0x1A},
		{"[--SP]", 0x1A},
		{"sp", 0x1B},
		{"PC", 0x1C},
		{"o", 0x1D},
	}
	for _, tc := range tests {
		got, ok := cpu.FixedOperand(tc.src)
		if !ok || got != tc.want {
			t.Errorf("%q: got %02X %v, want %02X", tc.src, got, ok, tc.want)
		}
	}
	if _, ok := cpu.FixedOperand("[A+1]"); ok {
		t.Error("[A+1] needs evaluation")
	}
}

func TestNextWord(t *testing.T) {
	for code := uint16(0); code < 0x40; code++ {
		want := (code >= 0x10 && code <= 0x17) || code == 0x1E || code == 0x1F
		if cpu.HasNextWord(code) != want {
			t.Errorf("code %02X", code)
		}
	}
}

func TestWords(t *testing.T) {
	b := cpu.WordsToBytes([]uint16{0x7C01, 0x0030})
	if len(b) != 4 || b[0] != 0x7C || b[1] != 0x01 || b[3] != 0x30 {
		t.Errorf("% X", b)
	}
	w := cpu.BytesToWords([]byte{0x12, 0x34, 0x56})
	if len(w) != 2 || w[0] != 0x1234 || w[1] != 0x5600 {
		t.Errorf("%04X", w)
	}
	odd := []byte{0xAB, 0xCD, 0xEF, 0x99}
	if w := cpu.BytesToWords(odd[:3]); len(w) != 2 || w[1] != 0xEF00 || odd[3] != 0x99 {
		t.Errorf("odd image: %04X, backing byte %02X", w, odd[3])
	}
	if s := cpu.HexWords([]uint16{0x7c01, 0x30}); s != "7C01 0030" {
		t.Errorf("%q", s)
	}
}
