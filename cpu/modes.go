package cpu

import "strings"

// Operand codes (six bits).
const (
	// 0x00-0x07: register
	ModeRegister uint16 = 0x00
	// 0x08-0x0F: [register]
	ModeRegisterInd uint16 = 0x08
	// 0x10-0x17: [next word + register]
	ModeRegisterDisp uint16 = 0x10

	ModePop  uint16 = 0x18
	ModePeek uint16 = 0x19
	ModePush uint16 = 0x1A
	ModeSP   uint16 = 0x1B
	ModePC   uint16 = 0x1C
	ModeO    uint16 = 0x1D

	// [next word]
	ModeNextWordInd uint16 = 0x1E
	// next word, literal
	ModeNextWord uint16 = 0x1F
	// 0x20-0x3F: literal 0x00-0x1F
	ModeLiteral uint16 = 0x20
)

// MaxShortLiteral is the largest value that fits in the operand field itself.
const MaxShortLiteral = 0x1F

// General purpose register numbers.
const (
	A = iota
	B
	C
	X
	Y
	Z
	I
	J
)

// GeneralRegisters in encoding order.
var GeneralRegisters = []string{"A", "B", "C", "X", "Y", "Z", "I", "J"}

// Registers lists every register name the assembler treats as reserved.
var Registers = []string{"A", "B", "C", "X", "Y", "Z", "I", "J", "SP", "PC", "O"}

// fixedOperands maps operand spellings that need no evaluation.
var fixedOperands = map[string]uint16{
	"POP":    ModePop,
	"[SP++]": ModePop,
	"PEEK":   ModePeek,
	"[SP]":   ModePeek,
	"PUSH":   ModePush,
	"[--SP]": ModePush,
	"SP":     ModeSP,
	"PC":     ModePC,
	"O":      ModeO,
}

func init() {
	for i, r := range GeneralRegisters {
		fixedOperands[r] = ModeRegister + uint16(i)
		fixedOperands["["+r+"]"] = ModeRegisterInd + uint16(i)
	}
}

// FixedOperand returns the code for register and stack operand spellings.
// Whitespace and case are ignored.
func FixedOperand(s string) (uint16, bool) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	code, ok := fixedOperands[s]
	return code, ok
}

// IsRegister reports whether name is any register, ignoring case.
func IsRegister(name string) bool {
	_, ok := registerIndex(name, Registers)
	return ok
}

// GeneralRegister returns the encoding index of A-J.
func GeneralRegister(name string) (uint16, bool) {
	i, ok := registerIndex(name, GeneralRegisters)
	return uint16(i), ok
}

func registerIndex(name string, set []string) (int, bool) {
	for i, r := range set {
		if strings.EqualFold(r, name) {
			return i, true
		}
	}
	return 0, false
}

// HasNextWord reports whether an operand code consumes an extra word.
func HasNextWord(code uint16) bool {
	return (code >= ModeRegisterDisp && code < ModePop) || code == ModeNextWordInd || code == ModeNextWord
}
