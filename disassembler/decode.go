package disassembler

import (
	"fmt"
	"strconv"

	"github.com/Urethramancer/dcpu16/cpu"
)

var stackOperands = map[uint16]string{
	cpu.ModePop:  "POP",
	cpu.ModePeek: "PEEK",
	cpu.ModePush: "PUSH",
	cpu.ModeSP:   "SP",
	cpu.ModePC:   "PC",
	cpu.ModeO:    "O",
}

// Decode returns the mnemonic, operands and length in words of the
// instruction at words[0]. A word that does not start a complete instruction
// decodes as DAT.
func Decode(words []uint16) (string, []string, int) {
	if len(words) == 0 {
		return "", nil, 0
	}
	w := words[0]
	raw := func() (string, []string, int) {
		return "DAT", []string{hexWord(w)}, 1
	}

	next := 1
	operand := func(code uint16) (string, bool) {
		if !cpu.HasNextWord(code) {
			return operandText(code, 0), true
		}
		if next >= len(words) {
			return "", false
		}
		s := operandText(code, words[next])
		next++
		return s, true
	}

	op, a, b := cpu.Fields(w)
	if op == cpu.OPNonBasic {
		name := cpu.NonBasicName(a)
		if name == "" {
			return raw()
		}
		x, ok := operand(b)
		if !ok {
			return raw()
		}
		return name, []string{x}, next
	}

	x, ok := operand(a)
	if !ok {
		return raw()
	}
	y, ok := operand(b)
	if !ok {
		return raw()
	}
	return cpu.BasicName(op), []string{x, y}, next
}

// operandText renders an operand code, with next as its extra word.
func operandText(code, next uint16) string {
	switch {
	case code < cpu.ModeRegisterInd:
		return cpu.GeneralRegisters[code]
	case code < cpu.ModeRegisterDisp:
		return "[" + cpu.GeneralRegisters[code-cpu.ModeRegisterInd] + "]"
	case code < cpu.ModePop:
		return fmt.Sprintf("[%s+%s]", hexWord(next), cpu.GeneralRegisters[code-cpu.ModeRegisterDisp])
	case code == cpu.ModeNextWordInd:
		return "[" + hexWord(next) + "]"
	case code == cpu.ModeNextWord:
		return hexWord(next)
	case code >= cpu.ModeLiteral:
		return strconv.Itoa(int(code - cpu.ModeLiteral))
	}
	return stackOperands[code]
}

func hexWord(w uint16) string {
	return fmt.Sprintf("0x%04X", w)
}
