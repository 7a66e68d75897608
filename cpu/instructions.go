package cpu

import "strings"

// Basic opcodes live in the low four bits of the instruction word.
const (
	// OPNonBasic marks a non-basic instruction; the real opcode is in the a field.
	OPNonBasic = 0x0
	OPSET      = 0x1
	OPADD      = 0x2
	OPSUB      = 0x3
	OPMUL      = 0x4
	OPDIV      = 0x5
	OPMOD      = 0x6
	OPSHL      = 0x7
	OPSHR      = 0x8
	OPAND      = 0x9
	OPBOR      = 0xA
	OPXOR      = 0xB
	OPIFE      = 0xC
	OPIFN      = 0xD
	OPIFG      = 0xE
	OPIFB      = 0xF
)

// Non-basic opcodes, stored in bits 4-9 when the basic opcode is zero.
const (
	// OPJSR pushes the address of the next instruction and jumps.
	OPJSR = 0x01
)

// Field layout of an instruction word: bbbbbbaaaaaaoooo.
const (
	OpcodeMask = 0x000F
	AShift     = 4
	BShift     = 10
	FieldMask  = 0x3F
)

var basicOpcodes = map[string]uint16{
	"SET": OPSET,
	"ADD": OPADD,
	"SUB": OPSUB,
	"MUL": OPMUL,
	"DIV": OPDIV,
	"MOD": OPMOD,
	"SHL": OPSHL,
	"SHR": OPSHR,
	"AND": OPAND,
	"BOR": OPBOR,
	"XOR": OPXOR,
	"IFE": OPIFE,
	"IFN": OPIFN,
	"IFG": OPIFG,
	"IFB": OPIFB,
}

var nonBasicOpcodes = map[string]uint16{
	"JSR": OPJSR,
}

// Mnemonic describes an instruction name after lookup.
type Mnemonic struct {
	Name     string
	Opcode   uint16
	NonBasic bool
}

// Operands returns how many operands the instruction takes.
func (m Mnemonic) Operands() int {
	if m.NonBasic {
		return 1
	}
	return 2
}

// Lookup finds a mnemonic, ignoring case.
func Lookup(name string) (Mnemonic, bool) {
	up := strings.ToUpper(name)
	if op, ok := basicOpcodes[up]; ok {
		return Mnemonic{Name: up, Opcode: op}, true
	}
	if op, ok := nonBasicOpcodes[up]; ok {
		return Mnemonic{Name: up, Opcode: op, NonBasic: true}, true
	}
	return Mnemonic{}, false
}

// BasicName returns the mnemonic for a basic opcode.
func BasicName(op uint16) string {
	for name, v := range basicOpcodes {
		if v == op {
			return name
		}
	}
	return ""
}

// NonBasicName returns the mnemonic for a non-basic opcode.
func NonBasicName(op uint16) string {
	for name, v := range nonBasicOpcodes {
		if v == op {
			return name
		}
	}
	return ""
}

// Encode builds an instruction word. For non-basic instructions a is the
// non-basic opcode and b is the operand.
func Encode(op, a, b uint16) uint16 {
	return op&OpcodeMask | (a&FieldMask)<<AShift | (b&FieldMask)<<BShift
}

// Fields splits an instruction word.
func Fields(word uint16) (op, a, b uint16) {
	return word & OpcodeMask, (word >> AShift) & FieldMask, (word >> BShift) & FieldMask
}
