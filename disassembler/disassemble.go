package disassembler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"

	"github.com/Urethramancer/dcpu16/cpu"
)

// AddressSpace is the number of words the DCPU-16 can address.
const AddressSpace = 0x10000

// ErrTooLarge is returned for images that do not fit in memory.
var ErrTooLarge = errors.New("image larger than the address space")

// LabelType defines the context of a label.
type LabelType int

const (
	// JumpTarget is the destination of a write to PC.
	JumpTarget LabelType = iota
	// SubroutineEntry is a JSR target.
	SubroutineEntry
)

// Instruction is a single decoded instruction at a specific address.
type Instruction struct {
	Address  int
	Words    []uint16
	Mnemonic string
	Operands []string
	Size     int
	// IsCode marks instructions reachable from address 0.
	IsCode bool
}

// literal returns the value of operand i when it is a literal.
func (inst *Instruction) literal(i int) (uint16, bool) {
	op, a, b := cpu.Fields(inst.Words[0])
	codes := []uint16{a, b}
	if op == cpu.OPNonBasic {
		codes = codes[1:]
	}
	if i >= len(codes) {
		return 0, false
	}
	next := 1
	for _, c := range codes[:i] {
		if cpu.HasNextWord(c) {
			next++
		}
	}
	switch c := codes[i]; {
	case c >= cpu.ModeLiteral:
		return c - cpu.ModeLiteral, true
	case c == cpu.ModeNextWord && next < len(inst.Words):
		return inst.Words[next], true
	}
	return 0, false
}

// writesPC reports whether the instruction's first operand is PC.
func (inst *Instruction) writesPC() bool {
	op, a, _ := cpu.Fields(inst.Words[0])
	return op != cpu.OPNonBasic && op < cpu.OPIFE && a == cpu.ModePC
}

func (inst *Instruction) isConditional() bool {
	op, _, _ := cpu.Fields(inst.Words[0])
	return op >= cpu.OPIFE
}

// target returns the address control may transfer to, other than the next
// instruction.
func (inst *Instruction) target() (int, LabelType, bool) {
	if inst.Mnemonic == "JSR" {
		v, ok := inst.literal(0)
		return int(v), SubroutineEntry, ok
	}
	if !inst.writesPC() {
		return 0, JumpTarget, false
	}
	v, ok := inst.literal(1)
	if !ok {
		return 0, JumpTarget, false
	}
	after := inst.Address + inst.Size
	switch inst.Mnemonic {
	case "SET":
		return int(v), JumpTarget, true
	case "ADD":
		return (after + int(v)) % AddressSpace, JumpTarget, true
	case "SUB":
		return (after - int(v) + AddressSpace) % AddressSpace, JumpTarget, true
	}
	return 0, JumpTarget, false
}

// isTerminal checks if an instruction unconditionally stops linear execution.
func (inst *Instruction) isTerminal() bool {
	return inst.Mnemonic == "DAT" || inst.writesPC()
}

func labelName(addr int, t LabelType) string {
	if t == SubroutineEntry {
		return fmt.Sprintf("sub_%04X", addr)
	}
	return fmt.Sprintf("loc_%04X", addr)
}

// Disassemble converts a big-endian memory image into assembly source.
func Disassemble(code []byte) (string, error) {
	return DisassembleWords(cpu.BytesToWords(code))
}

// DisassembleWords traces the code reachable from address 0 and renders it,
// with everything else shown as data.
func DisassembleWords(words []uint16) (string, error) {
	if len(words) > AddressSpace {
		return "", fmt.Errorf("%w: %d words", ErrTooLarge, len(words))
	}
	if len(words) == 0 {
		return "", nil
	}

	// Stage 1: decode at every address.
	instructions := make([]*Instruction, len(words))
	for pc := range words {
		mn, ops, used := Decode(words[pc:])
		instructions[pc] = &Instruction{
			Address:  pc,
			Words:    words[pc : pc+used],
			Mnemonic: mn,
			Operands: ops,
			Size:     used,
		}
	}
	at := func(addr int) *Instruction {
		if addr < 0 || addr >= len(instructions) {
			return nil
		}
		return instructions[addr]
	}

	// Stage 2: follow control flow.
	labelTargets := make(map[int]LabelType)
	q := newQueue()
	q.push(0)
	for {
		addr, ok := q.pop()
		if !ok {
			break
		}
		inst := at(addr)
		if inst == nil || inst.IsCode {
			continue
		}
		inst.IsCode = true

		next := addr + inst.Size
		if !inst.isTerminal() {
			q.push(next)
		}
		if inst.isConditional() {
			if skipped := at(next); skipped != nil {
				q.push(next + skipped.Size)
			}
		}
		if t, kind, ok := inst.target(); ok && at(t) != nil {
			q.push(t)
			if kind == SubroutineEntry {
				labelTargets[t] = SubroutineEntry
			} else if _, exists := labelTargets[t]; !exists {
				labelTargets[t] = JumpTarget
			}
		}
	}

	// Stage 3: split into code and data, then render.
	type chunk struct {
		inst *Instruction
		data []uint16
		addr int
	}
	var chunks []chunk
	starts := make(map[int]bool)
	for pc := 0; pc < len(words); {
		starts[pc] = true
		if inst := instructions[pc]; inst.IsCode {
			chunks = append(chunks, chunk{inst: inst, addr: pc})
			pc += inst.Size
			continue
		}
		start := pc
		for pc < len(words) && !instructions[pc].IsCode {
			pc++
		}
		chunks = append(chunks, chunk{data: words[start:pc], addr: start})
	}
	// Targets hidden inside another instruction's extra words get no label.
	for addr := range labelTargets {
		if !starts[addr] {
			delete(labelTargets, addr)
		}
	}
	glog.V(2).Infof("disassembly: %d words, %d chunks, %d labels", len(words), len(chunks), len(labelTargets))

	var out strings.Builder
	stringCounter := 1
	for _, c := range chunks {
		if c.inst == nil {
			out.WriteString(formatData(c.data, &stringCounter))
			continue
		}
		if labelType, exists := labelTargets[c.addr]; exists {
			fmt.Fprintf(&out, ":%s\n", labelName(c.addr, labelType))
		}
		inst := c.inst
		ops := append([]string(nil), inst.Operands...)
		comment := ""
		if t, _, ok := inst.target(); ok {
			if labelType, exists := labelTargets[t]; exists {
				name := labelName(t, labelType)
				switch inst.Mnemonic {
				case "ADD", "SUB":
					comment = " ; " + name
				default:
					ops[len(ops)-1] = name
				}
			}
		}
		fmt.Fprintf(&out, "    %-8s %s%s\n", inst.Mnemonic, strings.Join(ops, ", "), comment)
	}
	return out.String(), nil
}

// addrQueue is a simple worklist queue for addresses to decode.
type addrQueue struct {
	items []int
	seen  map[int]bool
}

func newQueue() *addrQueue {
	return &addrQueue{seen: make(map[int]bool)}
}

func (q *addrQueue) push(addr int) {
	if !q.seen[addr] {
		q.items = append(q.items, addr)
		q.seen[addr] = true
	}
}

func (q *addrQueue) pop() (int, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	a := q.items[0]
	q.items = q.items[1:]
	return a, true
}
