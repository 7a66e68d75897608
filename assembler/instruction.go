package assembler

import (
	"fmt"
	"strings"

	"github.com/golang/glog"

	"github.com/Urethramancer/dcpu16/cpu"
)

// instruction encodes one opcode with its operands.
type instruction struct {
	line     *TokenLine
	mnemonic cpu.Mnemonic
	a, b     *operand
	// subbingFor links a peephole replacement to the instruction it replaces.
	subbingFor   *instruction
	substitution *instruction
}

func (r *run) newInstruction(l *TokenLine) (*instruction, error) {
	m, ok := cpu.Lookup(l.Tokens[0])
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstruction, l.Tokens[0])
	}
	if len(l.Tokens)-1 != m.Operands() {
		return nil, fmt.Errorf("%w: %s takes %d operand(s)", ErrTokenCount, m.Name, m.Operands())
	}
	in := &instruction{line: l, mnemonic: m}
	var err error
	if in.a, err = r.newOperand(l, l.Tokens[1]); err != nil {
		return nil, err
	}
	if len(l.Tokens) > 2 {
		if in.b, err = r.newOperand(l, l.Tokens[2]); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (in *instruction) String() string {
	s := in.mnemonic.Name + " " + in.a.String()
	if in.b != nil {
		s += ", " + in.b.String()
	}
	return s
}

func (in *instruction) lastString() string {
	if in.substitution != nil {
		return in.substitution.lastString()
	}
	s := in.mnemonic.Name + " " + in.a.lastString()
	if in.b != nil {
		s += ", " + in.b.lastString()
	}
	return s
}

// word builds the instruction word alone and returns the operand codes.
func (in *instruction) word(r *run, finalize bool) (uint16, uint16, uint16, error) {
	ac, err := in.a.code(r, in.line, finalize)
	if err != nil {
		return 0, 0, 0, err
	}
	if in.mnemonic.NonBasic {
		return cpu.Encode(cpu.OPNonBasic, in.mnemonic.Opcode, ac), ac, 0, nil
	}
	bc, err := in.b.code(r, in.line, finalize)
	if err != nil {
		return 0, 0, 0, err
	}
	return cpu.Encode(in.mnemonic.Opcode, ac, bc), ac, bc, nil
}

// encode returns the words for this line at position pos, substituting a
// shorter equivalent when the optimizer finds one.
func (in *instruction) encode(r *run, pos int, finalize bool) ([]uint16, error) {
	if r.Optimize {
		sub, err := in.substitute(r, pos, finalize)
		if err != nil {
			return nil, err
		}
		in.substitution = sub
		if sub != nil {
			words, err := sub.encode(r, pos, finalize)
			if err != nil {
				return nil, err
			}
			if in.subbingFor == nil {
				glog.V(1).Infof("%s:%d: using %s in place of %s: %s", in.line.File, in.line.Line, sub, in, cpu.HexWords(words))
			}
			return words, nil
		}
	}

	w, ac, bc, err := in.word(r, finalize)
	if err != nil {
		return nil, err
	}
	words := []uint16{w}
	if cpu.HasNextWord(ac) {
		x, err := in.a.extra(r, in.line, ac, finalize)
		if err != nil {
			return nil, err
		}
		words = append(words, x)
	}
	if in.b != nil && cpu.HasNextWord(bc) {
		x, err := in.b.extra(r, in.line, bc, finalize)
		if err != nil {
			return nil, err
		}
		words = append(words, x)
	}
	return words, nil
}

// size is the encoded length without substitution.
func (in *instruction) size(r *run, finalize bool) (int, error) {
	_, ac, bc, err := in.word(r, finalize)
	if err != nil {
		return 0, err
	}
	n := 1
	if cpu.HasNextWord(ac) {
		n++
	}
	if in.b != nil && cpu.HasNextWord(bc) {
		n++
	}
	return n, nil
}

func isMnemonic(in *instruction, name string) bool {
	return in != nil && strings.EqualFold(in.mnemonic.Name, name)
}
