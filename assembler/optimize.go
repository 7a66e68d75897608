package assembler

import (
	"fmt"
	"strconv"

	"github.com/Urethramancer/dcpu16/cpu"
	"github.com/Urethramancer/dcpu16/expr"
)

// Instruction words the peephole rules look for.
const (
	setPCNextWord = 0x7DC1 // SET PC, next word
	addNextWord   = 0x7C02 // ADD x, next word
	subNextWord   = 0x7C03 // SUB x, next word
	nextWordMask  = 0xFC0F
)

// log2 returns k when v == 1<<k for k in 0..15.
func log2(v int) (int, bool) {
	for k := 0; k <= 15; k++ {
		if 1<<k == v {
			return k, true
		}
	}
	return 0, false
}

func parenthesized(n *expr.Node) *expr.Node {
	c := n.Clone()
	c.Parenthesized = true
	return c
}

// rewrite builds a replacement with a new mnemonic and second operand.
func (in *instruction) rewrite(name string, b *operand) *instruction {
	m, _ := cpu.Lookup(name)
	return &instruction{
		line:       in.line,
		mnemonic:   m,
		a:          derived(in.a.raw, in.a.orig),
		b:          b,
		subbingFor: in,
	}
}

// substitute applies the peephole rules. Substitutions chain, and the final
// replacement is only used if it fits in a single word.
func (in *instruction) substitute(r *run, pos int, finalize bool) (*instruction, error) {
	if in.mnemonic.NonBasic {
		return nil, nil
	}
	w, _, _, err := in.word(r, finalize)
	if err != nil {
		return nil, err
	}

	var sub *instruction
	switch {
	case w == setPCNextWord:
		rel := &expr.Node{Left: parenthesized(in.b.orig), Op: "-", Right: expr.Number(pos + 1)}
		sub = in.rewrite("ADD", derived(fmt.Sprintf("(%s)-%d", in.b.raw, pos+1), rel))

	case w&nextWordMask == addNextWord && !isMnemonic(in.subbingFor, "SUB"):
		neg := &expr.Node{Op: "-", Right: parenthesized(in.b.orig)}
		sub = in.rewrite("SUB", derived("-("+in.b.raw+")", neg))

	case w&nextWordMask == subNextWord && !isMnemonic(in.subbingFor, "ADD"):
		neg := &expr.Node{Op: "-", Right: parenthesized(in.b.orig)}
		sub = in.rewrite("ADD", derived("-("+in.b.raw+")", neg))

	case in.mnemonic.Opcode == cpu.OPMUL || in.mnemonic.Opcode == cpu.OPDIV || in.mnemonic.Opcode == cpu.OPMOD:
		v, ok, err := in.b.constant(r, in.line, finalize)
		if err != nil || !ok {
			return nil, err
		}
		k, ok := log2(v)
		if !ok {
			return nil, nil
		}
		switch in.mnemonic.Opcode {
		case cpu.OPMUL:
			sub = in.rewrite("SHL", derived(strconv.Itoa(k), expr.Number(k)))
		case cpu.OPDIV:
			sub = in.rewrite("SHR", derived(strconv.Itoa(k), expr.Number(k)))
		default:
			sub = in.rewrite("AND", derived(strconv.Itoa(v-1), expr.Number(v-1)))
		}

	default:
		return nil, nil
	}

	next, err := sub.substitute(r, pos, finalize)
	if err != nil {
		return nil, err
	}
	if next != nil {
		sub = next
	}
	n, err := sub.size(r, finalize)
	if err != nil {
		return nil, err
	}
	if n != 1 {
		return nil, nil
	}
	return sub, nil
}
