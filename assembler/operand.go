package assembler

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/dcpu16/cpu"
	"github.com/Urethramancer/dcpu16/expr"
)

// operand is one argument of an instruction. orig keeps the tree as built
// from the source, with constants already substituted; every pass simplifies
// a fresh copy of it.
type operand struct {
	raw  string
	orig *expr.Node
	last *expr.Node
	// forceExtra latches the next-word form once a finalizing pass needed it.
	forceExtra bool
}

func (r *run) newOperand(l *TokenLine, raw string) (*operand, error) {
	o := &operand{raw: strings.TrimSpace(raw)}
	if _, ok := cpu.FixedOperand(o.raw); ok {
		return o, nil
	}
	n, err := r.build(l, o.raw)
	if err != nil {
		return nil, err
	}
	o.orig = n
	o.last = n
	return o, nil
}

// derived makes an operand from a rewritten tree, as the optimizer does.
func derived(raw string, n *expr.Node) *operand {
	return &operand{raw: raw, orig: n, last: n}
}

func (o *operand) String() string {
	return o.raw
}

// lastString shows the operand as it was last simplified.
func (o *operand) lastString() string {
	if o.last == nil {
		return o.raw
	}
	return o.last.String()
}

func (o *operand) literalize(r *run, l *TokenLine, finalize bool) (*expr.Node, error) {
	n, err := o.orig.Simplify(r.resolver(l, lookup{labels: true, finalize: finalize}))
	if err != nil {
		return nil, err
	}
	o.last = n
	return n, nil
}

// firstRegister returns the first register named anywhere in n.
func firstRegister(n *expr.Node) string {
	for _, name := range n.Labels() {
		if cpu.IsRegister(name) {
			return strings.ToUpper(name)
		}
	}
	return ""
}

// code classifies the operand into its six-bit field.
func (o *operand) code(r *run, l *TokenLine, finalize bool) (uint16, error) {
	if c, ok := cpu.FixedOperand(o.raw); ok {
		return c, nil
	}
	n, err := o.literalize(r, l, finalize)
	if err != nil {
		return 0, err
	}
	reg := firstRegister(n)
	bracketed := n.Parenthesized && strings.HasPrefix(o.raw, "[")

	if bracketed {
		if reg == "" {
			return cpu.ModeNextWordInd, nil
		}
		idx, ok := cpu.GeneralRegister(reg)
		if !ok {
			return 0, fmt.Errorf("%w: cannot use %s in %s", ErrRegisterForm, reg, o.raw)
		}
		if n.IsSymbol() {
			return cpu.ModeRegisterInd + idx, nil
		}
		return cpu.ModeRegisterDisp + idx, nil
	}

	if reg != "" {
		if n.IsSymbol() && strings.EqualFold(n.Value, reg) {
			c, _ := cpu.FixedOperand(reg)
			return c, nil
		}
		return 0, fmt.Errorf("%w: cannot use a register this way: %s => %v", ErrOperand, o.raw, n)
	}
	if o.forceExtra {
		return cpu.ModeNextWord, nil
	}
	if n.IsNum && n.Num&0xFFFF <= cpu.MaxShortLiteral {
		return cpu.ModeLiteral + uint16(n.Num&0xFFFF), nil
	}
	if finalize {
		o.forceExtra = true
	}
	return cpu.ModeNextWord, nil
}

// extra computes the next word for codes that need one.
func (o *operand) extra(r *run, l *TokenLine, code uint16, finalize bool) (uint16, error) {
	n := o.last
	switch {
	case code >= cpu.ModeRegisterDisp && code < cpu.ModePop:
		return o.displacement(n, finalize)
	case code == cpu.ModeNextWordInd || code == cpu.ModeNextWord:
		if n.IsNum {
			return uint16(n.Num), nil
		}
		if finalize {
			return 0, fmt.Errorf("%w: %s => %v", ErrNotLiteral, o.raw, n)
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: operand code %02X has no extra word", ErrOperand, code)
}

// displacement pulls the literal out of [register+literal] by rearranging the
// expression until the register is a direct operand of a top-level '+'.
func (o *operand) displacement(n *expr.Node, finalize bool) (uint16, error) {
	var regs []string
	for _, name := range n.Labels() {
		if _, ok := cpu.GeneralRegister(name); ok {
			regs = append(regs, name)
		}
	}
	if len(regs) != 1 {
		return 0, fmt.Errorf("%w: %d registers in %s => %v", ErrRegisterForm, len(regs), o.raw, n)
	}
	top, ok := n.MassageIntoCommutable().BringToTop(regs[0])
	if !ok || top.Op != "+" || top.Left == nil {
		return 0, fmt.Errorf("%w: %s => %v", ErrRegisterForm, o.raw, n)
	}
	other := top.Right
	if !top.Left.IsSymbol() || !strings.EqualFold(top.Left.Value, regs[0]) {
		other = top.Left
	}
	if other.IsNum {
		return uint16(other.Num), nil
	}
	if finalize {
		return 0, fmt.Errorf("%w: %v in %s", ErrNotLiteral, other, o.raw)
	}
	return 0, nil
}

// constant reports the value of a literal operand, if it is one.
func (o *operand) constant(r *run, l *TokenLine, finalize bool) (int, bool, error) {
	c, err := o.code(r, l, finalize)
	if err != nil {
		return 0, false, err
	}
	switch {
	case c >= cpu.ModeLiteral:
		return int(c - cpu.ModeLiteral), true, nil
	case c == cpu.ModeNextWord:
		if o.last != nil && o.last.IsNum {
			return o.last.Num & 0xFFFF, true, nil
		}
	}
	return 0, false, nil
}
