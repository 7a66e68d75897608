package assembler

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/Urethramancer/dcpu16/expr"
)

// fill emits length copies of value. Once a finalizing pass has committed
// to a length it never shrinks.
type fill struct {
	line   *TokenLine
	length *expr.Node
	value  *expr.Node
	last   []*expr.Node
}

func (r *run) newFill(l *TokenLine) (*fill, error) {
	if len(l.Tokens) < 2 || len(l.Tokens) > 3 {
		return nil, fmt.Errorf("%w: .FILL length[, value]", ErrTokenCount)
	}
	f := &fill{line: l}
	var err error
	if f.length, err = r.build(l, l.Tokens[1]); err != nil {
		return nil, err
	}
	if len(l.Tokens) == 3 {
		if f.value, err = r.build(l, l.Tokens[2]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// evaluate simplifies n for this line. Unresolved values are zero until the
// layout is finalizing.
func (r *run) evaluate(l *TokenLine, n *expr.Node, finalize bool) (int, *expr.Node, error) {
	s, err := n.Simplify(r.resolver(l, lookup{labels: true, finalize: finalize}))
	if err != nil {
		return 0, nil, err
	}
	if s.IsNum {
		return s.Num, s, nil
	}
	if finalize {
		return 0, s, fmt.Errorf("%w: %v", ErrNotLiteral, s)
	}
	return 0, s, nil
}

func (f *fill) encode(r *run, finalize bool, old []uint16) ([]uint16, error) {
	n, last, err := r.evaluate(f.line, f.length, finalize)
	if err != nil {
		return nil, err
	}
	f.last = []*expr.Node{last}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative fill length %d", ErrOperand, n)
	}
	if finalize && old != nil && len(old) > n {
		glog.Warningf("%s:%d: .FILL would shrink from %d to %d words, keeping %d", f.line.File, f.line.Line, len(old), n, len(old))
		n = len(old)
	}

	v := 0
	if f.value != nil {
		if v, last, err = r.evaluate(f.line, f.value, finalize); err != nil {
			return nil, err
		}
		f.last = append(f.last, last)
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = uint16(v)
	}
	return out, nil
}

func (f *fill) lastString() string {
	parts := []string{f.line.Tokens[0]}
	for _, n := range f.last {
		parts = append(parts, n.String())
	}
	return joinTokens(parts)
}
