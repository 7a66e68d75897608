package assembler

import (
	"fmt"

	"github.com/Urethramancer/dcpu16/expr"
)

// align pads with zero words up to the next multiple of a boundary.
type align struct {
	line     *TokenLine
	boundary *expr.Node
	last     *expr.Node
}

func (r *run) newAlign(l *TokenLine) (*align, error) {
	if err := wantTokens(l, 2); err != nil {
		return nil, err
	}
	b, err := r.build(l, l.Tokens[1])
	if err != nil {
		return nil, err
	}
	return &align{line: l, boundary: b, last: b}, nil
}

func (a *align) encode(r *run, pos int, finalize bool, old []uint16) ([]uint16, error) {
	s, err := a.boundary.Simplify(r.resolver(a.line, lookup{labels: true, finalize: finalize}))
	if err != nil {
		return nil, err
	}
	a.last = s
	if !s.IsNum {
		if finalize {
			return nil, fmt.Errorf("%w: %v", ErrNotLiteral, s)
		}
		return []uint16{}, nil
	}
	b := s.Num
	if b <= 0 {
		return nil, fmt.Errorf("%w: alignment %d", ErrOperand, b)
	}
	n := (b - pos%b) % b
	if finalize && old != nil {
		for n < len(old) {
			n += b
		}
	}
	return make([]uint16, n), nil
}

func (a *align) lastString() string {
	return joinTokens([]string{a.line.Tokens[0], a.last.String()})
}
