package assembler

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/dcpu16/expr"
)

// dataItem is either a decoded string or an expression yielding one word.
type dataItem struct {
	words  []int
	// packed strings keep their words whole in .DP data.
	packed bool
	orig   *expr.Node
	last   *expr.Node
	raw    string
}

// data handles DAT, .DW, .ASCII and .DP. Packed data stores two byte-sized
// items per word, high byte first.
type data struct {
	line  *TokenLine
	pack  bool
	items []*dataItem
}

func (r *run) newData(l *TokenLine) (*data, error) {
	d := &data{line: l, pack: strings.EqualFold(l.Tokens[0], ".DP")}
	for _, tok := range l.Tokens[1:] {
		it := &dataItem{raw: tok}
		if strings.Contains(tok, `"`) {
			w, packed, err := r.decodeString(l, tok)
			if err != nil {
				return nil, err
			}
			it.words, it.packed = w, packed
		} else {
			n, err := r.build(l, tok)
			if err != nil {
				return nil, err
			}
			it.orig, it.last = n, n
		}
		d.items = append(d.items, it)
	}
	return d, nil
}

func (d *data) encode(r *run, finalize bool) ([]uint16, error) {
	var out []uint16
	high := -1
	// put adds one item value: a byte to pair up in .DP data, else a word.
	put := func(v int, whole bool) {
		switch {
		case !d.pack:
			out = append(out, uint16(v))
		case whole:
			if high >= 0 {
				out = append(out, uint16(high<<8))
				high = -1
			}
			out = append(out, uint16(v))
		case high < 0:
			high = v & 0xFF
		default:
			out = append(out, uint16(high<<8|v&0xFF))
			high = -1
		}
	}

	for _, it := range d.items {
		if it.orig == nil {
			for _, w := range it.words {
				put(w, it.packed)
			}
			continue
		}
		n, err := it.orig.Simplify(r.resolver(d.line, lookup{labels: true, finalize: finalize}))
		if err != nil {
			return nil, err
		}
		it.last = n
		switch {
		case n.IsNum:
			put(n.Num&0xFFFF, false)
		case finalize:
			return nil, fmt.Errorf("%w: %s => %v", ErrNotLiteral, it.raw, n)
		default:
			put(0, false)
		}
	}
	if high >= 0 {
		out = append(out, uint16(high<<8))
	}
	if out == nil {
		out = []uint16{}
	}
	return out, nil
}

func (d *data) lastString() string {
	parts := []string{d.line.Tokens[0]}
	for _, it := range d.items {
		if it.last != nil {
			parts = append(parts, it.last.String())
		} else {
			parts = append(parts, it.raw)
		}
	}
	return joinTokens(parts)
}
