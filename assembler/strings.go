package assembler

import (
	"fmt"
	"strings"
)

var escapes = map[byte]int{
	'n': '\n',
	'r': '\r',
	't': '\t',
	'f': '\f',
	'0': 0,
	'b': '\b',
}

// stringFlags are the prefix letters of a string literal.
type stringFlags struct {
	pack, swap       bool
	zero, wordZero   bool
	bytePascal, word bool
	mask             int
}

func (r *run) stringFlags(l *TokenLine, prefix string) (stringFlags, error) {
	var f stringFlags
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case 'k':
			if f.pack && f.swap {
				return f, fmt.Errorf("%w: k and s are incompatible", ErrOperand)
			}
			f.pack, f.swap = true, false
		case 's':
			if f.pack && !f.swap {
				return f, fmt.Errorf("%w: k and s are incompatible", ErrOperand)
			}
			f.pack, f.swap = true, true
		case 'z':
			if f.wordZero {
				return f, fmt.Errorf("%w: z and x are incompatible", ErrOperand)
			}
			f.zero = true
		case 'x':
			if f.zero {
				return f, fmt.Errorf("%w: z and x are incompatible", ErrOperand)
			}
			f.wordZero = true
		case 'a':
			if f.word {
				return f, fmt.Errorf("%w: a and p are incompatible", ErrOperand)
			}
			f.bytePascal = true
		case 'p':
			if f.bytePascal {
				return f, fmt.Errorf("%w: a and p are incompatible", ErrOperand)
			}
			f.word = true
		case '<':
			end := strings.IndexByte(prefix[i:], '>')
			if end < 0 {
				return f, fmt.Errorf("%w: unclosed <mask> in %s", ErrOperand, prefix)
			}
			v, err := r.literal(l, prefix[i+1:i+end])
			if err != nil {
				return f, err
			}
			f.mask = v
			i += end
		case ' ', '\t':
		default:
			return f, fmt.Errorf("%w: unknown string flag %q", ErrOperand, prefix[i])
		}
	}
	return f, nil
}

// decodeString turns a quoted literal with optional prefix flags into words.
// packed reports whether the words already hold two characters each.
func (r *run) decodeString(l *TokenLine, code string) (words []int, packed bool, err error) {
	open := strings.IndexByte(code, '"')
	end := strings.LastIndexByte(code, '"')
	if open < 0 || end <= open {
		return nil, false, fmt.Errorf("%w: unterminated string %s", ErrOperand, code)
	}
	f, err := r.stringFlags(l, code[:open])
	if err != nil {
		return nil, false, err
	}

	var chars []int
	escaping := false
	for i := open + 1; i < end; i++ {
		c := int(code[i])
		switch {
		case escaping:
			escaping = false
			if e, ok := escapes[code[i]]; ok {
				c = e
			}
		case code[i] == '\\':
			escaping = true
			continue
		}
		chars = append(chars, c|f.mask)
	}
	return f.encode(chars), f.pack, nil
}

func (f stringFlags) encode(chars []int) []int {
	n := len(chars)
	if !f.pack {
		var out []int
		if f.bytePascal || f.word {
			out = append(out, n)
		}
		out = append(out, chars...)
		if f.zero || f.wordZero {
			out = append(out, 0)
		}
		return out
	}

	byteMarker := f.zero || f.bytePascal
	wordMarker := !byteMarker && (f.wordZero || f.word)
	content := n
	if byteMarker {
		content++
	}
	size := content/2 + content%2
	if wordMarker {
		size++
	}
	out := make([]int, size)

	start, from := 0, 0
	switch {
	case f.word:
		out[0] = n
		start = 1
	case f.bytePascal:
		first := 0
		if n > 0 {
			first = chars[0]
		}
		if f.swap {
			out[0] = first<<8 | n&0xFF
		} else {
			out[0] = n<<8 | first&0xFF
		}
		start, from = 1, 1
	}
	for i := from; i < n; i++ {
		idx := (i-from)/2 + start
		high := (i - from) % 2
		if (high == 1) == f.swap {
			out[idx] |= chars[i] << 8
		} else {
			out[idx] |= chars[i] & 0xFF
		}
	}
	for i := range out {
		out[i] &= 0xFFFF
	}
	return out
}
