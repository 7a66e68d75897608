package assembler

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// macro is a registered template. Its body is the capture list of the frame
// that was open while the definition was read, closing .end included.
type macro struct {
	name   string
	params []string
	body   *frame
	count  int
}

// macroParts splits "name(a", "b", "c)" into the name and its arguments.
func macroParts(tokens []string) (string, []string, error) {
	if len(tokens) == 0 {
		return "", nil, fmt.Errorf("%w: not enough tokens", ErrMacroSyntax)
	}
	first := tokens[0]
	open := strings.IndexByte(first, '(')
	if open <= 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrMacroSyntax, joinTokens(tokens))
	}
	name := strings.TrimSpace(first[:open])
	last := tokens[len(tokens)-1]
	if !strings.HasSuffix(last, ")") {
		return "", nil, fmt.Errorf("%w: missing ')' in %s", ErrMacroSyntax, joinTokens(tokens))
	}

	var args []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			args = append(args, s)
		}
	}
	if len(tokens) == 1 {
		add(first[open+1 : len(first)-1])
		return name, args, nil
	}
	add(first[open+1:])
	for _, tok := range tokens[1 : len(tokens)-1] {
		add(tok)
	}
	add(last[:len(last)-1])
	return name, args, nil
}

// expand instantiates the macro with args. Tokens equal to a parameter are
// replaced by the argument; other whole-word occurrences by "(argument)".
func (m *macro) expand(args []string, outer Scope) (*frame, error) {
	if len(args) != len(m.params) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrMacroSyntax, m.name, len(m.params), len(args))
	}
	m.count++
	scope := outer.Push(strings.ToUpper(m.name) + "_" + strconv.Itoa(m.count))

	words := make([]*regexp.Regexp, len(m.params))
	for i, p := range m.params {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(p) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %q: %v", ErrMacroSyntax, p, err)
		}
		words[i] = re
	}

	f := &frame{kind: frameMacro, active: true, replaying: true}
	for _, src := range m.body.lines {
		l := src.Clone()
		l.Scope = scope
		for i, tok := range l.Tokens {
			if j := slices.IndexFunc(m.params, func(p string) bool { return strings.EqualFold(tok, p) }); j >= 0 {
				l.Tokens[i] = args[j]
				continue
			}
			for j, re := range words {
				tok = re.ReplaceAllLiteralString(tok, "("+args[j]+")")
			}
			l.Tokens[i] = tok
		}
		f.lines = append(f.lines, l)
	}
	return f, nil
}
