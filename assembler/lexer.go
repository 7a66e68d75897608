package assembler

import (
	"fmt"
	"strings"
)

const delimiters = ";, \t\n\r\f\"\\{}"

// tokenizer splits source text into TokenLines. The first token of a line ends
// at whitespace, the rest at commas. Braces act as line breaks, with '}'
// standing for .end.
type tokenizer struct {
	src   string
	pos   int
	file  string
	line  int
	queue []*TokenLine
}

func newTokenizer(src, file string) *tokenizer {
	return &tokenizer{src: src + "\n", file: file, line: 1}
}

// token returns the next delimiter character or run of non-delimiters.
func (t *tokenizer) token() (string, bool) {
	if t.pos >= len(t.src) {
		return "", false
	}
	start := t.pos
	if strings.IndexByte(delimiters, t.src[t.pos]) >= 0 {
		t.pos++
		return t.src[start:t.pos], true
	}
	for t.pos < len(t.src) && strings.IndexByte(delimiters, t.src[t.pos]) < 0 {
		t.pos++
	}
	return t.src[start:t.pos], true
}

func isBlank(s string) bool {
	return s == " " || s == "\t" || s == "\r" || s == "\f"
}

func (t *tokenizer) enqueue(tokens []string, line int) {
	t.queue = append(t.queue, &TokenLine{Tokens: tokens, File: t.file, Line: line})
}

// fill queues at least one line unless the input is exhausted.
func (t *tokenizer) fill() error {
	if len(t.queue) > 0 {
		return nil
	}
	var (
		tokens    []string
		current   strings.Builder
		inComment bool
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			tokens = append(tokens, s)
		}
		current.Reset()
	}

	for {
		tok, ok := t.token()
		if !ok {
			return nil
		}
		lineNo := t.line
		if tok == "\n" {
			t.line++
		}
		if tok == "{" && !inComment {
			tok = "\n"
		}
		endCurly := tok == "}" && !inComment
		isLabel := isLabelToken(tok) && !inComment
		if tok == "\n" || endCurly || isLabel {
			inComment = false
			flush()
			if isLabel {
				if len(tokens) > 0 {
					return fmt.Errorf("%s:%d: %w: %s is not at the beginning of the line", t.file, lineNo, ErrLabel, tok)
				}
				tokens = append(tokens, tok)
			}
			if len(tokens) > 0 {
				t.enqueue(tokens, lineNo)
				tokens = nil
			}
			if endCurly {
				t.enqueue([]string{"}"}, lineNo)
			}
			if len(t.queue) > 0 {
				return nil
			}
			continue
		}
		if inComment {
			continue
		}
		if tok == "," || (isBlank(tok) && len(tokens) == 0 && strings.TrimSpace(current.String()) != "") {
			tokens = append(tokens, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		if tok == ";" {
			inComment = true
			continue
		}
		if tok == `"` {
			tok = t.quoted()
		}
		current.WriteString(tok)
	}
}

// quoted consumes the rest of a string literal whose opening quote was just
// read. Escapes are kept verbatim for the data encoders.
func (t *tokenizer) quoted() string {
	var b strings.Builder
	b.WriteByte('"')
	escaping := false
	for {
		sub, ok := t.token()
		if !ok {
			return b.String()
		}
		if sub == "\n" {
			t.line++
		}
		b.WriteString(sub)
		switch {
		case escaping:
			escaping = false
		case sub == `\`:
			escaping = true
		case sub == `"`:
			return b.String()
		}
	}
}

// next returns the next line. A '}' becomes .end unless an .elif or .else
// follows, in which case it only closes the previous branch.
func (t *tokenizer) next() (*TokenLine, bool, error) {
	if err := t.fill(); err != nil {
		return nil, false, err
	}
	if len(t.queue) == 0 {
		return nil, false, nil
	}
	l := t.queue[0]
	t.queue = t.queue[1:]
	if l.Tokens[0] != "}" {
		return l, true, nil
	}
	if err := t.fill(); err != nil {
		return nil, false, err
	}
	if len(t.queue) > 0 {
		if name, ok := isDirective(t.queue[0].Tokens[0]); ok {
			switch name {
			case "elif", "elsif", "elseif", "else":
				return t.next()
			}
		}
	}
	l.Tokens[0] = ".end"
	return l, true, nil
}
