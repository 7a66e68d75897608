package assembler

import "strings"

// TokenLine is one logical statement after tokenizing.
type TokenLine struct {
	Tokens []string
	// Global is the label namespace local labels on this line belong to.
	Global string
	Scope  Scope
	File   string
	Line   int
}

// Clone returns a copy that shares nothing mutable with l.
func (l *TokenLine) Clone() *TokenLine {
	c := *l
	c.Tokens = append([]string(nil), l.Tokens...)
	return &c
}

// String joins the tokens back into source form: "OP a, b".
func (l *TokenLine) String() string {
	return joinTokens(l.Tokens)
}

func joinTokens(tokens []string) string {
	switch len(tokens) {
	case 0:
		return ""
	case 1:
		return tokens[0]
	}
	return tokens[0] + " " + strings.Join(tokens[1:], ", ")
}

// isDirective reports whether a first token is a preprocessor directive,
// and returns its lower-case name.
func isDirective(token string) (string, bool) {
	if token == "" || (token[0] != '.' && token[0] != '#') {
		return "", false
	}
	return strings.ToLower(token[1:]), true
}

func isLabelToken(token string) bool {
	return token != "" && (token[0] == ':' || token[len(token)-1] == ':')
}

func isDataToken(token string) bool {
	switch strings.ToUpper(token) {
	case "DAT", ".DW", ".DP", ".ASCII":
		return true
	}
	return false
}
