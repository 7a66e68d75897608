package assembler

import "strings"

// Scope is the instantiation path of a line, one fragment per enclosing macro
// invocation, outermost first. Scopes are never modified in place.
type Scope []string

// Push returns a new scope with fragment appended.
func (s Scope) Push(fragment string) Scope {
	out := make(Scope, len(s), len(s)+1)
	copy(out, s)
	return append(out, fragment)
}

// Prefix renders the scope as a label qualifier, e.g. "A_1::B_2::".
func (s Scope) Prefix() string {
	if len(s) == 0 {
		return ""
	}
	return strings.Join(s, "::") + "::"
}

func (s Scope) String() string {
	return strings.Join(s, "::")
}

// prefixes lists the qualifiers to search, innermost first.
func (s Scope) prefixes() []string {
	out := make([]string, 0, len(s))
	for i := len(s); i > 0; i-- {
		out = append(out, s[:i].Prefix())
	}
	return out
}
