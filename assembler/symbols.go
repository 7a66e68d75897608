package assembler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Urethramancer/dcpu16/cpu"
	"github.com/Urethramancer/dcpu16/expr"
)

// label marks a line index plus the .org offset active when it was defined.
type label struct {
	line   int
	offset int
}

// Symbols holds labels and constant definitions. Names are case-insensitive
// and both kinds are write-once; constants may be dropped and redefined.
type Symbols struct {
	labels map[string]label
	defs   map[string]int
}

// NewSymbols returns empty tables.
func NewSymbols() *Symbols {
	return &Symbols{
		labels: make(map[string]label),
		defs:   make(map[string]int),
	}
}

func isLocal(name string) bool {
	return strings.HasPrefix(name, "_")
}

// qualify builds the unscoped key of a label name written on a line whose
// global namespace is global.
func qualify(name, global string) string {
	if isLocal(name) {
		return strings.ToUpper(global + name)
	}
	return strings.ToUpper(name)
}

// AddLabel records name at the given line and offset. It returns the global
// namespace in effect after the definition.
func (s *Symbols) AddLabel(name string, scope Scope, global string, line, offset int) (string, error) {
	if name == "" || cpu.IsRegister(name) {
		return global, fmt.Errorf("%w: %q", ErrLabel, name)
	}
	key := strings.ToUpper(scope.Prefix()) + qualify(name, global)
	if _, ok := s.defs[key]; ok {
		return global, fmt.Errorf("%w: %s is a constant, undefine it first", ErrRedefined, name)
	}
	if _, ok := s.labels[key]; ok {
		return global, fmt.Errorf("%w: label %s", ErrRedefined, name)
	}
	s.labels[key] = label{line: line, offset: offset}
	if isLocal(name) {
		return global, nil
	}
	return strings.ToUpper(name) + "::", nil
}

// Define adds a constant.
func (s *Symbols) Define(name string, value int) error {
	if name == "" || cpu.IsRegister(name) {
		return fmt.Errorf("%w: cannot define %q", ErrLabel, name)
	}
	key := strings.ToUpper(name)
	if _, ok := s.defs[key]; ok {
		return fmt.Errorf("%w: %s, undefine it first", ErrRedefined, name)
	}
	if _, ok := s.labels[key]; ok {
		return fmt.Errorf("%w: %s is a label", ErrRedefined, name)
	}
	s.defs[key] = value
	return nil
}

// Undefine drops a constant. Unknown names are ignored.
func (s *Symbols) Undefine(name string) {
	delete(s.defs, strings.ToUpper(name))
}

// Constant returns the value of a definition.
func (s *Symbols) Constant(name string) (int, bool) {
	v, ok := s.defs[strings.ToUpper(name)]
	return v, ok
}

// find looks a label up from a line's point of view: the scope is widened
// outward one fragment at a time before trying the unscoped name.
func (s *Symbols) find(name, global string, scope Scope) (label, string, bool) {
	key := qualify(name, global)
	for _, p := range scope.prefixes() {
		full := strings.ToUpper(p) + key
		if l, ok := s.labels[full]; ok {
			return l, full, true
		}
	}
	l, ok := s.labels[key]
	return l, key, ok
}

// Defined reports whether name is a constant or a label visible from the line.
func (s *Symbols) Defined(name, global string, scope Scope) bool {
	if _, ok := s.Constant(name); ok {
		return true
	}
	_, _, ok := s.find(name, global, scope)
	return ok
}

var reChar = regexp.MustCompile(`^'.'$`)

// lookup controls which tables a resolver consults.
type lookup struct {
	constants bool
	labels    bool
	finalize  bool
}

// resolver evaluates symbols for expressions written on line l.
func (r *run) resolver(l *TokenLine, how lookup) expr.Resolver {
	return expr.ResolverFuncs{
		ResolveFunc: func(name string) (int, bool, error) {
			if cpu.IsRegister(name) {
				return 0, false, nil
			}
			if reChar.MatchString(name) {
				return int(name[1]), true, nil
			}
			if how.constants {
				if v, ok := r.sym.Constant(name); ok {
					return v, true, nil
				}
			}
			if !how.labels {
				return 0, false, nil
			}
			lb, key, ok := r.sym.find(name, l.Global, l.Scope)
			if ok {
				if pos, known := r.position(lb.line); known {
					return pos + lb.offset, true, nil
				}
			}
			if !how.finalize {
				return 0, false, nil
			}
			if !ok {
				return 0, false, fmt.Errorf("%w: %s", ErrUndefinedLabel, name)
			}
			return 0, false, fmt.Errorf("%w: %s refers to a line without a position", ErrUndefinedLabel, key)
		},
		CallFunc: func(fn string, arg *expr.Node) (int, bool, error) {
			if !strings.EqualFold(fn, "isdef") {
				return 0, false, nil
			}
			if arg == nil || !arg.IsSymbol() {
				return 0, false, fmt.Errorf("%w: isdef needs a name, got %v", ErrOperand, arg)
			}
			if r.sym.Defined(arg.Value, l.Global, l.Scope) {
				return 1, true, nil
			}
			return 0, true, nil
		},
	}
}

// constants evaluates with definitions only, as the preprocessor does.
func (r *run) constants(l *TokenLine) expr.Resolver {
	return r.resolver(l, lookup{constants: true})
}

// build parses src and substitutes constants.
func (r *run) build(l *TokenLine, src string) (*expr.Node, error) {
	n, err := expr.Parse(src)
	if err != nil {
		return nil, err
	}
	return n.Simplify(r.constants(l))
}

// literal evaluates a preprocessor expression, which must reduce completely.
func (r *run) literal(l *TokenLine, src string) (int, error) {
	n, err := r.build(l, src)
	if err != nil {
		return 0, err
	}
	if !n.IsNum {
		return 0, fmt.Errorf("%w: %s => %v", ErrNotLiteral, src, n)
	}
	return n.Num, nil
}
