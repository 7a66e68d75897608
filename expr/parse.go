package expr

import (
	"fmt"
	"strings"
)

// Precedence lists operator groups from the tightest binding to the loosest.
// Unary spellings carry a leading '@'.
type Precedence [][]string

// DefaultPrecedence follows the 0xSCA ordering: equality binds tighter than
// the relational operators, and the logical operators come as &&, ||, ^^.
var DefaultPrecedence = Precedence{
	{"@!", "@+", "@~", "@-"},
	{"*", "/", "%"},
	{"+", "-"},
	{"<<", ">>"},
	{"==", "!=", "<>"},
	{"<=", "<", ">=", ">"},
	{"&"},
	{"^"},
	{"|"},
	{"&&"},
	{"||"},
	{"^^"},
	{"=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>="},
}

const unaryMark = "@"

// ParseError reports a malformed expression. Offset is relative to the
// complete expression handed to Parse, even for errors found in nested groups.
type ParseError struct {
	Expr   string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at character %d of %q", e.Msg, e.Offset, e.Expr)
}

// Parser turns strings into expression trees using one precedence table.
type Parser struct {
	groups  Precedence
	groupOf map[string]int
	opChars map[byte]bool
}

// NewParser builds a parser for the given precedence table.
func NewParser(groups Precedence) *Parser {
	p := &Parser{
		groups:  groups,
		groupOf: make(map[string]int),
		opChars: map[byte]bool{'(': true, ')': true, '[': true, ']': true},
	}
	for g, ops := range groups {
		for _, op := range ops {
			p.groupOf[op] = g
			for i := 0; i < len(op); i++ {
				if op[i] != unaryMark[0] {
					p.opChars[op[i]] = true
				}
			}
		}
	}
	return p
}

var defaultParser = NewParser(DefaultPrecedence)

// Parse parses s with DefaultPrecedence.
func Parse(s string) (*Node, error) {
	return defaultParser.Parse(s)
}

// Parse parses s into a tree.
func (p *Parser) Parse(s string) (*Node, error) {
	return p.parse(s, 0, len(s))
}

// Group returns the precedence group index of a binary operator, or -1.
func (p *Parser) Group(op string) int {
	g, ok := p.groupOf[op]
	if !ok {
		return -1
	}
	return g
}

type item struct {
	start, end int
	op         string
	unary      bool
	bracket    bool
}

func (p *Parser) isOp(op string) bool {
	_, bin := p.groupOf[op]
	_, un := p.groupOf[unaryMark+op]
	return bin || un
}

func (p *Parser) inGroup(g int, op string) bool {
	og, ok := p.groupOf[op]
	return ok && og == g
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// scan finds the top-level operators and bracket groups of src[lo:hi].
func (p *Parser) scan(src string, lo, hi int) ([]item, error) {
	var items []item
	lastWasOp := true
	for i := lo; i < hi; i++ {
		c := src[i]
		if isSpace(c) {
			continue
		}
		if !p.opChars[c] {
			lastWasOp = false
			continue
		}
		if c == '(' || c == '[' {
			end, err := matchBracket(src, i, hi)
			if err != nil {
				return nil, err
			}
			items = append(items, item{start: i, end: end, bracket: true})
			i = end - 1
			lastWasOp = false
			continue
		}

		j := i + 1
		for j < hi && p.opChars[src[j]] && src[j] != '(' && src[j] != '[' {
			j++
		}
		for j > i && !p.isOp(src[i:j]) {
			j--
		}
		if j == i {
			return nil, &ParseError{Expr: src, Offset: i, Msg: fmt.Sprintf("unknown operator %q", string(c))}
		}
		items = append(items, item{start: i, end: j, op: src[i:j], unary: lastWasOp})
		lastWasOp = true
		i = j - 1
	}
	return items, nil
}

// matchBracket returns the index just past the bracket closing the one at start.
func matchBracket(src string, start, hi int) (int, error) {
	depth := 0
	for i := start; i < hi; i++ {
		switch src[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, &ParseError{Expr: src, Offset: start, Msg: "unclosed bracket"}
}

func (p *Parser) parse(src string, lo, hi int) (*Node, error) {
	items, err := p.scan(src, lo, hi)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		v := strings.TrimSpace(src[lo:hi])
		if v == "" {
			return nil, &ParseError{Expr: src, Offset: lo, Msg: "missing operand"}
		}
		return Leaf(v), nil
	}

	if b := items[0]; len(items) == 1 && b.bracket && strings.TrimSpace(src[b.end:hi]) == "" {
		inner, err := p.parse(src, b.start+1, b.end-1)
		if err != nil {
			return nil, err
		}
		inner.Parenthesized = true
		if strings.TrimSpace(src[lo:b.start]) == "" {
			return inner, nil
		}
		left, err := p.parse(src, lo, b.start)
		if err != nil {
			return nil, err
		}
		op := CallOp
		if src[b.start] == '[' {
			op = "+"
		}
		return &Node{Left: left, Op: op, Right: inner}, nil
	}

	for g := len(p.groups) - 1; g >= 0; g-- {
		for k := len(items) - 1; k >= 0; k-- {
			it := items[k]
			if it.bracket || it.unary || !p.inGroup(g, it.op) {
				continue
			}
			left, err := p.parse(src, lo, it.start)
			if err != nil {
				return nil, err
			}
			right, err := p.parse(src, it.end, hi)
			if err != nil {
				return nil, err
			}
			return &Node{Left: left, Op: it.op, Right: right}, nil
		}

		first := items[0]
		if first.bracket || !first.unary || !p.inGroup(g, unaryMark+first.op) {
			continue
		}
		right, err := p.parse(src, first.end, hi)
		if err != nil {
			return nil, err
		}
		// A leading '+' adds nothing, so it collapses into its operand.
		if first.op == "+" {
			return right, nil
		}
		return &Node{Op: first.op, Right: right}, nil
	}

	at := items[0].start
	for _, it := range items {
		if !it.bracket {
			at = it.start
			break
		}
	}
	return nil, &ParseError{Expr: src, Offset: at, Msg: "malformed expression"}
}
