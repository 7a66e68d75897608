package expr

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrDivideByZero is returned when a constant division or modulo has a zero divisor.
var ErrDivideByZero = errors.New("division by zero")

// Resolver supplies values for symbolic leaves during simplification.
// Returning ok=false leaves the symbol unresolved, which is legal.
type Resolver interface {
	Resolve(name string) (value int, ok bool, err error)
	Call(fn string, arg *Node) (value int, ok bool, err error)
}

// ResolverFuncs adapts plain functions to a Resolver. Nil fields resolve nothing.
type ResolverFuncs struct {
	ResolveFunc func(name string) (int, bool, error)
	CallFunc    func(fn string, arg *Node) (int, bool, error)
}

// Resolve implements Resolver.
func (r ResolverFuncs) Resolve(name string) (int, bool, error) {
	if r.ResolveFunc == nil {
		return 0, false, nil
	}
	return r.ResolveFunc(name)
}

// Call implements Resolver.
func (r ResolverFuncs) Call(fn string, arg *Node) (int, bool, error) {
	if r.CallFunc == nil {
		return 0, false, nil
	}
	return r.CallFunc(fn, arg)
}

var (
	reDecimal = regexp.MustCompile(`^\d+$`)
	reHex     = regexp.MustCompile(`^0[xX][0-9A-Fa-f]+$`)
)

// ParseLiteral converts a decimal or 0x-prefixed hexadecimal literal.
func ParseLiteral(s string) (int, bool) {
	switch {
	case reDecimal.MatchString(s):
		v, err := strconv.ParseInt(s, 10, 64)
		return int(v), err == nil
	case reHex.MatchString(s):
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return int(v), err == nil
	}
	return 0, false
}

// Simplify folds every subtree it can and returns the result as a new tree.
// The receiver is never modified. r may be nil.
func (n *Node) Simplify(r Resolver) (*Node, error) {
	if n == nil {
		return nil, nil
	}
	if n.IsNum {
		return n.Clone(), nil
	}

	if n.IsLeaf() {
		if v, ok := ParseLiteral(n.Value); ok {
			return n.number(v), nil
		}
		if r != nil {
			v, ok, err := r.Resolve(n.Value)
			if err != nil {
				return nil, err
			}
			if ok {
				return n.number(v), nil
			}
		}
		return n.Clone(), nil
	}

	if n.Op == CallOp && r != nil && n.Left != nil && n.Left.IsSymbol() {
		v, ok, err := r.Call(n.Left.Value, n.Right)
		if err != nil {
			return nil, err
		}
		if ok {
			return n.number(v), nil
		}
	}

	out := &Node{Op: n.Op, Parenthesized: n.Parenthesized}
	var err error
	if n.Left != nil {
		out.Left, err = n.Left.Simplify(r)
		if err != nil {
			return nil, err
		}
	}
	out.Right, err = n.Right.Simplify(r)
	if err != nil {
		return nil, err
	}

	if out.Right == nil || !out.Right.IsNum {
		return out, nil
	}
	b := out.Right.Num

	if out.Left == nil {
		switch n.Op {
		case "!":
			return n.number(boolInt(b == 0)), nil
		case "+":
			return n.number(b), nil
		case "-":
			return n.number(-b), nil
		case "~":
			return n.number(^b), nil
		}
		return out, nil
	}

	if !out.Left.IsNum {
		return out, nil
	}
	v, ok, err := fold(n.Op, out.Left.Num, b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}
	return n.number(v), nil
}

// number makes a literal leaf that keeps the origin flags of n.
func (n *Node) number(v int) *Node {
	leaf := Number(v)
	leaf.Parenthesized = n.Parenthesized
	return leaf
}

func fold(op string, a, b int) (int, bool, error) {
	switch op {
	case "<<":
		return a << uint(b&63), true, nil
	case ">>":
		return a >> uint(b&63), true, nil
	case "<=":
		return boolInt(a <= b), true, nil
	case ">=":
		return boolInt(a >= b), true, nil
	case "==":
		return boolInt(a == b), true, nil
	case "!=", "<>":
		return boolInt(a != b), true, nil
	case "&&":
		return boolInt(a != 0 && b != 0), true, nil
	case "||":
		return boolInt(a != 0 || b != 0), true, nil
	case "^^":
		return boolInt((a != 0) != (b != 0)), true, nil
	}
	if len(op) != 1 {
		return 0, false, nil
	}

	switch op[0] {
	case '+':
		return a + b, true, nil
	case '-':
		return a - b, true, nil
	case '*':
		return a * b, true, nil
	case '/':
		if b == 0 {
			return 0, false, ErrDivideByZero
		}
		return a / b, true, nil
	case '%':
		if b == 0 {
			return 0, false, ErrDivideByZero
		}
		return a % b, true, nil
	case '<':
		return boolInt(a < b), true, nil
	case '>':
		return boolInt(a > b), true, nil
	case '&':
		return a & b, true, nil
	case '^':
		return a ^ b, true, nil
	case '|':
		return a | b, true, nil
	}
	return 0, false, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
