package expr

import (
	"strconv"
	"strings"
)

// CallOp is the implicit operator joining an identifier to a parenthesized
// argument, as in isdef(NAME).
const CallOp = "call"

// Node is one element of an expression tree. A leaf has a Value and no
// operator; an operator node has Op and Right, plus Left unless it is unary.
type Node struct {
	Left  *Node
	Right *Node
	Op    string
	Value string
	// Num is only meaningful when IsNum is set.
	Num   int
	IsNum bool
	// Parenthesized marks a node that came from a (...) or [...] group.
	Parenthesized bool
}

// Leaf returns a textual leaf.
func Leaf(v string) *Node {
	return &Node{Value: v}
}

// Number returns a numeric leaf.
func Number(n int) *Node {
	return &Node{Value: strconv.Itoa(n), Num: n, IsNum: true}
}

// IsLeaf is true for nodes without an operator.
func (n *Node) IsLeaf() bool {
	return n.Op == ""
}

// IsUnary is true for operator nodes without a left operand.
func (n *Node) IsUnary() bool {
	return n.Op != "" && n.Left == nil
}

// IsSymbol is true for leaves that are neither folded numbers nor numeric
// literals waiting to be folded.
func (n *Node) IsSymbol() bool {
	if !n.IsLeaf() || n.IsNum {
		return false
	}
	_, lit := ParseLiteral(n.Value)
	return !lit
}

// Clone returns a deep copy of the tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Left = n.Left.Clone()
	c.Right = n.Right.Clone()
	return &c
}

// String renders the tree fully parenthesized.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	if n.IsLeaf() {
		return n.Value
	}
	var b strings.Builder
	b.WriteByte('(')
	if n.Left != nil {
		b.WriteString(n.Left.String())
		b.WriteByte(' ')
	}
	b.WriteString(n.Op)
	b.WriteByte(' ')
	b.WriteString(n.Right.String())
	b.WriteByte(')')
	return b.String()
}

// Labels returns the symbolic leaves of the tree in left-to-right order.
func (n *Node) Labels() []string {
	var out []string
	n.walk(func(leaf *Node) {
		if leaf.IsSymbol() {
			out = append(out, leaf.Value)
		}
	})
	return out
}

// Count returns how many symbolic leaves match name, ignoring case.
func (n *Node) Count(name string) int {
	count := 0
	n.walk(func(leaf *Node) {
		if leaf.IsSymbol() && strings.EqualFold(leaf.Value, name) {
			count++
		}
	})
	return count
}

func (n *Node) walk(fn func(*Node)) {
	if n == nil {
		return
	}
	if n.IsLeaf() {
		fn(n)
		return
	}
	n.Left.walk(fn)
	n.Right.walk(fn)
}

// contains reports whether the subtree holds a symbolic leaf named name.
func (n *Node) contains(name string) bool {
	return n != nil && n.Count(name) > 0
}
