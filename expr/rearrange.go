package expr

import "strings"

var (
	commutative = map[string]bool{"+": true, "*": true, "==": true, "!=": true, "<>": true}
	associative = map[string]bool{"+": true, "*": true, "&": true, "|": true, "^": true, "&&": true, "||": true}
)

// MassageIntoCommutable rewrites a-b as a+(-b) and a/b as a*(1/b) throughout
// the tree, so that BringToTop may move operands across the result.
func (n *Node) MassageIntoCommutable() *Node {
	if n == nil || n.IsLeaf() {
		return n.Clone()
	}
	out := &Node{
		Left:          n.Left.MassageIntoCommutable(),
		Op:            n.Op,
		Right:         n.Right.MassageIntoCommutable(),
		Parenthesized: n.Parenthesized,
	}
	if out.Left == nil {
		return out
	}
	switch n.Op {
	case "-":
		out.Op = "+"
		out.Right = reduce(&Node{Op: "-", Right: out.Right})
	case "/":
		out.Op = "*"
		out.Right = reduce(&Node{Left: Number(1), Op: "/", Right: out.Right})
	}
	return out
}

// reduce simplifies n without a resolver, leaving it alone if that fails.
func reduce(n *Node) *Node {
	s, err := n.Simplify(nil)
	if err != nil {
		return n
	}
	return s
}

// BringToTop rearranges the tree so the symbol name becomes a direct operand
// of the root, using the default precedence table.
func (n *Node) BringToTop(name string) (*Node, bool) {
	return defaultParser.BringToTop(n, name)
}

// BringToTop rearranges n so that name is a direct operand of the root.
// The name must occur exactly once. Rotations only happen between identical
// associative operators of the same precedence group, and only commutative
// operators may swap sides. On failure n is returned unchanged with false.
func (p *Parser) BringToTop(n *Node, name string) (*Node, bool) {
	if n == nil || n.Count(name) != 1 {
		return n, false
	}
	out, ok := p.bring(n.Clone(), name)
	if !ok {
		return n, false
	}
	return out, true
}

func (p *Parser) bring(n *Node, name string) (*Node, bool) {
	if n.IsLeaf() {
		return n, n.IsSymbol() && strings.EqualFold(n.Value, name)
	}
	if n.Left == nil || n.Op == CallOp {
		return n, false
	}

	onLeft := n.Left.contains(name)
	child, other := n.Right, n.Left
	if onLeft {
		child, other = n.Left, n.Right
	}

	top, ok := p.bring(child, name)
	if !ok {
		return n, false
	}
	if top.IsLeaf() {
		return n, true
	}

	if p.Group(top.Op) != p.Group(n.Op) || top.Op != n.Op || !associative[n.Op] {
		return n, false
	}
	nameOnLeft := top.Left.IsLeaf() && top.Left.contains(name)
	if (!onLeft || !nameOnLeft) && !commutative[n.Op] {
		return n, false
	}

	leaf, y := top.Left, top.Right
	if !nameOnLeft {
		leaf, y = top.Right, top.Left
	}
	rest := reduce(&Node{Left: y, Op: n.Op, Right: other})
	return &Node{Left: leaf, Op: n.Op, Right: rest, Parenthesized: n.Parenthesized}, true
}
