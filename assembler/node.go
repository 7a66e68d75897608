package assembler

import (
	"fmt"
	"strings"
)

// NodeType defines the kind of an output-producing line.
type NodeType int

const (
	// NodeInstruction is an opcode with operands.
	NodeInstruction NodeType = iota
	// NodeData is DAT, .DW, .DP or .ASCII.
	NodeData
	// NodeFill is .FILL.
	NodeFill
	// NodeAlign is .ALIGN.
	NodeAlign
)

func (t NodeType) String() string {
	switch t {
	case NodeInstruction:
		return "instruction"
	case NodeData:
		return "data"
	case NodeFill:
		return "fill"
	case NodeAlign:
		return "align"
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// Node is one accepted source line that produces words.
type Node struct {
	Type NodeType
	Line *TokenLine

	inst  *instruction
	data  *data
	fill  *fill
	align *align
}

// add turns l into a node at the end of the program.
func (r *run) add(l *TokenLine) error {
	n := &Node{Line: l}
	var err error
	switch strings.ToUpper(l.Tokens[0]) {
	case ".ALIGN":
		n.Type = NodeAlign
		n.align, err = r.newAlign(l)
	case "DAT", ".DW", ".DP", ".ASCII":
		n.Type = NodeData
		n.data, err = r.newData(l)
	case ".FILL":
		n.Type = NodeFill
		n.fill, err = r.newFill(l)
	default:
		n.Type = NodeInstruction
		n.inst, err = r.newInstruction(l)
	}
	if err != nil {
		return err
	}
	r.nodes = append(r.nodes, n)
	return nil
}

// emit computes the node's words for a line starting at pos. old holds the
// words of the previous pass, or nil.
func (n *Node) emit(r *run, pos int, finalize bool, old []uint16) ([]uint16, error) {
	var (
		words []uint16
		err   error
	)
	switch n.Type {
	case NodeInstruction:
		words, err = n.inst.encode(r, pos, finalize)
	case NodeData:
		words, err = n.data.encode(r, finalize)
	case NodeFill:
		words, err = n.fill.encode(r, finalize, old)
	case NodeAlign:
		words, err = n.align.encode(r, pos, finalize, old)
	default:
		err = fmt.Errorf("unknown node type %v", n.Type)
	}
	if words == nil && err == nil {
		words = []uint16{}
	}
	return words, err
}

// lastString shows the line with its expressions as last resolved.
func (n *Node) lastString() string {
	switch n.Type {
	case NodeInstruction:
		return n.inst.lastString()
	case NodeData:
		return n.data.lastString()
	case NodeFill:
		return n.fill.lastString()
	case NodeAlign:
		return n.align.lastString()
	}
	return n.Line.String()
}
