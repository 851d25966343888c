package ast

import (
	"fmt"
	"strings"
)

// String renders a single-line summary of n, the way the teacher's
// ir.Node.String formats its Data payload per NodeType (src/ir/nodetype.go).
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.Data == nil {
		return n.Kind.String()
	}
	switch v := n.Data.(type) {
	case string:
		return fmt.Sprintf("%s %q", n.Kind, v)
	default:
		return fmt.Sprintf("%s [%v]", n.Kind, v)
	}
}

// Print recursively prints n and its Children, indenting one level per
// depth, mirroring ir.Node.Print in the teacher.
func (n *Node) Print(depth int) {
	if n == nil {
		fmt.Println(strings.Repeat("  ", depth) + "<nil>")
		return
	}
	fmt.Println(strings.Repeat("  ", depth) + n.String())
	for _, c := range n.Children {
		c.Print(depth + 1)
	}
}
