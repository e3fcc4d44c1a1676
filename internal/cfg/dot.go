package cfg

import (
	"fmt"
	"io"
	"strings"
)

// Labeler renders an instruction for DOT output.
type Labeler func(Instruction) string

// DefaultLabel renders "kind #node".
func DefaultLabel(in Instruction) string {
	return fmt.Sprintf("%s #%d", in.Kind, in.Node)
}

// WriteDOT writes the graph in Graphviz DOT syntax. Unreachable blocks are
// shaded; conditional edges are dashed and exception edges dotted red.
func (g *Graph) WriteDOT(w io.Writer, label Labeler) error {
	if label == nil {
		label = DefaultLabel
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph cfg_%d {\n", g.Node)
	sb.WriteString("  node [shape=box, fontname=monospace];\n")
	for i := range g.blocks {
		blk := &g.blocks[i]
		lines := []string{g.blockTitle(blk.ID)}
		for _, in := range blk.Instructions {
			lines = append(lines, label(in))
		}
		attrs := ""
		if !g.Reachable(blk.ID) {
			attrs = ", style=filled, fillcolor=lightgray"
		}
		fmt.Fprintf(&sb, "  b%d [label=%q%s];\n", blk.ID, strings.Join(lines, "\n"), attrs)
	}
	for _, e := range g.edges {
		switch e.Kind {
		case EdgeConditional:
			fmt.Fprintf(&sb, "  b%d -> b%d [style=dashed];\n", e.From, e.To)
		case EdgeException:
			fmt.Fprintf(&sb, "  b%d -> b%d [style=dotted, color=red];\n", e.From, e.To)
		default:
			fmt.Fprintf(&sb, "  b%d -> b%d;\n", e.From, e.To)
		}
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// DOT returns the graph in DOT syntax with default labels.
func (g *Graph) DOT() string {
	var sb strings.Builder
	_ = g.WriteDOT(&sb, nil)
	return sb.String()
}

func (g *Graph) blockTitle(id BlockID) string {
	switch id {
	case EntryBlock:
		return "entry"
	case ExitBlock:
		return "exit"
	case g.abrupt:
		return "abrupt"
	case g.errSink:
		return "error"
	}
	return fmt.Sprintf("bb%d", id)
}
