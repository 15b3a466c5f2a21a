// Package export renders decision trees to SVG, PNG, interactive HTML and
// markdown, and serves a live-reloading preview of exported files.
package export

import (
	"github.com/statcompass/statcompass/pkg/highlight"
	"github.com/statcompass/statcompass/pkg/layout"
	"github.com/statcompass/statcompass/pkg/model"
	"github.com/statcompass/statcompass/pkg/state"
)

// Options configures a rendering pass. The same options drive every format
// so exports look consistent with the TUI.
type Options struct {
	Data   model.TreeData
	Layout layout.Config

	// State filters which nodes are drawn. Nil renders the full tree.
	State *state.ExpansionState

	// HighlightNode selects the node whose root path is emphasized. Empty
	// disables highlighting.
	HighlightNode string

	Title string
}

// Margin around the drawn tree in all raster and vector outputs.
const canvasMargin = 24.0

// palette holds the export color scheme (Dracula).
type palette struct {
	Background string
	Node       string
	NodeBorder string
	Leaf       string
	Text       string
	TextMuted  string
	Edge       string
	Highlight  string
}

var darkPalette = palette{
	Background: "#282a36",
	Node:       "#44475a",
	NodeBorder: "#6272a4",
	Leaf:       "#21222c",
	Text:       "#f8f8f2",
	TextMuted:  "#6272a4",
	Edge:       "#6272a4",
	Highlight:  "#ff79c6",
}

// edge pairs a parent with one visible child.
type edge struct {
	parent *layout.PositionNode
	child  *layout.PositionNode
}

// visibleNodes returns the nodes to draw, respecting the expansion state.
func visibleNodes(pos *layout.PositionNode, opts Options) []*layout.PositionNode {
	if opts.State == nil {
		var all []*layout.PositionNode
		pos.Walk(func(n *layout.PositionNode) { all = append(all, n) })
		return all
	}
	return opts.State.VisibleNodes(pos, opts.Data)
}

// visibleEdges returns parent→child pairs between drawn nodes.
func visibleEdges(pos *layout.PositionNode, opts Options) []edge {
	var edges []edge
	var walk func(n *layout.PositionNode)
	walk = func(n *layout.PositionNode) {
		if opts.State != nil && !opts.State.IsExpanded(n.ID) {
			return
		}
		for _, child := range n.Children {
			edges = append(edges, edge{parent: n, child: child})
			walk(child)
		}
	}
	walk(pos)
	return edges
}

// bounds computes the drawing extent of the given nodes.
func bounds(nodes []*layout.PositionNode) (minX, minY, maxX, maxY float64) {
	if len(nodes) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = nodes[0].X, nodes[0].Y
	maxX, maxY = minX, minY
	for _, n := range nodes {
		if n.X < minX {
			minX = n.X
		}
		if n.Y < minY {
			minY = n.Y
		}
		if r := n.X + n.Width; r > maxX {
			maxX = r
		}
		if b := n.Y + n.Height; b > maxY {
			maxY = b
		}
	}
	return minX, minY, maxX, maxY
}

// highlightSets resolves the highlighted node into node and edge id sets.
func highlightSets(opts Options) (map[string]struct{}, map[string]struct{}) {
	if opts.HighlightNode == "" {
		return nil, nil
	}
	path := highlight.PathToNode(opts.HighlightNode, opts.Data)
	return highlight.PathSet(path), highlight.Edges(path)
}

// nodeLabel returns the text drawn inside a node box.
func nodeLabel(data model.TreeData, id string) string {
	node, ok := data[id]
	if !ok {
		return id
	}
	if node.IsLeaf() && node.Result != nil && node.Result.Test != "" {
		return node.Result.Test
	}
	if node.Question != "" {
		return node.Question
	}
	return id
}

// truncate shortens a label to fit a node box.
func truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
