package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	svg "github.com/ajstarks/svgo"

	"github.com/statcompass/statcompass/pkg/edgeid"
	"github.com/statcompass/statcompass/pkg/layout"
	"github.com/statcompass/statcompass/pkg/model"
)

// RenderSVG writes the tree as an SVG document. Edges are drawn as three
// orthogonal segments, each carrying the edge id with its segment tag so the
// output stays inspectable and diffable.
func RenderSVG(w io.Writer, opts Options) error {
	pos, err := layout.Layout(opts.Data, model.RootID, 0, 0, 1, opts.Layout)
	if err != nil {
		return fmt.Errorf("layout tree: %w", err)
	}

	nodes := visibleNodes(pos, opts)
	edges := visibleEdges(pos, opts)
	hlNodes, hlEdges := highlightSets(opts)
	minX, minY, maxX, maxY := bounds(nodes)

	tx := func(x float64) int { return int(x - minX + canvasMargin) }
	ty := func(y float64) int { return int(y - minY + canvasMargin) }
	width := int(maxX-minX) + 2*int(canvasMargin)
	height := int(maxY-minY) + 2*int(canvasMargin)

	pal := darkPalette
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Title(opts.Title)
	canvas.Rect(0, 0, width, height, "fill:"+pal.Background)

	// Edges first so node boxes paint over the joins.
	for _, e := range edges {
		drawSVGEdge(canvas, e, tx, ty, pal, hlEdges)
	}

	for _, n := range nodes {
		drawSVGNode(canvas, n, opts.Data, tx, ty, pal, hlNodes)
	}

	canvas.End()
	return nil
}

// WriteSVGFile renders to a file, creating parent directories as needed.
func WriteSVGFile(path string, opts Options) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := RenderSVG(f, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func drawSVGEdge(canvas *svg.SVG, e edge, tx, ty func(float64) int, pal palette, hlEdges map[string]struct{}) {
	stroke := pal.Edge
	strokeWidth := 1
	baseID := edgeid.Encode(e.parent.ID, e.child.ID, "")
	if _, ok := hlEdges[baseID]; ok {
		stroke = pal.Highlight
		strokeWidth = 3
	}
	style := fmt.Sprintf("stroke:%s;stroke-width:%d;fill:none", stroke, strokeWidth)

	x1 := tx(e.parent.Right())
	y1 := ty(e.parent.CenterY())
	x2 := tx(e.child.X)
	y2 := ty(e.child.CenterY())
	midX := (x1 + x2) / 2

	canvas.Line(x1, y1, midX, y1, style,
		fmt.Sprintf(`id="%s"`, edgeid.Encode(e.parent.ID, e.child.ID, edgeid.SegmentH1)))
	canvas.Line(midX, y1, midX, y2, style,
		fmt.Sprintf(`id="%s"`, edgeid.Encode(e.parent.ID, e.child.ID, edgeid.SegmentV)))
	canvas.Line(midX, y2, x2, y2, style,
		fmt.Sprintf(`id="%s"`, edgeid.Encode(e.parent.ID, e.child.ID, edgeid.SegmentH2)))
}

func drawSVGNode(canvas *svg.SVG, n *layout.PositionNode, data model.TreeData, tx, ty func(float64) int, pal palette, hlNodes map[string]struct{}) {
	fill := pal.Node
	if node, ok := data[n.ID]; ok && node.IsLeaf() {
		fill = pal.Leaf
	}
	border := pal.NodeBorder
	borderWidth := 1
	if _, ok := hlNodes[n.ID]; ok {
		border = pal.Highlight
		borderWidth = 3
	}

	x, y := tx(n.X), ty(n.Y)
	w, h := int(n.Width), int(n.Height)
	canvas.Roundrect(x, y, w, h, 6, 6,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%d", fill, border, borderWidth),
		fmt.Sprintf(`id="%s"`, n.ID))

	label := truncate(nodeLabel(data, n.ID), w/8)
	textStyle := fmt.Sprintf("fill:%s;font-family:monospace;font-size:13px;text-anchor:middle", pal.Text)
	canvas.Text(x+w/2, y+h/2, label, textStyle)

	idStyle := fmt.Sprintf("fill:%s;font-family:monospace;font-size:10px;text-anchor:middle", pal.TextMuted)
	canvas.Text(x+w/2, y+h-8, truncate(n.ID, w/6), idStyle)
}
