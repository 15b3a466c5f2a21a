package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/statcompass/statcompass/pkg/edgeid"
	"github.com/statcompass/statcompass/pkg/layout"
	"github.com/statcompass/statcompass/pkg/model"
)

// RenderPNG rasterizes the tree. The drawing mirrors RenderSVG so the two
// formats stay visually interchangeable.
func RenderPNG(w io.Writer, opts Options) error {
	pos, err := layout.Layout(opts.Data, model.RootID, 0, 0, 1, opts.Layout)
	if err != nil {
		return fmt.Errorf("layout tree: %w", err)
	}

	nodes := visibleNodes(pos, opts)
	edges := visibleEdges(pos, opts)
	hlNodes, hlEdges := highlightSets(opts)
	minX, minY, maxX, maxY := bounds(nodes)

	width := int(maxX-minX) + 2*int(canvasMargin)
	height := int(maxY-minY) + 2*int(canvasMargin)
	tx := func(x float64) float64 { return x - minX + canvasMargin }
	ty := func(y float64) float64 { return y - minY + canvasMargin }

	pal := darkPalette
	dc := gg.NewContext(width, height)
	dc.SetHexColor(pal.Background)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	for _, e := range edges {
		stroke := pal.Edge
		lineWidth := 1.0
		if _, ok := hlEdges[edgeid.Encode(e.parent.ID, e.child.ID, "")]; ok {
			stroke = pal.Highlight
			lineWidth = 3.0
		}
		dc.SetHexColor(stroke)
		dc.SetLineWidth(lineWidth)

		x1, y1 := tx(e.parent.Right()), ty(e.parent.CenterY())
		x2, y2 := tx(e.child.X), ty(e.child.CenterY())
		midX := (x1 + x2) / 2
		dc.DrawLine(x1, y1, midX, y1)
		dc.DrawLine(midX, y1, midX, y2)
		dc.DrawLine(midX, y2, x2, y2)
		dc.Stroke()
	}

	for _, n := range nodes {
		drawPNGNode(dc, n, opts.Data, tx, ty, pal, hlNodes)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// WritePNGFile renders to a file, creating parent directories as needed.
func WritePNGFile(path string, opts Options) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := RenderPNG(f, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func drawPNGNode(dc *gg.Context, n *layout.PositionNode, data model.TreeData, tx, ty func(float64) float64, pal palette, hlNodes map[string]struct{}) {
	fill := pal.Node
	if node, ok := data[n.ID]; ok && node.IsLeaf() {
		fill = pal.Leaf
	}
	border := pal.NodeBorder
	borderWidth := 1.0
	if _, ok := hlNodes[n.ID]; ok {
		border = pal.Highlight
		borderWidth = 3.0
	}

	x, y := tx(n.X), ty(n.Y)
	dc.DrawRoundedRectangle(x, y, n.Width, n.Height, 6)
	dc.SetHexColor(fill)
	dc.FillPreserve()
	dc.SetHexColor(border)
	dc.SetLineWidth(borderWidth)
	dc.Stroke()

	// Face7x13 glyphs are 7px wide; leave a character of padding per side.
	maxChars := int(n.Width)/7 - 2
	dc.SetHexColor(pal.Text)
	dc.DrawStringAnchored(truncate(nodeLabel(data, n.ID), maxChars),
		x+n.Width/2, y+n.Height/2, 0.5, 0.5)

	dc.SetHexColor(pal.TextMuted)
	dc.DrawStringAnchored(truncate(n.ID, maxChars),
		x+n.Width/2, y+n.Height-10, 0.5, 0.5)
}
