// Package layout computes 2-D positions for every node of a decision tree.
//
// The tree grows left to right: x advances with depth, siblings stack along
// y. Positions are a function of the tree data alone, never of expansion
// state: expanding or collapsing filters which already-computed positions
// are visible, so no node ever moves when another is toggled.
package layout

import (
	"fmt"
	"sort"

	"github.com/statcompass/statcompass/pkg/model"
)

// Config holds the fixed geometry used for every node.
type Config struct {
	NodeWidth  float64 `yaml:"node_width"`
	NodeHeight float64 `yaml:"node_height"`
	LevelGap   float64 `yaml:"level_gap"`   // horizontal gap between levels
	SiblingGap float64 `yaml:"sibling_gap"` // vertical gap between sibling blocks
}

// DefaultConfig mirrors the dimensions the interactive surface renders at.
func DefaultConfig() Config {
	return Config{
		NodeWidth:  220,
		NodeHeight: 72,
		LevelGap:   120,
		SiblingGap: 24,
	}
}

// PositionNode is the computed position and size of one tree node, with its
// children mirroring the declared option order of the data node.
type PositionNode struct {
	ID       string          `json:"id"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
	Level    int             `json:"level"` // 1 = root
	Children []*PositionNode `json:"children,omitempty"`
}

// CenterY returns the vertical center of the node.
func (p *PositionNode) CenterY() float64 {
	return p.Y + p.Height/2
}

// Right returns the x coordinate of the node's right edge.
func (p *PositionNode) Right() float64 {
	return p.X + p.Width
}

// Find returns the position node with the given id, or nil.
func (p *PositionNode) Find(id string) *PositionNode {
	if p == nil {
		return nil
	}
	if p.ID == id {
		return p
	}
	for _, child := range p.Children {
		if found := child.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits the position tree depth-first in child order.
func (p *PositionNode) Walk(fn func(*PositionNode)) {
	if p == nil {
		return
	}
	fn(p)
	for _, child := range p.Children {
		child.Walk(fn)
	}
}

// Layout recursively computes positions for the subtree rooted at id,
// anchored so that the node's left edge is at x and its vertical center at
// centerY. level is 1-based. An unknown id is fatal: layout cannot proceed
// without a valid anchor. Cyclic data terminates (the revisited node is
// emitted without children) rather than recursing forever.
func Layout(data model.TreeData, id string, x, centerY float64, level int, cfg Config) (*PositionNode, error) {
	if !data.Exists(id) {
		return nil, fmt.Errorf("layout %q: %w", id, model.ErrNodeNotFound)
	}
	extents := subtreeExtents(data, cfg)
	return place(data, id, x, centerY, level, cfg, extents, map[string]bool{}), nil
}

func place(data model.TreeData, id string, x, centerY float64, level int, cfg Config,
	extents map[string]float64, onPath map[string]bool) *PositionNode {

	pos := &PositionNode{
		ID:     id,
		X:      x,
		Y:      centerY - cfg.NodeHeight/2,
		Width:  cfg.NodeWidth,
		Height: cfg.NodeHeight,
		Level:  level,
	}

	node, ok := data[id]
	if !ok || onPath[id] {
		// Dangling reference or a cycle back onto the current path:
		// emit the node without children to terminate the walk.
		return pos
	}
	onPath[id] = true
	defer delete(onPath, id)

	children := node.Options
	if len(children) == 0 {
		return pos
	}

	// The children form a block whose total extent is the sum of each
	// child's full subtree extent plus gaps; the block is centered on the
	// parent's center.
	var block float64
	for i, opt := range children {
		block += extentOf(extents, opt.NextNodeID, cfg)
		if i > 0 {
			block += cfg.SiblingGap
		}
	}

	childX := x + cfg.NodeWidth + cfg.LevelGap
	cursor := centerY - block/2
	for _, opt := range children {
		extent := extentOf(extents, opt.NextNodeID, cfg)
		childCenter := cursor + extent/2
		pos.Children = append(pos.Children,
			place(data, opt.NextNodeID, childX, childCenter, level+1, cfg, extents, onPath))
		cursor += extent + cfg.SiblingGap
	}
	return pos
}

// subtreeExtents computes, bottom-up, the full vertical extent every node's
// subtree needs: leaf extent is the fixed node height; an internal node
// needs max(node height, sum of child extents + gaps). A deep branch's
// requirement is not knowable from immediate children alone, hence the full
// recursive pass, memoized per id.
func subtreeExtents(data model.TreeData, cfg Config) map[string]float64 {
	memo := make(map[string]float64, len(data))
	// Sorted order keeps memoized values identical across calls even when
	// cyclic data makes an extent depend on which node the walk entered at.
	ids := make([]string, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		extentFor(data, id, cfg, memo, map[string]bool{})
	}
	return memo
}

func extentFor(data model.TreeData, id string, cfg Config,
	memo map[string]float64, onPath map[string]bool) float64 {

	if v, ok := memo[id]; ok {
		return v
	}
	node, ok := data[id]
	if !ok || onPath[id] {
		// Dangling target or cycle: bound the recursion with a leaf extent.
		return cfg.NodeHeight
	}
	if len(node.Options) == 0 {
		memo[id] = cfg.NodeHeight
		return cfg.NodeHeight
	}

	onPath[id] = true
	sum := 0.0
	for i, opt := range node.Options {
		sum += extentFor(data, opt.NextNodeID, cfg, memo, onPath)
		if i > 0 {
			sum += cfg.SiblingGap
		}
	}
	delete(onPath, id)

	extent := sum
	if cfg.NodeHeight > extent {
		extent = cfg.NodeHeight
	}
	memo[id] = extent
	return extent
}

func extentOf(extents map[string]float64, id string, cfg Config) float64 {
	if v, ok := extents[id]; ok {
		return v
	}
	return cfg.NodeHeight
}
