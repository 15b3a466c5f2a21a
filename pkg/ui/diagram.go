package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/statcompass/statcompass/pkg/highlight"
	"github.com/statcompass/statcompass/pkg/interact"
	"github.com/statcompass/statcompass/pkg/layout"
	"github.com/statcompass/statcompass/pkg/model"
	"github.com/statcompass/statcompass/pkg/state"
)

// DiagramModel is the navigable tree pane. It renders the visible frontier
// of the decision tree and owns the expansion state; the layout itself is
// computed once and never moves when nodes expand or collapse.
type DiagramModel struct {
	data model.TreeData
	pos  *layout.PositionNode
	st   state.ExpansionState

	// flat is the visible frontier in walk order; parentOf mirrors the
	// placed tree for prefix drawing and parent jumps.
	flat     []*layout.PositionNode
	parentOf map[string]*layout.PositionNode

	cursor int
	offset int
	width  int
	height int

	theme  Theme
	guard  interact.Guard
	pather *highlight.Pather

	// selected is the last navigated recommendation; its root path is
	// highlighted.
	selected string

	// settingsDir enables persistence when non-empty.
	settingsDir string
}

// NewDiagramModel lays out the tree and restores any persisted view state.
// Layout failure is fatal: without an anchored root there is nothing to
// show.
func NewDiagramModel(data model.TreeData, cfg layout.Config, theme Theme, settingsDir string) (DiagramModel, error) {
	pos, err := layout.Layout(data, model.RootID, 0, 0, 1, cfg)
	if err != nil {
		return DiagramModel{}, err
	}

	st, selected := state.New(), ""
	if settingsDir != "" {
		st, selected = LoadViewState(settingsDir)
	}

	d := DiagramModel{
		data:        data,
		pos:         pos,
		st:          st,
		theme:       theme,
		selected:    selected,
		settingsDir: settingsDir,
		pather:      highlight.NewPather(data),
		parentOf:    make(map[string]*layout.PositionNode),
	}
	var walk func(n *layout.PositionNode)
	walk = func(n *layout.PositionNode) {
		for _, child := range n.Children {
			d.parentOf[child.ID] = n
			walk(child)
		}
	}
	walk(pos)

	d.rebuildFlat()
	if selected != "" {
		d.SelectByID(selected)
	}
	return d, nil
}

// SetSize updates the pane dimensions.
func (d *DiagramModel) SetSize(width, height int) {
	d.width = width
	d.height = height
	d.ensureCursorVisible()
}

// State exposes the current expansion state (read-only snapshot).
func (d *DiagramModel) State() state.ExpansionState { return d.st }

// SelectedID returns the node id under the cursor, or "".
func (d *DiagramModel) SelectedID() string {
	if d.cursor >= 0 && d.cursor < len(d.flat) {
		return d.flat[d.cursor].ID
	}
	return ""
}

// NavigatedID returns the last recommendation the user navigated to.
func (d *DiagramModel) NavigatedID() string { return d.selected }

// NodeCount returns the number of currently visible nodes.
func (d *DiagramModel) NodeCount() int { return len(d.flat) }

// SelectByID moves the cursor to a node if it is visible.
func (d *DiagramModel) SelectByID(id string) bool {
	for i, n := range d.flat {
		if n.ID == id {
			d.cursor = i
			d.ensureCursorVisible()
			return true
		}
	}
	return false
}

// MoveDown moves the cursor down one visible node.
func (d *DiagramModel) MoveDown() {
	if d.cursor < len(d.flat)-1 {
		d.cursor++
		d.ensureCursorVisible()
	}
}

// MoveUp moves the cursor up one visible node.
func (d *DiagramModel) MoveUp() {
	if d.cursor > 0 {
		d.cursor--
		d.ensureCursorVisible()
	}
}

// JumpToTop moves the cursor to the root.
func (d *DiagramModel) JumpToTop() {
	d.cursor = 0
	d.ensureCursorVisible()
}

// JumpToBottom moves the cursor to the last visible node.
func (d *DiagramModel) JumpToBottom() {
	if len(d.flat) > 0 {
		d.cursor = len(d.flat) - 1
		d.ensureCursorVisible()
	}
}

// JumpToParent moves the cursor to the parent of the current node.
func (d *DiagramModel) JumpToParent() {
	parent, ok := d.parentOf[d.SelectedID()]
	if !ok {
		return
	}
	d.SelectByID(parent.ID)
}

// Activate handles enter on the current node: expandable nodes toggle,
// recommendations navigate. The guard drops the event when a previous
// activation is still being applied.
func (d *DiagramModel) Activate() (interact.ClickResult, bool) {
	id := d.SelectedID()
	if id == "" {
		return interact.ClickResult{}, false
	}
	if !d.guard.TryBegin() {
		return interact.ClickResult{}, false
	}
	defer d.guard.End()

	result, err := interact.DetermineClickAction(id, d.st.IsExpanded(id), d.data)
	if err != nil {
		return interact.ClickResult{}, false
	}

	switch result.Action {
	case interact.ActionExpand:
		d.st = d.st.Expand(id)
		d.afterStateChange(id)
	case interact.ActionCollapse:
		d.st = d.st.Collapse(id, d.data)
		d.afterStateChange(id)
	case interact.ActionNavigate:
		d.selected = id
		d.persist()
	}
	return result, true
}

// ExpandOrMoveToChild handles l / right: expand a collapsed node, step into
// an expanded one.
func (d *DiagramModel) ExpandOrMoveToChild() {
	id := d.SelectedID()
	if !d.data.HasChildren(id) {
		return
	}
	if !d.st.IsExpanded(id) {
		d.st = d.st.Expand(id)
		d.afterStateChange(id)
		return
	}
	node := d.findPos(id)
	if node != nil && len(node.Children) > 0 {
		d.SelectByID(node.Children[0].ID)
	}
}

// CollapseOrJumpToParent handles h / left: collapse an expanded node,
// otherwise jump to the parent. Collapsing the root is a no-op by the
// engine, so the cursor just moves.
func (d *DiagramModel) CollapseOrJumpToParent() {
	id := d.SelectedID()
	if d.data.HasChildren(id) && d.st.IsExpanded(id) && id != model.RootID {
		d.st = d.st.Collapse(id, d.data)
		d.afterStateChange(id)
		return
	}
	d.JumpToParent()
}

// ExpandAll expands every question node.
func (d *DiagramModel) ExpandAll() {
	for id := range d.data {
		if d.data.HasChildren(id) {
			d.st = d.st.Expand(id)
		}
	}
	d.afterStateChange(d.SelectedID())
}

// CollapseAll collapses everything below the root.
func (d *DiagramModel) CollapseAll() {
	root := d.data[model.RootID]
	if root == nil {
		return
	}
	for _, opt := range root.Options {
		if d.data.HasChildren(opt.NextNodeID) {
			d.st = d.st.Collapse(opt.NextNodeID, d.data)
		}
	}
	d.afterStateChange(model.RootID)
}

// PathToSelection returns the highlighted root path, empty when nothing has
// been navigated to yet.
func (d *DiagramModel) PathToSelection() []string {
	if d.selected == "" {
		return nil
	}
	return d.pather.PathToNode(d.selected)
}

func (d *DiagramModel) afterStateChange(keepID string) {
	d.rebuildFlat()
	if keepID != "" && !d.SelectByID(keepID) {
		// The node vanished behind a collapse; fall back to its nearest
		// visible ancestor.
		for parent, ok := d.parentOf[keepID]; ok; parent, ok = d.parentOf[parent.ID] {
			if d.SelectByID(parent.ID) {
				break
			}
		}
	}
	d.persist()
}

func (d *DiagramModel) persist() {
	if d.settingsDir != "" {
		SaveViewState(d.settingsDir, d.st, d.selected)
	}
}

func (d *DiagramModel) rebuildFlat() {
	d.flat = d.st.VisibleNodes(d.pos, d.data)
	if d.cursor >= len(d.flat) {
		d.cursor = len(d.flat) - 1
	}
	if d.cursor < 0 {
		d.cursor = 0
	}
}

func (d *DiagramModel) findPos(id string) *layout.PositionNode {
	for _, n := range d.flat {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (d *DiagramModel) ensureCursorVisible() {
	if d.height <= 0 {
		return
	}
	if d.cursor < d.offset {
		d.offset = d.cursor
	}
	if d.cursor >= d.offset+d.height {
		d.offset = d.cursor - d.height + 1
	}
	if d.offset < 0 {
		d.offset = 0
	}
}

// View renders the visible window of the tree.
func (d *DiagramModel) View() string {
	if len(d.flat) == 0 {
		return d.theme.Renderer.NewStyle().Foreground(d.theme.Muted).Render("empty tree")
	}

	onPath := highlight.PathSet(d.PathToSelection())

	end := len(d.flat)
	if d.height > 0 && d.offset+d.height < end {
		end = d.offset + d.height
	}

	var sb strings.Builder
	for i := d.offset; i < end; i++ {
		line := d.renderRow(d.flat[i], onPath)
		if i == d.cursor {
			line = d.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (d *DiagramModel) renderRow(n *layout.PositionNode, onPath map[string]struct{}) string {
	r := d.theme.Renderer
	var sb strings.Builder

	prefix := d.treePrefix(n)
	sb.WriteString(r.NewStyle().Foreground(d.theme.Muted).Render(prefix))

	indicator := "•"
	if d.data.HasChildren(n.ID) {
		if d.st.IsExpanded(n.ID) {
			indicator = "▾"
		} else {
			indicator = "▸"
		}
	}
	sb.WriteString(r.NewStyle().Foreground(d.theme.Secondary).Render(indicator))
	sb.WriteString(" ")

	label, isLeaf := d.nodeLabel(n.ID)
	color := d.theme.Text
	if isLeaf {
		color = d.theme.Leaf
	}
	if _, ok := onPath[n.ID]; ok {
		color = d.theme.Highlight
	}

	maxWidth := d.width - runewidth.StringWidth(prefix) - 4
	if maxWidth < 10 {
		maxWidth = 10
	}
	sb.WriteString(r.NewStyle().Foreground(color).Render(
		runewidth.Truncate(label, maxWidth, "…")))

	return sb.String()
}

// treePrefix draws the branch characters for a node based on its position
// among its siblings.
func (d *DiagramModel) treePrefix(n *layout.PositionNode) string {
	if n.Level <= 1 {
		return ""
	}

	var parts []string
	chain := []*layout.PositionNode{n}
	for p, ok := d.parentOf[chain[0].ID]; ok; p, ok = d.parentOf[chain[0].ID] {
		chain = append([]*layout.PositionNode{p}, chain...)
	}

	// For each ancestor between the root and the parent, draw a rail when
	// siblings continue below.
	for i := 1; i < len(chain)-1; i++ {
		if d.hasSiblingBelow(chain[i]) {
			parts = append(parts, "│   ")
		} else {
			parts = append(parts, "    ")
		}
	}
	if d.hasSiblingBelow(n) {
		parts = append(parts, "├── ")
	} else {
		parts = append(parts, "└── ")
	}
	return strings.Join(parts, "")
}

func (d *DiagramModel) hasSiblingBelow(n *layout.PositionNode) bool {
	parent, ok := d.parentOf[n.ID]
	if !ok {
		return false
	}
	for i, sibling := range parent.Children {
		if sibling == n {
			return i < len(parent.Children)-1
		}
	}
	return false
}

func (d *DiagramModel) nodeLabel(id string) (string, bool) {
	node, ok := d.data[id]
	if !ok {
		return id, true
	}
	if node.IsLeaf() {
		if node.Result != nil && node.Result.Test != "" {
			return node.Result.Test, true
		}
		return id, true
	}
	if node.Question != "" {
		return node.Question, false
	}
	return id, false
}
