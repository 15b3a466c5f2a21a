package model

import (
	"errors"
	"fmt"
)

// RootID is the distinguished identifier of the decision tree's entry node.
// It is always present in a valid tree, always visible, and always expanded.
const RootID = "start"

// ErrNodeNotFound is returned when an operation that requires a valid node
// id is given an id that does not exist in the tree.
var ErrNodeNotFound = errors.New("node not found")

// Option is a labeled directed edge from a node to a child node id.
type Option struct {
	Label      string `json:"label" yaml:"label"`
	NextNodeID string `json:"next_node_id" yaml:"next_node_id"`
}

// Result is the terminal payload carried by leaf nodes. The engine treats it
// as opaque; only the rendering surfaces read it.
type Result struct {
	Test  string `json:"test" yaml:"test"`
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"` // markdown
}

// TreeNode is a single entry in the decision tree. A node with a non-empty
// Options list is expandable; a node without options is a leaf and never
// carries expand/collapse semantics, regardless of any external flag.
type TreeNode struct {
	Question string   `json:"question" yaml:"question"`
	Options  []Option `json:"options,omitempty" yaml:"options,omitempty"`
	Result   *Result  `json:"result,omitempty" yaml:"result,omitempty"`
}

// IsLeaf reports whether the node has no options.
func (n *TreeNode) IsLeaf() bool {
	return n == nil || len(n.Options) == 0
}

// Clone creates a deep copy of the node.
func (n *TreeNode) Clone() *TreeNode {
	if n == nil {
		return nil
	}
	clone := &TreeNode{Question: n.Question}
	if n.Options != nil {
		clone.Options = make([]Option, len(n.Options))
		copy(clone.Options, n.Options)
	}
	if n.Result != nil {
		v := *n.Result
		clone.Result = &v
	}
	return clone
}

// TreeData is the authoritative, read-only decision tree: a mapping from
// node id to node. It is conceptually a tree but represented as a generic
// id→node map with arbitrary forward references, so every walk over it
// carries a visited set to guarantee termination even if the data contains
// a cycle.
type TreeData map[string]*TreeNode

// Clone creates a deep copy of the tree.
func (d TreeData) Clone() TreeData {
	if d == nil {
		return nil
	}
	clone := make(TreeData, len(d))
	for id, node := range d {
		clone[id] = node.Clone()
	}
	return clone
}

// Exists reports whether id names a node in the tree.
func (d TreeData) Exists(id string) bool {
	_, ok := d[id]
	return ok
}

// HasChildren reports whether the node exists and has a non-empty options
// list. Unknown ids return false rather than an error; stale ids arrive
// from UI races and must not crash the surface.
func (d TreeData) HasChildren(id string) bool {
	node, ok := d[id]
	return ok && len(node.Options) > 0
}

// Validate checks structural validity: the root must be present, every node
// needs a question or a result, and options must be fully specified.
// Dangling option targets are legal (layout simply stops there) but are
// reported by DanglingRefs.
func (d TreeData) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("tree data is empty")
	}
	if !d.Exists(RootID) {
		return fmt.Errorf("root node %q: %w", RootID, ErrNodeNotFound)
	}
	for id, node := range d {
		if node == nil {
			return fmt.Errorf("node %q is nil", id)
		}
		if node.Question == "" && node.Result == nil {
			return fmt.Errorf("node %q has neither question nor result", id)
		}
		for i, opt := range node.Options {
			if opt.Label == "" {
				return fmt.Errorf("node %q option %d has empty label", id, i)
			}
			if opt.NextNodeID == "" {
				return fmt.Errorf("node %q option %d has empty next_node_id", id, i)
			}
		}
	}
	return nil
}

// DanglingRefs returns option targets that do not exist in the tree.
func (d TreeData) DanglingRefs() []string {
	var dangling []string
	seen := make(map[string]bool)
	for _, node := range d {
		for _, opt := range node.Options {
			if !d.Exists(opt.NextNodeID) && !seen[opt.NextNodeID] {
				seen[opt.NextNodeID] = true
				dangling = append(dangling, opt.NextNodeID)
			}
		}
	}
	return dangling
}
