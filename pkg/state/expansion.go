// Package state owns progressive-disclosure state for a decision tree: the
// set of expanded node ids, the set of explicitly collapsed subtree roots,
// and the visibility rules derived from them.
//
// ExpansionState is immutable. Every mutator returns a new state sharing no
// mutable substructure with its input, so a stale reference held by one
// reader (say, a breadcrumb view) is never corrupted by another.
package state

import (
	"sort"

	"github.com/statcompass/statcompass/pkg/layout"
	"github.com/statcompass/statcompass/pkg/model"
)

// ExpansionState tracks which nodes are expanded and which subtrees have
// been explicitly collapsed. The collapsed set answers "is this specific
// node collapsed"; visibility of other nodes is derived from the ancestor
// chain, not from this set alone.
type ExpansionState struct {
	expanded  map[string]struct{}
	collapsed map[string]struct{}
}

// New returns the initial state: only the root is expanded.
func New() ExpansionState {
	return ExpansionState{
		expanded:  map[string]struct{}{model.RootID: {}},
		collapsed: map[string]struct{}{},
	}
}

// Restore rebuilds a state from persisted id lists. The root is forced
// expanded and never collapsed, whatever the snapshot claims.
func Restore(expanded, collapsed []string) ExpansionState {
	s := New()
	for _, id := range expanded {
		s.expanded[id] = struct{}{}
	}
	for _, id := range collapsed {
		if id != model.RootID {
			s.collapsed[id] = struct{}{}
		}
	}
	delete(s.collapsed, model.RootID)
	return s
}

// IsExpanded reports whether id is in the expanded set.
func (s ExpansionState) IsExpanded(id string) bool {
	_, ok := s.expanded[id]
	return ok
}

// IsCollapsed reports whether id has been explicitly collapsed and not
// expanded since.
func (s ExpansionState) IsCollapsed(id string) bool {
	_, ok := s.collapsed[id]
	return ok
}

// ExpandedIDs returns the expanded set as a sorted slice.
func (s ExpansionState) ExpandedIDs() []string {
	return sortedKeys(s.expanded)
}

// CollapsedIDs returns the collapsed set as a sorted slice.
func (s ExpansionState) CollapsedIDs() []string {
	return sortedKeys(s.collapsed)
}

// Equal reports whether two states have identical membership.
func (s ExpansionState) Equal(other ExpansionState) bool {
	if len(s.expanded) != len(other.expanded) || len(s.collapsed) != len(other.collapsed) {
		return false
	}
	for id := range s.expanded {
		if _, ok := other.expanded[id]; !ok {
			return false
		}
	}
	for id := range s.collapsed {
		if _, ok := other.collapsed[id]; !ok {
			return false
		}
	}
	return true
}

// Expand returns a new state with id expanded and cleared from the
// collapsed set.
func (s ExpansionState) Expand(id string) ExpansionState {
	next := s.clone()
	next.expanded[id] = struct{}{}
	delete(next.collapsed, id)
	return next
}

// Collapse returns a new state with id and all of its transitive
// descendants removed from the expanded set, and id recorded as collapsed.
// Collapsing the root is a no-op: the returned state is the receiver
// unchanged. The cascade is the key invariant: a node can never remain
// expanded while an ancestor is collapsed.
func (s ExpansionState) Collapse(id string, data model.TreeData) ExpansionState {
	if id == model.RootID {
		return s
	}
	next := s.clone()
	delete(next.expanded, id)
	for _, desc := range data.Descendants(id) {
		delete(next.expanded, desc)
	}
	next.collapsed[id] = struct{}{}
	return next
}

// Toggle dispatches to Expand or Collapse based on current membership.
// The root never toggles.
func (s ExpansionState) Toggle(id string, data model.TreeData) ExpansionState {
	if id == model.RootID {
		return s
	}
	if s.IsExpanded(id) {
		return s.Collapse(id, data)
	}
	return s.Expand(id)
}

// HasChildren reports whether id exists and is expandable.
func HasChildren(id string, data model.TreeData) bool {
	return data.HasChildren(id)
}

// IsVisible reports whether id should be rendered: the root always is;
// any other node is visible iff it is not itself collapsed, no ancestor is
// collapsed, and its immediate parent is expanded. Unknown ids are not
// visible.
func (s ExpansionState) IsVisible(id string, data model.TreeData) bool {
	if id == model.RootID {
		return true
	}
	if !data.Exists(id) || s.IsCollapsed(id) {
		return false
	}
	ancestors := data.Ancestors(id)
	if len(ancestors) == 0 {
		// Non-root node with no ancestor chain: orphaned reference.
		return false
	}
	for _, anc := range ancestors {
		if s.IsCollapsed(anc) {
			return false
		}
	}
	parent := ancestors[len(ancestors)-1]
	return s.IsExpanded(parent)
}

// VisibleNodes walks the position tree and collects the nodes that are
// visible under the current state. The walk only descends into a node's
// children when that node is expanded, so the cost is bounded by the
// visible frontier, not the whole tree.
func (s ExpansionState) VisibleNodes(pos *layout.PositionNode, data model.TreeData) []*layout.PositionNode {
	var out []*layout.PositionNode
	var walk func(p *layout.PositionNode)
	walk = func(p *layout.PositionNode) {
		if p == nil {
			return
		}
		if s.IsVisible(p.ID, data) {
			out = append(out, p)
		}
		if s.IsExpanded(p.ID) {
			for _, child := range p.Children {
				walk(child)
			}
		}
	}
	walk(pos)
	return out
}

// clone copies both sets; mutators never alias the receiver's maps.
func (s ExpansionState) clone() ExpansionState {
	next := ExpansionState{
		expanded:  make(map[string]struct{}, len(s.expanded)),
		collapsed: make(map[string]struct{}, len(s.collapsed)),
	}
	for id := range s.expanded {
		next.expanded[id] = struct{}{}
	}
	for id := range s.collapsed {
		next.collapsed[id] = struct{}{}
	}
	return next
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
