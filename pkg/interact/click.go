// Package interact classifies what a click on a node should do and provides
// the re-entrancy guard the interactive surface serializes clicks through.
package interact

import (
	"fmt"

	"github.com/statcompass/statcompass/pkg/model"
)

// Action is what a click on a node resolves to.
type Action string

const (
	ActionExpand   Action = "expand"
	ActionCollapse Action = "collapse"
	ActionNavigate Action = "navigate"
)

// ClickResult pairs the resolved action with the node it applies to.
type ClickResult struct {
	Action Action `json:"action"`
	NodeID string `json:"node_id"`
}

// DetermineClickAction classifies a click. The caller-supplied isExpanded
// flag is authoritative input (it is not re-derived), so the resolver is a
// stateless function of its three arguments. A node with children toggles;
// a leaf always navigates, whatever the flag claims, because a leaf cannot
// be expanded and an inconsistent flag must not cause incorrect toggling.
func DetermineClickAction(id string, isExpanded bool, data model.TreeData) (ClickResult, error) {
	node, ok := data[id]
	if !ok {
		return ClickResult{}, fmt.Errorf("click on %q: %w", id, model.ErrNodeNotFound)
	}
	if len(node.Options) > 0 {
		if isExpanded {
			return ClickResult{Action: ActionCollapse, NodeID: id}, nil
		}
		return ClickResult{Action: ActionExpand, NodeID: id}, nil
	}
	return ClickResult{Action: ActionNavigate, NodeID: id}, nil
}

// ShouldNavigateOnClick reports whether a click on id navigates, i.e. the
// node is a leaf. Unknown ids return false; this runs on hot UI paths where
// throwing is undesirable.
func ShouldNavigateOnClick(id string, data model.TreeData) bool {
	node, ok := data[id]
	return ok && len(node.Options) == 0
}

// ShouldToggleOnClick reports whether a click on id expands or collapses,
// i.e. the node is expandable. Unknown ids return false.
func ShouldToggleOnClick(id string, data model.TreeData) bool {
	return data.HasChildren(id)
}
