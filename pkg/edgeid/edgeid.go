// Package edgeid encodes the identity of a rendered edge (parent id, child
// id, optional routing segment) as a single opaque string, and decodes it
// back. Collapse pruning and highlight checks always compare the decoded
// structured values: node ids may contain the marker's component characters
// individually, so substring matching on raw edge ids silently misfires.
package edgeid

import "strings"

// Separator is the reserved marker between edge id components. Node ids may
// contain '-' or '>' on their own by convention; only the two-character
// sequence is reserved.
const Separator = "->"

// storagePrefix is an id prefix the rendering surface's storage layer may
// prepend to shape records; Decode strips it before splitting.
const storagePrefix = "shape:"

// Segment tags for the orthogonal three-segment route an exporter may draw
// for one logical edge.
const (
	SegmentH1 = "h1" // horizontal run leaving the parent
	SegmentV  = "v"  // vertical connector
	SegmentH2 = "h2" // horizontal run entering the child
)

// Ref is the decoded identity of an edge: the logical parent→child relation,
// independent of how many drawn segments represent it.
type Ref struct {
	ParentID string
	ChildID  string
}

// Encode produces the edge id for a parent→child relation, with an optional
// routing segment tag.
func Encode(parentID, childID, segment string) string {
	if segment == "" {
		return parentID + Separator + childID
	}
	return parentID + Separator + childID + Separator + segment
}

// Decode parses an edge id back into its parent and child ids, stripping
// any segment suffix and the optional storage prefix first. Strings that do
// not match the expected shape return ok=false rather than panicking or
// erroring: malformed ids arrive from stale render state and must degrade.
func Decode(edgeID string) (Ref, bool) {
	id := strings.TrimPrefix(edgeID, storagePrefix)
	parts := strings.Split(id, Separator)
	if len(parts) < 2 || len(parts) > 3 {
		return Ref{}, false
	}
	if parts[0] == "" || parts[1] == "" {
		return Ref{}, false
	}
	return Ref{ParentID: parts[0], ChildID: parts[1]}, true
}

// ShouldDeleteEdgeOnCollapse reports whether a rendered edge must be pruned
// when collapsedID's subtree collapses: true iff the decoded child lies in
// the collapsed descendant set, or the decoded parent is the collapsed node
// itself. Malformed edge ids are never pruned.
func ShouldDeleteEdgeOnCollapse(edgeID, collapsedID string, descendants map[string]bool) bool {
	ref, ok := Decode(edgeID)
	if !ok {
		return false
	}
	return descendants[ref.ChildID] || ref.ParentID == collapsedID
}
