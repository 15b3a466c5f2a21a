// Package highlight computes the active root-to-node path and the set of
// edges that lie on it. Highlighting marks intent, not visibility: a node
// can sit on the highlighted path while an ancestor is collapsed.
package highlight

import (
	"github.com/statcompass/statcompass/pkg/edgeid"
	"github.com/statcompass/statcompass/pkg/model"
)

// Ancestors returns the root-first ancestor chain of id, excluding id
// itself. The root and unknown ids yield an empty chain; highlighting
// degrades gracefully rather than failing the surface.
func Ancestors(id string, data model.TreeData) []string {
	return data.Ancestors(id)
}

// PathToNode returns the full root-to-id path, ending with id. Unknown ids
// yield an empty path.
func PathToNode(id string, data model.TreeData) []string {
	if !data.Exists(id) {
		return nil
	}
	return append(data.Ancestors(id), id)
}

// Edges derives the highlighted edge-id set from consecutive pairs of the
// path. One id is emitted per logical parent→child relation, regardless of
// how many drawn segments represent it.
func Edges(path []string) map[string]struct{} {
	edges := make(map[string]struct{}, max(len(path)-1, 0))
	for i := 0; i+1 < len(path); i++ {
		edges[edgeid.Encode(path[i], path[i+1], "")] = struct{}{}
	}
	return edges
}

// PathSet returns the path as a membership set.
func PathSet(path []string) map[string]struct{} {
	set := make(map[string]struct{}, len(path))
	for _, id := range path {
		set[id] = struct{}{}
	}
	return set
}

// Pather computes root paths through a prebuilt parent index. Rendering
// surfaces recompute the active path on every frame, where the full scan
// behind TreeData.Ancestors adds up; the index makes each lookup a map hit.
type Pather struct {
	data model.TreeData
	idx  *model.ParentIndex
}

// NewPather indexes data once. The index reflects the tree at build time;
// rebuild after a reload.
func NewPather(data model.TreeData) *Pather {
	return &Pather{data: data, idx: model.NewParentIndex(data)}
}

// PathToNode is the indexed equivalent of the package-level PathToNode.
func (p *Pather) PathToNode(id string) []string {
	if !p.data.Exists(id) {
		return nil
	}
	return append(p.idx.Ancestors(id), id)
}

// IsEdgeHighlighted reports whether the edge lies on the highlighted path:
// true iff both decoded endpoints are members of the path set. This goes
// through the codec, never substring containment, because node ids may
// contain the separator's component characters.
func IsEdgeHighlighted(edgeID string, pathSet map[string]struct{}) bool {
	ref, ok := edgeid.Decode(edgeID)
	if !ok {
		return false
	}
	_, parentOn := pathSet[ref.ParentID]
	_, childOn := pathSet[ref.ChildID]
	return parentOn && childOn
}
