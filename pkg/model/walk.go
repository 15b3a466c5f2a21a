package model

import "sort"

// ParentOf returns the id of the node whose options reference id. This is
// the naive form: a full scan of the tree per call. Identifier uniqueness
// makes it correct; callers on hot paths should use a ParentIndex instead
// since tree data is static. The scan visits ids in sorted order so the
// answer is deterministic even for malformed multi-parent data.
func (d TreeData) ParentOf(id string) (string, bool) {
	ids := make([]string, 0, len(d))
	for candidate := range d {
		ids = append(ids, candidate)
	}
	sort.Strings(ids)
	for _, candidate := range ids {
		for _, opt := range d[candidate].Options {
			if opt.NextNodeID == id {
				return candidate, true
			}
		}
	}
	return "", false
}

// Ancestors returns the ancestor chain of id ordered root-first, excluding
// id itself. The root yields an empty chain, as does an unknown id. The
// walk carries a visited set so cyclic data terminates instead of looping.
func (d TreeData) Ancestors(id string) []string {
	if id == RootID || !d.Exists(id) {
		return nil
	}
	var chain []string
	visited := map[string]bool{id: true}
	current := id
	for {
		parent, ok := d.ParentOf(current)
		if !ok || visited[parent] {
			break
		}
		visited[parent] = true
		chain = append(chain, parent)
		current = parent
	}
	// Built child-to-root; reverse to root-first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Descendants returns every node id transitively reachable from id through
// options, excluding id itself, in depth-first declared-option order.
// Cycle-guarded: a node is emitted at most once.
func (d TreeData) Descendants(id string) []string {
	node, ok := d[id]
	if !ok {
		return nil
	}
	var out []string
	visited := map[string]bool{id: true}
	var walk func(n *TreeNode)
	walk = func(n *TreeNode) {
		for _, opt := range n.Options {
			childID := opt.NextNodeID
			if visited[childID] {
				continue
			}
			visited[childID] = true
			out = append(out, childID)
			if child, ok := d[childID]; ok {
				walk(child)
			}
		}
	}
	walk(node)
	return out
}

// ParentIndex is a precomputed child→parent map over static TreeData.
// It answers the same questions as ParentOf/Ancestors in O(1)/O(depth)
// instead of a full scan per lookup.
type ParentIndex struct {
	parent map[string]string
}

// NewParentIndex builds the index. When malformed data gives a node several
// parents, the lexicographically smallest parent wins, matching ParentOf.
func NewParentIndex(d TreeData) *ParentIndex {
	idx := &ParentIndex{parent: make(map[string]string, len(d))}
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, opt := range d[id].Options {
			if _, claimed := idx.parent[opt.NextNodeID]; !claimed {
				idx.parent[opt.NextNodeID] = id
			}
		}
	}
	return idx
}

// Parent returns the parent of id, if any.
func (idx *ParentIndex) Parent(id string) (string, bool) {
	p, ok := idx.parent[id]
	return p, ok
}

// Ancestors returns the root-first ancestor chain of id, excluding id.
func (idx *ParentIndex) Ancestors(id string) []string {
	var chain []string
	visited := map[string]bool{id: true}
	current := id
	for {
		parent, ok := idx.parent[current]
		if !ok || visited[parent] {
			break
		}
		visited[parent] = true
		chain = append(chain, parent)
		current = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
