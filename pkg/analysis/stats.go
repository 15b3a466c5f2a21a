// Package analysis computes structural statistics over a decision tree:
// counts, depth, fanout distribution, reachability and cycle reports. The
// output is JSON-ready for the --robot-stats mode.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/stat"

	"github.com/statcompass/statcompass/pkg/model"
)

// Stats summarizes the shape and health of a decision tree.
type Stats struct {
	NodeCount     int `json:"node_count"`
	QuestionCount int `json:"question_count"`
	LeafCount     int `json:"leaf_count"`

	// MaxDepth is the longest root-to-node distance in levels, root = 1.
	// Zero when the root is missing.
	MaxDepth int `json:"max_depth"`

	// Fanout statistics over question nodes (option counts).
	FanoutMean   float64 `json:"fanout_mean"`
	FanoutStdDev float64 `json:"fanout_stddev"`

	// LeafDepths maps each reachable leaf to its level, i.e. the number of
	// answers needed to arrive there plus one.
	LeafDepths map[string]int `json:"leaf_depths,omitempty"`

	// Unreachable lists nodes with no path from the root.
	Unreachable []string `json:"unreachable,omitempty"`

	// Dangling lists option targets that do not exist.
	Dangling []string `json:"dangling,omitempty"`

	// Cycles lists every elementary directed cycle, each rotated to start
	// at its smallest node id.
	Cycles [][]string `json:"cycles,omitempty"`

	// LeafWeights maps each question node to the number of distinct
	// recommendations reachable from it. A leaf's own weight is 1.
	LeafWeights map[string]int `json:"leaf_weights,omitempty"`
}

// Compute derives Stats for the given tree. It never fails: a degenerate
// tree simply yields degenerate numbers.
func Compute(data model.TreeData) Stats {
	s := Stats{
		NodeCount:  len(data),
		LeafDepths: make(map[string]int),
	}

	var fanouts []float64
	for _, node := range data {
		if node.IsLeaf() {
			s.LeafCount++
		} else {
			s.QuestionCount++
			fanouts = append(fanouts, float64(len(node.Options)))
		}
	}
	if len(fanouts) > 0 {
		s.FanoutMean = stat.Mean(fanouts, nil)
		if len(fanouts) > 1 {
			s.FanoutStdDev = stat.StdDev(fanouts, nil)
		}
	}

	s.Dangling = data.DanglingRefs()
	sort.Strings(s.Dangling)

	depths := bfsDepths(data)
	for id, depth := range depths {
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		if node, ok := data[id]; ok && node.IsLeaf() {
			s.LeafDepths[id] = depth
		}
	}
	if len(s.LeafDepths) == 0 {
		s.LeafDepths = nil
	}

	for id := range data {
		if _, ok := depths[id]; !ok {
			s.Unreachable = append(s.Unreachable, id)
		}
	}
	sort.Strings(s.Unreachable)

	s.Cycles = findCycles(data)
	s.LeafWeights = leafWeights(data)
	return s
}

// leafWeights counts, for every node, the distinct leaves in its reachable
// set. No memoization across nodes: shared subtrees under a DAG join would
// double-count through a naive sum, so each node gets its own visited walk.
func leafWeights(data model.TreeData) map[string]int {
	weights := make(map[string]int, len(data))
	for id, node := range data {
		if node.IsLeaf() {
			weights[id] = 1
			continue
		}
		count := 0
		for _, desc := range data.Descendants(id) {
			if n, ok := data[desc]; ok && n.IsLeaf() {
				count++
			}
		}
		weights[id] = count
	}
	if len(weights) == 0 {
		return nil
	}
	return weights
}

// bfsDepths returns the level of every node reachable from the root, where
// the root itself is level 1. A node reached by several paths keeps the
// shortest one.
func bfsDepths(data model.TreeData) map[string]int {
	depths := make(map[string]int)
	if !data.Exists(model.RootID) {
		return depths
	}
	depths[model.RootID] = 1
	queue := []string{model.RootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, opt := range data[id].Options {
			next := opt.NextNodeID
			if !data.Exists(next) {
				continue
			}
			if _, seen := depths[next]; seen {
				continue
			}
			depths[next] = depths[id] + 1
			queue = append(queue, next)
		}
	}
	return depths
}

// findCycles builds a directed graph over the tree's edges and reports every
// elementary cycle. The walks in the engine tolerate cycles; this surfaces
// them so data authors can fix their files.
func findCycles(data model.TreeData) [][]string {
	ids := make([]string, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	toNum := make(map[string]int64, len(ids))
	toID := make(map[int64]string, len(ids))
	g := simple.NewDirectedGraph()
	for i, id := range ids {
		n := int64(i)
		toNum[id] = n
		toID[n] = id
		g.AddNode(simple.Node(n))
	}
	for _, id := range ids {
		from := toNum[id]
		for _, opt := range data[id].Options {
			to, ok := toNum[opt.NextNodeID]
			if !ok || from == to {
				// Self-loops are reported directly; simple graphs reject
				// them.
				continue
			}
			g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}

	var cycles [][]string
	for _, id := range ids {
		for _, opt := range data[id].Options {
			if opt.NextNodeID == id {
				cycles = append(cycles, []string{id})
			}
		}
	}

	for _, cycle := range topo.DirectedCyclesIn(g) {
		// gonum repeats the first node at the end; drop it.
		named := make([]string, 0, len(cycle)-1)
		for _, n := range cycle[:len(cycle)-1] {
			named = append(named, toID[n.ID()])
		}
		cycles = append(cycles, rotateToSmallest(named))
	}

	sort.Slice(cycles, func(i, j int) bool {
		a, b := cycles[i], cycles[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
	return cycles
}

// rotateToSmallest normalizes a cycle so equal cycles compare equal no
// matter where the walk started.
func rotateToSmallest(cycle []string) []string {
	if len(cycle) == 0 {
		return cycle
	}
	min := 0
	for i, id := range cycle {
		if id < cycle[min] {
			min = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[min:]...)
	out = append(out, cycle[:min]...)
	return out
}
