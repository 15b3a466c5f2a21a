package interact

import (
	"errors"
	"testing"

	"github.com/statcompass/statcompass/pkg/model"
)

func testTree() model.TreeData {
	return model.TreeData{
		"start": {Question: "goal?", Options: []model.Option{
			{Label: "compare", NextNodeID: "cont_single_2g"},
		}},
		"cont_single_2g": {Question: "paired?", Options: []model.Option{
			{Label: "independent", NextNodeID: "ttest_ind"},
			{Label: "paired", NextNodeID: "ttest_paired"},
		}},
		"ttest_ind":    {Result: &model.Result{Test: "independent t-test"}},
		"ttest_paired": {Result: &model.Result{Test: "paired t-test"}},
	}
}

// TestDetermineClickAction pins the classification matrix: an expandable
// node toggles by the caller-supplied flag; a leaf always navigates.
func TestDetermineClickAction(t *testing.T) {
	data := testTree()
	cases := []struct {
		id         string
		isExpanded bool
		want       Action
	}{
		{"cont_single_2g", false, ActionExpand},
		{"cont_single_2g", true, ActionCollapse},
		{"ttest_ind", false, ActionNavigate},
		// An inconsistent flag on a leaf must not cause toggling.
		{"ttest_ind", true, ActionNavigate},
	}
	for _, tc := range cases {
		got, err := DetermineClickAction(tc.id, tc.isExpanded, data)
		if err != nil {
			t.Errorf("DetermineClickAction(%q, %v) error: %v", tc.id, tc.isExpanded, err)
			continue
		}
		if got.Action != tc.want {
			t.Errorf("DetermineClickAction(%q, %v) = %s, want %s", tc.id, tc.isExpanded, got.Action, tc.want)
		}
		if got.NodeID != tc.id {
			t.Errorf("result node id = %q, want %q", got.NodeID, tc.id)
		}
	}
}

func TestDetermineClickActionUnknown(t *testing.T) {
	_, err := DetermineClickAction("no_such_node", false, testTree())
	if err == nil {
		t.Fatal("expected error for unknown node")
	}
	if !errors.Is(err, model.ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestClickPredicates(t *testing.T) {
	data := testTree()
	if !ShouldNavigateOnClick("ttest_ind", data) {
		t.Error("leaf should navigate")
	}
	if ShouldNavigateOnClick("cont_single_2g", data) {
		t.Error("expandable node should not navigate")
	}
	if !ShouldToggleOnClick("cont_single_2g", data) {
		t.Error("expandable node should toggle")
	}
	if ShouldToggleOnClick("ttest_ind", data) {
		t.Error("leaf should not toggle")
	}
	// Unknown ids return false on hot paths rather than erroring.
	if ShouldNavigateOnClick("no_such_node", data) || ShouldToggleOnClick("no_such_node", data) {
		t.Error("unknown id predicates must be false")
	}
}

func TestGuardSerializesInteractions(t *testing.T) {
	var g Guard
	if g.InFlight() {
		t.Fatal("fresh guard must be clear")
	}
	if !g.TryBegin() {
		t.Fatal("first TryBegin must succeed")
	}
	if g.TryBegin() {
		t.Error("second TryBegin while held must fail")
	}
	if !g.InFlight() {
		t.Error("guard should report in flight while held")
	}
	g.End()
	if !g.TryBegin() {
		t.Error("TryBegin after End must succeed")
	}
	g.End()
	g.End() // double End is safe
	if g.InFlight() {
		t.Error("guard should be clear after End")
	}
}
