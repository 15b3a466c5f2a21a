package ui

import (
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/statcompass/statcompass/pkg/interact"
	"github.com/statcompass/statcompass/pkg/layout"
	"github.com/statcompass/statcompass/pkg/model"
)

func testTree() model.TreeData {
	return model.TreeData{
		"start": {Question: "goal?", Options: []model.Option{
			{Label: "compare", NextNodeID: "compare_groups"},
			{Label: "describe", NextNodeID: "describe_explore"},
		}},
		"compare_groups": {Question: "outcome?", Options: []model.Option{
			{Label: "continuous", NextNodeID: "cont_single_2g"},
		}},
		"cont_single_2g":   {Result: &model.Result{Test: "t-test", Notes: "notes"}},
		"describe_explore": {Result: &model.Result{Test: "descriptives"}},
	}
}

func newTestDiagram(t *testing.T) DiagramModel {
	t.Helper()
	theme := DarkTheme(lipgloss.DefaultRenderer())
	d, err := NewDiagramModel(testTree(), layout.DefaultConfig(), theme, "")
	if err != nil {
		t.Fatal(err)
	}
	d.SetSize(80, 20)
	return d
}

func TestNewDiagramStartsAtRoot(t *testing.T) {
	d := newTestDiagram(t)
	if d.SelectedID() != model.RootID {
		t.Errorf("initial selection = %q, want root", d.SelectedID())
	}
	// Root expanded: root plus its two children are visible.
	if d.NodeCount() != 3 {
		t.Errorf("visible nodes = %d, want 3", d.NodeCount())
	}
}

func TestDiagramNavigation(t *testing.T) {
	d := newTestDiagram(t)
	d.MoveDown()
	if d.SelectedID() != "compare_groups" {
		t.Errorf("after MoveDown selection = %q", d.SelectedID())
	}
	d.MoveUp()
	d.MoveUp() // clamped at top
	if d.SelectedID() != model.RootID {
		t.Errorf("MoveUp should clamp at root, got %q", d.SelectedID())
	}
	d.JumpToBottom()
	if d.SelectedID() != "describe_explore" {
		t.Errorf("JumpToBottom selection = %q", d.SelectedID())
	}
	d.JumpToParent()
	if d.SelectedID() != model.RootID {
		t.Errorf("JumpToParent selection = %q", d.SelectedID())
	}
}

func TestDiagramActivateTogglesAndNavigates(t *testing.T) {
	d := newTestDiagram(t)
	d.SelectByID("compare_groups")

	result, ok := d.Activate()
	if !ok || result.Action != interact.ActionExpand {
		t.Fatalf("first activate = %+v, %v; want expand", result, ok)
	}
	if d.NodeCount() != 4 {
		t.Errorf("after expand visible = %d, want 4", d.NodeCount())
	}

	d.SelectByID("cont_single_2g")
	result, ok = d.Activate()
	if !ok || result.Action != interact.ActionNavigate {
		t.Fatalf("leaf activate = %+v, %v; want navigate", result, ok)
	}
	if d.NavigatedID() != "cont_single_2g" {
		t.Errorf("navigated id = %q", d.NavigatedID())
	}

	d.SelectByID("compare_groups")
	result, ok = d.Activate()
	if !ok || result.Action != interact.ActionCollapse {
		t.Fatalf("second activate = %+v, %v; want collapse", result, ok)
	}
	if d.NodeCount() != 3 {
		t.Errorf("after collapse visible = %d, want 3", d.NodeCount())
	}
}

func TestDiagramCursorSurvivesCollapse(t *testing.T) {
	d := newTestDiagram(t)
	d.SelectByID("compare_groups")
	d.ExpandOrMoveToChild() // expand
	d.ExpandOrMoveToChild() // move to first child
	if d.SelectedID() != "cont_single_2g" {
		t.Fatalf("selection = %q, want cont_single_2g", d.SelectedID())
	}

	// Collapse the node above the cursor; the cursor falls back to the
	// nearest visible ancestor rather than pointing at a hidden row.
	d.SelectByID("compare_groups")
	d.CollapseOrJumpToParent()
	if d.SelectedID() != "compare_groups" {
		t.Errorf("selection after collapse = %q, want compare_groups", d.SelectedID())
	}
}

func TestDiagramExpandAllCollapseAll(t *testing.T) {
	d := newTestDiagram(t)
	d.ExpandAll()
	if d.NodeCount() != 4 {
		t.Errorf("ExpandAll visible = %d, want 4", d.NodeCount())
	}
	d.CollapseAll()
	if d.NodeCount() != 3 {
		t.Errorf("CollapseAll visible = %d, want root + direct children", d.NodeCount())
	}
}

func TestDiagramViewShowsLabels(t *testing.T) {
	d := newTestDiagram(t)
	view := d.View()
	for _, want := range []string{"goal?", "outcome?", "descriptives"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	// Expandable nodes carry a fold indicator, leaves a bullet.
	if !strings.Contains(view, "▾") || !strings.Contains(view, "▸") || !strings.Contains(view, "•") {
		t.Error("view missing fold indicators")
	}
}

func TestDiagramPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	theme := DarkTheme(lipgloss.DefaultRenderer())

	d, err := NewDiagramModel(testTree(), layout.DefaultConfig(), theme, dir)
	if err != nil {
		t.Fatal(err)
	}
	d.SetSize(80, 20)
	d.SelectByID("compare_groups")
	d.Activate() // expand, persists
	d.SelectByID("cont_single_2g")
	d.Activate() // navigate, persists

	restored, err := NewDiagramModel(testTree(), layout.DefaultConfig(), theme, dir)
	if err != nil {
		t.Fatal(err)
	}
	if !restored.State().IsExpanded("compare_groups") {
		t.Error("expansion state not restored")
	}
	if restored.NavigatedID() != "cont_single_2g" {
		t.Errorf("restored selection = %q", restored.NavigatedID())
	}
}

func TestLoadViewStateCorruptFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := ViewStatePath(dir)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	st, selected := LoadViewState(dir)
	if !st.IsExpanded(model.RootID) || selected != "" {
		t.Error("corrupt state file should fall back to defaults")
	}
}
