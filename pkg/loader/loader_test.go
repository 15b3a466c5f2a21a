package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/statcompass/statcompass/pkg/model"
)

func TestDefaultTreeIsValid(t *testing.T) {
	data := DefaultTree()
	if err := data.Validate(); err != nil {
		t.Fatalf("embedded tree invalid: %v", err)
	}
	if dangling := data.DanglingRefs(); len(dangling) != 0 {
		t.Errorf("embedded tree has dangling refs: %v", dangling)
	}
	if !data.Exists(model.RootID) {
		t.Error("embedded tree missing root")
	}
	// Spot-check a deep branch end to end.
	for _, id := range []string{"compare_groups", "cont_time", "cont_single_groups", "cont_single_2g", "ttest_ind"} {
		if !data.Exists(id) {
			t.Errorf("embedded tree missing %q", id)
		}
	}
	if node := data["ttest_ind"]; node.Result == nil || node.Result.Test == "" {
		t.Error("ttest_ind should carry a result")
	}
}

func TestDefaultTreeCopiesAreIndependent(t *testing.T) {
	a := DefaultTree()
	b := DefaultTree()
	a["start"].Question = "mutated"
	if b["start"].Question == "mutated" {
		t.Error("DefaultTree returns shared state")
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	content := `{
		"start": {"question": "q?", "options": [{"label": "go", "next_node_id": "leaf"}]},
		"leaf": {"result": {"test": "the test"}}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 2 || data["leaf"].Result.Test != "the test" {
		t.Errorf("unexpected tree: %+v", data)
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.yaml")
	content := `
start:
  question: "q?"
  options:
    - label: go
      next_node_id: leaf
leaf:
  result:
    test: the test
    notes: "some *markdown*"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if data["start"].Options[0].NextNodeID != "leaf" {
		t.Errorf("unexpected tree: %+v", data)
	}
	if data["leaf"].Result.Notes != "some *markdown*" {
		t.Errorf("notes = %q", data["leaf"].Result.Notes)
	}
}

func TestLoadRejectsMissingRoot(t *testing.T) {
	_, err := Parse([]byte(`{"other": {"question": "q?"}}`), FormatJSON)
	if err == nil {
		t.Fatal("expected error for tree without root")
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	if _, err := Parse([]byte(`{not json`), FormatJSON); err == nil {
		t.Error("expected json decode error")
	}
	if _, err := Parse([]byte("\t- not a map"), FormatYAML); err == nil {
		t.Error("expected yaml decode error")
	}
	if _, err := Parse([]byte(`{}`), Format("toml")); err == nil {
		t.Error("expected unknown format error")
	}
}

// TestLoadAcceptsDanglingRefs: a missing option target is warned about but
// not fatal.
func TestLoadAcceptsDanglingRefs(t *testing.T) {
	data, err := Parse([]byte(`{
		"start": {"question": "q?", "options": [{"label": "go", "next_node_id": "nowhere"}]}
	}`), FormatJSON)
	if err != nil {
		t.Fatalf("dangling ref should not fail load: %v", err)
	}
	if got := data.DanglingRefs(); len(got) != 1 || got[0] != "nowhere" {
		t.Errorf("DanglingRefs = %v", got)
	}
}

func TestFormatForPath(t *testing.T) {
	cases := map[string]Format{
		"tree.json":    FormatJSON,
		"tree.yaml":    FormatYAML,
		"tree.YML":     FormatYAML,
		"tree.unknown": FormatJSON,
		"tree":         FormatJSON,
	}
	for path, want := range cases {
		if got := FormatForPath(path); got != want {
			t.Errorf("FormatForPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.json")
	write := func(question string) {
		content := `{"start": {"question": "` + question + `"}}`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("first")

	reloads := make(chan model.TreeData, 4)
	w, err := NewWatcher(path, func(data model.TreeData) { reloads <- data })
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Give the watcher a moment to register, then rewrite the file.
	time.Sleep(250 * time.Millisecond)
	write("second")

	select {
	case data := <-reloads:
		if !strings.Contains(data["start"].Question, "second") {
			t.Errorf("reloaded question = %q, want the rewritten value", data["start"].Question)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload delivered after file write")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.json")
	if err := os.WriteFile(path, []byte(`{"start": {"question": "q"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloads := make(chan model.TreeData, 4)
	w, err := NewWatcher(path, func(data model.TreeData) { reloads <- data })
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(250 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloads:
		t.Error("reload triggered by an unrelated file")
	case <-time.After(700 * time.Millisecond):
	}
}
