package history

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesDirAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".statcompass")
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Errorf("database file missing: %v", err)
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := openTemp(t)

	visits := []struct {
		nodeID, test string
		path         []string
	}{
		{"ttest_ind", "Independent-samples t-test", []string{"start", "compare_groups", "ttest_ind"}},
		{"correlation", "Pearson correlation", []string{"start", "relationships", "correlation"}},
		{"mcnemar", "McNemar's test", []string{"start", "compare_groups", "categorical", "mcnemar"}},
	}
	for _, v := range visits {
		if err := s.Record(v.nodeID, v.test, v.path); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent(2) returned %d entries", len(got))
	}
	// Newest first.
	if got[0].NodeID != "mcnemar" || got[1].NodeID != "correlation" {
		t.Errorf("order = %s, %s", got[0].NodeID, got[1].NodeID)
	}
	wantPath := []string{"start", "compare_groups", "categorical", "mcnemar"}
	if !reflect.DeepEqual(got[0].Path, wantPath) {
		t.Errorf("path = %v, want %v", got[0].Path, wantPath)
	}
	if got[0].VisitedAt.IsZero() {
		t.Error("visited_at not recorded")
	}
}

func TestRecentAllAndEmpty(t *testing.T) {
	s := openTemp(t)

	got, err := s.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("empty store returned %d entries", len(got))
	}

	for i := 0; i < 5; i++ {
		if err := s.Record("linreg", "Linear regression", []string{"start", "relationships", "regression", "linreg"}); err != nil {
			t.Fatal(err)
		}
	}
	got, err = s.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Errorf("Recent(0) = %d entries, want all 5", len(got))
	}
}

func TestClear(t *testing.T) {
	s := openTemp(t)
	if err := s.Record("survival", "Log-rank test", []string{"start"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	got, err := s.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Clear left %d entries", len(got))
	}
}

// TestReopenPersists: the log survives process restarts.
func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Record("logreg", "Logistic regression", []string{"start", "relationships", "regression", "logreg"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	got, err := s2.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].NodeID != "logreg" {
		t.Errorf("persisted entries = %+v", got)
	}
}
