package ui

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/statcompass/statcompass/pkg/state"
)

// ViewState is the persisted shape of the diagram pane, saved to
// .statcompass/view-state.json so expand/collapse choices and the selection
// survive restarts.
//
// Design notes:
//   - Corrupted or missing file = use defaults (graceful degradation)
//   - Stale node ids are dropped on restore by the engine
//   - Version field enables future schema migrations
type ViewState struct {
	Version   int      `json:"version"`
	Expanded  []string `json:"expanded"`
	Collapsed []string `json:"collapsed"`
	Selected  string   `json:"selected,omitempty"`
}

// ViewStateVersion is the current schema version.
const ViewStateVersion = 1

// viewStateFileName is the filename inside the settings directory.
const viewStateFileName = "view-state.json"

// ViewStatePath returns the persistence path for a settings directory.
func ViewStatePath(settingsDir string) string {
	if settingsDir == "" {
		settingsDir = ".statcompass"
	}
	return filepath.Join(settingsDir, viewStateFileName)
}

// SaveViewState persists the expansion state and selection. Errors are
// logged, never surfaced: losing view state must not interrupt the session.
func SaveViewState(settingsDir string, st state.ExpansionState, selected string) {
	vs := ViewState{
		Version:   ViewStateVersion,
		Expanded:  st.ExpandedIDs(),
		Collapsed: st.CollapsedIDs(),
		Selected:  selected,
	}
	data, err := json.MarshalIndent(vs, "", "  ")
	if err != nil {
		log.Printf("warning: failed to marshal view state: %v", err)
		return
	}

	path := ViewStatePath(settingsDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("warning: failed to create state directory: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("warning: failed to write view state to %s: %v", path, err)
	}
}

// LoadViewState restores a persisted view. A missing or corrupted file
// yields the initial state silently.
func LoadViewState(settingsDir string) (state.ExpansionState, string) {
	data, err := os.ReadFile(ViewStatePath(settingsDir))
	if err != nil {
		return state.New(), ""
	}

	var vs ViewState
	if err := json.Unmarshal(data, &vs); err != nil {
		log.Printf("warning: invalid view state file, using defaults: %v", err)
		return state.New(), ""
	}
	return state.Restore(vs.Expanded, vs.Collapsed), vs.Selected
}
