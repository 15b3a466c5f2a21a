package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/statcompass/statcompass/pkg/analysis"
	"github.com/statcompass/statcompass/pkg/layout"
	"github.com/statcompass/statcompass/pkg/loader"
	"github.com/statcompass/statcompass/pkg/model"
)

// StatsMsg delivers tree statistics computed off the UI goroutine.
type StatsMsg struct {
	Stats analysis.Stats
}

// TreeReloadedMsg delivers a freshly parsed tree after the data file changed
// on disk.
type TreeReloadedMsg struct {
	Data   model.TreeData
	Layout layout.Config
}

// ComputeStatsCmd runs the structural analysis in the background. Cycle
// enumeration can take a moment on dense graphs; the footer shows a pending
// marker until this lands.
func ComputeStatsCmd(data model.TreeData) tea.Cmd {
	return func() tea.Msg {
		return StatsMsg{Stats: analysis.Compute(data)}
	}
}

// StartWatching wires a data-file watcher to a running program: every
// successful reload is delivered as a TreeReloadedMsg. The returned stop
// function shuts the watcher down.
func StartWatching(program *tea.Program, path string, cfg layout.Config) (func(), error) {
	w, err := loader.NewWatcher(path, func(data model.TreeData) {
		program.Send(TreeReloadedMsg{Data: data, Layout: cfg})
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return nil, err
	}
	return w.Stop, nil
}
