package ui

import (
	"fmt"
	"log"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/statcompass/statcompass/pkg/analysis"
	"github.com/statcompass/statcompass/pkg/interact"
	"github.com/statcompass/statcompass/pkg/layout"
	"github.com/statcompass/statcompass/pkg/model"
)

type focus int

const (
	focusDiagram focus = iota
	focusDetail
)

// Recorder receives navigation events for the history log. The interface
// keeps the TUI decoupled from the storage backend.
type Recorder interface {
	Record(nodeID, test string, path []string) error
}

// Model is the root bubbletea model: the diagram pane, a glamour-rendered
// detail pane, breadcrumb and footer.
type Model struct {
	data    model.TreeData
	diagram DiagramModel

	viewport viewport.Model
	renderer *glamour.TermRenderer

	theme    Theme
	recorder Recorder

	stats      analysis.Stats
	statsReady bool

	focused  focus
	showHelp bool
	ready    bool
	width    int
	height   int

	// flash is a one-shot footer message (e.g. after copying a path).
	flash string
}

// ModelConfig wires the root model together.
type ModelConfig struct {
	Data        model.TreeData
	Layout      layout.Config
	Theme       Theme
	SettingsDir string
	Recorder    Recorder
}

// NewModel builds the root model. Layout errors are returned, not deferred:
// a tree whose root cannot be placed has nothing to display.
func NewModel(cfg ModelConfig) (Model, error) {
	diagram, err := NewDiagramModel(cfg.Data, cfg.Layout, cfg.Theme, cfg.SettingsDir)
	if err != nil {
		return Model{}, err
	}

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	m := Model{
		data:     cfg.Data,
		diagram:  diagram,
		renderer: renderer,
		theme:    cfg.Theme,
		recorder: cfg.Recorder,
		focused:  focusDiagram,
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return ComputeStatsCmd(m.data)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case StatsMsg:
		m.stats = msg.Stats
		m.statsReady = true

	case TreeReloadedMsg:
		m.data = msg.Data
		if diagram, err := NewDiagramModel(msg.Data, msg.Layout, m.theme, m.diagram.settingsDir); err == nil {
			diagram.SetSize(m.diagram.width, m.diagram.height)
			m.diagram = diagram
			m.statsReady = false
			cmds = append(cmds, ComputeStatsCmd(msg.Data))
		} else {
			log.Printf("warning: reloaded tree rejected: %v", err)
		}

	case tea.KeyMsg:
		m.flash = ""
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case "esc":
			if m.showHelp {
				m.showHelp = false
				return m, nil
			}
		case "tab":
			if m.focused == focusDiagram {
				m.focused = focusDetail
			} else {
				m.focused = focusDiagram
			}
			return m, nil
		}

		if m.showHelp {
			return m, nil
		}

		if m.focused == focusDiagram {
			m.handleDiagramKey(msg.String())
		} else {
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// breadcrumb + footer
		bodyHeight := msg.Height - 2
		diagramWidth := msg.Width / 2
		detailWidth := msg.Width - diagramWidth - 4

		m.diagram.SetSize(diagramWidth-2, bodyHeight-2)
		m.viewport = viewport.New(detailWidth, bodyHeight-2)

		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(detailWidth),
		)
		m.updateDetail()
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleDiagramKey(key string) {
	switch key {
	case "j", "down":
		m.diagram.MoveDown()
	case "k", "up":
		m.diagram.MoveUp()
	case "g", "home":
		m.diagram.JumpToTop()
	case "G", "end":
		m.diagram.JumpToBottom()
	case "p":
		m.diagram.JumpToParent()
	case "h", "left":
		m.diagram.CollapseOrJumpToParent()
	case "l", "right":
		m.diagram.ExpandOrMoveToChild()
	case "e":
		m.diagram.ExpandAll()
	case "c":
		m.diagram.CollapseAll()
	case "y":
		m.copyPath()
	case "enter", " ":
		result, ok := m.diagram.Activate()
		if ok && result.Action == interact.ActionNavigate {
			m.updateDetail()
			m.recordVisit(result.NodeID)
		}
	}
}

func (m *Model) copyPath() {
	path := m.diagram.PathToSelection()
	if len(path) == 0 {
		path = []string{m.diagram.SelectedID()}
	}
	text := strings.Join(path, " -> ")
	if err := clipboard.WriteAll(text); err != nil {
		m.flash = "clipboard unavailable"
		return
	}
	m.flash = "path copied"
}

func (m *Model) recordVisit(nodeID string) {
	if m.recorder == nil {
		return
	}
	test := ""
	if node, ok := m.data[nodeID]; ok && node.Result != nil {
		test = node.Result.Test
	}
	if err := m.recorder.Record(nodeID, test, m.diagram.PathToSelection()); err != nil {
		log.Printf("warning: failed to record visit: %v", err)
	}
}

// updateDetail renders the selected recommendation into the detail pane.
func (m *Model) updateDetail() {
	id := m.diagram.NavigatedID()
	if id == "" {
		m.viewport.SetContent(m.theme.Renderer.NewStyle().
			Foreground(m.theme.Muted).
			Render("Answer the questions on the left.\nPress enter on a recommendation to see details."))
		return
	}

	node, ok := m.data[id]
	if !ok || node.Result == nil {
		m.viewport.SetContent("No details for " + id)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", node.Result.Test))
	if node.Result.Notes != "" {
		sb.WriteString(node.Result.Notes + "\n\n")
	}
	if path := m.diagram.PathToSelection(); len(path) > 0 {
		sb.WriteString(fmt.Sprintf("---\n\n*Path:* `%s`\n", strings.Join(path, " -> ")))
	}

	rendered, err := m.renderer.Render(sb.String())
	if err != nil {
		m.viewport.SetContent(fmt.Sprintf("Error rendering markdown: %v", err))
		return
	}
	m.viewport.SetContent(rendered)
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	breadcrumb := m.renderBreadcrumb()

	var diagramStyle, detailStyle lipgloss.Style
	if m.focused == focusDiagram {
		diagramStyle, detailStyle = m.theme.Focused, m.theme.Panel
	} else {
		diagramStyle, detailStyle = m.theme.Panel, m.theme.Focused
	}

	bodyHeight := m.height - 2
	diagramView := diagramStyle.Width(m.width/2 - 2).Height(bodyHeight - 2).Render(m.diagram.View())
	detailView := detailStyle.Width(m.width - m.width/2 - 2).Height(bodyHeight - 2).Render(m.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, diagramView, detailView)

	return lipgloss.JoinVertical(lipgloss.Left, breadcrumb, body, m.renderFooter())
}

func (m *Model) renderBreadcrumb() string {
	r := m.theme.Renderer
	path := m.diagram.PathToSelection()
	if len(path) == 0 {
		return r.NewStyle().Foreground(m.theme.Muted).Render(" " + model.RootID)
	}
	sep := r.NewStyle().Foreground(m.theme.Muted).Render(" › ")
	parts := make([]string, len(path))
	for i, id := range path {
		style := r.NewStyle().Foreground(m.theme.Text)
		if i == len(path)-1 {
			style = r.NewStyle().Foreground(m.theme.Highlight).Bold(true)
		}
		parts[i] = style.Render(id)
	}
	return " " + strings.Join(parts, sep)
}

func (m *Model) renderFooter() string {
	r := m.theme.Renderer
	helpStyle := r.NewStyle().Foreground(m.theme.Muted)
	statsStyle := r.NewStyle().Foreground(m.theme.Secondary)

	var stats string
	if m.statsReady {
		stats = fmt.Sprintf(" %d nodes · %d tests · depth %d ",
			m.stats.NodeCount, m.stats.LeafCount, m.stats.MaxDepth)
	} else {
		stats = " analyzing… "
	}

	keys := "j/k: move · enter: select · h/l: fold · y: copy path · ?: help · q: quit"
	if m.flash != "" {
		keys = m.flash
	}

	left := statsStyle.Render(stats)
	right := helpStyle.Render(keys + " ")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + strings.Repeat(" ", gap) + right
}
