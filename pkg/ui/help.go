package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// helpContent is the full key reference, shown as an overlay on '?'.
// Content fits on one screen without scrolling.
const helpContent = `
  Navigation
    j / ↓          move down
    k / ↑          move up
    g / home       jump to the first question
    G / end        jump to the last visible node
    p              jump to parent

  Tree
    enter / space  expand, collapse, or open a recommendation
    l / →          expand, or step into children
    h / ←          collapse, or jump to parent
    e              expand everything
    c              collapse everything

  Other
    tab            switch between tree and details
    y              copy the current path to the clipboard
    ?              toggle this help
    q / ctrl+c     quit
`

// renderHelp renders the help overlay centered in the window.
func (m Model) renderHelp() string {
	r := m.theme.Renderer

	titleStyle := r.NewStyle().Bold(true).Foreground(m.theme.Primary)
	contentStyle := r.NewStyle().Foreground(m.theme.Text)
	hintStyle := r.NewStyle().Foreground(m.theme.Muted)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("statcompass keys"))
	sb.WriteString("\n")
	sb.WriteString(contentStyle.Render(helpContent))
	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render("press ? or esc to close"))

	modal := m.theme.Focused.Render(sb.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
