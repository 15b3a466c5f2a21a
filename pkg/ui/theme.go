// Package ui provides the terminal user interface for statcompass: a
// navigable diagram of the decision tree next to a rendered detail pane.
package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the color palette and shared styles for all panes. Styles are
// built through the Renderer so output degrades correctly on terminals
// without true color.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor // headings, active borders
	Secondary lipgloss.AdaptiveColor // questions
	Leaf      lipgloss.AdaptiveColor // recommendations
	Highlight lipgloss.AdaptiveColor // active path
	Muted     lipgloss.AdaptiveColor // tree lines, hints
	Text      lipgloss.AdaptiveColor

	Selected lipgloss.Style // cursor row
	Panel    lipgloss.Style
	Focused  lipgloss.Style
}

// DarkTheme is the default palette (Dracula).
func DarkTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#7b2fbf", Dark: "#bd93f9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#0f6674", Dark: "#8be9fd"},
		Leaf:      lipgloss.AdaptiveColor{Light: "#1c7c2e", Dark: "#50fa7b"},
		Highlight: lipgloss.AdaptiveColor{Light: "#c2185b", Dark: "#ff79c6"},
		Muted:     lipgloss.AdaptiveColor{Light: "#8a8f98", Dark: "#6272a4"},
		Text:      lipgloss.AdaptiveColor{Light: "#24292f", Dark: "#f8f8f2"},
	}
	t.Selected = r.NewStyle().Reverse(true)
	t.Panel = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Muted).
		Padding(0, 1)
	t.Focused = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1)
	return t
}

// LightTheme flips the adaptive colors for light terminals. The adaptive
// pairs already cover both backgrounds, so this is the same palette with a
// different selection treatment.
func LightTheme(r *lipgloss.Renderer) Theme {
	t := DarkTheme(r)
	t.Selected = r.NewStyle().Bold(true).Underline(true)
	return t
}

// ThemeByName maps a config value to a theme; unknown names get the default.
func ThemeByName(name string, r *lipgloss.Renderer) Theme {
	if name == "light" {
		return LightTheme(r)
	}
	return DarkTheme(r)
}
