package tui

import "github.com/charmbracelet/lipgloss"

// Layout
const (
	SidebarWidth      = 32 // gauges column, borders included
	HeaderHeight      = 1
	StatusHeight      = 1
	PaneBorder        = 2 // rounded border, both sides
	ModalWidth        = 64
	ModalHeight       = 18
	ModalOverhead     = 6 // title (2) + padding (2) + border (2)
	RecentListLimit   = 50
	RecentVisibleRows = 10
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorBlue   = lipgloss.AdaptiveColor{Light: "#00008b", Dark: "#5f87ff"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)

	styleMatch = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	stylePane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray)

	styleModal = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorCyan).
			Padding(1, 2)
)

// renderModal centers a bordered dialog with a title and optional footer
func renderModal(title, content, footer string, width, height, totalWidth, totalHeight int) string {
	if totalWidth > 0 && width > totalWidth-4 {
		width = totalWidth - 4
	}
	if totalHeight > 0 && height > totalHeight-2 {
		height = totalHeight - 2
	}
	if width < 30 {
		width = 30
	}

	body := styleTitle.Render(title) + "\n\n" + content
	if footer != "" {
		body += "\n\n" + styleSubtle.Render(footer)
	}

	box := styleModal.Width(width).MaxHeight(height).Render(body)
	if totalWidth == 0 || totalHeight == 0 {
		return box
	}
	return lipgloss.Place(totalWidth, totalHeight, lipgloss.Center, lipgloss.Center, box)
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
