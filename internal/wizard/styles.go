package wizard

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("135") // purple
	colorSuccess = lipgloss.Color("42")
	colorError   = lipgloss.Color("203")
	colorInfo    = lipgloss.Color("111")
	colorMuted   = lipgloss.Color("244")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(colorAccent).
			Bold(true).
			Padding(0, 1)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true).
				MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorInfo)

	selectedStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	unselectedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// wraps every screen
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(colorAccent).
			PaddingLeft(2)

	tipBoxStyle = lipgloss.NewStyle().
			Foreground(colorInfo).
			MarginTop(1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Faint(true).
			MarginTop(1)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWorking = "…"
	iconCursor  = "›"
)

func renderHeader(text string) string {
	return headerStyle.Render(text)
}

func renderSectionHeader(text string) string {
	return sectionHeaderStyle.Render(text)
}

func renderSuccess(text string) string {
	return successStyle.Render(iconSuccess + " " + text)
}

func renderError(text string) string {
	return errorStyle.Render(iconError + " " + text)
}

// renderInfo renders a hint line under the current screen.
func renderInfo(text string) string {
	return tipBoxStyle.Render("hint: " + text)
}

func renderOption(selected bool, text string) string {
	if selected {
		return selectedStyle.Render(iconCursor + " " + text)
	}
	return unselectedStyle.Render("  " + text)
}

func renderStatusBar(text string) string {
	return statusBarStyle.Render(text)
}
