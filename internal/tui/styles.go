package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/planr/internal/planner"
)

// Palette. Each shade has a light and a dark terminal variant.
var (
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#4F46E5", Dark: "#8B85FF"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#0F8A80", Dark: "#2EC4B6"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#D14343", Dark: "#FF7A7A"}
	colorSuccess   = lipgloss.AdaptiveColor{Light: "#1E8E4E", Dark: "#3DDC84"}
	colorWarning   = lipgloss.AdaptiveColor{Light: "#B86E00", Dark: "#F5A623"}
	colorError     = lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#FF5C5C"}
	colorHighlight = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#7AA2F7"}

	colorFg     = lipgloss.AdaptiveColor{Light: "#1A1B26", Dark: "#C0CAF5"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6B6F80"}
	colorSubtle = lipgloss.AdaptiveColor{Light: "#D0D0D8", Dark: "#3B4261"}
)

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// Shell.
var (
	tabUnderline = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, true, false)
	panelBorder  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())

	inactiveTabStyle = fg(colorMuted).Padding(0, 2)
	activeTabStyle   = tabUnderline.Bold(true).Foreground(colorPrimary).BorderForeground(colorPrimary).Padding(0, 2)
	panelStyle       = panelBorder.BorderForeground(colorSubtle).Padding(1, 2)
	activePanelStyle = panelStyle.BorderForeground(colorPrimary)
	headerStyle      = lipgloss.NewStyle().Padding(0, 1)
	footerStyle      = fg(colorMuted).Padding(0, 1)
)

// Focus timer, one style per timer status.
var (
	timerStyle        = fg(colorPrimary).Bold(true).Align(lipgloss.Center)
	timerRunningStyle = timerStyle.Foreground(colorSuccess)
	timerPausedStyle  = timerStyle.Foreground(colorWarning)
)

// Text.
var (
	titleStyle     = fg(colorFg).Bold(true)
	sectionStyle   = fg(colorSecondary).Bold(true)
	accentStyle    = fg(colorAccent)
	successStyle   = fg(colorSuccess)
	warningStyle   = fg(colorWarning)
	errorStyle     = fg(colorError)
	mutedStyle     = fg(colorMuted)
	highlightStyle = fg(colorHighlight)
)

// List rows.
var (
	normalItemStyle   = fg(colorFg)
	selectedItemStyle = fg(colorPrimary).Bold(true)
	doneStyle         = mutedStyle.Strikethrough(true)
	carriedStyle      = warningStyle.Italic(true)

	progressFillStyle  = fg(colorPrimary)
	progressEmptyStyle = fg(colorSubtle)
)

// blockColors tags each time block type in the day schedule.
var blockColors = map[planner.BlockType]lipgloss.TerminalColor{
	planner.BlockWork:     colorPrimary,
	planner.BlockBreak:    colorSuccess,
	planner.BlockMeeting:  colorWarning,
	planner.BlockPersonal: colorSecondary,
}

func blockStyle(t planner.BlockType) lipgloss.Style {
	c, ok := blockColors[t]
	if !ok {
		c = colorHighlight
	}
	return fg(c)
}
