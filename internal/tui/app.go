// Package tui is the terminal front end of the planner. Every view is a thin
// caller of planner.Planner; the focus timer is driven through a
// timer.Controller so the same views work against an in-process Owner or a
// running timer daemon.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/planr/internal/export"
	"github.com/sadopc/planr/internal/planner"
	"github.com/sadopc/planr/internal/timer"
)

var exportFormats = []string{"Planner backup (JSON)", "Sessions (CSV)", "Sessions (JSON)"}

// App is the root Bubble Tea model.
type App struct {
	planner *planner.Planner
	timer   timer.Controller
	width   int
	height  int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	exportDir     string

	today    todayModel
	week     weekModel
	quarter  quarterModel
	focus    focusModel
	reports  reportsModel
	settings settingsModel

	timerState timer.State

	help      help.Model
	status    string
	statusErr bool
}

// NewApp builds the root model. Exports are written to the user's home
// directory.
func NewApp(p *planner.Planner, ctl timer.Controller) App {
	h := help.New()
	h.ShowAll = false

	dir, err := os.UserHomeDir()
	if err != nil {
		dir = "."
	}

	return App{
		planner:    p,
		timer:      ctl,
		activeView: viewToday,
		exportDir:  dir,
		today:      newTodayModel(p),
		week:       newWeekModel(p),
		quarter:    newQuarterModel(p),
		focus:      newFocusModel(p, ctl),
		reports:    newReportsModel(p),
		settings:   newSettingsModel(p),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.today.refresh(),
		a.focus.poll(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.today.setSize(a.width, contentHeight)
		a.week.setSize(a.width, contentHeight)
		a.quarter.setSize(a.width, contentHeight)
		a.focus.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A view with an open form captures all keys.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewToday)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewWeek)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewQuarter)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewFocus)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewReports)
		case key.Matches(msg, keys.Tab6):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		// The controller owns elapsed time; the view only polls it.
		return a, tea.Batch(tickCmd(), a.focus.poll())

	case timerMsg:
		a.timerState = msg.state
		var cmd tea.Cmd
		a.focus, cmd = a.focus.update(msg)
		return a, cmd

	case startFocusMsg:
		a.activeView = viewFocus
		var cmd tea.Cmd
		a.focus, cmd = a.focus.update(msg)
		return a, tea.Batch(cmd, a.focus.refresh())

	case sessionSavedMsg:
		title := msg.session.TaskTitle
		if title == "" {
			title = "Untitled"
		}
		a.status = fmt.Sprintf("Logged %s on %s", formatDuration(msg.session.Duration()), title)
		a.statusErr = false
		var cmd tea.Cmd
		a.focus, cmd = a.focus.update(msg)
		return a, cmd

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewToday:
		a.today, cmd = a.today.update(msg)
	case viewWeek:
		a.week, cmd = a.week.update(msg)
	case viewQuarter:
		a.quarter, cmd = a.quarter.update(msg)
	case viewFocus:
		a.focus, cmd = a.focus.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewToday:
		return a.today.formActive
	case viewWeek:
		return a.week.formActive
	case viewQuarter:
		return a.quarter.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewToday:
		return a.today.refresh()
	case viewWeek:
		return a.week.refresh()
	case viewQuarter:
		return a.quarter.refresh()
	case viewFocus:
		return a.focus.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewToday:
		content = a.today.view()
	case viewWeek:
		content = a.week.view()
	case viewQuarter:
		content = a.quarter.view()
	case viewFocus:
		content = a.focus.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(1, a.height-lipgloss.Height(header)-lipgloss.Height(footer))

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("planr")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	timerInfo := ""
	switch a.timerState.Status {
	case planner.TimerRunning:
		timerInfo = successStyle.Render(" ● " + formatDuration(a.timerState.Elapsed()))
	case planner.TimerPaused:
		timerInfo = warningStyle.Render(" ⏸ " + formatDuration(a.timerState.Elapsed()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	p, dir := a.planner, a.exportDir
	return func() tea.Msg {
		date := p.CurrentKeys().Day

		if format == 0 {
			path := filepath.Join(dir, fmt.Sprintf("planr-backup-%s.json", date))
			if err := export.ToJSON(p, path); err != nil {
				return statusMsg{text: fmt.Sprintf("Backup error: %v", err), isError: true}
			}
			return exportDoneMsg{path: path}
		}

		sessions, err := p.Sessions()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		if format == 1 {
			path := filepath.Join(dir, fmt.Sprintf("planr-sessions-%s.csv", date))
			if err := export.SessionsToCSV(sessions, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
			return exportDoneMsg{path: path}
		}
		path := filepath.Join(dir, fmt.Sprintf("planr-sessions-%s.json", date))
		if err := export.SessionsToJSON(sessions, path); err != nil {
			return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
