package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/planr/internal/planner"
	"github.com/sadopc/planr/internal/timer"
)

// viewState represents the currently active view.
type viewState int

const (
	viewToday viewState = iota
	viewWeek
	viewQuarter
	viewFocus
	viewReports
	viewSettings
)

var viewNames = []string{"Today", "Week", "Quarter", "Focus", "Reports", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// timerMsg carries the latest timer snapshot from the controller.
type timerMsg struct {
	state timer.State
}

// sessionSavedMsg is sent after the timer was finished into the session log.
type sessionSavedMsg struct {
	session planner.Session
}

// startFocusMsg asks the focus view to start timing an item picked elsewhere.
type startFocusMsg struct {
	id    string
	title string
}

// changedMsg tells every view that planner data changed and should reload.
type changedMsg struct{}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func errorStatus(action string, err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("%s: %v", action, err), isError: true}
	}
}

func status(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

// mutate runs fn and reports the outcome as a reload or an error status.
func mutate(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return statusMsg{text: fmt.Sprintf("%s: %v", action, err), isError: true}
		}
		return changedMsg{}
	}
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatHours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}

func checkbox(done bool) string {
	if done {
		return successStyle.Render("[x]")
	}
	return "[ ]"
}

// progressBar renders pct (0-100) as a bar of width cells.
func progressBar(pct, width int) string {
	pct = max(0, min(100, pct))
	filled := pct * width / 100
	return progressFillStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// clampCursor keeps a list cursor inside [0, n).
func clampCursor(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	return max(0, cursor)
}

// moveID returns ids with the entry at i moved by delta, or nil when the move
// would leave the list.
func moveID(ids []string, i, delta int) []string {
	j := i + delta
	if i < 0 || i >= len(ids) || j < 0 || j >= len(ids) {
		return nil
	}
	out := append([]string(nil), ids...)
	out[i], out[j] = out[j], out[i]
	return out
}

func timerErrorText(err error) string {
	switch {
	case errors.Is(err, timer.ErrBusy):
		return "Another task is paused; finish or reset it first"
	case errors.Is(err, timer.ErrNoTask):
		return "Pick a task to focus on"
	case errors.Is(err, timer.ErrNotRunning):
		return "Timer is not running"
	}
	return fmt.Sprintf("Timer error: %v", err)
}
