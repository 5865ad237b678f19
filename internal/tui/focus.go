package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/planr/internal/planner"
	"github.com/sadopc/planr/internal/timer"
)

const controlTimeout = 3 * time.Second

// candidate is something the timer can be started on.
type candidate struct {
	id     string
	title  string
	source string
}

type focusModel struct {
	planner *planner.Planner
	ctl     timer.Controller
	width   int
	height  int

	state      timer.State
	candidates []candidate
	cursor     int

	todayTotal    time.Duration
	todaySessions []planner.Session
}

func newFocusModel(p *planner.Planner, ctl timer.Controller) focusModel {
	return focusModel{planner: p, ctl: ctl}
}

func (f *focusModel) setSize(w, h int) {
	f.width = w
	f.height = h
}

type focusDataMsg struct {
	candidates []candidate
	total      time.Duration
	sessions   []planner.Session
}

func (f focusModel) refresh() tea.Cmd {
	p := f.planner
	return tea.Batch(func() tea.Msg {
		cur := p.CurrentKeys()
		var cands []candidate
		day, err := p.GetDay(cur.Day)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load day: %v", err), isError: true}
		}
		for _, pr := range day.Priorities {
			if !pr.Completed {
				cands = append(cands, candidate{id: pr.ID, title: pr.Title, source: "priority"})
			}
		}
		if w, ok, err := p.TryGetWeek(cur.Week); err == nil && ok {
			for _, t := range w.Tasks {
				if !t.Completed {
					cands = append(cands, candidate{id: t.ID, title: t.Title, source: "task"})
				}
			}
		}
		sessions, err := p.SessionsOn(cur.Day)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load sessions: %v", err), isError: true}
		}
		var total time.Duration
		for _, s := range sessions {
			total += s.Duration()
		}
		return focusDataMsg{candidates: cands, total: total, sessions: sessions}
	}, f.poll())
}

// poll fetches the timer state once.
func (f focusModel) poll() tea.Cmd {
	return f.control(f.ctl.State)
}

func (f focusModel) control(fn func(ctx context.Context) (timer.State, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
		defer cancel()
		st, err := fn(ctx)
		if err != nil {
			return statusMsg{text: timerErrorText(err), isError: true}
		}
		return timerMsg{state: st}
	}
}

func (f focusModel) start(id, title string) tea.Cmd {
	return f.control(func(ctx context.Context) (timer.State, error) {
		return f.ctl.Start(ctx, id, title)
	})
}

func (f focusModel) finish() tea.Cmd {
	ctl := f.ctl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
		defer cancel()
		s, err := ctl.Finish(ctx)
		if err != nil {
			return statusMsg{text: timerErrorText(err), isError: true}
		}
		return sessionSavedMsg{session: s}
	}
}

func (f focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	switch msg := msg.(type) {
	case focusDataMsg:
		f.candidates = msg.candidates
		f.todayTotal = msg.total
		f.todaySessions = msg.sessions
		f.cursor = clampCursor(f.cursor, len(f.candidates))
		return f, nil

	case timerMsg:
		f.state = msg.state
		return f, nil

	case startFocusMsg:
		return f, f.start(msg.id, msg.title)

	case sessionSavedMsg, changedMsg:
		return f, f.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if f.cursor > 0 {
				f.cursor--
			}
		case key.Matches(msg, keys.Down):
			if f.cursor < len(f.candidates)-1 {
				f.cursor++
			}
		case key.Matches(msg, keys.Start), key.Matches(msg, keys.Enter):
			if len(f.candidates) == 0 {
				if f.state.Status == planner.TimerPaused {
					return f, f.start("", "")
				}
				return f, status("Add a priority or a task first")
			}
			c := f.candidates[f.cursor]
			return f, f.start(c.id, c.title)
		case key.Matches(msg, keys.Pause):
			switch f.state.Status {
			case planner.TimerRunning:
				return f, f.control(f.ctl.Stop)
			case planner.TimerPaused:
				return f, f.start("", "")
			}
		case key.Matches(msg, keys.Finish):
			return f, f.finish()
		case key.Matches(msg, keys.Reset):
			return f, f.control(f.ctl.Reset)
		}
	}
	return f, nil
}

func (f focusModel) view() string {
	if f.width < 20 {
		return "Terminal too small"
	}
	w := f.width - 4
	return lipgloss.JoinVertical(lipgloss.Left,
		f.renderTimerPanel(w),
		f.renderCandidates(w),
		f.renderSessions(w),
	)
}

func (f focusModel) renderTimerPanel(w int) string {
	timeStr := formatDuration(f.state.Elapsed())

	switch f.state.Status {
	case planner.TimerRunning, planner.TimerPaused:
		display := timerRunningStyle.Width(w - 6).Render(timeStr)
		indicator := successStyle.Render("●  RUNNING")
		if f.state.Status == planner.TimerPaused {
			display = timerPausedStyle.Width(w - 6).Render(timeStr)
			indicator = warningStyle.Render("⏸  PAUSED")
		}
		title := f.state.TaskTitle
		if title == "" {
			title = "Untitled"
		}
		content := lipgloss.JoinVertical(lipgloss.Center,
			display,
			indicator,
			highlightStyle.Render(title),
			mutedStyle.Render("p: pause/resume  c: finish  r: reset"),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render(timeStr),
		mutedStyle.Render("■  IDLE"),
		mutedStyle.Render("Pick a task below and press s to start"),
	)
	return panelStyle.Width(w).Render(content)
}

func (f focusModel) renderCandidates(w int) string {
	rows := []string{titleStyle.Render("Focus on")}
	if len(f.candidates) == 0 {
		rows = append(rows, mutedStyle.Render("Nothing open today or this week"))
	}
	for i, c := range f.candidates {
		cursor := "  "
		style := normalItemStyle
		if i == f.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		marker := ""
		if c.id == f.state.TaskID && f.state.Active() {
			marker = successStyle.Render(" ●")
		}
		rows = append(rows, style.Render(cursor+c.title)+mutedStyle.Render("  "+c.source)+marker)
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (f focusModel) renderSessions(w int) string {
	header := fmt.Sprintf("%s  %s", titleStyle.Render("Today's sessions"), highlightStyle.Render(formatDuration(f.todayTotal)))
	rows := []string{header}
	if len(f.todaySessions) == 0 {
		rows = append(rows, mutedStyle.Render("No sessions yet"))
	}
	for _, s := range f.todaySessions {
		title := s.TaskTitle
		if title == "" {
			title = "Untitled"
		}
		rows = append(rows, fmt.Sprintf("  ✓ %s  %-24s %s",
			s.StartTime.Local().Format("15:04"), title, formatDuration(s.Duration())))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
