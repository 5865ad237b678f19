package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/planr/internal/calendar"
	"github.com/sadopc/planr/internal/planner"
)

type weekModel struct {
	planner *planner.Planner
	width   int
	height  int

	key        string
	week       planner.WeekRecord
	goals      []planner.Goal
	goalLabels map[string]string // task id -> goal label
	cursor     int

	formHost
	formTitle *string
	formGoal  *string
	review    reviewFields
}

func newWeekModel(p *planner.Planner) weekModel {
	title, goal := "", ""
	return weekModel{
		planner:   p,
		formTitle: &title,
		formGoal:  &goal,
		review:    newReviewFields(),
	}
}

func (m *weekModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type weekDataMsg struct {
	key        string
	week       planner.WeekRecord
	goals      []planner.Goal
	goalLabels map[string]string
}

func (m weekModel) weekKey() string {
	if m.key == "" {
		return m.planner.CurrentKeys().Week
	}
	return m.key
}

// refresh opens the week through GetWeek, so a first visit carries over the
// previous week's unfinished tasks.
func (m weekModel) refresh() tea.Cmd {
	p, weekKey := m.planner, m.weekKey()
	return func() tea.Msg {
		w, err := p.GetWeek(weekKey)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load week: %v", err), isError: true}
		}
		q, err := p.GetQuarter(w.QuarterKey)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load quarter: %v", err), isError: true}
		}
		labels := make(map[string]string)
		for _, t := range w.Tasks {
			if t.GoalID != "" {
				labels[t.ID] = planner.GoalLabel(planner.Resolve(t.GoalID, q.Goals))
			}
		}
		return weekDataMsg{key: weekKey, week: w, goals: q.Goals, goalLabels: labels}
	}
}

func (m weekModel) update(msg tea.Msg) (weekModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case weekDataMsg:
		m.key = msg.key
		m.week = msg.week
		m.goals = msg.goals
		m.goalLabels = msg.goalLabels
		m.cursor = clampCursor(m.cursor, len(m.week.Tasks))
		return m, nil

	case changedMsg:
		return m, m.refresh()

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m weekModel) updateKeys(msg tea.KeyMsg) (weekModel, tea.Cmd) {
	p, weekKey, n := m.planner, m.weekKey(), len(m.week.Tasks)

	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < n-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
		days := -7
		if key.Matches(msg, keys.Right) {
			days = 7
		}
		start, err := calendar.WeekStart(weekKey)
		if err != nil {
			return m, errorStatus("Navigate", err)
		}
		m.key = calendar.WeekKey(start.AddDate(0, 0, days))
		m.cursor = 0
		return m, m.refresh()
	case key.Matches(msg, keys.New):
		return m.showTaskForm(nil)
	case key.Matches(msg, keys.Enter):
		if n > 0 {
			t := m.week.Tasks[m.cursor]
			return m.showTaskForm(&t)
		}
	case key.Matches(msg, keys.Toggle):
		if n > 0 {
			t := m.week.Tasks[m.cursor]
			return m, mutate("Toggle task", func() error { return p.ToggleTask(weekKey, t.ID, !t.Completed) })
		}
	case key.Matches(msg, keys.Delete):
		if n > 0 {
			id := m.week.Tasks[m.cursor].ID
			return m, mutate("Delete task", func() error { return p.DeleteTask(weekKey, id) })
		}
	case key.Matches(msg, keys.MoveUp), key.Matches(msg, keys.MoveDown):
		delta := -1
		if key.Matches(msg, keys.MoveDown) {
			delta = 1
		}
		ids := make([]string, n)
		for i, t := range m.week.Tasks {
			ids[i] = t.ID
		}
		if ids = moveID(ids, m.cursor, delta); ids == nil {
			return m, nil
		}
		m.cursor += delta
		return m, mutate("Reorder tasks", func() error { return p.ReorderTasks(weekKey, ids) })
	case key.Matches(msg, keys.Start):
		if n > 0 {
			t := m.week.Tasks[m.cursor]
			return m, func() tea.Msg { return startFocusMsg{id: t.ID, title: t.Title} }
		}
	case key.Matches(msg, keys.Review):
		cmd := m.open("review", "", m.review.form("Weekly review · "+weekKey))
		return m, cmd
	}
	return m, nil
}

func (m weekModel) showTaskForm(t *planner.Task) (weekModel, tea.Cmd) {
	*m.formTitle, *m.formGoal = "", ""
	id := ""
	if t != nil {
		*m.formTitle, *m.formGoal, id = t.Title, t.GoalID, t.ID
	}

	goals := []huh.Option[string]{huh.NewOption(planner.NoGoalLabel, "")}
	for _, g := range m.goals {
		goals = append(goals, huh.NewOption(g.Title, g.ID))
	}
	f := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Task").Value(m.formTitle).Validate(required),
		huh.NewSelect[string]().Title("Goal").Options(goals...).Value(m.formGoal),
	))
	cmd := m.open("task", id, f)
	return m, cmd
}

func (m weekModel) updateForm(msg tea.Msg) (weekModel, tea.Cmd) {
	done, cmd := m.step(msg)
	if !done {
		return m, cmd
	}

	p, weekKey, id := m.planner, m.weekKey(), m.editingID
	if m.formKind == "review" {
		r := m.review.review(planner.ReviewWeekly)
		return m, func() tea.Msg {
			if _, err := p.SaveReview(r); err != nil {
				return statusMsg{text: fmt.Sprintf("Save review: %v", err), isError: true}
			}
			return statusMsg{text: "Weekly review saved"}
		}
	}

	title := strings.TrimSpace(*m.formTitle)
	goal := *m.formGoal
	if id == "" {
		return m, mutate("Add task", func() error {
			_, err := p.AddTask(weekKey, planner.Task{Title: title, GoalID: goal})
			return err
		})
	}
	return m, mutate("Update task", func() error {
		return p.UpdateTask(weekKey, id, planner.TaskPatch{Title: &title, GoalID: &goal})
	})
}

func (m weekModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := "New task"
		switch {
		case m.formKind == "review":
			title = "Weekly review"
		case m.editingID != "":
			title = "Edit task"
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", m.form.View()))
	}

	done := 0
	for _, t := range m.week.Tasks {
		if t.Completed {
			done++
		}
	}
	header := fmt.Sprintf("%s  %s  %s",
		titleStyle.Render(m.weekKey()),
		mutedStyle.Render(m.week.QuarterKey),
		highlightStyle.Render(fmt.Sprintf("%d/%d done", done, len(m.week.Tasks))),
	)

	rows := []string{header, ""}
	if len(m.week.Tasks) == 0 {
		rows = append(rows, mutedStyle.Render("No tasks this week. Press n to add one."))
	}
	for i, t := range m.week.Tasks {
		title := normalItemStyle.Render(t.Title)
		if t.Completed {
			title = doneStyle.Render(t.Title)
		}
		text := checkbox(t.Completed) + " " + title
		if label, ok := m.goalLabels[t.ID]; ok {
			text += mutedStyle.Render("  ◆ " + label)
		}
		if t.CarriedOver {
			text += carriedStyle.Render("  ↻ " + t.CarriedFromWeek)
		}
		cursor := "  "
		if i == m.cursor {
			cursor = selectedItemStyle.Render("> ")
		}
		rows = append(rows, cursor+text)
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  enter: edit  space: done  J/K: move  s: focus  v: review  ←/→: week"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
