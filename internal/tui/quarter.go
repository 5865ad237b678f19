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

type quarterModel struct {
	planner *planner.Planner
	width   int
	height  int

	key     string
	quarter planner.QuarterRecord
	summary planner.QuarterSummary
	cursor  int

	formHost
	formTitle *string
	review    reviewFields
}

func newQuarterModel(p *planner.Planner) quarterModel {
	title := ""
	return quarterModel{
		planner:   p,
		formTitle: &title,
		review:    newReviewFields(),
	}
}

func (m *quarterModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type quarterDataMsg struct {
	key     string
	quarter planner.QuarterRecord
	summary planner.QuarterSummary
}

func (m quarterModel) quarterKey() string {
	if m.key == "" {
		return m.planner.CurrentKeys().Quarter
	}
	return m.key
}

func (m quarterModel) refresh() tea.Cmd {
	p, qKey := m.planner, m.quarterKey()
	return func() tea.Msg {
		sum, err := p.QuarterSummary(qKey)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load quarter: %v", err), isError: true}
		}
		q, err := p.GetQuarter(qKey)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load quarter: %v", err), isError: true}
		}
		return quarterDataMsg{key: qKey, quarter: q, summary: sum}
	}
}

func (m quarterModel) update(msg tea.Msg) (quarterModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case quarterDataMsg:
		m.key = msg.key
		m.quarter = msg.quarter
		m.summary = msg.summary
		m.cursor = clampCursor(m.cursor, len(m.quarter.Goals))
		return m, nil

	case changedMsg:
		return m, m.refresh()

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m quarterModel) updateKeys(msg tea.KeyMsg) (quarterModel, tea.Cmd) {
	n := len(m.quarter.Goals)

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
		months := -3
		if key.Matches(msg, keys.Right) {
			months = 3
		}
		start, _, err := calendar.QuarterBounds(m.quarterKey())
		if err != nil {
			return m, errorStatus("Navigate", err)
		}
		m.key = calendar.QuarterKey(start.AddDate(0, months, 0))
		m.cursor = 0
		return m, m.refresh()
	case key.Matches(msg, keys.New):
		*m.formTitle = ""
		cmd := m.open("goal", "", m.goalForm())
		return m, cmd
	case key.Matches(msg, keys.Enter):
		if n > 0 {
			g := m.quarter.Goals[m.cursor]
			*m.formTitle = g.Title
			cmd := m.open("goal", g.ID, m.goalForm())
			return m, cmd
		}
	case key.Matches(msg, keys.Delete):
		if n > 0 {
			p, qKey, id := m.planner, m.quarterKey(), m.quarter.Goals[m.cursor].ID
			return m, mutate("Delete goal", func() error { return p.DeleteGoal(qKey, id) })
		}
	case key.Matches(msg, keys.Review):
		cmd := m.open("review", "", m.review.form("Quarterly review · "+m.quarterKey()))
		return m, cmd
	}
	return m, nil
}

func (m quarterModel) goalForm() *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Goal").Value(m.formTitle).Validate(required),
	))
}

func (m quarterModel) updateForm(msg tea.Msg) (quarterModel, tea.Cmd) {
	done, cmd := m.step(msg)
	if !done {
		return m, cmd
	}

	p, qKey, id := m.planner, m.quarterKey(), m.editingID
	if m.formKind == "review" {
		r := m.review.review(planner.ReviewQuarterly)
		return m, func() tea.Msg {
			if _, err := p.SaveReview(r); err != nil {
				return statusMsg{text: fmt.Sprintf("Save review: %v", err), isError: true}
			}
			return statusMsg{text: "Quarterly review saved"}
		}
	}

	title := strings.TrimSpace(*m.formTitle)
	if id == "" {
		return m, mutate("Add goal", func() error {
			_, err := p.AddGoal(qKey, planner.Goal{Title: title})
			return err
		})
	}
	return m, mutate("Update goal", func() error {
		return p.UpdateGoal(qKey, id, planner.GoalPatch{Title: &title})
	})
}

func (m quarterModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := "New goal"
		switch {
		case m.formKind == "review":
			title = "Quarterly review"
		case m.editingID != "":
			title = "Edit goal"
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", m.form.View()))
	}

	header := fmt.Sprintf("%s  %s",
		titleStyle.Render(m.quarterKey()),
		mutedStyle.Render(m.quarter.StartDate+" → "+m.quarter.EndDate),
	)
	stats := mutedStyle.Render(fmt.Sprintf("%d goals · avg %d%% · %d weeks planned · %d/%d tasks done",
		m.summary.Goals, m.summary.AverageProgress, m.summary.Weeks,
		m.summary.TasksCompleted, m.summary.TasksTotal))

	rows := []string{header, stats, ""}
	if len(m.quarter.Goals) == 0 {
		rows = append(rows, mutedStyle.Render("No goals for this quarter. Press n to add one."))
	}
	barWidth := max(10, min(30, w-50))
	for i, g := range m.quarter.Goals {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, fmt.Sprintf("%s %s %3d%%",
			style.Render(fmt.Sprintf("%s%-28s", cursor, g.Title)), progressBar(g.Progress, barWidth), g.Progress))
	}

	rows = append(rows, "", mutedStyle.Render("  n: new goal  enter: rename  d: delete  v: review  ←/→: quarter"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
