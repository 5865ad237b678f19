package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/planr/internal/calendar"
	"github.com/sadopc/planr/internal/planner"
)

type daySection int

const (
	sectionPriorities daySection = iota
	sectionSchedule
	sectionTodos
)

var sectionNames = []string{"Priorities", "Schedule", "Quick todos"}

type todayModel struct {
	planner *planner.Planner
	width   int
	height  int

	key        string
	day        planner.DayRecord
	weekTasks  []planner.Task
	taskLabels map[string]string // priority id -> linked task label

	section daySection
	cursor  [3]int

	formHost
	formTitle *string
	formLink  *string
	formStart *string
	formEnd   *string
	formType  *planner.BlockType
}

func newTodayModel(p *planner.Planner) todayModel {
	title, link, start, end := "", "", "", ""
	bt := planner.BlockWork
	return todayModel{
		planner:   p,
		formTitle: &title,
		formLink:  &link,
		formStart: &start,
		formEnd:   &end,
		formType:  &bt,
	}
}

func (d *todayModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type dayDataMsg struct {
	key        string
	day        planner.DayRecord
	weekTasks  []planner.Task
	taskLabels map[string]string
}

func (d todayModel) dayKey() string {
	if d.key == "" {
		return d.planner.CurrentKeys().Day
	}
	return d.key
}

func (d todayModel) refresh() tea.Cmd {
	p, dayKey := d.planner, d.dayKey()
	return func() tea.Msg {
		day, err := p.GetDay(dayKey)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load day: %v", err), isError: true}
		}
		var tasks []planner.Task
		if w, ok, err := p.TryGetWeek(day.WeekKey); err == nil && ok {
			tasks = w.Tasks
		}
		labels := make(map[string]string)
		for _, pr := range day.Priorities {
			if pr.TaskID == "" {
				continue
			}
			ref, err := p.ResolveTask(day, pr)
			if err != nil {
				continue
			}
			labels[pr.ID] = planner.TaskLabel(ref)
		}
		return dayDataMsg{key: dayKey, day: day, weekTasks: tasks, taskLabels: labels}
	}
}

func (d todayModel) update(msg tea.Msg) (todayModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case dayDataMsg:
		d.key = msg.key
		d.day = msg.day
		d.weekTasks = msg.weekTasks
		d.taskLabels = msg.taskLabels
		for s := range d.cursor {
			d.cursor[s] = clampCursor(d.cursor[s], d.sectionLen(daySection(s)))
		}
		return d, nil

	case changedMsg:
		return d, d.refresh()

	case tea.KeyMsg:
		return d.updateKeys(msg)
	}
	return d, nil
}

func (d todayModel) sectionLen(s daySection) int {
	switch s {
	case sectionPriorities:
		return len(d.day.Priorities)
	case sectionSchedule:
		return len(d.day.TimeBlocks)
	default:
		return len(d.day.QuickTodos)
	}
}

func (d todayModel) updateKeys(msg tea.KeyMsg) (todayModel, tea.Cmd) {
	n := d.sectionLen(d.section)
	cur := d.cursor[d.section]

	switch {
	case key.Matches(msg, keys.Section):
		d.section = (d.section + 1) % 3
	case key.Matches(msg, keys.Up):
		if cur > 0 {
			d.cursor[d.section]--
		}
	case key.Matches(msg, keys.Down):
		if cur < n-1 {
			d.cursor[d.section]++
		}
	case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
		delta := -1
		if key.Matches(msg, keys.Right) {
			delta = 1
		}
		day, err := calendar.ParseDayKey(d.dayKey())
		if err != nil {
			return d, errorStatus("Navigate", err)
		}
		d.key = calendar.DayKey(day.AddDate(0, 0, delta))
		d.cursor = [3]int{}
		return d, d.refresh()
	case key.Matches(msg, keys.New):
		return d.showForm("")
	case key.Matches(msg, keys.Enter):
		if n > 0 {
			return d.showForm(d.selectedID())
		}
	case key.Matches(msg, keys.Toggle):
		if n > 0 {
			return d, d.toggleSelected()
		}
	case key.Matches(msg, keys.Delete):
		if n > 0 {
			return d, d.deleteSelected()
		}
	case key.Matches(msg, keys.MoveUp), key.Matches(msg, keys.MoveDown):
		delta := -1
		if key.Matches(msg, keys.MoveDown) {
			delta = 1
		}
		return d.moveSelected(delta)
	case key.Matches(msg, keys.Focus):
		if d.section == sectionPriorities && n > 0 {
			id := d.day.Priorities[cur].ID
			if d.day.CurrentFocus == id {
				id = ""
			}
			p, dayKey := d.planner, d.dayKey()
			return d, mutate("Set focus", func() error { return p.SetCurrentFocus(dayKey, id) })
		}
	case key.Matches(msg, keys.Start):
		if d.section == sectionPriorities && n > 0 {
			pr := d.day.Priorities[cur]
			return d, func() tea.Msg { return startFocusMsg{id: pr.ID, title: pr.Title} }
		}
	}
	return d, nil
}

func (d todayModel) selectedID() string {
	cur := d.cursor[d.section]
	switch d.section {
	case sectionPriorities:
		return d.day.Priorities[cur].ID
	case sectionSchedule:
		return d.day.TimeBlocks[cur].ID
	default:
		return d.day.QuickTodos[cur].ID
	}
}

func (d todayModel) toggleSelected() tea.Cmd {
	p, dayKey, cur := d.planner, d.dayKey(), d.cursor[d.section]
	switch d.section {
	case sectionPriorities:
		pr := d.day.Priorities[cur]
		return mutate("Toggle priority", func() error { return p.TogglePriority(dayKey, pr.ID, !pr.Completed) })
	case sectionTodos:
		t := d.day.QuickTodos[cur]
		done := !t.Completed
		return mutate("Toggle todo", func() error {
			return p.UpdateQuickTodo(dayKey, t.ID, planner.QuickTodoPatch{Completed: &done})
		})
	}
	return nil
}

func (d todayModel) deleteSelected() tea.Cmd {
	p, dayKey, id := d.planner, d.dayKey(), d.selectedID()
	switch d.section {
	case sectionPriorities:
		return mutate("Delete priority", func() error { return p.DeletePriority(dayKey, id) })
	case sectionSchedule:
		return mutate("Delete block", func() error { return p.DeleteTimeBlock(dayKey, id) })
	default:
		return mutate("Delete todo", func() error { return p.DeleteQuickTodo(dayKey, id) })
	}
}

func (d todayModel) moveSelected(delta int) (todayModel, tea.Cmd) {
	p, dayKey, cur := d.planner, d.dayKey(), d.cursor[d.section]
	switch d.section {
	case sectionPriorities:
		ids := make([]string, len(d.day.Priorities))
		for i, pr := range d.day.Priorities {
			ids[i] = pr.ID
		}
		if ids = moveID(ids, cur, delta); ids == nil {
			return d, nil
		}
		d.cursor[d.section] += delta
		return d, mutate("Reorder priorities", func() error { return p.ReorderPriorities(dayKey, ids) })
	case sectionSchedule:
		ids := make([]string, len(d.day.TimeBlocks))
		for i, b := range d.day.TimeBlocks {
			ids[i] = b.ID
		}
		if ids = moveID(ids, cur, delta); ids == nil {
			return d, nil
		}
		d.cursor[d.section] += delta
		return d, mutate("Reorder schedule", func() error { return p.ReorderTimeBlocks(dayKey, ids) })
	}
	return d, nil
}

// validClockInput accepts zero-padded 24h HH:MM values.
func validClockInput(s string) error {
	if _, err := time.Parse("15:04", s); err != nil || len(s) != 5 {
		return errors.New("use HH:MM")
	}
	return nil
}

func (d todayModel) showForm(id string) (todayModel, tea.Cmd) {
	*d.formTitle, *d.formLink, *d.formStart, *d.formEnd = "", "", "", ""
	*d.formType = planner.BlockWork

	var f *huh.Form
	switch d.section {
	case sectionPriorities:
		if id != "" {
			pr := d.day.Priorities[d.cursor[d.section]]
			*d.formTitle, *d.formLink = pr.Title, pr.TaskID
		}
		links := []huh.Option[string]{huh.NewOption(planner.StandaloneTask, "")}
		for _, t := range d.weekTasks {
			links = append(links, huh.NewOption(t.Title, t.ID))
		}
		f = huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Priority").Value(d.formTitle).Validate(required),
			huh.NewSelect[string]().Title("Linked task").Options(links...).Value(d.formLink),
		))
	case sectionSchedule:
		if id != "" {
			b := d.day.TimeBlocks[d.cursor[d.section]]
			*d.formTitle, *d.formStart, *d.formEnd, *d.formType = b.Task, b.StartTime, b.EndTime, b.Type
		}
		types := make([]huh.Option[planner.BlockType], len(planner.BlockTypes))
		for i, t := range planner.BlockTypes {
			types[i] = huh.NewOption(string(t), t)
		}
		f = huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Start (HH:MM)").Value(d.formStart).Validate(validClockInput),
			huh.NewInput().Title("End (HH:MM)").Value(d.formEnd).Validate(validClockInput),
			huh.NewInput().Title("What").Value(d.formTitle),
			huh.NewSelect[planner.BlockType]().Title("Type").Options(types...).Value(d.formType),
		))
	default:
		if id != "" {
			*d.formTitle = d.day.QuickTodos[d.cursor[d.section]].Title
		}
		f = huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Todo").Value(d.formTitle).Validate(required),
		))
	}
	cmd := d.open(sectionNames[d.section], id, f)
	return d, cmd
}

func (d todayModel) updateForm(msg tea.Msg) (todayModel, tea.Cmd) {
	done, cmd := d.step(msg)
	if !done {
		return d, cmd
	}

	p, dayKey, id := d.planner, d.dayKey(), d.editingID
	title := strings.TrimSpace(*d.formTitle)
	link := *d.formLink
	start, end, bt := *d.formStart, *d.formEnd, *d.formType

	switch d.formKind {
	case sectionNames[sectionPriorities]:
		if id == "" {
			return d, mutate("Add priority", func() error {
				_, err := p.AddPriority(dayKey, planner.Priority{Title: title, TaskID: link})
				return err
			})
		}
		return d, mutate("Update priority", func() error {
			return p.UpdatePriority(dayKey, id, planner.PriorityPatch{Title: &title, TaskID: &link})
		})
	case sectionNames[sectionSchedule]:
		if id == "" {
			return d, mutate("Add block", func() error {
				_, err := p.AddTimeBlock(dayKey, planner.TimeBlock{StartTime: start, EndTime: end, Task: title, Type: bt})
				return err
			})
		}
		return d, mutate("Update block", func() error {
			return p.UpdateTimeBlock(dayKey, id, planner.TimeBlockPatch{StartTime: &start, EndTime: &end, Task: &title, Type: &bt})
		})
	default:
		if id == "" {
			return d, mutate("Add todo", func() error {
				_, err := p.AddQuickTodo(dayKey, planner.QuickTodo{Title: title})
				return err
			})
		}
		return d, mutate("Update todo", func() error {
			return p.UpdateQuickTodo(dayKey, id, planner.QuickTodoPatch{Title: &title})
		})
	}
}

func (d todayModel) view() string {
	w := d.width - 4

	if d.formActive && d.form != nil {
		verb := "New"
		if d.editingID != "" {
			verb = "Edit"
		}
		title := titleStyle.Render(fmt.Sprintf("%s %s", verb, strings.ToLower(d.formKind)))
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", d.form.View()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderHeader(w),
		d.renderPriorities(w),
		d.renderSchedule(w),
		d.renderTodos(w),
	)
}

func (d todayModel) renderHeader(w int) string {
	date := d.dayKey()
	if t, err := calendar.ParseDayKey(date); err == nil {
		date = t.Format("Monday, Jan 02 2006")
	}
	focus := planner.FocusLabel(planner.ResolveFocus(d.day))
	line := fmt.Sprintf("%s  %s  %s",
		titleStyle.Render(date),
		mutedStyle.Render(d.day.WeekKey),
		highlightStyle.Render("Focus: "+focus),
	)
	return panelStyle.Width(w).Render(line)
}

func (d todayModel) sectionTitle(s daySection) string {
	if s == d.section {
		return sectionStyle.Render("▸ " + sectionNames[s])
	}
	return mutedStyle.Render("  " + sectionNames[s])
}

func (d todayModel) row(s daySection, i int, text string) string {
	if s == d.section && i == d.cursor[s] {
		return selectedItemStyle.Render("> ") + text
	}
	return "  " + text
}

func (d todayModel) renderPriorities(w int) string {
	rows := []string{d.sectionTitle(sectionPriorities)}
	if len(d.day.Priorities) == 0 {
		rows = append(rows, mutedStyle.Render("  No priorities. Press n to add one."))
	}
	for i, pr := range d.day.Priorities {
		title := normalItemStyle.Render(pr.Title)
		if pr.Completed {
			title = doneStyle.Render(pr.Title)
		}
		text := checkbox(pr.Completed) + " " + title
		if pr.ID == d.day.CurrentFocus {
			text += accentStyle.Render(" ★")
		}
		if label, ok := d.taskLabels[pr.ID]; ok {
			text += mutedStyle.Render("  → " + label)
		}
		rows = append(rows, d.row(sectionPriorities, i, text))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d todayModel) renderSchedule(w int) string {
	rows := []string{d.sectionTitle(sectionSchedule)}
	if len(d.day.TimeBlocks) == 0 {
		rows = append(rows, mutedStyle.Render("  Nothing scheduled."))
	}
	for i, b := range d.day.TimeBlocks {
		tag := blockStyle(b.Type).Render(fmt.Sprintf("%-8s", b.Type))
		text := fmt.Sprintf("%s–%s  %s %s", b.StartTime, b.EndTime, tag, b.Task)
		rows = append(rows, d.row(sectionSchedule, i, text))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d todayModel) renderTodos(w int) string {
	rows := []string{d.sectionTitle(sectionTodos)}
	if len(d.day.QuickTodos) == 0 {
		rows = append(rows, mutedStyle.Render("  No quick todos."))
	}
	for i, t := range d.day.QuickTodos {
		title := normalItemStyle.Render(t.Title)
		if t.Completed {
			title = doneStyle.Render(t.Title)
		}
		rows = append(rows, d.row(sectionTodos, i, checkbox(t.Completed)+" "+title))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
