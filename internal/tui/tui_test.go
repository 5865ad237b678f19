package tui

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/planr/internal/planner"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/timer"
)

const (
	today    = "2024-05-20"
	thisWeek = "2024-W21"
	lastWeek = "2024-W20"
	quarter  = "2024-Q2"
)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func newTestPlanner(t *testing.T) (*planner.Planner, *testClock) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clock := &testClock{t: time.Date(2024, time.May, 20, 10, 30, 0, 0, time.Local)}
	p, err := planner.New(s, planner.WithClock(clock.now))
	if err != nil {
		t.Fatalf("new planner: %v", err)
	}
	return p, clock
}

func newTestOwner(t *testing.T, p *planner.Planner, clock *testClock) *timer.Owner {
	t.Helper()
	o, err := timer.NewOwner(p, timer.WithClock(clock.now))
	if err != nil {
		t.Fatalf("new owner: %v", err)
	}
	return o
}

func newTestApp(t *testing.T) (App, *planner.Planner, *testClock) {
	t.Helper()
	p, clock := newTestPlanner(t)
	a := NewApp(p, newTestOwner(t, p, clock))
	a.exportDir = t.TempDir()
	return a, p, clock
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// collect runs cmd and returns the messages it produces, expanding batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// settle feeds the messages of cmd back into m until nothing is left to do,
// returning the final model and every status it saw.
func settle[M any](m M, update func(M, tea.Msg) (M, tea.Cmd), cmd tea.Cmd) (M, []statusMsg) {
	var statuses []statusMsg
	for i := 0; cmd != nil && i < 10; i++ {
		var next []tea.Cmd
		for _, msg := range collect(cmd) {
			if s, ok := msg.(statusMsg); ok {
				statuses = append(statuses, s)
				continue
			}
			var c tea.Cmd
			m, c = update(m, msg)
			next = append(next, c)
		}
		cmd = tea.Batch(next...)
	}
	return m, statuses
}

func noErrors(t *testing.T, statuses []statusMsg) {
	t.Helper()
	for _, s := range statuses {
		if s.isError {
			t.Fatalf("unexpected error status: %s", s.text)
		}
	}
}

// ============================================================
// Today view
// ============================================================

func loadToday(t *testing.T, p *planner.Planner) todayModel {
	t.Helper()
	d := newTodayModel(p)
	d.setSize(120, 40)
	d, st := settle(d, todayModel.update, d.refresh())
	noErrors(t, st)
	return d
}

func pressToday(t *testing.T, d todayModel, k string) todayModel {
	t.Helper()
	d, cmd := d.update(keyMsg(k))
	d, st := settle(d, todayModel.update, cmd)
	noErrors(t, st)
	return d
}

func TestTodayLoadsDefaultDay(t *testing.T) {
	p, _ := newTestPlanner(t)
	d := loadToday(t, p)

	if d.key != today {
		t.Fatalf("key = %q, want %q", d.key, today)
	}
	if d.day.WeekKey != thisWeek {
		t.Fatalf("week key = %q, want %q", d.day.WeekKey, thisWeek)
	}
	view := d.view()
	if !strings.Contains(view, "No priorities") || !strings.Contains(view, "Focus: No focus") {
		t.Fatalf("unexpected empty day view:\n%s", view)
	}
}

func TestTodayTogglesAndDeletesPriority(t *testing.T) {
	p, _ := newTestPlanner(t)
	if _, err := p.AddPriority(today, planner.Priority{Title: "Ship"}); err != nil {
		t.Fatal(err)
	}
	d := loadToday(t, p)

	d = pressToday(t, d, " ")
	day, _ := p.GetDay(today)
	if !day.Priorities[0].Completed || day.Priorities[0].CompletedAt == nil {
		t.Fatalf("priority not completed: %+v", day.Priorities[0])
	}
	if !d.day.Priorities[0].Completed {
		t.Fatal("view did not reload after toggle")
	}

	d = pressToday(t, d, "d")
	if len(d.day.Priorities) != 0 {
		t.Fatalf("expected priority deleted, got %d", len(d.day.Priorities))
	}
}

func TestTodaySectionsCycle(t *testing.T) {
	p, _ := newTestPlanner(t)
	d := loadToday(t, p)

	want := []daySection{sectionSchedule, sectionTodos, sectionPriorities}
	for _, w := range want {
		d = pressToday(t, d, "]")
		if d.section != w {
			t.Fatalf("section = %d, want %d", d.section, w)
		}
	}
}

func TestTodayFocusKeyTogglesCurrentFocus(t *testing.T) {
	p, _ := newTestPlanner(t)
	pr, _ := p.AddPriority(today, planner.Priority{Title: "Deep work"})
	p.AddPriority(today, planner.Priority{Title: "Email"})
	d := loadToday(t, p)

	d = pressToday(t, d, "f")
	if d.day.CurrentFocus != pr.ID {
		t.Fatalf("focus = %q, want %q", d.day.CurrentFocus, pr.ID)
	}
	if !strings.Contains(d.view(), "Focus: Deep work") {
		t.Fatal("header should show the focused priority")
	}

	d = pressToday(t, d, "f")
	if d.day.CurrentFocus != "" {
		t.Fatalf("second press should clear focus, got %q", d.day.CurrentFocus)
	}
}

func TestTodayReorderPriorities(t *testing.T) {
	p, _ := newTestPlanner(t)
	a, _ := p.AddPriority(today, planner.Priority{Title: "A"})
	b, _ := p.AddPriority(today, planner.Priority{Title: "B"})
	d := loadToday(t, p)

	d = pressToday(t, d, "J")
	if d.day.Priorities[0].ID != b.ID || d.day.Priorities[1].ID != a.ID {
		t.Fatalf("unexpected order %q, %q", d.day.Priorities[0].Title, d.day.Priorities[1].Title)
	}
	if d.cursor[sectionPriorities] != 1 {
		t.Fatalf("cursor should follow the moved item, got %d", d.cursor[sectionPriorities])
	}

	// Moving past the end is ignored.
	d = pressToday(t, d, "J")
	if d.day.Priorities[1].ID != a.ID {
		t.Fatal("move past the end should be a no-op")
	}
}

func TestTodayNavigatesDays(t *testing.T) {
	p, _ := newTestPlanner(t)
	d := loadToday(t, p)

	d = pressToday(t, d, "right")
	if d.key != "2024-05-21" {
		t.Fatalf("key = %q, want 2024-05-21", d.key)
	}
	d = pressToday(t, d, "left")
	d = pressToday(t, d, "left")
	if d.key != "2024-05-19" || d.day.WeekKey != lastWeek {
		t.Fatalf("got %q in %q", d.key, d.day.WeekKey)
	}
}

func TestTodayTaskLabels(t *testing.T) {
	p, _ := newTestPlanner(t)
	task, _ := p.AddTask(thisWeek, planner.Task{Title: "Write draft"})
	linked, _ := p.AddPriority(today, planner.Priority{Title: "Draft", TaskID: task.ID})
	gone, _ := p.AddPriority(today, planner.Priority{Title: "Old", TaskID: "missing"})
	plain, _ := p.AddPriority(today, planner.Priority{Title: "Walk"})
	d := loadToday(t, p)

	if got := d.taskLabels[linked.ID]; got != "Write draft" {
		t.Fatalf("linked label = %q", got)
	}
	if got := d.taskLabels[gone.ID]; got != planner.StandaloneTask {
		t.Fatalf("dangling label = %q, want %q", got, planner.StandaloneTask)
	}
	if _, ok := d.taskLabels[plain.ID]; ok {
		t.Fatal("unlinked priority should have no label")
	}
	if len(d.weekTasks) != 1 {
		t.Fatalf("expected week tasks offered for linking, got %d", len(d.weekTasks))
	}
}

func TestTodayStartRequestsFocus(t *testing.T) {
	p, _ := newTestPlanner(t)
	pr, _ := p.AddPriority(today, planner.Priority{Title: "Deep work"})
	d := loadToday(t, p)

	_, cmd := d.update(keyMsg("s"))
	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	start, ok := msgs[0].(startFocusMsg)
	if !ok || start.id != pr.ID || start.title != "Deep work" {
		t.Fatalf("unexpected message %#v", msgs[0])
	}
}

func TestTodayFormOpensAndCancels(t *testing.T) {
	p, _ := newTestPlanner(t)
	d := loadToday(t, p)

	d, _ = d.update(keyMsg("n"))
	if !d.formActive || d.formKind != "Priorities" {
		t.Fatalf("form not opened: active=%v kind=%q", d.formActive, d.formKind)
	}
	if !strings.Contains(d.view(), "New priorities") {
		t.Fatal("form view missing title")
	}

	d, _ = d.update(keyMsg("esc"))
	if d.formActive {
		t.Fatal("esc should close the form")
	}
}

func TestTodaySchedule(t *testing.T) {
	p, _ := newTestPlanner(t)
	p.AddTimeBlock(today, planner.TimeBlock{StartTime: "09:00", EndTime: "10:30", Task: "Standup", Type: planner.BlockMeeting})
	d := loadToday(t, p)

	view := d.view()
	if !strings.Contains(view, "09:00–10:30") || !strings.Contains(view, "Standup") {
		t.Fatalf("schedule not rendered:\n%s", view)
	}
}

func TestValidClockInput(t *testing.T) {
	for _, ok := range []string{"00:00", "09:30", "23:59"} {
		if err := validClockInput(ok); err != nil {
			t.Errorf("validClockInput(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "9:30", "24:00", "12:60", "noon"} {
		if err := validClockInput(bad); err == nil {
			t.Errorf("validClockInput(%q) should fail", bad)
		}
	}
}

// ============================================================
// Week view
// ============================================================

func loadWeek(t *testing.T, p *planner.Planner) weekModel {
	t.Helper()
	m := newWeekModel(p)
	m.setSize(120, 40)
	m, st := settle(m, weekModel.update, m.refresh())
	noErrors(t, st)
	return m
}

func pressWeek(t *testing.T, m weekModel, k string) weekModel {
	t.Helper()
	m, cmd := m.update(keyMsg(k))
	m, st := settle(m, weekModel.update, cmd)
	noErrors(t, st)
	return m
}

func TestWeekCarriesOverOnOpen(t *testing.T) {
	p, _ := newTestPlanner(t)
	p.AddTask("2024-W19", planner.Task{Title: "Unfinished"})
	done, _ := p.AddTask("2024-W19", planner.Task{Title: "Done"})
	p.ToggleTask("2024-W19", done.ID, true)

	// The current week is seeded on first run; the week before it is opened
	// for the first time here.
	m := loadWeek(t, p)
	m = pressWeek(t, m, "left")
	if m.key != lastWeek {
		t.Fatalf("key = %q, want %q", m.key, lastWeek)
	}
	if len(m.week.Tasks) != 1 {
		t.Fatalf("expected 1 carried task, got %d", len(m.week.Tasks))
	}
	if !m.week.Tasks[0].CarriedOver || m.week.Tasks[0].CarriedFromWeek != "2024-W19" {
		t.Fatalf("task not marked as carried: %+v", m.week.Tasks[0])
	}
	if !strings.Contains(m.view(), "↻ 2024-W19") {
		t.Fatal("carried marker not rendered")
	}
}

func TestWeekGoalLabels(t *testing.T) {
	p, _ := newTestPlanner(t)
	g, _ := p.AddGoal(quarter, planner.Goal{Title: "Launch"})
	linked, _ := p.AddTask(thisWeek, planner.Task{Title: "Landing page", GoalID: g.ID})
	orphan, _ := p.AddTask(thisWeek, planner.Task{Title: "Old", GoalID: "deleted"})

	m := loadWeek(t, p)
	if m.goalLabels[linked.ID] != "Launch" {
		t.Fatalf("linked label = %q", m.goalLabels[linked.ID])
	}
	if m.goalLabels[orphan.ID] != planner.NoGoalLabel {
		t.Fatalf("dangling label = %q", m.goalLabels[orphan.ID])
	}
	if len(m.goals) != 1 {
		t.Fatalf("goals offered for linking = %d", len(m.goals))
	}
}

func TestWeekToggleUpdatesGoalProgress(t *testing.T) {
	p, _ := newTestPlanner(t)
	g, _ := p.AddGoal(quarter, planner.Goal{Title: "Launch"})
	p.AddTask(thisWeek, planner.Task{Title: "Landing page", GoalID: g.ID})

	m := loadWeek(t, p)
	m = pressWeek(t, m, " ")
	if !m.week.Tasks[0].Completed {
		t.Fatal("task not toggled")
	}
	q, _ := p.GetQuarter(quarter)
	if q.Goals[0].Progress != 100 {
		t.Fatalf("progress = %d, want 100", q.Goals[0].Progress)
	}
	if !strings.Contains(m.view(), "1/1 done") {
		t.Fatal("header count not updated")
	}
}

func TestWeekNavigates(t *testing.T) {
	p, _ := newTestPlanner(t)
	m := loadWeek(t, p)

	m = pressWeek(t, m, "left")
	if m.key != lastWeek {
		t.Fatalf("key = %q, want %q", m.key, lastWeek)
	}
	m = pressWeek(t, m, "right")
	if m.key != thisWeek {
		t.Fatalf("key = %q, want %q", m.key, thisWeek)
	}
}

func TestWeekDeleteAndReviewForm(t *testing.T) {
	p, _ := newTestPlanner(t)
	p.AddTask(thisWeek, planner.Task{Title: "Scratch"})
	m := loadWeek(t, p)

	m = pressWeek(t, m, "d")
	if len(m.week.Tasks) != 0 {
		t.Fatal("task not deleted")
	}

	m, _ = m.update(keyMsg("v"))
	if !m.formActive || m.formKind != "review" {
		t.Fatal("review form should open")
	}
	if !strings.Contains(m.view(), "Weekly review") {
		t.Fatal("review form title missing")
	}
}

func TestReviewFieldsBuildReview(t *testing.T) {
	f := newReviewFields()
	f.form("Weekly review")
	*f.wentWell = "  shipped  "
	*f.actions = "rest"

	r := f.review(planner.ReviewWeekly)
	if r.Type != planner.ReviewWeekly || r.WentWell != "shipped" || r.Actions != "rest" {
		t.Fatalf("unexpected review %+v", r)
	}
}

// ============================================================
// Quarter view
// ============================================================

func loadQuarter(t *testing.T, p *planner.Planner) quarterModel {
	t.Helper()
	m := newQuarterModel(p)
	m.setSize(120, 40)
	m, st := settle(m, quarterModel.update, m.refresh())
	noErrors(t, st)
	return m
}

func TestQuarterShowsProgressAndSummary(t *testing.T) {
	p, _ := newTestPlanner(t)
	g, _ := p.AddGoal(quarter, planner.Goal{Title: "Launch"})
	a, _ := p.AddTask(thisWeek, planner.Task{Title: "A", GoalID: g.ID})
	p.AddTask(thisWeek, planner.Task{Title: "B", GoalID: g.ID})
	p.ToggleTask(thisWeek, a.ID, true)

	m := loadQuarter(t, p)
	if m.quarter.Goals[0].Progress != 50 {
		t.Fatalf("progress = %d, want 50", m.quarter.Goals[0].Progress)
	}
	if m.summary.TasksTotal != 2 || m.summary.TasksCompleted != 1 {
		t.Fatalf("unexpected summary %+v", m.summary)
	}
	view := m.view()
	if !strings.Contains(view, "Launch") || !strings.Contains(view, "50%") {
		t.Fatalf("goal row missing:\n%s", view)
	}
}

func TestQuarterNavigates(t *testing.T) {
	p, _ := newTestPlanner(t)
	m := loadQuarter(t, p)

	m, cmd := m.update(keyMsg("right"))
	m, _ = settle(m, quarterModel.update, cmd)
	if m.key != "2024-Q3" || m.quarter.StartDate != "2024-07-01" {
		t.Fatalf("got %q starting %q", m.key, m.quarter.StartDate)
	}

	for range 2 {
		m, cmd = m.update(keyMsg("left"))
		m, _ = settle(m, quarterModel.update, cmd)
	}
	if m.key != "2024-Q1" {
		t.Fatalf("key = %q, want 2024-Q1", m.key)
	}
}

func TestQuarterDeleteGoal(t *testing.T) {
	p, _ := newTestPlanner(t)
	p.AddGoal(quarter, planner.Goal{Title: "Drop me"})
	m := loadQuarter(t, p)

	m, cmd := m.update(keyMsg("d"))
	m, st := settle(m, quarterModel.update, cmd)
	noErrors(t, st)
	if len(m.quarter.Goals) != 0 {
		t.Fatal("goal not deleted")
	}
}

// ============================================================
// Focus view
// ============================================================

func loadFocus(t *testing.T, p *planner.Planner, ctl timer.Controller) focusModel {
	t.Helper()
	f := newFocusModel(p, ctl)
	f.setSize(120, 40)
	f, st := settle(f, focusModel.update, f.refresh())
	noErrors(t, st)
	return f
}

func pressFocus(f focusModel, k string) (focusModel, []statusMsg) {
	f, cmd := f.update(keyMsg(k))
	return settle(f, focusModel.update, cmd)
}

func TestFocusStartPauseFinish(t *testing.T) {
	p, clock := newTestPlanner(t)
	p.AddPriority(today, planner.Priority{Title: "Deep work"})
	o := newTestOwner(t, p, clock)
	f := loadFocus(t, p, o)

	if len(f.candidates) != 1 || f.candidates[0].source != "priority" {
		t.Fatalf("unexpected candidates %+v", f.candidates)
	}

	f, st := pressFocus(f, "s")
	noErrors(t, st)
	if !f.state.Running() || f.state.TaskTitle != "Deep work" {
		t.Fatalf("timer not running: %+v", f.state)
	}

	clock.t = clock.t.Add(25 * time.Minute)
	f, st = pressFocus(f, "p")
	noErrors(t, st)
	if f.state.Status != planner.TimerPaused || f.state.Elapsed() != 25*time.Minute {
		t.Fatalf("unexpected paused state %+v", f.state)
	}

	f, st = pressFocus(f, "c")
	noErrors(t, st)
	if f.state.Status != planner.TimerIdle {
		t.Fatalf("timer should be idle after finish, got %s", f.state.Status)
	}
	if len(f.todaySessions) != 1 || f.todayTotal != 25*time.Minute {
		t.Fatalf("session not logged: %d sessions, total %s", len(f.todaySessions), f.todayTotal)
	}
	if !strings.Contains(f.view(), "Deep work") {
		t.Fatal("session list should show the task")
	}
}

func TestFocusBusyTimerReportsStatus(t *testing.T) {
	p, clock := newTestPlanner(t)
	p.AddPriority(today, planner.Priority{Title: "A"})
	p.AddPriority(today, planner.Priority{Title: "B"})
	f := loadFocus(t, p, newTestOwner(t, p, clock))

	f, _ = pressFocus(f, "s")
	f, _ = pressFocus(f, "p")
	f, _ = pressFocus(f, "down")
	f, st := pressFocus(f, "s")

	if len(st) != 1 || !st[0].isError || !strings.Contains(st[0].text, "paused") {
		t.Fatalf("expected busy status, got %+v", st)
	}
	if f.state.TaskTitle != "A" {
		t.Fatalf("paused task should be unchanged, got %q", f.state.TaskTitle)
	}
}

func TestFocusWithoutCandidates(t *testing.T) {
	p, clock := newTestPlanner(t)
	f := loadFocus(t, p, newTestOwner(t, p, clock))

	_, st := pressFocus(f, "s")
	if len(st) != 1 || st[0].isError {
		t.Fatalf("expected a hint status, got %+v", st)
	}
}

func TestFocusStartFromOtherView(t *testing.T) {
	p, clock := newTestPlanner(t)
	f := loadFocus(t, p, newTestOwner(t, p, clock))

	f, cmd := f.update(startFocusMsg{id: "t1", title: "Write"})
	f, st := settle(f, focusModel.update, cmd)
	noErrors(t, st)
	if !f.state.Running() || f.state.TaskID != "t1" {
		t.Fatalf("unexpected state %+v", f.state)
	}
}

// ============================================================
// Reports view
// ============================================================

func loadReports(t *testing.T, p *planner.Planner) reportsModel {
	t.Helper()
	r := newReportsModel(p)
	r.setSize(120, 40)
	r, st := settle(r, reportsModel.update, r.refresh())
	noErrors(t, st)
	return r
}

func TestReportsUsesSettingsWindow(t *testing.T) {
	p, _ := newTestPlanner(t)
	r := loadReports(t, p)

	if r.days != 7 || len(r.stats.Daily) != 7 {
		t.Fatalf("window = %d days, %d buckets", r.days, len(r.stats.Daily))
	}
	if r.stats.Daily[6].Date != today {
		t.Fatalf("last bucket = %q, want today", r.stats.Daily[6].Date)
	}
}

func TestReportsWindowKeys(t *testing.T) {
	p, _ := newTestPlanner(t)
	r := loadReports(t, p)

	r, cmd := r.update(keyMsg("left"))
	r, _ = settle(r, reportsModel.update, cmd)
	if r.days != 14 || len(r.stats.Daily) != 14 {
		t.Fatalf("days = %d", r.days)
	}
	for range 2 {
		r, cmd = r.update(keyMsg("right"))
		r, _ = settle(r, reportsModel.update, cmd)
	}
	if r.days != 1 {
		t.Fatalf("window should not drop below one day, got %d", r.days)
	}
}

func TestReportsChartAndLegend(t *testing.T) {
	p, clock := newTestPlanner(t)
	start := clock.t.Add(-time.Hour)
	p.RecordSession("a", "Write", 30*time.Minute, start)
	p.RecordSession("a", "Write", 30*time.Minute, start)
	p.RecordSession("b", "Read", 10*time.Minute, start)

	r := loadReports(t, p)
	if len(r.sessions) != 3 {
		t.Fatalf("sessions in window = %d", len(r.sessions))
	}
	if r.tasks[0].title != "Write" || r.tasks[0].total != time.Hour {
		t.Fatalf("unexpected ranking %+v", r.tasks)
	}
	view := r.view()
	for _, want := range []string{"Focus time", "Write", "Read", "3 sessions"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestRankTasksLimitsColors(t *testing.T) {
	var sessions []planner.Session
	for i, title := range []string{"a", "b", "c", "d", "e", "f"} {
		sessions = append(sessions, planner.Session{
			TaskTitle:  title,
			DurationMs: int64(10-i) * 60_000,
		})
	}
	sessions = append(sessions, planner.Session{DurationMs: 1000})

	ranked := rankTasks(sessions)
	if len(ranked) != 7 {
		t.Fatalf("expected 7 tasks, got %d", len(ranked))
	}
	for i, r := range ranked {
		if (i < topTasks) != (r.color != "") {
			t.Fatalf("task %d (%s) color = %q", i, r.title, r.color)
		}
	}
	if ranked[6].title != "Untitled" {
		t.Fatalf("empty title should rank as Untitled, got %q", ranked[6].title)
	}
}

// ============================================================
// Settings view
// ============================================================

func TestSettingsViewShowsValuesAndStorage(t *testing.T) {
	p, _ := newTestPlanner(t)
	p.AddGoal(quarter, planner.Goal{Title: "Launch"})

	s := newSettingsModel(p)
	s.setSize(120, 40)
	s, st := settle(s, settingsModel.update, s.refresh())
	noErrors(t, st)

	if s.storage.Goals != 1 {
		t.Fatalf("storage goals = %d", s.storage.Goals)
	}
	view := s.view()
	for _, want := range []string{"light", "7 days", "Quarters / goals"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestSettingsClearAsksForConfirmation(t *testing.T) {
	p, _ := newTestPlanner(t)
	s := newSettingsModel(p)

	s, _ = s.update(keyMsg("X"))
	if !s.formActive || s.formKind != "clear" {
		t.Fatal("clear should open a confirmation form")
	}
	s, _ = s.update(keyMsg("esc"))
	if s.formActive {
		t.Fatal("esc should cancel")
	}
}

func TestValidStatsDays(t *testing.T) {
	if err := validStatsDays("14"); err != nil {
		t.Fatal(err)
	}
	for _, bad := range []string{"", "0", "-3", "week"} {
		if validStatsDays(bad) == nil {
			t.Errorf("validStatsDays(%q) should fail", bad)
		}
	}
}

// ============================================================
// App model
// ============================================================

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	app, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T", m)
	}
	return app, cmd
}

func TestNewApp(t *testing.T) {
	a, _, _ := newTestApp(t)

	if a.activeView != viewToday {
		t.Fatal("default view should be today")
	}
	if a.showHelp || a.exportPicking {
		t.Fatal("help and export picker should be hidden by default")
	}
	if a.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppViewStates(t *testing.T) {
	a, _, _ := newTestApp(t)
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})

	for i := range viewNames {
		a.activeView = viewState(i)
		if a.View() == "" {
			t.Fatalf("view %d rendered empty", i)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.width = 120
	a.height = 40

	header := a.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	a, _, _ := newTestApp(t)
	if got := a.View(); got != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", got)
	}
}

func TestAppStatusMessage(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.width = 120
	a, _ = update(t, a, statusMsg{text: "saved"})

	if !strings.Contains(a.renderFooter(), "saved") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppTabSwitching(t *testing.T) {
	a, _, _ := newTestApp(t)

	a, cmd := update(t, a, keyMsg("3"))
	if a.activeView != viewQuarter || cmd == nil {
		t.Fatalf("expected quarter view with a refresh, got %d", a.activeView)
	}
	a, _ = update(t, a, keyMsg("6"))
	a, _ = update(t, a, keyMsg("tab"))
	if a.activeView != viewToday {
		t.Fatalf("tab should wrap to today, got %d", a.activeView)
	}
}

func TestAppFooterShowsTimer(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.width = 120

	a, _ = update(t, a, timerMsg{state: timer.State{Status: planner.TimerRunning, ElapsedMs: 65_000}})
	if !strings.Contains(a.renderFooter(), "00:01:05") {
		t.Fatal("footer should show the running timer")
	}
	if a.focus.state.ElapsedMs != 65_000 {
		t.Fatal("timer state should reach the focus view")
	}
}

func TestAppStartFocusSwitchesView(t *testing.T) {
	a, _, _ := newTestApp(t)

	a, _ = update(t, a, startFocusMsg{id: "t1", title: "Write"})
	if a.activeView != viewFocus {
		t.Fatalf("expected focus view, got %d", a.activeView)
	}
}

func TestAppFormCapturesKeys(t *testing.T) {
	a, _, _ := newTestApp(t)
	a, _ = update(t, a, keyMsg("2"))
	a, _ = update(t, a, keyMsg("n"))
	if !a.isFormActive() {
		t.Fatal("n should open the task form")
	}

	a, _ = update(t, a, keyMsg("3"))
	if a.activeView != viewWeek {
		t.Fatal("tab keys must go to the open form")
	}
}

func TestAppExportPicker(t *testing.T) {
	a, _, _ := newTestApp(t)

	a, _ = update(t, a, keyMsg("e"))
	if !a.exportPicking {
		t.Fatal("e should open the export picker")
	}
	for range 5 {
		a, _ = update(t, a, keyMsg("down"))
	}
	if a.exportCursor != len(exportFormats)-1 {
		t.Fatalf("cursor = %d", a.exportCursor)
	}
	a, _ = update(t, a, keyMsg("esc"))
	if a.exportPicking {
		t.Fatal("esc should close the picker")
	}
}

func TestAppExports(t *testing.T) {
	a, p, clock := newTestApp(t)
	p.RecordSession("a", "Write", time.Minute, clock.t)

	for format := range exportFormats {
		msg := a.doExport(format)()
		done, ok := msg.(exportDoneMsg)
		if !ok {
			t.Fatalf("format %d: unexpected message %#v", format, msg)
		}
		if _, err := os.Stat(done.path); err != nil {
			t.Fatalf("format %d: %v", format, err)
		}
		if !strings.Contains(done.path, today) {
			t.Fatalf("file name should carry the date: %s", done.path)
		}
	}
}

// ============================================================
// Helpers
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-time.Second, "00:00:00"},
		{65 * time.Second, "00:01:05"},
		{25*time.Hour + time.Minute, "25:01:00"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	for _, pct := range []int{-5, 0, 50, 100, 150} {
		bar := progressBar(pct, 10)
		if n := strings.Count(bar, "█") + strings.Count(bar, "░"); n != 10 {
			t.Errorf("progressBar(%d) has %d cells", pct, n)
		}
	}
	if strings.Count(progressBar(50, 10), "█") != 5 {
		t.Fatal("50% should fill half the bar")
	}
}

func TestMoveID(t *testing.T) {
	ids := []string{"a", "b", "c"}
	if got := moveID(ids, 0, 1); strings.Join(got, "") != "bac" {
		t.Fatalf("got %v", got)
	}
	if moveID(ids, 0, -1) != nil || moveID(ids, 2, 1) != nil {
		t.Fatal("moves off the list should return nil")
	}
	if strings.Join(ids, "") != "abc" {
		t.Fatal("input must not be modified")
	}
}

func TestClampCursor(t *testing.T) {
	if clampCursor(5, 3) != 2 || clampCursor(1, 0) != 0 || clampCursor(-1, 3) != 0 {
		t.Fatal("clampCursor out of range")
	}
}

func TestTimerErrorText(t *testing.T) {
	wrapped := errors.Join(errors.New("post"), timer.ErrBusy)
	if !strings.Contains(timerErrorText(wrapped), "paused") {
		t.Fatal("busy error should be explained")
	}
	if !strings.Contains(timerErrorText(errors.New("boom")), "boom") {
		t.Fatal("unknown errors should keep their text")
	}
}

// ============================================================
// Key bindings and styles
// ============================================================

func TestKeyMapHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
	for i, g := range keys.FullHelp() {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

func TestBlockStyles(t *testing.T) {
	for _, bt := range planner.BlockTypes {
		if _, ok := blockColors[bt]; !ok {
			t.Errorf("no color for block type %q", bt)
		}
		if blockStyle(bt).Render("x") == "" {
			t.Errorf("block style %q rendered empty", bt)
		}
	}
	if blockStyle("unknown").Render("x") == "" {
		t.Fatal("unknown block types fall back to a default style")
	}
}
