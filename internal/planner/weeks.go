package planner

import (
	"fmt"

	"github.com/sadopc/planr/internal/calendar"
)

// TaskPatch carries the task fields a caller may change. Setting Completed
// also stamps or clears CompletedAt. An empty GoalID unlinks the task.
type TaskPatch struct {
	Title     *string
	Completed *bool
	GoalID    *string
}

func defaultWeek(key string) (WeekRecord, error) {
	quarterKey, err := calendar.WeekQuarterKey(key)
	if err != nil {
		return WeekRecord{}, err
	}
	return WeekRecord{Key: key, Tasks: []Task{}, QuarterKey: quarterKey}, nil
}

// TryGetWeek returns the stored week record for key without side effects.
// The boolean is false when the week has never been materialized.
func (p *Planner) TryGetWeek(key string) (WeekRecord, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tryGetWeek(key)
}

func (p *Planner) tryGetWeek(key string) (WeekRecord, bool, error) {
	w, err := defaultWeek(key)
	if err != nil {
		return WeekRecord{}, false, err
	}
	ok, err := p.read(weeksPrefix+key, &w)
	if err != nil || !ok {
		return WeekRecord{}, false, err
	}
	w.Key = key
	w.normalize()
	return w, true, nil
}

// MaterializeWeek creates the week record for key by carrying over the
// previous week's incomplete tasks. An already stored week is returned
// unchanged.
func (p *Planner) MaterializeWeek(key string) (WeekRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getWeek(key)
}

// GetWeek returns the week record for key, materializing it with carried
// over tasks on first access.
func (p *Planner) GetWeek(key string) (WeekRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getWeek(key)
}

func (p *Planner) getWeek(key string) (WeekRecord, error) {
	w, ok, err := p.tryGetWeek(key)
	if err != nil {
		return WeekRecord{}, err
	}
	if ok {
		return w, nil
	}
	return p.carryOver(key)
}

// UpdateWeek replaces the stored week record for key. Goals linked from
// either the old or the new task list have their progress recomputed.
func (p *Planner) UpdateWeek(key string, w WeekRecord) error {
	if _, _, err := calendar.ParseWeekKey(key); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	prev, _, err := p.tryGetWeek(key)
	if err != nil {
		return err
	}
	if err := p.putWeek(key, w); err != nil {
		return err
	}
	return p.refreshProgress(append(goalIDsOf(prev.Tasks), goalIDsOf(w.Tasks)...)...)
}

func (p *Planner) putWeek(key string, w WeekRecord) error {
	w.Key = key
	if w.QuarterKey == "" {
		w.QuarterKey, _ = calendar.WeekQuarterKey(key)
	}
	w.normalize()
	return p.write(weeksPrefix+key, w)
}

// AddTask appends t to the week as a fresh, incomplete task and returns the
// stored task.
func (p *Planner) AddTask(weekKey string, t Task) (Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, err := p.getWeek(weekKey)
	if err != nil {
		return Task{}, err
	}
	t.ID = p.newID()
	t.CreatedAt = p.now().UTC()
	t.Completed = false
	t.CompletedAt = nil
	t.CarriedOver = false
	t.CarriedFromWeek = ""
	w.Tasks = append(w.Tasks, t)
	if err := p.putWeek(weekKey, w); err != nil {
		return Task{}, fmt.Errorf("add task: %w", err)
	}
	if err := p.refreshProgress(t.GoalID); err != nil {
		return Task{}, err
	}
	return t, nil
}

// UpdateTask merges patch into the task with id. A missing task is a no-op.
func (p *Planner) UpdateTask(weekKey, id string, patch TaskPatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, err := p.getWeek(weekKey)
	if err != nil {
		return err
	}
	i := indexOf(w.Tasks, id)
	if i < 0 {
		return nil
	}
	t := &w.Tasks[i]
	oldGoal := t.GoalID
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
		t.CompletedAt = completion(t.Completed, p.now())
	}
	if patch.GoalID != nil {
		t.GoalID = *patch.GoalID
	}
	if err := p.putWeek(weekKey, w); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return p.refreshProgress(oldGoal, t.GoalID)
}

// ToggleTask marks the task completed or not.
func (p *Planner) ToggleTask(weekKey, id string, completed bool) error {
	return p.UpdateTask(weekKey, id, TaskPatch{Completed: &completed})
}

// DeleteTask removes the task with id, returning ErrNotFound when the week
// holds no such task.
func (p *Planner) DeleteTask(weekKey, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, err := p.getWeek(weekKey)
	if err != nil {
		return err
	}
	i := indexOf(w.Tasks, id)
	if i < 0 {
		return fmt.Errorf("delete task %s in %s: %w", id, weekKey, ErrNotFound)
	}
	goalID := w.Tasks[i].GoalID
	w.Tasks, _ = without(w.Tasks, id)
	if err := p.putWeek(weekKey, w); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return p.refreshProgress(goalID)
}

// ReorderTasks rewrites the week's task order to ids. Unknown ids are
// skipped and tasks left out of ids are dropped, so callers must pass the
// complete id list.
func (p *Planner) ReorderTasks(weekKey string, ids []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, err := p.getWeek(weekKey)
	if err != nil {
		return err
	}
	before := goalIDsOf(w.Tasks)
	w.Tasks = reorder(w.Tasks, ids)
	if err := p.putWeek(weekKey, w); err != nil {
		return fmt.Errorf("reorder tasks: %w", err)
	}
	return p.refreshProgress(before...)
}

func goalIDsOf(tasks []Task) []string {
	var ids []string
	for _, t := range tasks {
		if t.GoalID != "" {
			ids = append(ids, t.GoalID)
		}
	}
	return ids
}
