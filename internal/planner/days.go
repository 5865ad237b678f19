package planner

import (
	"fmt"
	"time"

	"github.com/sadopc/planr/internal/calendar"
)

type PriorityPatch struct {
	Title     *string
	Completed *bool
	TaskID    *string
}

type QuickTodoPatch struct {
	Title     *string
	Completed *bool
}

type TimeBlockPatch struct {
	StartTime *string
	EndTime   *string
	Task      *string
	Type      *BlockType
}

func defaultDay(key string) (DayRecord, error) {
	day, err := calendar.ParseDayKey(key)
	if err != nil {
		return DayRecord{}, err
	}
	return DayRecord{
		Key:        key,
		Priorities: []Priority{},
		TimeBlocks: []TimeBlock{},
		QuickTodos: []QuickTodo{},
		WeekKey:    calendar.WeekKey(day),
	}, nil
}

// GetDay returns the day record for key, or an empty default when none is
// stored yet.
func (p *Planner) GetDay(key string) (DayRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getDay(key)
}

func (p *Planner) getDay(key string) (DayRecord, error) {
	d, err := defaultDay(key)
	if err != nil {
		return DayRecord{}, err
	}
	if _, err := p.read(daysPrefix+key, &d); err != nil {
		return DayRecord{}, err
	}
	d.Key = key
	d.normalize()
	return d, nil
}

// UpdateDay replaces the stored day record for key.
func (p *Planner) UpdateDay(key string, d DayRecord) error {
	if _, err := calendar.ParseDayKey(key); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.putDay(key, d)
}

func (p *Planner) putDay(key string, d DayRecord) error {
	d.Key = key
	d.normalize()
	return p.write(daysPrefix+key, d)
}

// editDay loads the day, applies fn and persists the result unless fn
// reports that nothing changed.
func (p *Planner) editDay(key string, fn func(d *DayRecord) (bool, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, err := p.getDay(key)
	if err != nil {
		return err
	}
	changed, err := fn(&d)
	if err != nil || !changed {
		return err
	}
	return p.putDay(key, d)
}

// SetCurrentFocus points the day's focus at a priority id. The id is not
// validated; an empty id clears the focus.
func (p *Planner) SetCurrentFocus(dayKey, priorityID string) error {
	return p.editDay(dayKey, func(d *DayRecord) (bool, error) {
		d.CurrentFocus = priorityID
		return true, nil
	})
}

// ============================================================
// Priorities
// ============================================================

func (p *Planner) AddPriority(dayKey string, pr Priority) (Priority, error) {
	err := p.editDay(dayKey, func(d *DayRecord) (bool, error) {
		pr.ID = p.newID()
		pr.CreatedAt = p.now().UTC()
		pr.Completed = false
		pr.CompletedAt = nil
		d.Priorities = append(d.Priorities, pr)
		return true, nil
	})
	if err != nil {
		return Priority{}, fmt.Errorf("add priority: %w", err)
	}
	return pr, nil
}

func (p *Planner) UpdatePriority(dayKey, id string, patch PriorityPatch) error {
	return p.editDay(dayKey, func(d *DayRecord) (bool, error) {
		i := indexOf(d.Priorities, id)
		if i < 0 {
			return false, nil
		}
		pr := &d.Priorities[i]
		if patch.Title != nil {
			pr.Title = *patch.Title
		}
		if patch.Completed != nil {
			pr.Completed = *patch.Completed
			pr.CompletedAt = completion(pr.Completed, p.now())
		}
		if patch.TaskID != nil {
			pr.TaskID = *patch.TaskID
		}
		return true, nil
	})
}

// TogglePriority marks the priority completed or not.
func (p *Planner) TogglePriority(dayKey, id string, completed bool) error {
	return p.UpdatePriority(dayKey, id, PriorityPatch{Completed: &completed})
}

// DeletePriority removes the priority. A focus pointing at it is left in
// place and resolves as dangling.
func (p *Planner) DeletePriority(dayKey, id string) error {
	return p.editDay(dayKey, func(d *DayRecord) (bool, error) {
		var removed bool
		d.Priorities, removed = without(d.Priorities, id)
		return removed, nil
	})
}

func (p *Planner) ReorderPriorities(dayKey string, ids []string) error {
	return p.editDay(dayKey, func(d *DayRecord) (bool, error) {
		d.Priorities = reorder(d.Priorities, ids)
		return true, nil
	})
}

// ============================================================
// Quick todos
// ============================================================

func (p *Planner) AddQuickTodo(dayKey string, t QuickTodo) (QuickTodo, error) {
	err := p.editDay(dayKey, func(d *DayRecord) (bool, error) {
		t.ID = p.newID()
		t.Completed = false
		d.QuickTodos = append(d.QuickTodos, t)
		return true, nil
	})
	if err != nil {
		return QuickTodo{}, fmt.Errorf("add quick todo: %w", err)
	}
	return t, nil
}

func (p *Planner) UpdateQuickTodo(dayKey, id string, patch QuickTodoPatch) error {
	return p.editDay(dayKey, func(d *DayRecord) (bool, error) {
		i := indexOf(d.QuickTodos, id)
		if i < 0 {
			return false, nil
		}
		if patch.Title != nil {
			d.QuickTodos[i].Title = *patch.Title
		}
		if patch.Completed != nil {
			d.QuickTodos[i].Completed = *patch.Completed
		}
		return true, nil
	})
}

func (p *Planner) DeleteQuickTodo(dayKey, id string) error {
	return p.editDay(dayKey, func(d *DayRecord) (bool, error) {
		var removed bool
		d.QuickTodos, removed = without(d.QuickTodos, id)
		return removed, nil
	})
}

// ============================================================
// Time blocks
// ============================================================

// validClock reports whether s is a zero-padded 24h HH:MM string.
func validClock(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

func validateBlock(b TimeBlock) error {
	if !validClock(b.StartTime) || !validClock(b.EndTime) {
		return fmt.Errorf("%w: times must be HH:MM, got %q-%q", ErrInvalidTimeBlock, b.StartTime, b.EndTime)
	}
	if b.StartTime >= b.EndTime {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidTimeBlock, b.StartTime, b.EndTime)
	}
	return nil
}

// AddTimeBlock validates and appends b. The block type defaults to work.
func (p *Planner) AddTimeBlock(dayKey string, b TimeBlock) (TimeBlock, error) {
	if b.Type == "" {
		b.Type = BlockWork
	}
	if err := validateBlock(b); err != nil {
		return TimeBlock{}, err
	}
	err := p.editDay(dayKey, func(d *DayRecord) (bool, error) {
		b.ID = p.newID()
		b.CreatedAt = p.now().UTC()
		d.TimeBlocks = append(d.TimeBlocks, b)
		return true, nil
	})
	if err != nil {
		return TimeBlock{}, fmt.Errorf("add time block: %w", err)
	}
	return b, nil
}

// UpdateTimeBlock merges patch into the block with id. The merged block must
// still satisfy start < end or the update is rejected.
func (p *Planner) UpdateTimeBlock(dayKey, id string, patch TimeBlockPatch) error {
	return p.editDay(dayKey, func(d *DayRecord) (bool, error) {
		i := indexOf(d.TimeBlocks, id)
		if i < 0 {
			return false, nil
		}
		b := d.TimeBlocks[i]
		if patch.StartTime != nil {
			b.StartTime = *patch.StartTime
		}
		if patch.EndTime != nil {
			b.EndTime = *patch.EndTime
		}
		if patch.Task != nil {
			b.Task = *patch.Task
		}
		if patch.Type != nil {
			b.Type = *patch.Type
		}
		if err := validateBlock(b); err != nil {
			return false, err
		}
		d.TimeBlocks[i] = b
		return true, nil
	})
}

func (p *Planner) DeleteTimeBlock(dayKey, id string) error {
	return p.editDay(dayKey, func(d *DayRecord) (bool, error) {
		var removed bool
		d.TimeBlocks, removed = without(d.TimeBlocks, id)
		return removed, nil
	})
}

func (p *Planner) ReorderTimeBlocks(dayKey string, ids []string) error {
	return p.editDay(dayKey, func(d *DayRecord) (bool, error) {
		d.TimeBlocks = reorder(d.TimeBlocks, ids)
		return true, nil
	})
}
