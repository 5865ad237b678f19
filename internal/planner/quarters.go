package planner

import (
	"fmt"

	"github.com/sadopc/planr/internal/calendar"
)

// GoalPatch carries the goal fields a caller may change. Progress is not
// patchable; it is recomputed from linked tasks.
type GoalPatch struct {
	Title *string
}

func defaultQuarter(key string) (QuarterRecord, error) {
	start, end, err := calendar.QuarterBounds(key)
	if err != nil {
		return QuarterRecord{}, err
	}
	return QuarterRecord{
		Key:       key,
		Goals:     []Goal{},
		StartDate: calendar.DayKey(start),
		EndDate:   calendar.DayKey(end),
	}, nil
}

// GetQuarter returns the quarter record for key, or an empty record spanning
// the quarter's dates when none is stored yet.
func (p *Planner) GetQuarter(key string) (QuarterRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getQuarter(key)
}

func (p *Planner) getQuarter(key string) (QuarterRecord, error) {
	q, err := defaultQuarter(key)
	if err != nil {
		return QuarterRecord{}, err
	}
	if _, err := p.read(quartersPrefix+key, &q); err != nil {
		return QuarterRecord{}, err
	}
	q.Key = key
	q.normalize()
	return q, nil
}

// UpdateQuarter replaces the stored quarter record for key. Goal progress
// passed in is ignored and recomputed from linked tasks.
func (p *Planner) UpdateQuarter(key string, q QuarterRecord) error {
	if _, _, err := calendar.ParseQuarterKey(key); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	snap, err := p.loadAll()
	if err != nil {
		return err
	}
	applyProgress(&q, tallyTasks(snap.Weeks), nil)
	return p.putQuarter(key, q)
}

func (p *Planner) putQuarter(key string, q QuarterRecord) error {
	q.Key = key
	q.normalize()
	return p.write(quartersPrefix+key, q)
}

// AddGoal appends g to the quarter with a fresh id, creation time and zero
// progress, and returns the stored goal.
func (p *Planner) AddGoal(quarterKey string, g Goal) (Goal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, err := p.getQuarter(quarterKey)
	if err != nil {
		return Goal{}, err
	}
	g.ID = p.newID()
	g.CreatedAt = p.now().UTC()
	g.Progress = 0
	q.Goals = append(q.Goals, g)
	if err := p.putQuarter(quarterKey, q); err != nil {
		return Goal{}, fmt.Errorf("add goal: %w", err)
	}
	return g, nil
}

// UpdateGoal merges patch into the goal with id. A missing goal is a no-op.
func (p *Planner) UpdateGoal(quarterKey, id string, patch GoalPatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, err := p.getQuarter(quarterKey)
	if err != nil {
		return err
	}
	i := indexOf(q.Goals, id)
	if i < 0 {
		return nil
	}
	if patch.Title != nil {
		q.Goals[i].Title = *patch.Title
	}
	return p.putQuarter(quarterKey, q)
}

// DeleteGoal removes the goal with id. Tasks linked to it are kept and
// resolve to the "no goal" placeholder afterwards.
func (p *Planner) DeleteGoal(quarterKey, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, err := p.getQuarter(quarterKey)
	if err != nil {
		return err
	}
	goals, removed := without(q.Goals, id)
	if !removed {
		return nil
	}
	q.Goals = goals
	return p.putQuarter(quarterKey, q)
}
