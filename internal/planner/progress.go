package planner

import (
	"fmt"
	"math"
)

type tally struct {
	done, total int
}

func (t tally) percent() int {
	if t.total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(t.done) / float64(t.total)))
}

// tallyTasks counts linked and completed tasks per goal id across every
// stored week.
func tallyTasks(weeks map[string]WeekRecord) map[string]tally {
	out := make(map[string]tally)
	for _, w := range weeks {
		for _, t := range w.Tasks {
			if t.GoalID == "" {
				continue
			}
			c := out[t.GoalID]
			c.total++
			if t.Completed {
				c.done++
			}
			out[t.GoalID] = c
		}
	}
	return out
}

// applyProgress rewrites the progress of every goal in q and reports
// whether anything changed.
func applyProgress(q *QuarterRecord, counts map[string]tally, only map[string]bool) bool {
	changed := false
	for i := range q.Goals {
		g := &q.Goals[i]
		if only != nil && !only[g.ID] {
			continue
		}
		pct := counts[g.ID].percent()
		if g.Progress != pct {
			g.Progress = pct
			changed = true
		}
	}
	return changed
}

// RecomputeAllGoalProgress recomputes the progress of every goal in the
// quarter from all tasks in the store and returns the updated record.
func (p *Planner) RecomputeAllGoalProgress(quarterKey string) (QuarterRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, err := p.getQuarter(quarterKey)
	if err != nil {
		return QuarterRecord{}, err
	}
	snap, err := p.loadAll()
	if err != nil {
		return QuarterRecord{}, err
	}
	if applyProgress(&q, tallyTasks(snap.Weeks), nil) {
		if err := p.putQuarter(quarterKey, q); err != nil {
			return QuarterRecord{}, fmt.Errorf("recompute progress: %w", err)
		}
	}
	return q, nil
}

// refreshProgress recomputes the goals with the given ids wherever they are
// stored. Empty ids are ignored.
func (p *Planner) refreshProgress(goalIDs ...string) error {
	only := make(map[string]bool, len(goalIDs))
	for _, id := range goalIDs {
		if id != "" {
			only[id] = true
		}
	}
	if len(only) == 0 {
		return nil
	}

	snap, err := p.loadAll()
	if err != nil {
		return err
	}
	counts := tallyTasks(snap.Weeks)
	updates := make(map[string]any)
	for key, q := range snap.Quarters {
		if applyProgress(&q, counts, only) {
			updates[quartersPrefix+key] = q
		}
	}
	if len(updates) == 0 {
		return nil
	}
	if err := p.persist(updates); err != nil {
		return fmt.Errorf("refresh progress: %w", err)
	}
	return nil
}
