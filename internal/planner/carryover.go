package planner

import (
	"fmt"
	"log/slog"

	"github.com/sadopc/planr/internal/calendar"
)

// carryOver materializes the week for key from the previous week's
// incomplete tasks. It must only be called for a week with no stored record.
func (p *Planner) carryOver(key string) (WeekRecord, error) {
	w, err := defaultWeek(key)
	if err != nil {
		return WeekRecord{}, err
	}
	prevKey, err := calendar.PreviousWeekKey(key)
	if err != nil {
		return WeekRecord{}, err
	}
	prev, ok, err := p.tryGetWeek(prevKey)
	if err != nil {
		return WeekRecord{}, err
	}

	if ok {
		for _, t := range prev.Tasks {
			if t.Completed {
				continue
			}
			w.Tasks = append(w.Tasks, Task{
				ID:              p.newID(),
				Title:           t.Title,
				GoalID:          t.GoalID,
				CarriedOver:     true,
				CarriedFromWeek: prevKey,
				CreatedAt:       t.CreatedAt,
			})
		}
	}

	if err := p.putWeek(key, w); err != nil {
		return WeekRecord{}, fmt.Errorf("materialize week %s: %w", key, err)
	}
	slog.Debug("week materialized", "week", key, "from", prevKey, "carried", len(w.Tasks))
	if len(w.Tasks) > 0 {
		if err := p.refreshProgress(goalIDsOf(w.Tasks)...); err != nil {
			return WeekRecord{}, err
		}
	}
	return w, nil
}
