package planner

import (
	"math"

	"github.com/sadopc/planr/internal/calendar"
)

type QuarterSummary struct {
	Key             string
	Goals           int
	AverageProgress int
	Weeks           int
	TasksTotal      int
	TasksCompleted  int
}

// WeeksInQuarter returns the stored week records that start in the quarter,
// in week order. Weeks are read without materializing them.
func (p *Planner) WeeksInQuarter(quarterKey string) ([]WeekRecord, error) {
	keys, err := calendar.QuarterWeeks(quarterKey)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var out []WeekRecord
	for _, k := range keys {
		w, ok, err := p.tryGetWeek(k)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, w)
		}
	}
	return out, nil
}

// QuarterSummary recomputes goal progress for the quarter and totals its
// goals and the tasks of its weeks.
func (p *Planner) QuarterSummary(quarterKey string) (QuarterSummary, error) {
	q, err := p.RecomputeAllGoalProgress(quarterKey)
	if err != nil {
		return QuarterSummary{}, err
	}
	weeks, err := p.WeeksInQuarter(quarterKey)
	if err != nil {
		return QuarterSummary{}, err
	}

	sum := QuarterSummary{Key: quarterKey, Goals: len(q.Goals), Weeks: len(weeks)}
	if len(q.Goals) > 0 {
		total := 0
		for _, g := range q.Goals {
			total += g.Progress
		}
		sum.AverageProgress = int(math.Round(float64(total) / float64(len(q.Goals))))
	}
	for _, w := range weeks {
		for _, t := range w.Tasks {
			sum.TasksTotal++
			if t.Completed {
				sum.TasksCompleted++
			}
		}
	}
	return sum, nil
}
