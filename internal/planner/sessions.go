package planner

import (
	"fmt"
	"time"

	"github.com/sadopc/planr/internal/calendar"
)

// DayStats is the per-date breakdown of StatsOverTrailingDays.
type DayStats struct {
	Date     string
	Total    time.Duration
	Sessions int
}

type Stats struct {
	Total    time.Duration
	Sessions int
	Average  time.Duration
	Daily    []DayStats
}

func (p *Planner) sessions() ([]Session, error) {
	var out []Session
	if _, err := p.read(keySessions, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordSession appends a completed session that ends now and returns it.
func (p *Planner) RecordSession(taskID, taskTitle string, duration time.Duration, start time.Time) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	list, err := p.sessions()
	if err != nil {
		return Session{}, err
	}
	now := p.now()
	s := Session{
		TaskID:     taskID,
		TaskTitle:  taskTitle,
		DurationMs: duration.Milliseconds(),
		StartTime:  start.UTC(),
		EndTime:    now.UTC(),
		Date:       calendar.DayKey(now),
	}
	list = append(list, s)
	if err := p.write(keySessions, list); err != nil {
		return Session{}, fmt.Errorf("record session: %w", err)
	}
	return s, nil
}

// Sessions returns the full session log in recording order.
func (p *Planner) Sessions() ([]Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions()
}

// SessionsOn returns the sessions bucketed on the day key date.
func (p *Planner) SessionsOn(date string) ([]Session, error) {
	all, err := p.Sessions()
	if err != nil {
		return nil, err
	}
	var out []Session
	for _, s := range all {
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out, nil
}

func (p *Planner) TotalDurationForTask(taskID string) (time.Duration, error) {
	all, err := p.Sessions()
	if err != nil {
		return 0, err
	}
	var total time.Duration
	for _, s := range all {
		if s.TaskID == taskID {
			total += s.Duration()
		}
	}
	return total, nil
}

func (p *Planner) TotalDurationOnDate(date string) (time.Duration, error) {
	on, err := p.SessionsOn(date)
	if err != nil {
		return 0, err
	}
	var total time.Duration
	for _, s := range on {
		total += s.Duration()
	}
	return total, nil
}

// StatsOverTrailingDays summarizes the sessions of the last n calendar days,
// today included. Daily has one entry per day, oldest first, including days
// without sessions.
func (p *Planner) StatsOverTrailingDays(n int) (Stats, error) {
	all, err := p.Sessions()
	if err != nil {
		return Stats{}, err
	}
	return summarize(all, p.now(), n), nil
}

func summarize(all []Session, now time.Time, n int) Stats {
	var st Stats
	if n <= 0 {
		return st
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	st.Daily = make([]DayStats, n)
	index := make(map[string]int, n)
	for i := range n {
		key := calendar.DayKey(today.AddDate(0, 0, i-n+1))
		st.Daily[i] = DayStats{Date: key}
		index[key] = i
	}
	for _, s := range all {
		i, ok := index[s.Date]
		if !ok {
			continue
		}
		st.Daily[i].Total += s.Duration()
		st.Daily[i].Sessions++
		st.Total += s.Duration()
		st.Sessions++
	}
	if st.Sessions > 0 {
		st.Average = st.Total / time.Duration(st.Sessions)
	}
	return st
}
