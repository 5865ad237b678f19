// Package timer implements the focus timer: a small state machine over the
// persisted timer record and the long-lived Owner that drives it.
package timer

import (
	"errors"
	"time"

	"github.com/sadopc/planr/internal/planner"
)

var (
	ErrNotRunning = errors.New("timer not running")
	ErrNoTask     = errors.New("no task selected")
	ErrBusy       = errors.New("timer paused on another task")
)

// State is a point-in-time view of the timer.
type State struct {
	Status    planner.TimerStatus `json:"status"`
	TaskID    string              `json:"taskId,omitempty"`
	TaskTitle string              `json:"taskTitle,omitempty"`
	ElapsedMs int64               `json:"elapsedMs"`
	StartedAt *time.Time          `json:"startedAt,omitempty"`
}

func (s State) Elapsed() time.Duration {
	return time.Duration(s.ElapsedMs) * time.Millisecond
}

func (s State) Running() bool { return s.Status == planner.TimerRunning }

func (s State) Active() bool { return s.Status != planner.TimerIdle }

// machine holds the timer record and applies transitions to it. Elapsed time
// is never accumulated per tick: it is the time banked by earlier running
// segments plus now minus the start of the current one.
type machine struct {
	rec planner.TimerState
}

func newMachine(rec planner.TimerState) machine {
	if rec.Status == "" {
		rec.Status = planner.TimerIdle
	}
	return machine{rec: rec}
}

func (m *machine) elapsed(now time.Time) time.Duration {
	d := time.Duration(m.rec.ElapsedMs) * time.Millisecond
	if m.rec.Status == planner.TimerRunning && m.rec.RunningSince != nil {
		if seg := now.Sub(*m.rec.RunningSince); seg > 0 {
			d += seg
		}
	}
	return d
}

func (m *machine) view(now time.Time) State {
	return State{
		Status:    m.rec.Status,
		TaskID:    m.rec.TaskID,
		TaskTitle: m.rec.TaskTitle,
		ElapsedMs: m.elapsed(now).Milliseconds(),
		StartedAt: m.rec.StartedAt,
	}
}

// start moves Idle to Running on a task, or resumes a paused timer. Starting
// a running timer is a no-op.
func (m *machine) start(taskID, title string, now time.Time) error {
	switch m.rec.Status {
	case planner.TimerRunning:
		return nil
	case planner.TimerPaused:
		if taskID != "" && taskID != m.rec.TaskID {
			return ErrBusy
		}
	default:
		if taskID == "" {
			return ErrNoTask
		}
		started := now.UTC()
		m.rec = planner.TimerState{
			TaskID:    taskID,
			TaskTitle: title,
			StartedAt: &started,
		}
	}
	since := now.UTC()
	m.rec.Status = planner.TimerRunning
	m.rec.RunningSince = &since
	m.rec.UpdatedAt = since
	return nil
}

// stop banks the running segment and pauses.
func (m *machine) stop(now time.Time) error {
	if m.rec.Status != planner.TimerRunning {
		return ErrNotRunning
	}
	m.rec.ElapsedMs = m.elapsed(now).Milliseconds()
	m.rec.Status = planner.TimerPaused
	m.rec.RunningSince = nil
	m.rec.UpdatedAt = now.UTC()
	return nil
}

func (m *machine) reset(now time.Time) {
	m.rec = planner.TimerState{Status: planner.TimerIdle, UpdatedAt: now.UTC()}
}
