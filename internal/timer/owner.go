package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sadopc/planr/internal/planner"
)

// Controller is the command surface shared by the in-process Owner and the
// timerd client.
type Controller interface {
	State(ctx context.Context) (State, error)
	Start(ctx context.Context, taskID, taskTitle string) (State, error)
	Stop(ctx context.Context) (State, error)
	Reset(ctx context.Context) (State, error)
	Finish(ctx context.Context) (planner.Session, error)
	SaveSession(ctx context.Context, taskID, taskTitle string, d time.Duration) (planner.Session, error)
}

// Store is the part of the planner the Owner persists through.
type Store interface {
	TimerState() (planner.TimerState, error)
	SaveTimerState(planner.TimerState) error
	RecordSession(taskID, taskTitle string, d time.Duration, start time.Time) (planner.Session, error)
}

const DefaultTickInterval = time.Second

// Owner holds the single timer of a process. Every transition is persisted
// before it becomes visible, so a restarted owner resumes where the last one
// left off.
type Owner struct {
	store    Store
	now      func() time.Time
	interval time.Duration

	mu   sync.Mutex
	m    machine
	subs map[chan State]struct{}
}

type Option func(*Owner)

func WithClock(now func() time.Time) Option {
	return func(o *Owner) { o.now = now }
}

func WithTickInterval(d time.Duration) Option {
	return func(o *Owner) {
		if d > 0 {
			o.interval = d
		}
	}
}

// NewOwner restores the last persisted timer state from s.
func NewOwner(s Store, opts ...Option) (*Owner, error) {
	o := &Owner{
		store:    s,
		now:      time.Now,
		interval: DefaultTickInterval,
		subs:     make(map[chan State]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}

	rec, err := s.TimerState()
	if err != nil {
		return nil, fmt.Errorf("restore timer: %w", err)
	}
	o.m = newMachine(rec)
	if rec.Status != planner.TimerIdle && rec.Status != "" {
		slog.Info("timer restored", "status", rec.Status, "task", rec.TaskID, "elapsed", o.m.elapsed(o.now()))
	}
	return o, nil
}

// transition applies fn and persists the result. A failed write rolls the
// machine back.
func (o *Owner) transition(fn func(m *machine, now time.Time) error) (State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	prev := o.m
	now := o.now()
	if err := fn(&o.m, now); err != nil {
		return o.m.view(now), err
	}
	if err := o.store.SaveTimerState(o.m.rec); err != nil {
		o.m = prev
		return o.m.view(now), err
	}
	st := o.m.view(now)
	o.broadcast(st)
	return st, nil
}

func (o *Owner) State(context.Context) (State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.m.view(o.now()), nil
}

func (o *Owner) Start(_ context.Context, taskID, taskTitle string) (State, error) {
	st, err := o.transition(func(m *machine, now time.Time) error {
		return m.start(taskID, taskTitle, now)
	})
	if err == nil {
		slog.Debug("timer started", "task", st.TaskID)
	}
	return st, err
}

// Stop pauses a running timer, keeping the elapsed time.
func (o *Owner) Stop(context.Context) (State, error) {
	return o.transition(func(m *machine, now time.Time) error {
		return m.stop(now)
	})
}

func (o *Owner) Reset(context.Context) (State, error) {
	return o.transition(func(m *machine, now time.Time) error {
		m.reset(now)
		return nil
	})
}

// Finish records the elapsed time as a session and returns to idle.
func (o *Owner) Finish(context.Context) (planner.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.m.rec.Status == planner.TimerIdle {
		return planner.Session{}, ErrNotRunning
	}
	now := o.now()
	elapsed := o.m.elapsed(now)
	start := now.Add(-elapsed)
	if o.m.rec.StartedAt != nil {
		start = *o.m.rec.StartedAt
	}

	// Idle is persisted before the session is logged: a failed finish logs
	// nothing.
	prev := o.m
	o.m.reset(now)
	if err := o.store.SaveTimerState(o.m.rec); err != nil {
		o.m = prev
		return planner.Session{}, err
	}
	sess, err := o.store.RecordSession(prev.rec.TaskID, prev.rec.TaskTitle, elapsed, start)
	if err != nil {
		o.m = prev
		if rerr := o.store.SaveTimerState(prev.rec); rerr != nil {
			slog.Error("restore timer after failed finish", "error", rerr)
		}
		return planner.Session{}, err
	}
	slog.Info("session recorded", "task", sess.TaskID, "duration", sess.Duration())
	o.broadcast(o.m.view(now))
	return sess, nil
}

// SaveSession records a session of length d ending now without touching the
// timer.
func (o *Owner) SaveSession(_ context.Context, taskID, taskTitle string, d time.Duration) (planner.Session, error) {
	if d <= 0 {
		return planner.Session{}, fmt.Errorf("save session: duration must be positive, got %s", d)
	}
	return o.store.RecordSession(taskID, taskTitle, d, o.now().Add(-d))
}

// Subscribe returns a channel of state updates sent on every transition and
// on every tick while running. Delivery is lossy: a slow reader misses
// updates rather than blocking the owner. Call cancel to unsubscribe.
func (o *Owner) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	o.mu.Lock()
	o.subs[ch] = struct{}{}
	o.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, ch)
			o.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// broadcast must be called with mu held.
func (o *Owner) broadcast(st State) {
	for ch := range o.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

func (o *Owner) tick() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.m.rec.Status != planner.TimerRunning {
		return
	}
	o.broadcast(o.m.view(o.now()))
}

// Run delivers ticks until ctx is done.
func (o *Owner) Run(ctx context.Context) error {
	t := time.NewTicker(o.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			o.tick()
		}
	}
}
