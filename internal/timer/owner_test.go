package timer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/planr/internal/planner"
	"github.com/sadopc/planr/internal/store"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestPlanner(t *testing.T, clock *fakeClock) *planner.Planner {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	p, err := planner.New(s, planner.WithClock(clock.now))
	require.NoError(t, err)
	return p
}

func newTestOwner(t *testing.T) (*Owner, *planner.Planner, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, time.May, 20, 9, 0, 0, 0, time.Local)}
	p := newTestPlanner(t, clock)
	o, err := NewOwner(p, WithClock(clock.now))
	require.NoError(t, err)
	return o, p, clock
}

func TestOwnerStartsIdle(t *testing.T) {
	o, _, _ := newTestOwner(t)
	st, err := o.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, planner.TimerIdle, st.Status)
	assert.Zero(t, st.ElapsedMs)
	assert.False(t, st.Active())
}

func TestStartRequiresTask(t *testing.T) {
	o, _, _ := newTestOwner(t)
	_, err := o.Start(context.Background(), "", "")
	require.ErrorIs(t, err, ErrNoTask)
}

func TestStartStopResume(t *testing.T) {
	ctx := context.Background()
	o, _, clock := newTestOwner(t)

	st, err := o.Start(ctx, "p1", "Write")
	require.NoError(t, err)
	assert.True(t, st.Running())
	assert.Equal(t, "Write", st.TaskTitle)

	clock.advance(10 * time.Minute)
	st, _ = o.State(ctx)
	assert.Equal(t, 10*time.Minute, st.Elapsed())

	st, err = o.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, planner.TimerPaused, st.Status)

	// Paused time does not count.
	clock.advance(time.Hour)
	st, _ = o.State(ctx)
	assert.Equal(t, 10*time.Minute, st.Elapsed())

	st, err = o.Start(ctx, "", "")
	require.NoError(t, err)
	assert.True(t, st.Running())
	assert.Equal(t, "p1", st.TaskID)

	clock.advance(5 * time.Minute)
	st, _ = o.State(ctx)
	assert.Equal(t, 15*time.Minute, st.Elapsed())
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	ctx := context.Background()
	o, _, clock := newTestOwner(t)

	o.Start(ctx, "p1", "Write")
	clock.advance(time.Minute)
	st, err := o.Start(ctx, "p2", "Other")
	require.NoError(t, err)
	assert.Equal(t, "p1", st.TaskID)
	assert.Equal(t, time.Minute, st.Elapsed())
}

func TestResumeOtherTaskRejected(t *testing.T) {
	ctx := context.Background()
	o, _, _ := newTestOwner(t)

	o.Start(ctx, "p1", "Write")
	o.Stop(ctx)
	_, err := o.Start(ctx, "p2", "Other")
	require.ErrorIs(t, err, ErrBusy)
}

func TestStopWhenIdle(t *testing.T) {
	o, _, _ := newTestOwner(t)
	_, err := o.Stop(context.Background())
	require.ErrorIs(t, err, ErrNotRunning)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	o, p, clock := newTestOwner(t)

	o.Start(ctx, "p1", "Write")
	clock.advance(time.Minute)
	st, err := o.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, planner.TimerIdle, st.Status)
	assert.Empty(t, st.TaskID)

	sessions, err := p.Sessions()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestFinishRecordsSession(t *testing.T) {
	ctx := context.Background()
	o, p, clock := newTestOwner(t)

	o.Start(ctx, "p1", "Write")
	clock.advance(20 * time.Minute)
	o.Stop(ctx)
	clock.advance(time.Hour)
	o.Start(ctx, "", "")
	clock.advance(5 * time.Minute)

	sess, err := o.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p1", sess.TaskID)
	assert.Equal(t, 25*time.Minute, sess.Duration())
	assert.Equal(t, "2024-05-20", sess.Date)

	st, _ := o.State(ctx)
	assert.Equal(t, planner.TimerIdle, st.Status)

	total, err := p.TotalDurationForTask("p1")
	require.NoError(t, err)
	assert.Equal(t, 25*time.Minute, total)

	_, err = o.Finish(ctx)
	require.ErrorIs(t, err, ErrNotRunning)
}

func TestSaveSession(t *testing.T) {
	ctx := context.Background()
	o, p, _ := newTestOwner(t)

	sess, err := o.SaveSession(ctx, "p9", "Manual", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, sess.EndTime.Sub(sess.StartTime))

	_, err = o.SaveSession(ctx, "p9", "Manual", 0)
	require.Error(t, err)

	on, err := p.SessionsOn("2024-05-20")
	require.NoError(t, err)
	assert.Len(t, on, 1)

	st, _ := o.State(ctx)
	assert.Equal(t, planner.TimerIdle, st.Status)
}

func TestStateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	o, p, clock := newTestOwner(t)

	o.Start(ctx, "p1", "Write")
	clock.advance(3 * time.Minute)
	o.Stop(ctx)

	// A new owner over the same planner picks up the paused timer.
	o2, err := NewOwner(p, WithClock(clock.now))
	require.NoError(t, err)
	st, _ := o2.State(ctx)
	assert.Equal(t, planner.TimerPaused, st.Status)
	assert.Equal(t, 3*time.Minute, st.Elapsed())

	o2.Start(ctx, "", "")
	clock.advance(2 * time.Minute)

	// Running state keeps counting across a restart.
	o3, err := NewOwner(p, WithClock(clock.now))
	require.NoError(t, err)
	st, _ = o3.State(ctx)
	assert.True(t, st.Running())
	assert.Equal(t, 5*time.Minute, st.Elapsed())
}

// failingStore rejects timer state writes.
type failingStore struct {
	Store
}

func (failingStore) SaveTimerState(planner.TimerState) error { return errors.New("disk full") }

func TestFailedPersistRollsBack(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	p := newTestPlanner(t, clock)

	o, err := NewOwner(failingStore{Store: p}, WithClock(clock.now))
	require.NoError(t, err)

	_, err = o.Start(ctx, "p1", "Write")
	require.Error(t, err)
	st, _ := o.State(ctx)
	assert.Equal(t, planner.TimerIdle, st.Status)
}

// flakyStore fails timer state writes or session writes on demand.
type flakyStore struct {
	Store
	failState   bool
	failSession bool
}

func (f *flakyStore) SaveTimerState(st planner.TimerState) error {
	if f.failState {
		return errors.New("disk full")
	}
	return f.Store.SaveTimerState(st)
}

func (f *flakyStore) RecordSession(taskID, taskTitle string, d time.Duration, start time.Time) (planner.Session, error) {
	if f.failSession {
		return planner.Session{}, errors.New("disk full")
	}
	return f.Store.RecordSession(taskID, taskTitle, d, start)
}

func TestFailedFinishLogsNothing(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, time.May, 20, 9, 0, 0, 0, time.Local)}
	p := newTestPlanner(t, clock)
	fs := &flakyStore{Store: p}

	o, err := NewOwner(fs, WithClock(clock.now))
	require.NoError(t, err)
	_, err = o.Start(ctx, "p1", "Write")
	require.NoError(t, err)
	clock.advance(10 * time.Minute)

	fs.failState = true
	_, err = o.Finish(ctx)
	require.Error(t, err)
	st, _ := o.State(ctx)
	assert.True(t, st.Running())
	sessions, err := p.Sessions()
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// Retrying once the store recovers logs the session exactly once.
	fs.failState = false
	sess, err := o.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, sess.Duration())
	sessions, err = p.Sessions()
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestFailedSessionWriteKeepsTimer(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, time.May, 20, 9, 0, 0, 0, time.Local)}
	p := newTestPlanner(t, clock)
	fs := &flakyStore{Store: p}

	o, err := NewOwner(fs, WithClock(clock.now))
	require.NoError(t, err)
	_, err = o.Start(ctx, "p1", "Write")
	require.NoError(t, err)
	clock.advance(time.Minute)

	fs.failSession = true
	_, err = o.Finish(ctx)
	require.Error(t, err)
	st, _ := o.State(ctx)
	assert.True(t, st.Running())

	rec, err := p.TimerState()
	require.NoError(t, err)
	assert.Equal(t, planner.TimerRunning, rec.Status)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	o, _, clock := newTestOwner(t)

	ch, cancel := o.Subscribe()
	defer cancel()

	// Idle ticks are not delivered.
	o.tick()
	select {
	case st := <-ch:
		t.Fatalf("unexpected update while idle: %+v", st)
	default:
	}

	o.Start(ctx, "p1", "Write")
	st := <-ch
	assert.True(t, st.Running())

	clock.advance(2 * time.Second)
	o.tick()
	st = <-ch
	assert.Equal(t, 2*time.Second, st.Elapsed())

	// A full channel drops updates instead of blocking.
	o.tick()
	o.tick()
	<-ch
	select {
	case <-ch:
		t.Fatal("expected lossy delivery")
	default:
	}
}

func TestSubscribeCancel(t *testing.T) {
	o, _, _ := newTestOwner(t)
	ch, cancel := o.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestRunStopsOnCancel(t *testing.T) {
	o, _, _ := newTestOwner(t)
	o.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
