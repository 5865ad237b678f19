package timerd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/planr/internal/planner"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/timer"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestOwner(t *testing.T) (*timer.Owner, *planner.Planner, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, time.May, 20, 9, 0, 0, 0, time.Local)}

	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	p, err := planner.New(s, planner.WithClock(clock.now))
	require.NoError(t, err)
	o, err := timer.NewOwner(p, timer.WithClock(clock.now))
	require.NoError(t, err)
	return o, p, clock
}

func newTestClient(t *testing.T) (*Client, *planner.Planner, *fakeClock) {
	t.Helper()
	o, p, clock := newTestOwner(t)
	srv := httptest.NewServer(NewRouter(NewHandler(o, "test")))
	t.Cleanup(srv.Close)
	return newClient(srv.URL, http.DefaultTransport), p, clock
}

// ============================================================
// Handlers
// ============================================================

func TestHealth(t *testing.T) {
	o, _, _ := newTestOwner(t)
	router := NewRouter(NewHandler(o, "1.2.3"))

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestStopWhenIdleIsProblem(t *testing.T) {
	o, _, _ := newTestOwner(t)
	router := NewRouter(NewHandler(o, "test"))

	req := httptest.NewRequest(http.MethodPost, "/v1/timer/stop", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var p Problem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	assert.Equal(t, "urn:planr:timer:not-running", p.Type)
	assert.Equal(t, "/v1/timer/stop", p.Instance)
}

func TestStartInvalidJSON(t *testing.T) {
	o, _, _ := newTestOwner(t)
	router := NewRouter(NewHandler(o, "test"))

	req := httptest.NewRequest(http.MethodPost, "/v1/timer/start", strings.NewReader("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveSessionRejectsNonPositiveDuration(t *testing.T) {
	o, _, _ := newTestOwner(t)
	router := NewRouter(NewHandler(o, "test"))

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{"taskId":"a","durationMs":0}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUnknownErrorHidesDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/timer", nil)
	w := httptest.NewRecorder()
	MapError(w, req, errors.New("secret internals"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestPersistenceErrorMapsToUnavailable(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/timer/start", nil)
	w := httptest.NewRecorder()
	MapError(w, req, errors.Join(errors.New("write"), planner.ErrPersistence))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// ============================================================
// Client round trips
// ============================================================

func TestClientLifecycle(t *testing.T) {
	ctx := context.Background()
	c, p, clock := newTestClient(t)

	require.NoError(t, c.Ping(ctx))

	st, err := c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, planner.TimerIdle, st.Status)

	st, err = c.Start(ctx, "p1", "Write")
	require.NoError(t, err)
	assert.True(t, st.Running())

	clock.t = clock.t.Add(4 * time.Minute)
	st, err = c.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, planner.TimerPaused, st.Status)
	assert.Equal(t, 4*time.Minute, st.Elapsed())

	// Empty start resumes.
	st, err = c.Start(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "p1", st.TaskID)

	clock.t = clock.t.Add(time.Minute)
	sess, err := c.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, sess.Duration())

	total, err := p.TotalDurationForTask("p1")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, total)
}

func TestClientMapsSentinels(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestClient(t)

	_, err := c.Stop(ctx)
	require.ErrorIs(t, err, timer.ErrNotRunning)

	_, err = c.Start(ctx, "", "")
	require.ErrorIs(t, err, timer.ErrNoTask)

	_, err = c.Start(ctx, "p1", "Write")
	require.NoError(t, err)
	_, err = c.Stop(ctx)
	require.NoError(t, err)
	_, err = c.Start(ctx, "p2", "Other")
	require.ErrorIs(t, err, timer.ErrBusy)

	_, err = c.Reset(ctx)
	require.NoError(t, err)
	_, err = c.Finish(ctx)
	require.ErrorIs(t, err, timer.ErrNotRunning)
}

func TestClientSaveSession(t *testing.T) {
	ctx := context.Background()
	c, p, _ := newTestClient(t)

	sess, err := c.SaveSession(ctx, "p3", "Review", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "p3", sess.TaskID)

	on, err := p.SessionsOn("2024-05-20")
	require.NoError(t, err)
	assert.Len(t, on, 1)
}

// ============================================================
// Unix socket
// ============================================================

func shortSocketPath(t *testing.T) string {
	t.Helper()
	// Socket paths are length-limited, so avoid the long t.TempDir names.
	dir, err := os.MkdirTemp("", "planr")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "t.sock")
}

func TestServeOverUnixSocket(t *testing.T) {
	o, _, _ := newTestOwner(t)
	path := shortSocketPath(t)

	ln, err := Listen(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, NewRouter(NewHandler(o, "test"))) }()

	c := NewClient(path)
	require.NoError(t, c.Ping(context.Background()))

	_, err = c.Start(context.Background(), "p1", "Write")
	require.NoError(t, err)

	// A second daemon on the same socket is refused.
	_, err = Listen(path)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	require.Error(t, c.Ping(context.Background()))
}

func TestListenRemovesStaleSocket(t *testing.T) {
	path := shortSocketPath(t)
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	ln, err := Listen(path)
	require.NoError(t, err)
	ln.Close()
}
