// Package planner is the hierarchical record store behind the quarter, week
// and day views. Records are created lazily on first access, incomplete tasks
// carry over when a new week is first materialized, and goal progress is
// rolled up from task completion across every stored week.
//
// All mutating operations are read-modify-write sequences against a Backend;
// a Planner serializes them so one process can safely share it between the
// UI and the timer owner.
package planner

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sadopc/planr/internal/calendar"
)

// Backend is the flat key-value persistence primitive the planner stores
// JSON blobs in. Get with nil keys returns every entry.
type Backend interface {
	Get(keys []string) (map[string][]byte, error)
	Set(values map[string][]byte) error
	Remove(keys []string) error
	Clear() error
	Replace(values map[string][]byte) error
}

const (
	quartersPrefix = "quarters/"
	weeksPrefix    = "weeks/"
	daysPrefix     = "days/"

	keySettings   = "settings"
	keySessions   = "sessions"
	keyReviews    = "reviews"
	keyTimerState = "timerState"
)

type Planner struct {
	mu    sync.Mutex
	kv    Backend
	now   func() time.Time
	newID func() string
}

type Option func(*Planner)

// WithClock overrides the wall clock used for timestamps and "today".
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// New wraps kv and seeds the current quarter, week and day when the backing
// store is empty.
func New(kv Backend, opts ...Option) (*Planner, error) {
	p := &Planner{
		kv:    kv,
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(p)
	}

	existing, err := kv.Get(nil)
	if err != nil {
		return nil, fmt.Errorf("read store: %w: %w", ErrPersistence, err)
	}
	if len(existing) == 0 {
		if err := p.persist(p.defaultSeed()); err != nil {
			return nil, err
		}
		slog.Info("planner initialized", "keys", calendar.Current(p.now()))
	}
	return p, nil
}

// Now returns the planner's clock reading.
func (p *Planner) Now() time.Time {
	return p.now()
}

// CurrentKeys returns the quarter, week and day keys for today.
func (p *Planner) CurrentKeys() calendar.Keys {
	return calendar.Current(p.now())
}

// defaultSeed returns the records written on first run and after ClearAll.
func (p *Planner) defaultSeed() map[string]any {
	keys := calendar.Current(p.now())
	q, _ := defaultQuarter(keys.Quarter)
	w, _ := defaultWeek(keys.Week)
	d, _ := defaultDay(keys.Day)
	return map[string]any{
		quartersPrefix + keys.Quarter: q,
		weeksPrefix + keys.Week:       w,
		daysPrefix + keys.Day:         d,
		keySettings:                   DefaultSettings(),
	}
}

// read decodes the blob under key into v and reports whether it existed.
func (p *Planner) read(key string, v any) (bool, error) {
	vals, err := p.kv.Get([]string{key})
	if err != nil {
		return false, fmt.Errorf("read %s: %w: %w", key, ErrPersistence, err)
	}
	raw, ok := vals[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w: %w", key, ErrPersistence, err)
	}
	return true, nil
}

func (p *Planner) write(key string, v any) error {
	return p.persist(map[string]any{key: v})
}

func (p *Planner) persist(values map[string]any) error {
	encoded, err := encodeAll(values)
	if err != nil {
		return err
	}
	if err := p.kv.Set(encoded); err != nil {
		slog.Warn("persist failed", "keys", len(values), "error", err)
		return fmt.Errorf("write: %w: %w", ErrPersistence, err)
	}
	return nil
}

func encodeAll(values map[string]any) (map[string][]byte, error) {
	out := make(map[string][]byte, len(values))
	for k, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		out[k] = data
	}
	return out, nil
}

// loadAll reads and decodes every stored record.
func (p *Planner) loadAll() (Snapshot, error) {
	raw, err := p.kv.Get(nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read store: %w: %w", ErrPersistence, err)
	}
	snap, err := decodeSnapshot(raw)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return snap, nil
}

func decodeSnapshot(raw map[string][]byte) (Snapshot, error) {
	snap := newSnapshot()
	for k, v := range raw {
		var err error
		switch {
		case strings.HasPrefix(k, quartersPrefix):
			var q QuarterRecord
			if err = json.Unmarshal(v, &q); err == nil {
				q.Key = strings.TrimPrefix(k, quartersPrefix)
				q.normalize()
				snap.Quarters[q.Key] = q
			}
		case strings.HasPrefix(k, weeksPrefix):
			var w WeekRecord
			if err = json.Unmarshal(v, &w); err == nil {
				w.Key = strings.TrimPrefix(k, weeksPrefix)
				w.normalize()
				snap.Weeks[w.Key] = w
			}
		case strings.HasPrefix(k, daysPrefix):
			var d DayRecord
			if err = json.Unmarshal(v, &d); err == nil {
				d.Key = strings.TrimPrefix(k, daysPrefix)
				d.normalize()
				snap.Days[d.Key] = d
			}
		case k == keySettings:
			err = json.Unmarshal(v, &snap.Settings)
		case k == keySessions:
			err = json.Unmarshal(v, &snap.Sessions)
		case k == keyReviews:
			err = json.Unmarshal(v, &snap.Reviews)
		case k == keyTimerState:
			var ts TimerState
			if err = json.Unmarshal(v, &ts); err == nil {
				snap.TimerState = &ts
			}
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", k, err)
		}
	}
	return snap, nil
}

// Sequence helpers shared by every owned collection.

type entity interface {
	ident() string
}

func indexOf[T entity](items []T, id string) int {
	for i, it := range items {
		if it.ident() == id {
			return i
		}
	}
	return -1
}

func without[T entity](items []T, id string) ([]T, bool) {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it.ident() != id {
			out = append(out, it)
		}
	}
	return out, len(out) != len(items)
}

// reorder returns items arranged in ids order. Ids not present in items are
// skipped, and items whose id is missing from ids are dropped.
func reorder[T entity](items []T, ids []string) []T {
	byID := make(map[string]T, len(items))
	for _, it := range items {
		byID[it.ident()] = it
	}
	out := make([]T, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, it)
	}
	return out
}

// completion returns the completedAt value for a completed flag.
func completion(completed bool, now time.Time) *time.Time {
	if !completed {
		return nil
	}
	t := now.UTC()
	return &t
}
