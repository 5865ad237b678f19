package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sadopc/planr/internal/calendar"
)

// Snapshot is the whole persisted state in export document layout.
type Snapshot struct {
	Quarters   map[string]QuarterRecord `json:"quarters"`
	Weeks      map[string]WeekRecord    `json:"weeks"`
	Days       map[string]DayRecord     `json:"days"`
	Settings   *Settings                `json:"settings"`
	Sessions   []Session                `json:"sessions"`
	Reviews    []Review                 `json:"reviews"`
	TimerState *TimerState              `json:"timerState,omitempty"`
}

func newSnapshot() Snapshot {
	return Snapshot{
		Quarters: map[string]QuarterRecord{},
		Weeks:    map[string]WeekRecord{},
		Days:     map[string]DayRecord{},
	}
}

// values flattens the snapshot back into store keys.
func (s Snapshot) values() map[string]any {
	out := make(map[string]any, len(s.Quarters)+len(s.Weeks)+len(s.Days)+4)
	for k, q := range s.Quarters {
		q.Key = k
		q.normalize()
		out[quartersPrefix+k] = q
	}
	for k, w := range s.Weeks {
		w.Key = k
		w.normalize()
		out[weeksPrefix+k] = w
	}
	for k, d := range s.Days {
		d.Key = k
		d.normalize()
		out[daysPrefix+k] = d
	}
	if s.Settings != nil {
		out[keySettings] = *s.Settings
	}
	if s.Sessions != nil {
		out[keySessions] = s.Sessions
	}
	if s.Reviews != nil {
		out[keyReviews] = s.Reviews
	}
	if s.TimerState != nil {
		out[keyTimerState] = *s.TimerState
	}
	return out
}

func (s Snapshot) validate() error {
	for k := range s.Quarters {
		if _, _, err := calendar.ParseQuarterKey(k); err != nil {
			return err
		}
	}
	for k := range s.Weeks {
		if _, _, err := calendar.ParseWeekKey(k); err != nil {
			return err
		}
	}
	for k := range s.Days {
		if _, err := calendar.ParseDayKey(k); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot reads the whole store.
func (p *Planner) Snapshot() (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadAll()
}

// ExportAll serializes the whole store as one indented JSON document.
func (p *Planner) ExportAll() ([]byte, error) {
	snap, err := p.Snapshot()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return data, nil
}

// ImportAll replaces the whole store with the document in data. The
// document is decoded and validated before anything is written, and the
// swap happens in one backend call, so a failed import leaves the previous
// state in place.
func (p *Planner) ImportAll(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: document must be a JSON object", ErrMalformedImport)
	}
	snap := newSnapshot()
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedImport, err)
	}
	if err := snap.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedImport, err)
	}
	encoded, err := encodeAll(snap.values())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedImport, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.kv.Replace(encoded); err != nil {
		slog.Warn("import failed", "error", err)
		return fmt.Errorf("import: %w: %w", ErrPersistence, err)
	}
	slog.Info("import complete", "quarters", len(snap.Quarters), "weeks", len(snap.Weeks), "days", len(snap.Days))
	return nil
}

// ClearAll erases every record and reseeds the current quarter, week and
// day as on first run.
func (p *Planner) ClearAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	encoded, err := encodeAll(p.defaultSeed())
	if err != nil {
		return err
	}
	if err := p.kv.Replace(encoded); err != nil {
		slog.Warn("clear failed", "error", err)
		return fmt.Errorf("clear: %w: %w", ErrPersistence, err)
	}
	slog.Info("store cleared")
	return nil
}

type StorageInfo struct {
	Bytes      int
	Keys       int
	Quarters   int
	Weeks      int
	Days       int
	Goals      int
	Tasks      int
	Priorities int
	Sessions   int
	Reviews    int
}

// StorageInfo reports the serialized size of the store and item counts.
func (p *Planner) StorageInfo() (StorageInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := p.kv.Get(nil)
	if err != nil {
		return StorageInfo{}, fmt.Errorf("read store: %w: %w", ErrPersistence, err)
	}
	snap, err := decodeSnapshot(raw)
	if err != nil {
		return StorageInfo{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	info := StorageInfo{
		Keys:     len(raw),
		Quarters: len(snap.Quarters),
		Weeks:    len(snap.Weeks),
		Days:     len(snap.Days),
		Sessions: len(snap.Sessions),
		Reviews:  len(snap.Reviews),
	}
	for k, v := range raw {
		info.Bytes += len(k) + len(v)
	}
	for _, q := range snap.Quarters {
		info.Goals += len(q.Goals)
	}
	for _, w := range snap.Weeks {
		info.Tasks += len(w.Tasks)
	}
	for _, d := range snap.Days {
		info.Priorities += len(d.Priorities)
	}
	return info, nil
}
