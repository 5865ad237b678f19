package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/planr/internal/planner"
)

// Exporter produces the full planner document.
type Exporter interface {
	ExportAll() ([]byte, error)
}

// Importer replaces the planner state from a document.
type Importer interface {
	ImportAll(data []byte) error
}

// ToJSON writes the full planner document to path.
func ToJSON(src Exporter, path string) error {
	data, err := src.ExportAll()
	if err != nil {
		return fmt.Errorf("export planner: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// FromJSON replaces the planner state with the document at path.
func FromJSON(dst Importer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read json file: %w", err)
	}
	if err := dst.ImportAll(data); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	return nil
}

type sessionExport struct {
	ExportedAt string         `json:"exported_at"`
	Count      int            `json:"count"`
	Sessions   []sessionEntry `json:"sessions"`
}

type sessionEntry struct {
	Date        string `json:"date"`
	TaskID      string `json:"task_id"`
	Task        string `json:"task"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
}

// SessionsToJSON writes the session log as a flat report.
func SessionsToJSON(sessions []planner.Session, path string) error {
	report := sessionExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}
	for _, s := range sessions {
		secs := int64(s.Duration() / time.Second)
		report.Sessions = append(report.Sessions, sessionEntry{
			Date:        s.Date,
			TaskID:      s.TaskID,
			Task:        taskLabel(s),
			StartTime:   s.StartTime.Local().Format(time.RFC3339),
			EndTime:     s.EndTime.Local().Format(time.RFC3339),
			DurationSec: secs,
			Duration:    formatDuration(secs),
		})
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

func taskLabel(s planner.Session) string {
	if s.TaskTitle == "" {
		return "Untitled"
	}
	return s.TaskTitle
}
