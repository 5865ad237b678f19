package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/planr/internal/planner"
)

// SessionsToCSV writes one row per recorded focus session.
func SessionsToCSV(sessions []planner.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Date", "Task ID", "Task", "Start", "End", "Duration (s)", "Duration"}); err != nil {
		return err
	}

	for _, s := range sessions {
		secs := int64(s.Duration() / time.Second)
		row := []string{
			s.Date,
			s.TaskID,
			taskLabel(s),
			s.StartTime.Local().Format(time.RFC3339),
			s.EndTime.Local().Format(time.RFC3339),
			fmt.Sprintf("%d", secs),
			formatDuration(secs),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
