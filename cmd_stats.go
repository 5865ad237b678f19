package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/planr/internal/calendar"
	"github.com/sadopc/planr/internal/export"
	"github.com/sadopc/planr/internal/planner"
)

var (
	statsDays    int
	sessionsFrom string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize focus time over the last days",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Work with the focus session log",
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <file.csv|file.json>",
	Short: "Write the session log as CSV or JSON, chosen by file extension",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsExport,
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 0,
		"Days to cover, today included (default stats.trailing_days)")
	sessionsExportCmd.Flags().StringVar(&sessionsFrom, "since", "",
		"Only sessions on or after this date (YYYY-MM-DD)")

	sessionsCmd.AddCommand(sessionsExportCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, p, s, err := setupCLI(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	days := statsDays
	if days <= 0 {
		days = cfg.Stats.TrailingDays
	}
	st, err := p.StatsOverTrailingDays(days)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		daily := make([]map[string]any, len(st.Daily))
		for i, d := range st.Daily {
			daily[i] = map[string]any{
				"date":          d.Date,
				"total_seconds": int64(d.Total / time.Second),
				"sessions":      d.Sessions,
			}
		}
		return printJSON(out, map[string]any{
			"days":            days,
			"total_seconds":   int64(st.Total / time.Second),
			"sessions":        st.Sessions,
			"average_seconds": int64(st.Average / time.Second),
			"daily":           daily,
		})
	}

	fmt.Fprintf(out, "Last %d days: %s over %d sessions (average %s)\n\n",
		days, formatClock(st.Total), st.Sessions, formatClock(st.Average))

	w := newTabWriter(out)
	fmt.Fprintln(w, "DATE\tTOTAL\tSESSIONS\t")
	for _, d := range st.Daily {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", d.Date, formatClock(d.Total), d.Sessions, bar(d.Total))
	}
	return w.Flush()
}

func runSessionsExport(cmd *cobra.Command, args []string) error {
	_, p, s, err := setupCLI(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	sessions, err := p.Sessions()
	if err != nil {
		return err
	}
	if sessionsFrom != "" {
		if _, err := calendar.ParseDayKey(sessionsFrom); err != nil {
			return err
		}
		sessions = sessionsSince(sessions, sessionsFrom)
	}

	path := args[0]
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = export.SessionsToCSV(sessions, path)
	case ".json":
		err = export.SessionsToJSON(sessions, path)
	default:
		return fmt.Errorf("unsupported export format %q: use .csv or .json", filepath.Ext(path))
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"path": path, "sessions": len(sessions)})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d sessions to %s\n", len(sessions), path)
	return nil
}

// sessionsSince keeps sessions dated on or after date. Day keys sort
// chronologically as strings.
func sessionsSince(sessions []planner.Session, date string) []planner.Session {
	var out []planner.Session
	for _, s := range sessions {
		if s.Date >= date {
			out = append(out, s)
		}
	}
	return out
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// bar draws one block per quarter hour, capped at 32.
func bar(d time.Duration) string {
	return strings.Repeat("▇", min(32, int(d/(15*time.Minute))))
}
