package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/planr/internal/calendar"
	"github.com/sadopc/planr/internal/planner"
)

const (
	maxReportDays = 91
	reportStep    = 7
	topTasks      = 5
)

var taskColors = []lipgloss.Color{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71"}

// taskTotal is one task's share of the reporting window.
type taskTotal struct {
	title string
	total time.Duration
	color lipgloss.Color
}

type reportsModel struct {
	planner *planner.Planner
	width   int
	height  int

	days     int
	stats    planner.Stats
	sessions []planner.Session
	tasks    []taskTotal

	chart barchart.Model
}

func newReportsModel(p *planner.Planner) reportsModel {
	return reportsModel{
		planner: p,
		chart:   barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	days     int
	stats    planner.Stats
	sessions []planner.Session
}

// refresh loads the window. A zero window falls back to the statsDays
// setting.
func (r reportsModel) refresh() tea.Cmd {
	p, days := r.planner, r.days
	return func() tea.Msg {
		if days <= 0 {
			s, err := p.Settings()
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Load settings: %v", err), isError: true}
			}
			days = s.StatsDays
		}
		st, err := p.StatsOverTrailingDays(days)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load stats: %v", err), isError: true}
		}
		all, err := p.Sessions()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load sessions: %v", err), isError: true}
		}
		inWindow := make(map[string]bool, len(st.Daily))
		for _, d := range st.Daily {
			inWindow[d.Date] = true
		}
		var sessions []planner.Session
		for _, s := range all {
			if inWindow[s.Date] {
				sessions = append(sessions, s)
			}
		}
		return reportsDataMsg{days: days, stats: st, sessions: sessions}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.days = msg.days
		r.stats = msg.stats
		r.sessions = msg.sessions
		r.tasks = rankTasks(msg.sessions)
		r.buildChart()
		return r, nil

	case changedMsg, sessionSavedMsg:
		return r, r.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.days = min(maxReportDays, r.days+reportStep)
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			r.days = max(1, r.days-reportStep)
			return r, r.refresh()
		}
	}
	return r, nil
}

// rankTasks totals sessions per task title, largest first, and assigns the
// top entries a chart color.
func rankTasks(sessions []planner.Session) []taskTotal {
	totals := make(map[string]time.Duration)
	for _, s := range sessions {
		totals[sessionTitle(s)] += s.Duration()
	}
	out := make([]taskTotal, 0, len(totals))
	for title, d := range totals {
		out = append(out, taskTotal{title: title, total: d})
	}
	slices.SortFunc(out, func(a, b taskTotal) int {
		if c := cmp.Compare(b.total, a.total); c != 0 {
			return c
		}
		return strings.Compare(a.title, b.title)
	})
	for i := range out {
		if i < topTasks {
			out[i].color = taskColors[i%len(taskColors)]
		}
	}
	return out
}

func sessionTitle(s planner.Session) string {
	if s.TaskTitle == "" {
		return "Untitled"
	}
	return s.TaskTitle
}

func (r *reportsModel) buildChart() {
	chartWidth := max(20, r.width-8)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}
	r.chart = barchart.New(chartWidth, chartHeight)

	colors := make(map[string]lipgloss.Color)
	for _, t := range r.tasks {
		if t.color != "" {
			colors[t.title] = t.color
		}
	}

	perDay := make(map[string]map[string]time.Duration)
	for _, s := range r.sessions {
		title := sessionTitle(s)
		if _, ok := colors[title]; !ok {
			title = "Other"
		}
		if perDay[s.Date] == nil {
			perDay[s.Date] = make(map[string]time.Duration)
		}
		perDay[s.Date][title] += s.Duration()
	}

	labelLayout := "Mon 02"
	if len(r.stats.Daily) > 14 {
		labelLayout = "02"
	}

	var bars []barchart.BarData
	for _, d := range r.stats.Daily {
		label := d.Date
		if t, err := calendar.ParseDayKey(d.Date); err == nil {
			label = t.Format(labelLayout)
		}

		var values []barchart.BarValue
		for _, t := range r.tasks {
			if v, ok := perDay[d.Date][t.title]; ok && t.color != "" {
				values = append(values, barchart.BarValue{
					Name:  t.title,
					Value: v.Minutes(),
					Style: lipgloss.NewStyle().Foreground(t.color),
				})
			}
		}
		if v, ok := perDay[d.Date]["Other"]; ok {
			values = append(values, barchart.BarValue{
				Name:  "Other",
				Value: v.Minutes(),
				Style: lipgloss.NewStyle().Foreground(colorMuted),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{Label: label, Values: values})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	rangeLabel := ""
	if n := len(r.stats.Daily); n > 0 {
		rangeLabel = fmt.Sprintf("%s — %s", r.stats.Daily[0].Date, r.stats.Daily[n-1].Date)
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Focus time"), "  ",
		highlightStyle.Render(fmt.Sprintf("last %d days", r.days)), "  ",
		mutedStyle.Render(rangeLabel),
	)
	totals := mutedStyle.Render(fmt.Sprintf("%s total · %d sessions · %s average",
		formatHours(r.stats.Total), r.stats.Sessions, formatDuration(r.stats.Average)))

	nav := mutedStyle.Render("  ←: longer window  →: shorter window")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, totals, "", r.chart.View(), "", r.renderLegend(), "", r.renderTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderLegend() string {
	var items []string
	for _, t := range r.tasks {
		if t.color == "" {
			continue
		}
		dot := lipgloss.NewStyle().Foreground(t.color).Render("●")
		items = append(items, fmt.Sprintf("%s %s %s", dot, t.title, mutedStyle.Render(formatHours(t.total))))
	}
	if len(r.tasks) > topTasks {
		items = append(items, mutedStyle.Render("● Other"))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}

func (r reportsModel) renderTable(w int) string {
	if r.stats.Sessions == 0 {
		return mutedStyle.Render("  No sessions in this period")
	}

	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-12s %10s %9s", "Date", "Duration", "Sessions")),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 33))),
	}
	for _, d := range r.stats.Daily {
		if d.Sessions == 0 {
			continue
		}
		rows = append(rows, fmt.Sprintf("  %-12s %10s %9d", d.Date, formatDuration(d.Total), d.Sessions))
	}
	return strings.Join(rows, "\n")
}
