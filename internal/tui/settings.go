package tui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/planr/internal/planner"
)

type settingsModel struct {
	planner *planner.Planner
	width   int
	height  int

	settings planner.Settings
	storage  planner.StorageInfo

	formHost
	theme         *string
	notifications *bool
	timerSound    *bool
	statsDays     *string
	confirmClear  *bool
}

func newSettingsModel(p *planner.Planner) settingsModel {
	theme, days := "", ""
	notify, sound, wipe := false, false, false
	return settingsModel{
		planner:       p,
		settings:      planner.DefaultSettings(),
		theme:         &theme,
		notifications: &notify,
		timerSound:    &sound,
		statsDays:     &days,
		confirmClear:  &wipe,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings planner.Settings
	storage  planner.StorageInfo
}

func (s settingsModel) refresh() tea.Cmd {
	p := s.planner
	return func() tea.Msg {
		st, err := p.Settings()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load settings: %v", err), isError: true}
		}
		info, err := p.StorageInfo()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Storage info: %v", err), isError: true}
		}
		return settingsDataMsg{settings: st, storage: info}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		s.storage = msg.storage
		return s, nil

	case changedMsg:
		return s, s.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		case key.Matches(msg, keys.Clear):
			*s.confirmClear = false
			f := huh.NewForm(huh.NewGroup(
				huh.NewConfirm().
					Title("Delete every goal, task, day and session?").
					Description("This cannot be undone. Export first if unsure.").
					Affirmative("Clear").
					Negative("Cancel").
					Value(s.confirmClear),
			))
			cmd := s.open("clear", "", f)
			return s, cmd
		}
	}
	return s, nil
}

func validStatsDays(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return errors.New("enter a whole number of days, at least 1")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.theme = s.settings.Theme
	*s.notifications = s.settings.Notifications
	*s.timerSound = s.settings.TimerSound
	*s.statsDays = strconv.Itoa(s.settings.StatsDays)

	f := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Theme").
				Options(
					huh.NewOption("Light", "light"),
					huh.NewOption("Dark", "dark"),
				).Value(s.theme),
			huh.NewConfirm().Title("Notifications").Value(s.notifications),
			huh.NewConfirm().Title("Timer sound").Value(s.timerSound),
		).Title("General"),
		huh.NewGroup(
			huh.NewInput().Title("Report window (days)").Value(s.statsDays).Validate(validStatsDays),
		).Title("Reports"),
	)
	cmd := s.open("settings", "", f)
	return s, cmd
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	done, cmd := s.step(msg)
	if !done {
		return s, cmd
	}

	p := s.planner
	if s.formKind == "clear" {
		if !*s.confirmClear {
			return s, nil
		}
		return s, func() tea.Msg {
			if err := p.ClearAll(); err != nil {
				return statusMsg{text: fmt.Sprintf("Clear data: %v", err), isError: true}
			}
			return changedMsg{}
		}
	}

	theme, notify, sound := *s.theme, *s.notifications, *s.timerSound
	days, _ := strconv.Atoi(*s.statsDays)
	return s, mutate("Save settings", func() error {
		_, err := p.UpdateSettings(planner.SettingsPatch{
			Theme:         &theme,
			Notifications: &notify,
			TimerSound:    &sound,
			StatsDays:     &days,
		})
		return err
	})
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Settings"), "", s.form.View()),
		)
	}

	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	row := func(label, value string) string {
		return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render(label), highlightStyle.Render(value))
	}

	rows := []string{
		titleStyle.Render("Settings"),
		"",
		row("Theme", s.settings.Theme),
		row("Notifications", onOff(s.settings.Notifications)),
		row("Timer sound", onOff(s.settings.TimerSound)),
		row("Report window", fmt.Sprintf("%d days", s.settings.StatsDays)),
		"",
		titleStyle.Render("Storage"),
		"",
		row("Size", fmt.Sprintf("%.1f KB in %d records", float64(s.storage.Bytes)/1024, s.storage.Keys)),
		row("Quarters / goals", fmt.Sprintf("%d / %d", s.storage.Quarters, s.storage.Goals)),
		row("Weeks / tasks", fmt.Sprintf("%d / %d", s.storage.Weeks, s.storage.Tasks)),
		row("Days / priorities", fmt.Sprintf("%d / %d", s.storage.Days, s.storage.Priorities)),
		row("Sessions", strconv.Itoa(s.storage.Sessions)),
		row("Reviews", strconv.Itoa(s.storage.Reviews)),
		"",
		mutedStyle.Render("enter: edit settings  X: clear all data  e: export"),
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
