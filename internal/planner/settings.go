package planner

import "fmt"

type SettingsPatch struct {
	Theme         *string
	Notifications *bool
	TimerSound    *bool
	StatsDays     *int
}

// Settings returns the stored settings layered over the defaults.
func (p *Planner) Settings() (Settings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings()
}

func (p *Planner) settings() (Settings, error) {
	s := DefaultSettings()
	if _, err := p.read(keySettings, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (p *Planner) UpdateSettings(patch SettingsPatch) (Settings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.settings()
	if err != nil {
		return Settings{}, err
	}
	if patch.Theme != nil {
		s.Theme = *patch.Theme
	}
	if patch.Notifications != nil {
		s.Notifications = *patch.Notifications
	}
	if patch.TimerSound != nil {
		s.TimerSound = *patch.TimerSound
	}
	if patch.StatsDays != nil {
		if *patch.StatsDays < 1 {
			return Settings{}, fmt.Errorf("update settings: stats days must be positive, got %d", *patch.StatsDays)
		}
		s.StatsDays = *patch.StatsDays
	}
	if err := p.write(keySettings, s); err != nil {
		return Settings{}, fmt.Errorf("update settings: %w", err)
	}
	return s, nil
}
