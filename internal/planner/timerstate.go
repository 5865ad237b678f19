package planner

import "fmt"

// TimerState returns the persisted timer record, or an idle state when none
// has been saved.
func (p *Planner) TimerState() (TimerState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := TimerState{Status: TimerIdle}
	if _, err := p.read(keyTimerState, &st); err != nil {
		return TimerState{}, err
	}
	return st, nil
}

// SaveTimerState overwrites the timer record. It touches no planner record.
func (p *Planner) SaveTimerState(st TimerState) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.write(keyTimerState, st); err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}
	return nil
}
