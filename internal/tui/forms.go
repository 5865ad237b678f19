package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/sadopc/planr/internal/planner"
)

// formHost is embedded by views that open huh forms. Form values live behind
// pointers so they survive the value copies bubbletea makes of each model.
type formHost struct {
	formActive bool
	form       *huh.Form
	formKind   string
	editingID  string
}

func (h *formHost) open(kind, id string, f *huh.Form) tea.Cmd {
	h.form = f.WithShowHelp(true).WithShowErrors(true)
	h.formKind = kind
	h.editingID = id
	h.formActive = true
	return h.form.Init()
}

func (h *formHost) close() {
	h.formActive = false
	h.form = nil
}

// step forwards msg to the open form. It reports done once the form was
// submitted; esc or an aborted form closes it without submitting.
func (h *formHost) step(msg tea.Msg) (done bool, cmd tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		h.close()
		return false, nil
	}
	m, cmd := h.form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		h.form = f
	}
	switch h.form.State {
	case huh.StateCompleted:
		h.formActive = false
		return true, nil
	case huh.StateAborted:
		h.close()
		return false, nil
	}
	return false, cmd
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

type reviewFields struct {
	wentWell     *string
	improvements *string
	insights     *string
	actions      *string
}

func newReviewFields() reviewFields {
	a, b, c, d := "", "", "", ""
	return reviewFields{wentWell: &a, improvements: &b, insights: &c, actions: &d}
}

func (f reviewFields) form(title string) *huh.Form {
	*f.wentWell, *f.improvements, *f.insights, *f.actions = "", "", "", ""
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().Title("What went well?").Value(f.wentWell),
			huh.NewText().Title("What could improve?").Value(f.improvements),
			huh.NewText().Title("Insights").Value(f.insights),
			huh.NewText().Title("Actions for next time").Value(f.actions),
		).Title(title),
	)
}

func (f reviewFields) review(kind planner.ReviewType) planner.Review {
	return planner.Review{
		Type:         kind,
		WentWell:     strings.TrimSpace(*f.wentWell),
		Improvements: strings.TrimSpace(*f.improvements),
		Insights:     strings.TrimSpace(*f.insights),
		Actions:      strings.TrimSpace(*f.actions),
	}
}
