package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start    key.Binding
	Pause    key.Binding
	Finish   key.Binding
	Reset    key.Binding
	New      key.Binding
	Toggle   key.Binding
	Delete   key.Binding
	Focus    key.Binding
	Section  key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Review   key.Binding
	Clear    key.Binding
	Export   key.Binding
	Tab1     key.Binding
	Tab2     key.Binding
	Tab3     key.Binding
	Tab4     key.Binding
	Tab5     key.Binding
	Tab6     key.Binding
	Tab      key.Binding
	Help     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Quit     key.Binding
}

// bind makes a binding whose help label is its first key, unless label
// overrides it.
func bind(desc, label string, ks ...string) key.Binding {
	if label == "" {
		label = ks[0]
	}
	return key.NewBinding(key.WithKeys(ks...), key.WithHelp(label, desc))
}

var keys = keyMap{
	// Focus timer.
	Start:  bind("start focus", "", "s"),
	Pause:  bind("pause/resume", "", "p"),
	Finish: bind("finish session", "", "c"),
	Reset:  bind("reset timer", "", "r"),

	// Lists.
	New:      bind("new", "", "n"),
	Toggle:   bind("toggle done", "space", " "),
	Delete:   bind("delete", "", "d"),
	Focus:    bind("set focus", "", "f"),
	Section:  bind("next section", "", "]"),
	MoveUp:   bind("move up", "", "K"),
	MoveDown: bind("move down", "", "J"),
	Review:   bind("review", "", "v"),
	Clear:    bind("clear all data", "", "X"),
	Export:   bind("export", "", "e"),

	// Views.
	Tab1: bind("today", "", "1"),
	Tab2: bind("week", "", "2"),
	Tab3: bind("quarter", "", "3"),
	Tab4: bind("focus", "", "4"),
	Tab5: bind("reports", "", "5"),
	Tab6: bind("settings", "", "6"),
	Tab:  bind("next view", "", "tab"),

	Help:  bind("help", "", "?"),
	Enter: bind("edit", "", "enter"),
	Back:  bind("back", "", "esc"),
	Up:    bind("up", "↑/k", "up", "k"),
	Down:  bind("down", "↓/j", "down", "j"),
	Left:  bind("previous", "←/h", "left", "h"),
	Right: bind("next", "→/l", "right", "l"),
	Quit:  bind("quit", "q", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Toggle, k.Start, k.Pause, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.New, k.Enter, k.Toggle, k.Delete},
		{k.Focus, k.Section, k.MoveUp, k.MoveDown, k.Review},
		{k.Start, k.Pause, k.Finish, k.Reset},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab5, k.Tab6},
		{k.Up, k.Down, k.Left, k.Right, k.Back, k.Export, k.Quit},
	}
}
