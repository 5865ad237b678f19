package planner

// Placeholder labels for references that are unset or no longer resolve.
const (
	NoGoalLabel    = "No goal"
	StandaloneTask = "Standalone task"
	NoFocusLabel   = "No focus"
)

type RefState int

const (
	RefUnset RefState = iota
	RefResolved
	RefDangling
)

func (s RefState) String() string {
	switch s {
	case RefResolved:
		return "resolved"
	case RefDangling:
		return "dangling"
	default:
		return "unset"
	}
}

// Ref is a weak reference resolved against a snapshot of its target
// collection. Target is only meaningful when State is RefResolved.
type Ref[T any] struct {
	ID     string
	State  RefState
	Target T
}

// Resolve looks id up in items.
func Resolve[T entity](id string, items []T) Ref[T] {
	if id == "" {
		return Ref[T]{}
	}
	if i := indexOf(items, id); i >= 0 {
		return Ref[T]{ID: id, State: RefResolved, Target: items[i]}
	}
	return Ref[T]{ID: id, State: RefDangling}
}

func (r Ref[T]) Ok() bool { return r.State == RefResolved }

// Label returns title(Target) for a resolved reference and placeholder
// otherwise.
func (r Ref[T]) Label(title func(T) string, placeholder string) string {
	if r.State != RefResolved {
		return placeholder
	}
	return title(r.Target)
}

func goalTitle(g Goal) string         { return g.Title }
func taskTitle(t Task) string         { return t.Title }
func priorityTitle(p Priority) string { return p.Title }

// GoalLabel renders a task's goal reference.
func GoalLabel(r Ref[Goal]) string { return r.Label(goalTitle, NoGoalLabel) }

// TaskLabel renders a priority's task reference.
func TaskLabel(r Ref[Task]) string { return r.Label(taskTitle, StandaloneTask) }

// FocusLabel renders a day's focus reference.
func FocusLabel(r Ref[Priority]) string { return r.Label(priorityTitle, NoFocusLabel) }

// ResolveFocus resolves the day's focus pointer against its priorities.
func ResolveFocus(d DayRecord) Ref[Priority] {
	return Resolve(d.CurrentFocus, d.Priorities)
}

// ResolveGoal resolves a task's goal against the quarter the task's week
// belongs to.
func (p *Planner) ResolveGoal(w WeekRecord, t Task) (Ref[Goal], error) {
	if t.GoalID == "" {
		return Ref[Goal]{}, nil
	}
	q, err := p.GetQuarter(w.QuarterKey)
	if err != nil {
		return Ref[Goal]{}, err
	}
	return Resolve(t.GoalID, q.Goals), nil
}

// ResolveTask resolves a priority's task link against the week the day
// belongs to. The week is read without materializing it.
func (p *Planner) ResolveTask(d DayRecord, pr Priority) (Ref[Task], error) {
	if pr.TaskID == "" {
		return Ref[Task]{}, nil
	}
	w, ok, err := p.TryGetWeek(d.WeekKey)
	if err != nil {
		return Ref[Task]{}, err
	}
	if !ok {
		return Ref[Task]{ID: pr.TaskID, State: RefDangling}, nil
	}
	return Resolve(pr.TaskID, w.Tasks), nil
}
