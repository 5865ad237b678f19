package planner

import "time"

type QuarterRecord struct {
	Key       string `json:"key"`
	Goals     []Goal `json:"goals"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Goal is owned by its quarter. Progress is derived from linked tasks and is
// only written by the progress aggregator.
type Goal struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Progress  int       `json:"progress"`
	CreatedAt time.Time `json:"createdAt"`
}

type WeekRecord struct {
	Key        string `json:"key"`
	Tasks      []Task `json:"tasks"`
	QuarterKey string `json:"quarterKey"`
}

type Task struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completedAt"`
	GoalID          string     `json:"goalId,omitempty"`
	CarriedOver     bool       `json:"carriedOver,omitempty"`
	CarriedFromWeek string     `json:"carriedFromWeek,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type DayRecord struct {
	Key          string      `json:"key"`
	Priorities   []Priority  `json:"priorities"`
	TimeBlocks   []TimeBlock `json:"timeBlocks"`
	QuickTodos   []QuickTodo `json:"quickTodos"`
	CurrentFocus string      `json:"currentFocus,omitempty"`
	WeekKey      string      `json:"weekKey"`
}

type Priority struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	TaskID      string     `json:"taskId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type BlockType string

const (
	BlockWork     BlockType = "work"
	BlockBreak    BlockType = "break"
	BlockMeeting  BlockType = "meeting"
	BlockPersonal BlockType = "personal"
)

// BlockTypes lists the block types in display order.
var BlockTypes = []BlockType{BlockWork, BlockBreak, BlockMeeting, BlockPersonal}

// TimeBlock times are zero-padded HH:MM strings on the owning day.
type TimeBlock struct {
	ID        string    `json:"id"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Task      string    `json:"task"`
	Type      BlockType `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

type QuickTodo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Session is one completed interval of focus time. Date is the calendar day
// the session ended on and is what statistics bucket by.
type Session struct {
	TaskID     string    `json:"taskId"`
	TaskTitle  string    `json:"taskTitle"`
	DurationMs int64     `json:"duration"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Date       string    `json:"date"`
}

func (s Session) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}

type ReviewType string

const (
	ReviewWeekly    ReviewType = "weekly"
	ReviewQuarterly ReviewType = "quarterly"
)

type Review struct {
	ID           string     `json:"id"`
	Type         ReviewType `json:"type"`
	Date         time.Time  `json:"date"`
	WentWell     string     `json:"wentWell"`
	Improvements string     `json:"improvements"`
	Insights     string     `json:"insights"`
	Actions      string     `json:"actions"`
}

type Settings struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	TimerSound    bool   `json:"timerSound"`
	StatsDays     int    `json:"statsDays"`
}

func DefaultSettings() Settings {
	return Settings{
		Theme:         "light",
		Notifications: true,
		TimerSound:    true,
		StatsDays:     7,
	}
}

type TimerStatus string

const (
	TimerIdle    TimerStatus = "idle"
	TimerRunning TimerStatus = "running"
	TimerPaused  TimerStatus = "paused"
)

// TimerState is the persisted focus timer record. ElapsedMs holds time
// accumulated before the current running segment; RunningSince is set only
// while running.
type TimerState struct {
	Status       TimerStatus `json:"status"`
	TaskID       string      `json:"taskId,omitempty"`
	TaskTitle    string      `json:"taskTitle,omitempty"`
	StartedAt    *time.Time  `json:"startedAt,omitempty"`
	RunningSince *time.Time  `json:"runningSince,omitempty"`
	ElapsedMs    int64       `json:"elapsedMs"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (g Goal) ident() string      { return g.ID }
func (t Task) ident() string      { return t.ID }
func (p Priority) ident() string  { return p.ID }
func (b TimeBlock) ident() string { return b.ID }
func (q QuickTodo) ident() string { return q.ID }

func (q *QuarterRecord) normalize() {
	if q.Goals == nil {
		q.Goals = []Goal{}
	}
}

func (w *WeekRecord) normalize() {
	if w.Tasks == nil {
		w.Tasks = []Task{}
	}
}

func (d *DayRecord) normalize() {
	if d.Priorities == nil {
		d.Priorities = []Priority{}
	}
	if d.TimeBlocks == nil {
		d.TimeBlocks = []TimeBlock{}
	}
	if d.QuickTodos == nil {
		d.QuickTodos = []QuickTodo{}
	}
}
