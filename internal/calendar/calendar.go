// Package calendar derives the day, week and quarter identifiers the planner
// keys its records by.
//
// Week numbers use a simple day count from January 1st rather than ISO-8601:
// days 1-7 of the year are week 1, days 8-14 week 2, and so on. Week 1 may be
// partial and December 31st can land in week 53.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidKey is returned when a quarter, week or day key cannot be parsed.
var ErrInvalidKey = errors.New("invalid key")

const dayLayout = "2006-01-02"

// lastWeekOfYear is the week number previous-week lookups roll back to when
// crossing a year boundary. The real last week may be 53; see PreviousWeekKey.
const lastWeekOfYear = 52

// Keys holds the identifiers of the quarter, week and day containing a date.
type Keys struct {
	Quarter string
	Week    string
	Day     string
}

// Current returns the keys for the calendar day containing t.
func Current(t time.Time) Keys {
	return Keys{
		Quarter: QuarterKey(t),
		Week:    WeekKey(t),
		Day:     DayKey(t),
	}
}

// QuarterKey returns "YYYY-Qn" for the quarter containing t.
func QuarterKey(t time.Time) string {
	return fmt.Sprintf("%d-Q%d", t.Year(), quarterOf(t.Month()))
}

// WeekKey returns "YYYY-Wn" for the week containing t.
func WeekKey(t time.Time) string {
	return fmt.Sprintf("%d-W%d", t.Year(), WeekNumber(t))
}

// DayKey returns t's calendar date as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// WeekNumber returns the day-count week number of t within its year.
func WeekNumber(t time.Time) int {
	return (t.YearDay()-1)/7 + 1
}

// QuarterStart returns midnight of the first day of t's quarter.
func QuarterStart(t time.Time) time.Time {
	first := time.Month((quarterOf(t.Month())-1)*3 + 1)
	return time.Date(t.Year(), first, 1, 0, 0, 0, 0, t.Location())
}

// QuarterEnd returns midnight of the last day of t's quarter.
func QuarterEnd(t time.Time) time.Time {
	return QuarterStart(t).AddDate(0, 3, -1)
}

// PreviousWeekKey returns the key of the week before weekKey. Week 1 rolls
// back to week 52 of the previous year, even in years whose final days fall
// into week 53.
func PreviousWeekKey(weekKey string) (string, error) {
	year, week, err := ParseWeekKey(weekKey)
	if err != nil {
		return "", err
	}
	if week == 1 {
		return fmt.Sprintf("%d-W%d", year-1, lastWeekOfYear), nil
	}
	return fmt.Sprintf("%d-W%d", year, week-1), nil
}

// ParseWeekKey splits a "YYYY-Wn" key into its year and week number. Only
// the canonical form WeekKey produces is accepted, so "2024-W01" is invalid.
func ParseWeekKey(key string) (year, week int, err error) {
	y, w, ok := strings.Cut(key, "-W")
	if !ok {
		return 0, 0, fmt.Errorf("%w: week %q", ErrInvalidKey, key)
	}
	year, err = strconv.Atoi(y)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: week %q", ErrInvalidKey, key)
	}
	week, err = strconv.Atoi(w)
	if err != nil || week < 1 || week > 53 || fmt.Sprintf("%d-W%d", year, week) != key {
		return 0, 0, fmt.Errorf("%w: week %q", ErrInvalidKey, key)
	}
	return year, week, nil
}

// ParseQuarterKey splits a "YYYY-Qn" key into its year and quarter number.
// Like ParseWeekKey it accepts only the canonical form.
func ParseQuarterKey(key string) (year, quarter int, err error) {
	y, q, ok := strings.Cut(key, "-Q")
	if !ok {
		return 0, 0, fmt.Errorf("%w: quarter %q", ErrInvalidKey, key)
	}
	year, err = strconv.Atoi(y)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: quarter %q", ErrInvalidKey, key)
	}
	quarter, err = strconv.Atoi(q)
	if err != nil || quarter < 1 || quarter > 4 || fmt.Sprintf("%d-Q%d", year, quarter) != key {
		return 0, 0, fmt.Errorf("%w: quarter %q", ErrInvalidKey, key)
	}
	return year, quarter, nil
}

// ParseDayKey parses a YYYY-MM-DD key as midnight in the local time zone.
func ParseDayKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day %q", ErrInvalidKey, key)
	}
	return t, nil
}

// QuarterBounds returns the first and last day of the quarter named by key.
func QuarterBounds(key string) (start, end time.Time, err error) {
	year, q, err := ParseQuarterKey(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.Local)
	return start, QuarterEnd(start), nil
}

// WeekStart returns the first day of the week named by key.
func WeekStart(key string) (time.Time, error) {
	year, week, err := ParseWeekKey(key)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, time.January, 1+(week-1)*7, 0, 0, 0, 0, time.Local), nil
}

// WeekQuarterKey returns the quarter containing the first day of a week.
func WeekQuarterKey(weekKey string) (string, error) {
	start, err := WeekStart(weekKey)
	if err != nil {
		return "", err
	}
	return QuarterKey(start), nil
}

// QuarterWeeks lists, in order, the keys of the weeks whose first day falls
// in the quarter named by key.
func QuarterWeeks(key string) ([]string, error) {
	year, _, err := ParseQuarterKey(key)
	if err != nil {
		return nil, err
	}
	var out []string
	for w := 1; w <= 53; w++ {
		wk := fmt.Sprintf("%d-W%d", year, w)
		start, _ := WeekStart(wk)
		if start.Year() != year {
			break
		}
		if QuarterKey(start) == key {
			out = append(out, wk)
		}
	}
	return out, nil
}

func quarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}
