package services

import "time"

const dayLayout = "2006-01-02"

// Clock returns the current instant.
type Clock func() time.Time

// calendar turns instants into calendar days of a fixed location.
type calendar struct {
	now Clock
	loc *time.Location
}

func newCalendar(now Clock, loc *time.Location) calendar {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return calendar{now: now, loc: loc}
}

func (c calendar) today() string {
	return c.now().In(c.loc).Format(dayLayout)
}

// DaysBetween returns the number of calendar days from a to b. Unparseable days yield ok=false.
func DaysBetween(a, b string) (int, bool) {
	ta, err := time.Parse(dayLayout, a)
	if err != nil {
		return 0, false
	}
	tb, err := time.Parse(dayLayout, b)
	if err != nil {
		return 0, false
	}
	return int(tb.Sub(ta).Hours() / 24), true
}

// LongestRun returns the longest run of calendar-adjacent days in an ascending list of days.
// Repeated days do not extend or break a run.
func LongestRun(days []string) int {
	longest, run := 0, 0
	prev := ""
	for _, d := range days {
		switch {
		case prev == "":
			run = 1
		case d == prev:
		default:
			if gap, ok := DaysBetween(prev, d); ok && gap == 1 {
				run++
			} else {
				run = 1
			}
		}
		if run > longest {
			longest = run
		}
		prev = d
	}
	return longest
}
