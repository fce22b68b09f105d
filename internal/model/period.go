package model

import "time"

// DateFormat is the wire and file format for entry dates.
const DateFormat = "2006-01-02"

// Period is an inclusive date window. A zero bound is open.
type Period struct {
	From time.Time
	To   time.Time
}

// Contains reports whether d falls within the period, comparing calendar days.
func (p Period) Contains(d time.Time) bool {
	day := Day(d)
	if !p.From.IsZero() && day.Before(Day(p.From)) {
		return false
	}
	if !p.To.IsZero() && day.After(Day(p.To)) {
		return false
	}
	return true
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParsePeriod parses optional "YYYY-MM-DD" bounds.
func ParsePeriod(from, to string) (Period, error) {
	var p Period
	var err error
	if from != "" {
		if p.From, err = time.Parse(DateFormat, from); err != nil {
			return Period{}, &ValidationError{Line: -1, Field: "from", Rule: RuleDate, Message: "invalid date " + from}
		}
	}
	if to != "" {
		if p.To, err = time.Parse(DateFormat, to); err != nil {
			return Period{}, &ValidationError{Line: -1, Field: "to", Rule: RuleDate, Message: "invalid date " + to}
		}
	}
	return p, nil
}
