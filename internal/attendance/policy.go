// Package attendance decides check-in/check-out events and their policy
// status for recognized identities.
package attendance

import (
	"fmt"
	"time"

	"github.com/patrikzak/attendo/internal/database"
)

// Status classifies an attendance event against the work-hour policy.
type Status string

const (
	StatusNormal Status = "normal"
	StatusLate   Status = "late"
	StatusEarly  Status = "early"
	StatusAbsent Status = "absent"
)

// Policy is one consistent snapshot of the attendance settings, taken at
// the start of a recognition or attendance operation and used throughout
// it. Mid-operation settings updates affect later operations only.
type Policy struct {
	WorkStart            Clock
	WorkEnd              Clock
	LateTolerance        time.Duration
	EarlyTolerance       time.Duration
	RecognitionThreshold float64
}

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock parses an "HH:MM" time of day.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// At anchors the clock time on the calendar day of t, in t's location.
func (c Clock) At(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, int(c)/60, int(c)%60, 0, 0, t.Location())
}

// String formats the clock as "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// PolicyFromSettings parses stored settings into a policy snapshot.
func PolicyFromSettings(s *database.Settings) (Policy, error) {
	start, err := ParseClock(s.WorkStartTime)
	if err != nil {
		return Policy{}, fmt.Errorf("work start: %w", err)
	}
	end, err := ParseClock(s.WorkEndTime)
	if err != nil {
		return Policy{}, fmt.Errorf("work end: %w", err)
	}

	return Policy{
		WorkStart:            start,
		WorkEnd:              end,
		LateTolerance:        time.Duration(s.LateThreshold) * time.Minute,
		EarlyTolerance:       time.Duration(s.EarlyThreshold) * time.Minute,
		RecognitionThreshold: s.RecognitionThreshold,
	}, nil
}

// CheckInStatus classifies a check-in: late only strictly after the
// deadline, so an event at exactly workStart+tolerance is still normal.
func (p Policy) CheckInStatus(t time.Time) Status {
	deadline := p.WorkStart.At(t).Add(p.LateTolerance)
	if t.After(deadline) {
		return StatusLate
	}
	return StatusNormal
}

// CheckOutStatus classifies a check-out: early leave only strictly before
// workEnd−tolerance.
func (p Policy) CheckOutStatus(t time.Time) Status {
	deadline := p.WorkEnd.At(t).Add(-p.EarlyTolerance)
	if t.Before(deadline) {
		return StatusEarly
	}
	return StatusNormal
}
