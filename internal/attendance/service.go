package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/patrikzak/attendo/internal/database"
)

// Direction selects which attendance transition the caller wants.
type Direction string

const (
	// DirectionAuto infers the transition from today's record: no record
	// means check-in, an open record means check-out.
	DirectionAuto     Direction = "auto"
	DirectionCheckIn  Direction = "check_in"
	DirectionCheckOut Direction = "check_out"
)

// Outcome tags the result of an attendance transition attempt. Declines
// are outcomes, not errors; errors are reserved for storage failures.
type Outcome string

const (
	OutcomeOK                Outcome = "ok"
	OutcomeAlreadyCheckedIn  Outcome = "already_checked_in"
	OutcomeNotCheckedIn      Outcome = "not_checked_in"
	OutcomeAlreadyCheckedOut Outcome = "already_checked_out"
)

// Result describes the decision made for a single attendance attempt.
// Action and Status are set only when Outcome is OutcomeOK; Record holds
// the current day row where one exists.
type Result struct {
	Outcome Outcome
	Action  string
	Status  Status
	Record  *database.AttendanceRecord
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Service runs the per-employee, per-day attendance state machine over an
// attendance store. A keyed mutex serializes concurrent attempts for the
// same employee so exactly one of two simultaneous check-ins wins.
type Service struct {
	store database.AttendanceStore
	locks *database.KeyedMutex
}

// NewService creates an attendance service backed by the given store.
func NewService(store database.AttendanceStore) *Service {
	return &Service{
		store: store,
		locks: database.NewKeyedMutex(),
	}
}

// Record applies one attendance transition for the employee at the given
// moment under the given policy snapshot. The state machine per employee
// and day is NoRecord -> CheckedIn -> CheckedOut; anything else is
// declined with a tagged outcome.
func (s *Service) Record(ctx context.Context, employeeID string, dir Direction, now time.Time, policy Policy, similarity float64) (*Result, error) {
	unlock := s.locks.Lock(employeeID)
	defer unlock()

	date := now.Format(dateLayout)

	existing, err := s.store.GetDay(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance for %s: %w", date, err)
	}

	if dir == DirectionAuto {
		if existing == nil {
			dir = DirectionCheckIn
		} else {
			dir = DirectionCheckOut
		}
	}

	switch dir {
	case DirectionCheckIn:
		return s.checkIn(ctx, employeeID, existing, now, policy, similarity)
	case DirectionCheckOut:
		return s.checkOut(ctx, employeeID, existing, now, policy)
	default:
		return nil, fmt.Errorf("unknown attendance direction %q", dir)
	}
}

func (s *Service) checkIn(ctx context.Context, employeeID string, existing *database.AttendanceRecord, now time.Time, policy Policy, similarity float64) (*Result, error) {
	if existing != nil {
		return &Result{Outcome: OutcomeAlreadyCheckedIn, Record: existing}, nil
	}

	date := now.Format(dateLayout)
	checkTime := now.Format(timeLayout)
	status := policy.CheckInStatus(now)

	inserted, err := s.store.InsertCheckIn(ctx, employeeID, date, checkTime, string(status), similarity)
	if err != nil {
		return nil, fmt.Errorf("failed to insert check-in: %w", err)
	}
	if !inserted {
		// Lost the race to a concurrent check-in for the same day.
		current, err := s.store.GetDay(ctx, employeeID, date)
		if err != nil {
			return nil, fmt.Errorf("failed to reload attendance: %w", err)
		}
		return &Result{Outcome: OutcomeAlreadyCheckedIn, Record: current}, nil
	}

	record, err := s.store.GetDay(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to reload attendance: %w", err)
	}

	return &Result{
		Outcome: OutcomeOK,
		Action:  string(DirectionCheckIn),
		Status:  status,
		Record:  record,
	}, nil
}

func (s *Service) checkOut(ctx context.Context, employeeID string, existing *database.AttendanceRecord, now time.Time, policy Policy) (*Result, error) {
	if existing == nil {
		return &Result{Outcome: OutcomeNotCheckedIn}, nil
	}
	if existing.CheckOutTime != "" {
		return &Result{Outcome: OutcomeAlreadyCheckedOut, Record: existing}, nil
	}

	date := now.Format(dateLayout)
	checkTime := now.Format(timeLayout)
	status := policy.CheckOutStatus(now)

	updated, err := s.store.UpdateCheckOut(ctx, employeeID, date, checkTime, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to update check-out: %w", err)
	}
	if !updated {
		return &Result{Outcome: OutcomeAlreadyCheckedOut, Record: existing}, nil
	}

	record := *existing
	record.CheckOutTime = checkTime
	record.CheckOutStatus = string(status)

	return &Result{
		Outcome: OutcomeOK,
		Action:  string(DirectionCheckOut),
		Status:  status,
		Record:  &record,
	}, nil
}
