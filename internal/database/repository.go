package database

import (
	"context"

	"github.com/patrikzak/attendo/internal/gallery"
)

// EmployeeReader provides read access to employees and the enrolled
// descriptor gallery.
type EmployeeReader interface {
	// List returns a filtered, paginated employee listing.
	List(ctx context.Context, filter EmployeeFilter) (*EmployeePage, error)
	// Get retrieves a single employee, nil if not found.
	Get(ctx context.Context, employeeID string) (*Employee, error)
	// LoadGallery returns all enrolled identities with their serialized
	// descriptors, in enrollment order. The order is part of the matching
	// contract: exact similarity ties resolve to the earlier entry.
	LoadGallery(ctx context.Context) ([]gallery.Entry, error)
}

// EmployeeWriter provides full employee access.
type EmployeeWriter interface {
	EmployeeReader

	// Create inserts a new employee and returns the stored row.
	Create(ctx context.Context, employeeID, name, department, position string) (*Employee, error)
	// Update applies a partial update, returns nil if the employee does not exist.
	Update(ctx context.Context, employeeID string, upd EmployeeUpdate) (*Employee, error)
	// Delete removes an employee and all attendance rows, false if absent.
	Delete(ctx context.Context, employeeID string) (bool, error)
	// SaveDescriptor stores an enrolled descriptor and representative image
	// reference, replacing any previous enrollment for that identity.
	SaveDescriptor(ctx context.Context, employeeID string, desc []float32, imageRef string) error
	// ClearDescriptor withdraws biometric data: descriptor and image
	// reference are cleared, the employee row persists.
	ClearDescriptor(ctx context.Context, employeeID string) error
}

// AttendanceStore provides attendance row access. The boolean returns on
// the two write operations carry the state-machine outcome: false means the
// write was declined by row state, not that something failed.
type AttendanceStore interface {
	// InsertCheckIn records a check-in; false if the (employee, date) row
	// already exists. A declined insert leaves the stored row untouched.
	InsertCheckIn(ctx context.Context, employeeID, date, checkTime, status string, similarity float64) (bool, error)
	// UpdateCheckOut completes the day row; false if there is no check-in
	// for the date or the row already has a check-out.
	UpdateCheckOut(ctx context.Context, employeeID, date, checkTime, status string) (bool, error)
	// GetDay returns the row for (employee, date), nil if absent.
	GetDay(ctx context.Context, employeeID, date string) (*AttendanceRecord, error)
	// ListRecords returns a filtered, paginated attendance listing.
	ListRecords(ctx context.Context, filter RecordFilter) (*RecordPage, error)
	// ListRange returns all records within the inclusive date range,
	// ordered by date then check-in time. Used for exports.
	ListRange(ctx context.Context, startDate, endDate string) ([]AttendanceRecord, error)
	// DayWithAbsent returns every employee's record for the date, with
	// synthesized "absent" rows for employees without one.
	DayWithAbsent(ctx context.Context, date string) ([]AttendanceRecord, error)
	// TodaySummary aggregates one day, optionally for a single employee.
	TodaySummary(ctx context.Context, date, employeeID string) (*TodaySummary, error)
	// TodayStats computes the dashboard counters for a date.
	TodayStats(ctx context.Context, date, currentTime string) (*TodayStats, error)
}

// PolicyStore provides the stored attendance policy. Readers take one
// snapshot per operation; concurrent saves follow last-write-wins.
type PolicyStore interface {
	LoadSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, upd SettingsUpdate) error
}

// Store is the full persistence surface the service wires together.
type Store interface {
	EmployeeWriter
	AttendanceStore
	PolicyStore
}
