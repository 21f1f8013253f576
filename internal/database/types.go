package database

import (
	"time"
)

// Employee is one person known to the system. HasFace reports whether a
// descriptor is enrolled; the descriptor itself only travels through the
// gallery loading path.
type Employee struct {
	ID         int64     `json:"id"`
	EmployeeID string    `json:"employeeId"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
	HasFace    bool      `json:"hasFace"`
	FaceImage  string    `json:"faceImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// EmployeeFilter narrows employee listings.
type EmployeeFilter struct {
	Keyword    string // matches employee ID or name
	Department string
	Page       int
	Size       int
}

// EmployeePage is one page of an employee listing.
type EmployeePage struct {
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	Size      int        `json:"size"`
	Employees []Employee `json:"list"`
}

// EmployeeUpdate carries partial employee changes; nil fields are left
// untouched.
type EmployeeUpdate struct {
	Name       *string
	Department *string
	Position   *string
}

// AttendanceRecord is one (employee, date) attendance row joined with the
// employee's display fields. Times are "15:04:05" strings, empty when the
// event has not happened; Date is "2006-01-02".
type AttendanceRecord struct {
	ID             int64   `json:"id"`
	EmployeeID     string  `json:"employeeId"`
	Name           string  `json:"name"`
	Department     string  `json:"department"`
	Date           string  `json:"date"`
	CheckInTime    string  `json:"checkInTime"`
	CheckOutTime   string  `json:"checkOutTime"`
	CheckInStatus  string  `json:"checkInStatus"`
	CheckOutStatus string  `json:"checkOutStatus"`
	Similarity     float64 `json:"similarity,omitempty"`
}

// RecordFilter narrows attendance record listings. Status filters on the
// check-in status for "late", the check-out status for "early", and both
// for "normal".
type RecordFilter struct {
	StartDate  string
	EndDate    string
	EmployeeID string
	Department string
	Status     string
	Page       int
	Size       int
}

// RecordPage is one page of an attendance listing.
type RecordPage struct {
	Total   int                `json:"total"`
	Page    int                `json:"page"`
	Size    int                `json:"size"`
	Records []AttendanceRecord `json:"list"`
}

// TodaySummary aggregates one day's attendance.
type TodaySummary struct {
	Date           string             `json:"date"`
	TotalEmployees int                `json:"totalEmployees"`
	CheckedIn      int                `json:"checkedIn"`
	CheckedOut     int                `json:"checkedOut"`
	Records        []AttendanceRecord `json:"records"`
}

// RecentEvent is one entry of the recent-activity feed on the dashboard.
type RecentEvent struct {
	EmployeeID     string `json:"employeeId"`
	Name           string `json:"name"`
	Action         string `json:"action"` // "check_in" or "check_out"
	Time           string `json:"time"`
	CheckInStatus  string `json:"checkInStatus,omitempty"`
	CheckOutStatus string `json:"checkOutStatus,omitempty"`
}

// TodayStats is the dashboard counter block.
type TodayStats struct {
	Date           string        `json:"date"`
	CurrentTime    string        `json:"currentTime"`
	TotalEmployees int           `json:"totalEmployees"`
	CheckedIn      int           `json:"checkedIn"`
	NotCheckedIn   int           `json:"notCheckedIn"`
	CheckedOut     int           `json:"checkedOut"`
	LateCount      int           `json:"lateCount"`
	EarlyCount     int           `json:"earlyCount"`
	AttendanceRate string        `json:"attendanceRate"`
	RecentRecords  []RecentEvent `json:"recentRecords"`
}

// Settings is the stored attendance policy in its wire form. Work times are
// "HH:MM" strings, tolerances whole minutes. The attendance package parses
// this into a snapshot it can do time arithmetic with.
type Settings struct {
	WorkStartTime        string  `json:"workStartTime"`
	WorkEndTime          string  `json:"workEndTime"`
	LateThreshold        int     `json:"lateThreshold"`
	EarlyThreshold       int     `json:"earlyThreshold"`
	RecognitionThreshold float64 `json:"recognitionThreshold"`
}

// SettingsUpdate carries partial policy changes; nil fields keep their
// stored value. Last write wins, there is no versioning.
type SettingsUpdate struct {
	WorkStartTime        *string  `json:"workStartTime"`
	WorkEndTime          *string  `json:"workEndTime"`
	LateThreshold        *int     `json:"lateThreshold"`
	EarlyThreshold       *int     `json:"earlyThreshold"`
	RecognitionThreshold *float64 `json:"recognitionThreshold"`
}
