// Package mock provides an in-memory implementation of the database
// interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrikzak/attendo/internal/database"
	"github.com/patrikzak/attendo/internal/descriptor"
	"github.com/patrikzak/attendo/internal/gallery"
)

// MockStore is an in-memory implementation of database.Store. Gallery
// order follows enrollment order, matching the postgres implementation.
type MockStore struct {
	mu        sync.RWMutex
	employees map[string]*database.Employee
	order     []string // employee creation order
	gallery   []string // enrollment order
	faces     map[string][]byte
	faceRefs  map[string]string
	records   map[string]*database.AttendanceRecord // keyed employeeID|date
	recordIDs []string                              // insertion order
	settings  database.Settings
	idCounter int64

	// Error injection
	ListError            error
	GetError             error
	LoadGalleryError     error
	CreateError          error
	UpdateError          error
	DeleteError          error
	SaveDescriptorError  error
	ClearDescriptorError error
	InsertCheckInError   error
	UpdateCheckOutError  error
	GetDayError          error
	ListRecordsError     error
	ListRangeError       error
	DayWithAbsentError   error
	TodaySummaryError    error
	TodayStatsError      error
	LoadSettingsError    error
	SaveSettingsError    error
}

// NewMockStore creates an empty mock store with default settings.
func NewMockStore() *MockStore {
	return &MockStore{
		employees: make(map[string]*database.Employee),
		faces:     make(map[string][]byte),
		faceRefs:  make(map[string]string),
		records:   make(map[string]*database.AttendanceRecord),
		settings: database.Settings{
			WorkStartTime:        "09:00",
			WorkEndTime:          "18:00",
			LateThreshold:        10,
			EarlyThreshold:       10,
			RecognitionThreshold: 0.5,
		},
	}
}

func recordKey(employeeID, date string) string {
	return employeeID + "|" + date
}

// AddEmployee adds an employee to the mock store.
func (m *MockStore) AddEmployee(emp database.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[emp.EmployeeID]; !ok {
		m.order = append(m.order, emp.EmployeeID)
	}
	m.employees[emp.EmployeeID] = &emp
}

// AddDescriptor enrolls a raw serialized descriptor for an employee.
func (m *MockStore) AddDescriptor(employeeID string, desc []byte, imageRef string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.faces[employeeID]; !ok {
		m.gallery = append(m.gallery, employeeID)
	}
	m.faces[employeeID] = desc
	m.faceRefs[employeeID] = imageRef
	if emp, ok := m.employees[employeeID]; ok {
		emp.HasFace = true
		emp.FaceImage = imageRef
	}
}

// AddRecord adds an attendance record to the mock store.
func (m *MockStore) AddRecord(rec database.AttendanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey(rec.EmployeeID, rec.Date)
	if _, ok := m.records[key]; !ok {
		m.recordIDs = append(m.recordIDs, key)
	}
	if rec.ID == 0 {
		m.idCounter++
		rec.ID = m.idCounter
	}
	m.records[key] = &rec
}

// List returns a filtered, paginated employee listing
func (m *MockStore) List(ctx context.Context, filter database.EmployeeFilter) (*database.EmployeePage, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	keyword := strings.ToLower(filter.Keyword)
	normalized := database.NormalizeSearch(filter.Keyword)

	var matched []database.Employee
	for _, id := range m.order {
		emp := m.employees[id]
		if filter.Keyword != "" &&
			!strings.Contains(strings.ToLower(emp.EmployeeID), keyword) &&
			!strings.Contains(strings.ToLower(emp.Name), keyword) &&
			!strings.Contains(database.NormalizeSearch(emp.Name), normalized) {
			continue
		}
		if filter.Department != "" && emp.Department != filter.Department {
			continue
		}
		matched = append(matched, *emp)
	}

	page, size := normalizePage(filter.Page, filter.Size)
	return &database.EmployeePage{
		Total:     len(matched),
		Page:      page,
		Size:      size,
		Employees: paginate(matched, page, size),
	}, nil
}

// Get retrieves a single employee, nil if not found
func (m *MockStore) Get(ctx context.Context, employeeID string) (*database.Employee, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[employeeID]
	if !ok {
		return nil, nil
	}
	cp := *emp
	return &cp, nil
}

// LoadGallery returns enrolled identities in enrollment order
func (m *MockStore) LoadGallery(ctx context.Context) ([]gallery.Entry, error) {
	if m.LoadGalleryError != nil {
		return nil, m.LoadGalleryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []gallery.Entry
	for _, id := range m.gallery {
		emp, ok := m.employees[id]
		if !ok {
			continue
		}
		entries = append(entries, gallery.Entry{
			EmployeeID: id,
			Name:       emp.Name,
			Department: emp.Department,
			Descriptor: m.faces[id],
			ImageRef:   m.faceRefs[id],
		})
	}
	return entries, nil
}

// Create inserts a new employee
func (m *MockStore) Create(ctx context.Context, employeeID, name, department, position string) (*database.Employee, error) {
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[employeeID]; ok {
		return nil, fmt.Errorf("employee %s already exists", employeeID)
	}

	m.idCounter++
	now := time.Now()
	emp := &database.Employee{
		ID:         m.idCounter,
		EmployeeID: employeeID,
		Name:       name,
		Department: department,
		Position:   position,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.employees[employeeID] = emp
	m.order = append(m.order, employeeID)
	cp := *emp
	return &cp, nil
}

// Update applies a partial update
func (m *MockStore) Update(ctx context.Context, employeeID string, upd database.EmployeeUpdate) (*database.Employee, error) {
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	emp, ok := m.employees[employeeID]
	if !ok {
		return nil, nil
	}
	if upd.Name != nil {
		emp.Name = *upd.Name
	}
	if upd.Department != nil {
		emp.Department = *upd.Department
	}
	if upd.Position != nil {
		emp.Position = *upd.Position
	}
	emp.UpdatedAt = time.Now()
	cp := *emp
	return &cp, nil
}

// Delete removes an employee and all attendance rows
func (m *MockStore) Delete(ctx context.Context, employeeID string) (bool, error) {
	if m.DeleteError != nil {
		return false, m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[employeeID]; !ok {
		return false, nil
	}
	delete(m.employees, employeeID)
	delete(m.faces, employeeID)
	delete(m.faceRefs, employeeID)
	m.order = remove(m.order, employeeID)
	m.gallery = remove(m.gallery, employeeID)

	var keep []string
	for _, key := range m.recordIDs {
		if m.records[key].EmployeeID == employeeID {
			delete(m.records, key)
			continue
		}
		keep = append(keep, key)
	}
	m.recordIDs = keep
	return true, nil
}

// SaveDescriptor stores an enrolled descriptor
func (m *MockStore) SaveDescriptor(ctx context.Context, employeeID string, desc []float32, imageRef string) error {
	if m.SaveDescriptorError != nil {
		return m.SaveDescriptorError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[employeeID]; !ok {
		return fmt.Errorf("employee %s not found", employeeID)
	}
	if _, ok := m.faces[employeeID]; !ok {
		m.gallery = append(m.gallery, employeeID)
	}
	m.faces[employeeID] = descriptor.Descriptor(desc).Encode()
	m.faceRefs[employeeID] = imageRef
	m.employees[employeeID].HasFace = true
	m.employees[employeeID].FaceImage = imageRef
	return nil
}

// ClearDescriptor withdraws biometric data
func (m *MockStore) ClearDescriptor(ctx context.Context, employeeID string) error {
	if m.ClearDescriptorError != nil {
		return m.ClearDescriptorError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.faces, employeeID)
	delete(m.faceRefs, employeeID)
	m.gallery = remove(m.gallery, employeeID)
	if emp, ok := m.employees[employeeID]; ok {
		emp.HasFace = false
		emp.FaceImage = ""
	}
	return nil
}

// InsertCheckIn records a check-in, false on an existing day row
func (m *MockStore) InsertCheckIn(ctx context.Context, employeeID, date, checkTime, status string, similarity float64) (bool, error) {
	if m.InsertCheckInError != nil {
		return false, m.InsertCheckInError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey(employeeID, date)
	if _, ok := m.records[key]; ok {
		return false, nil
	}

	m.idCounter++
	rec := &database.AttendanceRecord{
		ID:            m.idCounter,
		EmployeeID:    employeeID,
		Date:          date,
		CheckInTime:   checkTime,
		CheckInStatus: status,
		Similarity:    similarity,
	}
	if emp, ok := m.employees[employeeID]; ok {
		rec.Name = emp.Name
		rec.Department = emp.Department
	}
	m.records[key] = rec
	m.recordIDs = append(m.recordIDs, key)
	return true, nil
}

// UpdateCheckOut completes the day row, false if absent or already closed
func (m *MockStore) UpdateCheckOut(ctx context.Context, employeeID, date, checkTime, status string) (bool, error) {
	if m.UpdateCheckOutError != nil {
		return false, m.UpdateCheckOutError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[recordKey(employeeID, date)]
	if !ok || rec.CheckOutTime != "" {
		return false, nil
	}
	rec.CheckOutTime = checkTime
	rec.CheckOutStatus = status
	return true, nil
}

// GetDay returns the row for (employee, date), nil if absent
func (m *MockStore) GetDay(ctx context.Context, employeeID, date string) (*database.AttendanceRecord, error) {
	if m.GetDayError != nil {
		return nil, m.GetDayError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[recordKey(employeeID, date)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// ListRecords returns a filtered, paginated attendance listing
func (m *MockStore) ListRecords(ctx context.Context, filter database.RecordFilter) (*database.RecordPage, error) {
	if m.ListRecordsError != nil {
		return nil, m.ListRecordsError
	}
	switch filter.Status {
	case "", "late", "early", "normal":
	default:
		return nil, fmt.Errorf("unknown status filter %q", filter.Status)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []database.AttendanceRecord
	for _, key := range m.recordIDs {
		rec := m.records[key]
		if filter.StartDate != "" && rec.Date < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && rec.Date > filter.EndDate {
			continue
		}
		if filter.EmployeeID != "" && rec.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Department != "" && rec.Department != filter.Department {
			continue
		}
		if !matchesStatus(rec, filter.Status) {
			continue
		}
		matched = append(matched, *rec)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[i].Date > matched[j].Date
		}
		return matched[i].CheckInTime > matched[j].CheckInTime
	})

	page, size := normalizePage(filter.Page, filter.Size)
	return &database.RecordPage{
		Total:   len(matched),
		Page:    page,
		Size:    size,
		Records: paginate(matched, page, size),
	}, nil
}

// ListRange returns all records within the inclusive date range
func (m *MockStore) ListRange(ctx context.Context, startDate, endDate string) ([]database.AttendanceRecord, error) {
	if m.ListRangeError != nil {
		return nil, m.ListRangeError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.AttendanceRecord
	for _, key := range m.recordIDs {
		rec := m.records[key]
		if rec.Date < startDate || rec.Date > endDate {
			continue
		}
		result = append(result, *rec)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].CheckInTime < result[j].CheckInTime
	})
	return result, nil
}

// DayWithAbsent returns every employee's record for the date with
// synthesized absent rows
func (m *MockStore) DayWithAbsent(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	if m.DayWithAbsentError != nil {
		return nil, m.DayWithAbsentError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.AttendanceRecord
	for _, id := range m.order {
		emp := m.employees[id]
		if rec, ok := m.records[recordKey(id, date)]; ok {
			result = append(result, *rec)
			continue
		}
		result = append(result, database.AttendanceRecord{
			EmployeeID:    id,
			Name:          emp.Name,
			Department:    emp.Department,
			Date:          date,
			CheckInStatus: "absent",
		})
	}
	return result, nil
}

// TodaySummary aggregates one day, optionally for a single employee
func (m *MockStore) TodaySummary(ctx context.Context, date, employeeID string) (*database.TodaySummary, error) {
	if m.TodaySummaryError != nil {
		return nil, m.TodaySummaryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := &database.TodaySummary{
		Date:           date,
		TotalEmployees: len(m.employees),
	}
	for _, key := range m.recordIDs {
		rec := m.records[key]
		if rec.Date != date {
			continue
		}
		if employeeID != "" && rec.EmployeeID != employeeID {
			continue
		}
		summary.CheckedIn++
		if rec.CheckOutTime != "" {
			summary.CheckedOut++
		}
		summary.Records = append(summary.Records, *rec)
	}
	return summary, nil
}

// TodayStats computes the dashboard counters for a date
func (m *MockStore) TodayStats(ctx context.Context, date, currentTime string) (*database.TodayStats, error) {
	if m.TodayStatsError != nil {
		return nil, m.TodayStatsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &database.TodayStats{
		Date:           date,
		CurrentTime:    currentTime,
		TotalEmployees: len(m.employees),
		AttendanceRate: "0%",
	}

	var todays []*database.AttendanceRecord
	for _, key := range m.recordIDs {
		rec := m.records[key]
		if rec.Date != date {
			continue
		}
		todays = append(todays, rec)
		stats.CheckedIn++
		if rec.CheckOutTime != "" {
			stats.CheckedOut++
		}
		if rec.CheckInStatus == "late" {
			stats.LateCount++
		}
		if rec.CheckOutStatus == "early" {
			stats.EarlyCount++
		}
	}
	stats.NotCheckedIn = stats.TotalEmployees - stats.CheckedIn
	if stats.TotalEmployees > 0 {
		stats.AttendanceRate = fmt.Sprintf("%.1f%%", float64(stats.CheckedIn)/float64(stats.TotalEmployees)*100)
	}

	sort.SliceStable(todays, func(i, j int) bool {
		return todays[i].CheckInTime > todays[j].CheckInTime
	})
	for i, rec := range todays {
		if i >= 10 {
			break
		}
		event := database.RecentEvent{
			EmployeeID:     rec.EmployeeID,
			Name:           rec.Name,
			Action:         "check_in",
			Time:           rec.CheckInTime,
			CheckInStatus:  rec.CheckInStatus,
			CheckOutStatus: rec.CheckOutStatus,
		}
		if rec.CheckOutTime != "" {
			event.Action = "check_out"
			event.Time = rec.CheckOutTime
		}
		stats.RecentRecords = append(stats.RecentRecords, event)
	}
	return stats, nil
}

// LoadSettings returns the stored policy
func (m *MockStore) LoadSettings(ctx context.Context) (*database.Settings, error) {
	if m.LoadSettingsError != nil {
		return nil, m.LoadSettingsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := m.settings
	return &cp, nil
}

// SaveSettings applies a partial policy update
func (m *MockStore) SaveSettings(ctx context.Context, upd database.SettingsUpdate) error {
	if m.SaveSettingsError != nil {
		return m.SaveSettingsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if upd.WorkStartTime != nil {
		m.settings.WorkStartTime = *upd.WorkStartTime
	}
	if upd.WorkEndTime != nil {
		m.settings.WorkEndTime = *upd.WorkEndTime
	}
	if upd.LateThreshold != nil {
		m.settings.LateThreshold = *upd.LateThreshold
	}
	if upd.EarlyThreshold != nil {
		m.settings.EarlyThreshold = *upd.EarlyThreshold
	}
	if upd.RecognitionThreshold != nil {
		m.settings.RecognitionThreshold = *upd.RecognitionThreshold
	}
	return nil
}

func matchesStatus(rec *database.AttendanceRecord, status string) bool {
	switch status {
	case "":
		return true
	case "late":
		return rec.CheckInStatus == "late"
	case "early":
		return rec.CheckOutStatus == "early"
	case "normal":
		return rec.CheckInStatus == "normal" &&
			(rec.CheckOutStatus == "" || rec.CheckOutStatus == "normal")
	default:
		return false
	}
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	return page, size
}

func paginate[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func remove(s []string, v string) []string {
	var out []string
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// Verify interface compliance
var _ database.Store = (*MockStore)(nil)
