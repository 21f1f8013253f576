package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/patrikzak/attendo/internal/attendance"
	"github.com/patrikzak/attendo/internal/database"
	"github.com/patrikzak/attendo/internal/database/mock"
	"github.com/patrikzak/attendo/internal/recognizer"
)

func newAttendanceHandler(t *testing.T, store *mock.MockStore, now time.Time) (*AttendanceHandler, *recognizer.Recognizer) {
	t.Helper()
	rec := newTestRecognizer(t, store)
	h := NewAttendanceHandler(rec, attendance.NewService(store), store)
	h.now = func() time.Time { return now }
	return h, rec
}

func enrollTestFace(t *testing.T, rec *recognizer.Recognizer, store *mock.MockStore) {
	t.Helper()
	handler := NewFacesHandler(rec, store)
	req := jsonRequest(t, "POST", "/api/v1/face/register", map[string]any{
		"employeeId": "E001",
		"imageUrls":  []string{testImageDataURL(t, 3)},
	})
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)
}

func TestAttendanceHandler_CheckInLate(t *testing.T) {
	store := newTestStore()
	now := time.Date(2026, time.March, 2, 9, 12, 0, 0, time.UTC)
	handler, rec := newAttendanceHandler(t, store, now)
	enrollTestFace(t, rec, store)

	req := jsonRequest(t, "POST", "/api/v1/attendance/check-in", map[string]string{
		"image": testImageDataURL(t, 3),
	})
	recorder := httptest.NewRecorder()
	handler.CheckIn(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp attendanceResponse
	parseEnvelope(t, recorder, &resp)
	if resp.Action != "check_in" || resp.Status != "late" {
		t.Errorf("got action %s status %s, want check_in/late", resp.Action, resp.Status)
	}
	if resp.Time != "09:12:00" {
		t.Errorf("time = %s, want 09:12:00", resp.Time)
	}
	if resp.Employee == nil || resp.Employee.EmployeeID != "E001" {
		t.Errorf("unexpected employee: %+v", resp.Employee)
	}
}

func TestAttendanceHandler_ScanFlow(t *testing.T) {
	store := newTestStore()
	morning := time.Date(2026, time.March, 2, 8, 55, 0, 0, time.UTC)
	handler, rec := newAttendanceHandler(t, store, morning)
	enrollTestFace(t, rec, store)

	body := map[string]string{"image": testImageDataURL(t, 3)}

	// First scan checks in.
	recorder := httptest.NewRecorder()
	handler.Scan(recorder, jsonRequest(t, "POST", "/api/v1/attendance/scan", body))
	assertStatusCode(t, recorder, http.StatusOK)
	var resp attendanceResponse
	parseEnvelope(t, recorder, &resp)
	if resp.Action != "check_in" || resp.Status != "normal" {
		t.Fatalf("first scan: action %s status %s", resp.Action, resp.Status)
	}

	// Second scan the same day checks out.
	handler.now = func() time.Time {
		return time.Date(2026, time.March, 2, 18, 5, 0, 0, time.UTC)
	}
	recorder = httptest.NewRecorder()
	handler.Scan(recorder, jsonRequest(t, "POST", "/api/v1/attendance/scan", body))
	assertStatusCode(t, recorder, http.StatusOK)
	parseEnvelope(t, recorder, &resp)
	if resp.Action != "check_out" || resp.Status != "normal" {
		t.Fatalf("second scan: action %s status %s", resp.Action, resp.Status)
	}

	// Third scan is declined.
	recorder = httptest.NewRecorder()
	handler.Scan(recorder, jsonRequest(t, "POST", "/api/v1/attendance/scan", body))
	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestAttendanceHandler_CheckOutWithoutCheckIn(t *testing.T) {
	store := newTestStore()
	now := time.Date(2026, time.March, 2, 18, 0, 0, 0, time.UTC)
	handler, rec := newAttendanceHandler(t, store, now)
	enrollTestFace(t, rec, store)

	req := jsonRequest(t, "POST", "/api/v1/attendance/check-out", map[string]string{
		"image": testImageDataURL(t, 3),
	})
	recorder := httptest.NewRecorder()
	handler.CheckOut(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	env := parseEnvelope(t, recorder, nil)
	if !strings.Contains(env.Message, "not checked in") {
		t.Errorf("message = %q, want not-checked-in decline", env.Message)
	}
}

func TestAttendanceHandler_NoRegisteredFaces(t *testing.T) {
	store := newTestStore()
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	handler, _ := newAttendanceHandler(t, store, now)

	req := jsonRequest(t, "POST", "/api/v1/attendance/check-in", map[string]string{
		"image": testImageDataURL(t, 3),
	})
	recorder := httptest.NewRecorder()
	handler.CheckIn(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestAttendanceHandler_Today(t *testing.T) {
	store := newTestStore()
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	handler, _ := newAttendanceHandler(t, store, now)
	store.AddRecord(database.AttendanceRecord{
		EmployeeID: "E001", Name: "Alice", Date: "2026-03-02",
		CheckInTime: "09:00:00", CheckInStatus: "normal",
	})

	recorder := httptest.NewRecorder()
	handler.Today(recorder, httptest.NewRequest("GET", "/api/v1/attendance/today", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var summary database.TodaySummary
	parseEnvelope(t, recorder, &summary)
	if summary.CheckedIn != 1 || summary.CheckedOut != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestAttendanceHandler_Records(t *testing.T) {
	store := newTestStore()
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	handler, _ := newAttendanceHandler(t, store, now)
	store.AddRecord(database.AttendanceRecord{
		EmployeeID: "E001", Name: "Alice", Date: "2026-03-01",
		CheckInTime: "09:30:00", CheckInStatus: "late",
	})
	store.AddRecord(database.AttendanceRecord{
		EmployeeID: "E001", Name: "Alice", Date: "2026-03-02",
		CheckInTime: "08:55:00", CheckInStatus: "normal",
	})

	recorder := httptest.NewRecorder()
	handler.Records(recorder, httptest.NewRequest("GET", "/api/v1/attendance/records?status=late", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var page database.RecordPage
	parseEnvelope(t, recorder, &page)
	if page.Total != 1 || page.Records[0].Date != "2026-03-01" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestAttendanceHandler_RecordsUnknownStatus(t *testing.T) {
	store := newTestStore()
	handler, _ := newAttendanceHandler(t, store, time.Now())

	recorder := httptest.NewRecorder()
	handler.Records(recorder, httptest.NewRequest("GET", "/api/v1/attendance/records?status=bogus", nil))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
}

func TestAttendanceHandler_Monthly(t *testing.T) {
	store := newTestStore()
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	handler, _ := newAttendanceHandler(t, store, now)
	store.AddRecord(database.AttendanceRecord{
		EmployeeID: "E001", Name: "Alice", Date: "2026-03-02",
		CheckInTime: "09:00:00", CheckOutTime: "17:30:00",
		CheckInStatus: "normal", CheckOutStatus: "early",
	})
	store.AddRecord(database.AttendanceRecord{
		EmployeeID: "E001", Name: "Alice", Date: "2026-02-27",
		CheckInTime: "09:00:00", CheckInStatus: "normal",
	})

	req := requestWithChiParams(
		httptest.NewRequest("GET", "/api/v1/employees/E001/attendance?month=2026-03", nil),
		map[string]string{"employeeId": "E001"},
	)
	recorder := httptest.NewRecorder()
	handler.Monthly(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var monthly []monthlyRecord
	parseEnvelope(t, recorder, &monthly)
	if len(monthly) != 1 {
		t.Fatalf("expected one March record, got %d", len(monthly))
	}
	if monthly[0].Date != "2026-03-02" || monthly[0].WorkHours != 8.5 {
		t.Errorf("unexpected record: %+v", monthly[0])
	}
}

func TestAttendanceHandler_MonthlyUnknownEmployee(t *testing.T) {
	store := newTestStore()
	handler, _ := newAttendanceHandler(t, store, time.Now())

	req := requestWithChiParams(
		httptest.NewRequest("GET", "/api/v1/employees/missing/attendance", nil),
		map[string]string{"employeeId": "missing"},
	)
	recorder := httptest.NewRecorder()
	handler.Monthly(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestAttendanceHandler_Export(t *testing.T) {
	store := newTestStore()
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	handler, _ := newAttendanceHandler(t, store, now)
	store.AddRecord(database.AttendanceRecord{
		EmployeeID: "E001", Name: "Alice", Department: "Engineering", Date: "2026-03-02",
		CheckInTime: "09:00:00", CheckOutTime: "18:00:00",
		CheckInStatus: "normal", CheckOutStatus: "normal",
	})

	recorder := httptest.NewRecorder()
	handler.Export(recorder, httptest.NewRequest(
		"GET", "/api/v1/attendance/export?startDate=2026-03-01&endDate=2026-03-31", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	if ct := recorder.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %s, want text/csv", ct)
	}

	lines := strings.Split(strings.TrimSpace(recorder.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "E001") || !strings.Contains(lines[1], "09:00:00") {
		t.Errorf("unexpected CSV row: %s", lines[1])
	}
}

func TestAttendanceHandler_ExportMissingRange(t *testing.T) {
	store := newTestStore()
	handler, _ := newAttendanceHandler(t, store, time.Now())

	recorder := httptest.NewRecorder()
	handler.Export(recorder, httptest.NewRequest("GET", "/api/v1/attendance/export", nil))

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestStatsHandler_Today(t *testing.T) {
	store := newTestStore()
	store.AddEmployee(database.Employee{ID: 2, EmployeeID: "E002", Name: "Bob"})
	store.AddRecord(database.AttendanceRecord{
		EmployeeID: "E001", Name: "Alice", Date: "2026-03-02",
		CheckInTime: "09:30:00", CheckInStatus: "late",
	})

	handler := NewStatsHandler(store)
	handler.now = func() time.Time {
		return time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	}

	recorder := httptest.NewRecorder()
	handler.Today(recorder, httptest.NewRequest("GET", "/api/v1/statistics/today", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var stats database.TodayStats
	parseEnvelope(t, recorder, &stats)
	if stats.TotalEmployees != 2 || stats.CheckedIn != 1 || stats.LateCount != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.AttendanceRate != "50.0%" {
		t.Errorf("attendance rate = %s, want 50.0%%", stats.AttendanceRate)
	}
}
