package handlers

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/patrikzak/attendo/internal/attendance"
	"github.com/patrikzak/attendo/internal/database"
	"github.com/patrikzak/attendo/internal/imaging"
	"github.com/patrikzak/attendo/internal/recognizer"
)

// AttendanceHandler serves the recognition-driven attendance flow and the
// record listings.
type AttendanceHandler struct {
	rec     *recognizer.Recognizer
	service *attendance.Service
	store   database.Store
	now     func() time.Time
}

// NewAttendanceHandler creates an attendance handler.
func NewAttendanceHandler(rec *recognizer.Recognizer, service *attendance.Service, store database.Store) *AttendanceHandler {
	return &AttendanceHandler{
		rec:     rec,
		service: service,
		store:   store,
		now:     time.Now,
	}
}

type attendanceRequest struct {
	Image string `json:"image"` // base64 data URL
}

// attendanceResponse is the success payload of a recognition event.
type attendanceResponse struct {
	Action     string             `json:"action"`
	Status     string             `json:"status"`
	Employee   *database.Employee `json:"employee"`
	Similarity float64            `json:"similarity"`
	Time       string             `json:"time"`
}

// CheckIn handles POST /api/v1/attendance/check-in.
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.process(w, r, attendance.DirectionCheckIn)
}

// CheckOut handles POST /api/v1/attendance/check-out.
func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.process(w, r, attendance.DirectionCheckOut)
}

// Scan handles POST /api/v1/attendance/scan: the single-endpoint flow
// that infers check-in vs check-out from today's record.
func (h *AttendanceHandler) Scan(w http.ResponseWriter, r *http.Request) {
	h.process(w, r, attendance.DirectionAuto)
}

// process runs one recognition-and-record flow. The policy is snapshotted
// once at the start and used for both the similarity threshold and the
// late/early decision.
func (h *AttendanceHandler) process(w http.ResponseWriter, r *http.Request, dir attendance.Direction) {
	var req attendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	img, err := imaging.DecodeDataURL(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid image data")
		return
	}

	settings, err := h.store.LoadSettings(r.Context())
	if err != nil {
		log.Printf("failed to load settings: %v", err)
		respondError(w, http.StatusInternalServerError, "attendance failed")
		return
	}
	policy, err := attendance.PolicyFromSettings(settings)
	if err != nil {
		log.Printf("invalid stored policy: %v", err)
		respondError(w, http.StatusInternalServerError, "attendance failed")
		return
	}

	res, err := h.rec.Recognize(r.Context(), img, policy.RecognitionThreshold)
	if err != nil {
		log.Printf("recognition failed: %v", err)
		respondError(w, http.StatusInternalServerError, "attendance failed")
		return
	}

	switch res.Outcome {
	case recognizer.OutcomeOK:
	case recognizer.OutcomeNoFace:
		respondError(w, http.StatusUnprocessableEntity, "no face detected, look straight at the camera")
		return
	case recognizer.OutcomeMultipleFaces:
		respondError(w, http.StatusUnprocessableEntity, "multiple faces detected, make sure only one person is in frame")
		return
	case recognizer.OutcomeNoRegistered:
		respondError(w, http.StatusBadRequest, "no faces are registered yet")
		return
	case recognizer.OutcomeNotRecognized:
		respondError(w, http.StatusNotFound, "face not recognized, try again or contact an administrator")
		return
	default:
		respondError(w, http.StatusInternalServerError, "attendance failed")
		return
	}

	employeeID := res.Match.Entry.EmployeeID
	result, err := h.service.Record(r.Context(), employeeID, dir, h.now(), policy, res.Similarity)
	if err != nil {
		log.Printf("failed to record attendance for %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "attendance failed")
		return
	}

	switch result.Outcome {
	case attendance.OutcomeOK:
	case attendance.OutcomeAlreadyCheckedIn:
		respondError(w, http.StatusBadRequest, "already checked in today")
		return
	case attendance.OutcomeNotCheckedIn:
		respondError(w, http.StatusBadRequest, "not checked in today")
		return
	case attendance.OutcomeAlreadyCheckedOut:
		respondError(w, http.StatusBadRequest, "already checked out today")
		return
	default:
		respondError(w, http.StatusInternalServerError, "attendance failed")
		return
	}

	emp, err := h.store.Get(r.Context(), employeeID)
	if err != nil {
		log.Printf("failed to load employee %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "attendance failed")
		return
	}

	eventTime := result.Record.CheckInTime
	if result.Action == string(attendance.DirectionCheckOut) {
		eventTime = result.Record.CheckOutTime
	}

	respondSuccess(w, attendanceResponse{
		Action:     result.Action,
		Status:     string(result.Status),
		Employee:   emp,
		Similarity: res.Similarity,
		Time:       eventTime,
	}, fmt.Sprintf("%s recorded, welcome %s", result.Action, emp.Name))
}

// Today handles GET /api/v1/attendance/today.
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	date := h.now().Format("2006-01-02")
	summary, err := h.store.TodaySummary(r.Context(), date, r.URL.Query().Get("employeeId"))
	if err != nil {
		log.Printf("failed to load today summary: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}
	respondSuccess(w, summary, "ok")
}

// Records handles GET /api/v1/attendance/records.
func (h *AttendanceHandler) Records(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := database.RecordFilter{
		StartDate:  q.Get("startDate"),
		EndDate:    q.Get("endDate"),
		EmployeeID: q.Get("employeeId"),
		Department: q.Get("department"),
		Status:     q.Get("status"),
		Page:       intParam(q.Get("page"), 1),
		Size:       intParam(q.Get("size"), 20),
	}

	page, err := h.store.ListRecords(r.Context(), filter)
	if err != nil {
		log.Printf("failed to list attendance records: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	respondSuccess(w, page, "ok")
}

// monthlyRecord is one attendance row with the worked hours computed from
// the check-in/check-out pair.
type monthlyRecord struct {
	database.AttendanceRecord
	WorkHours float64 `json:"workHours,omitempty"`
}

// workHours computes the decimal hours between check-in and check-out,
// zero when either event is missing or unparseable.
func workHours(rec database.AttendanceRecord) float64 {
	if rec.CheckInTime == "" || rec.CheckOutTime == "" {
		return 0
	}
	in, err := time.Parse("15:04:05", rec.CheckInTime)
	if err != nil {
		return 0
	}
	out, err := time.Parse("15:04:05", rec.CheckOutTime)
	if err != nil {
		return 0
	}
	hours := out.Sub(in).Hours()
	if hours < 0 {
		return 0
	}
	return math.Round(hours*100) / 100
}

// Monthly handles GET /api/v1/employees/{employeeId}/attendance: one
// employee's records for a month ("?month=2006-01", defaults to the
// current month), with worked hours per completed day.
func (h *AttendanceHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")

	emp, err := h.store.Get(r.Context(), employeeID)
	if err != nil {
		log.Printf("failed to load employee %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}
	if emp == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	month := r.URL.Query().Get("month")
	if month == "" {
		month = h.now().Format("2006-01")
	}
	first, err := time.Parse("2006-01", month)
	if err != nil {
		respondError(w, http.StatusBadRequest, "month must look like 2006-01")
		return
	}
	last := first.AddDate(0, 1, -1)

	page, err := h.store.ListRecords(r.Context(), database.RecordFilter{
		StartDate:  first.Format("2006-01-02"),
		EndDate:    last.Format("2006-01-02"),
		EmployeeID: employeeID,
		Page:       1,
		Size:       31, // a month never has more rows per employee
	})
	if err != nil {
		log.Printf("failed to load monthly attendance for %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}

	monthly := make([]monthlyRecord, 0, len(page.Records))
	for _, rec := range page.Records {
		monthly = append(monthly, monthlyRecord{AttendanceRecord: rec, WorkHours: workHours(rec)})
	}
	respondSuccess(w, monthly, "ok")
}

// Day handles GET /api/v1/attendance/day: one row per employee for a
// date, absentees included.
func (h *AttendanceHandler) Day(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.now().Format("2006-01-02")
	}

	records, err := h.store.DayWithAbsent(r.Context(), date)
	if err != nil {
		log.Printf("failed to load day attendance: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}
	respondSuccess(w, records, "ok")
}

// Export handles GET /api/v1/attendance/export: CSV download of a date
// range.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startDate, endDate := q.Get("startDate"), q.Get("endDate")
	if startDate == "" || endDate == "" {
		respondError(w, http.StatusBadRequest, "startDate and endDate are required")
		return
	}

	records, err := h.store.ListRange(r.Context(), startDate, endDate)
	if err != nil {
		log.Printf("failed to export attendance: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to export records")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=attendance_%s_%s.csv", startDate, endDate))

	cw := csv.NewWriter(w)
	cw.Write([]string{"employee_id", "name", "department", "date", "check_in", "check_out", "check_in_status", "check_out_status"})
	for _, rec := range records {
		cw.Write([]string{
			rec.EmployeeID, rec.Name, rec.Department, rec.Date,
			rec.CheckInTime, rec.CheckOutTime, rec.CheckInStatus, rec.CheckOutStatus,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("failed to write CSV export: %v", err)
	}
}
