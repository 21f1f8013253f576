package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/patrikzak/attendo/internal/database"
)

const recordColumns = `
	a.id, a.employee_id, e.name, e.department, a.date,
	a.check_in_time, a.check_out_time, a.check_in_status, a.check_out_status, a.similarity
`

const recordFrom = " FROM attendance a JOIN employees e ON a.employee_id = e.employee_id"

func scanRecord(row interface{ Scan(...any) error }) (*database.AttendanceRecord, error) {
	var rec database.AttendanceRecord
	var checkIn, checkOut, outStatus sql.NullString
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Name, &rec.Department, &rec.Date,
		&checkIn, &checkOut, &rec.CheckInStatus, &outStatus, &rec.Similarity,
	)
	if err != nil {
		return nil, err
	}
	rec.CheckInTime = checkIn.String
	rec.CheckOutTime = checkOut.String
	rec.CheckOutStatus = outStatus.String
	return &rec, nil
}

// InsertCheckIn records a check-in. The unique (employee_id, date) index
// makes concurrent inserts resolve to exactly one winner; the loser gets
// false without an error.
func (s *Store) InsertCheckIn(ctx context.Context, employeeID, date, checkTime, status string, similarity float64) (bool, error) {
	query := `
		INSERT INTO attendance (employee_id, date, check_in_time, check_in_status, similarity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id, date) DO NOTHING
	`

	result, err := s.pool.Exec(ctx, query, employeeID, date, checkTime, status, similarity)
	if err != nil {
		return false, fmt.Errorf("insert check-in: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert check-in rows affected: %w", err)
	}
	return affected > 0, nil
}

// UpdateCheckOut completes the day row. The guard on check_out_time keeps
// a repeated check-out from overwriting the stored one.
func (s *Store) UpdateCheckOut(ctx context.Context, employeeID, date, checkTime, status string) (bool, error) {
	query := `
		UPDATE attendance
		SET check_out_time = $3, check_out_status = $4
		WHERE employee_id = $1 AND date = $2
		  AND check_in_time IS NOT NULL AND check_out_time IS NULL
	`

	result, err := s.pool.Exec(ctx, query, employeeID, date, checkTime, status)
	if err != nil {
		return false, fmt.Errorf("update check-out: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update check-out rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetDay returns the row for (employee, date), nil if absent.
func (s *Store) GetDay(ctx context.Context, employeeID, date string) (*database.AttendanceRecord, error) {
	query := "SELECT " + recordColumns + recordFrom + " WHERE a.employee_id = $1 AND a.date = $2"

	rec, err := scanRecord(s.pool.QueryRow(ctx, query, employeeID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query attendance day: %w", err)
	}
	return rec, nil
}

// ListRecords returns a filtered, paginated attendance listing, newest
// first. The status filter follows the split statuses: "late" matches the
// check-in status, "early" the check-out status, "normal" both.
func (s *Store) ListRecords(ctx context.Context, filter database.RecordFilter) (*database.RecordPage, error) {
	where := " WHERE 1=1"
	var args []any

	if filter.StartDate != "" {
		args = append(args, filter.StartDate)
		where += fmt.Sprintf(" AND a.date >= $%d", len(args))
	}
	if filter.EndDate != "" {
		args = append(args, filter.EndDate)
		where += fmt.Sprintf(" AND a.date <= $%d", len(args))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where += fmt.Sprintf(" AND a.employee_id = $%d", len(args))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		where += fmt.Sprintf(" AND e.department = $%d", len(args))
	}
	switch filter.Status {
	case "":
	case "late":
		where += " AND a.check_in_status = 'late'"
	case "early":
		where += " AND a.check_out_status = 'early'"
	case "normal":
		where += " AND a.check_in_status = 'normal' AND (a.check_out_status IS NULL OR a.check_out_status = 'normal')"
	default:
		return nil, fmt.Errorf("unknown status filter %q", filter.Status)
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*)"+recordFrom+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count attendance records: %w", err)
	}

	page, size := filter.Page, filter.Size
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	args = append(args, size, (page-1)*size)
	query := fmt.Sprintf(
		"SELECT %s%s%s ORDER BY a.date DESC, a.check_in_time DESC LIMIT $%d OFFSET $%d",
		recordColumns, recordFrom, where, len(args)-1, len(args),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance records: %w", err)
	}
	defer rows.Close()

	result := &database.RecordPage{Total: total, Page: page, Size: size}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		result.Records = append(result.Records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return result, nil
}

// ListRange returns all records within the inclusive date range, ordered
// by date then check-in time. Used for exports.
func (s *Store) ListRange(ctx context.Context, startDate, endDate string) ([]database.AttendanceRecord, error) {
	query := "SELECT " + recordColumns + recordFrom +
		" WHERE a.date >= $1 AND a.date <= $2 ORDER BY a.date, a.check_in_time"

	rows, err := s.pool.Query(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("query attendance range: %w", err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance range: %w", err)
	}
	return records, nil
}

// DayWithAbsent returns every employee's record for the date, with
// synthesized absent rows for employees without one.
func (s *Store) DayWithAbsent(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	query := `
		SELECT
			COALESCE(a.id, 0), e.employee_id, e.name, e.department, $1,
			a.check_in_time, a.check_out_time,
			COALESCE(a.check_in_status, 'absent'), a.check_out_status,
			COALESCE(a.similarity, 0)
		FROM employees e
		LEFT JOIN attendance a ON a.employee_id = e.employee_id AND a.date = $1
		ORDER BY e.id
	`

	rows, err := s.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("query day attendance: %w", err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan day attendance: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day attendance: %w", err)
	}
	return records, nil
}

// TodaySummary aggregates one day, optionally for a single employee.
func (s *Store) TodaySummary(ctx context.Context, date, employeeID string) (*database.TodaySummary, error) {
	summary := &database.TodaySummary{Date: date}

	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM employees").Scan(&summary.TotalEmployees); err != nil {
		return nil, fmt.Errorf("count employees: %w", err)
	}

	where := " WHERE a.date = $1"
	args := []any{date}
	if employeeID != "" {
		args = append(args, employeeID)
		where += " AND a.employee_id = $2"
	}

	rows, err := s.pool.Query(ctx, "SELECT "+recordColumns+recordFrom+where+" ORDER BY a.check_in_time", args...)
	if err != nil {
		return nil, fmt.Errorf("query today summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan today summary: %w", err)
		}
		summary.CheckedIn++
		if rec.CheckOutTime != "" {
			summary.CheckedOut++
		}
		summary.Records = append(summary.Records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate today summary: %w", err)
	}
	return summary, nil
}

// TodayStats computes the dashboard counters for a date.
func (s *Store) TodayStats(ctx context.Context, date, currentTime string) (*database.TodayStats, error) {
	stats := &database.TodayStats{
		Date:           date,
		CurrentTime:    currentTime,
		AttendanceRate: "0%",
	}

	counters := `
		SELECT
			(SELECT COUNT(*) FROM employees),
			COUNT(a.id),
			COUNT(a.check_out_time),
			COUNT(*) FILTER (WHERE a.check_in_status = 'late'),
			COUNT(*) FILTER (WHERE a.check_out_status = 'early')
		FROM attendance a
		WHERE a.date = $1
	`
	err := s.pool.QueryRow(ctx, counters, date).Scan(
		&stats.TotalEmployees, &stats.CheckedIn, &stats.CheckedOut,
		&stats.LateCount, &stats.EarlyCount,
	)
	if err != nil {
		return nil, fmt.Errorf("query today stats: %w", err)
	}
	stats.NotCheckedIn = stats.TotalEmployees - stats.CheckedIn
	if stats.TotalEmployees > 0 {
		stats.AttendanceRate = fmt.Sprintf("%.1f%%", float64(stats.CheckedIn)/float64(stats.TotalEmployees)*100)
	}

	recent := "SELECT " + recordColumns + recordFrom +
		" WHERE a.date = $1 ORDER BY a.check_in_time DESC LIMIT 10"
	rows, err := s.pool.Query(ctx, recent, date)
	if err != nil {
		return nil, fmt.Errorf("query recent records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recent record: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent records: %w", err)
	}
	return stats, nil
}
