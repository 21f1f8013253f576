package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/patrikzak/attendo/internal/database"
	"github.com/patrikzak/attendo/internal/gallery"
	"github.com/pgvector/pgvector-go"
)

const employeeColumns = `
	id, employee_id, name, department, position,
	(face_descriptor IS NOT NULL) AS has_face, face_image, created_at, updated_at
`

func scanEmployee(row interface{ Scan(...any) error }) (*database.Employee, error) {
	var emp database.Employee
	err := row.Scan(
		&emp.ID, &emp.EmployeeID, &emp.Name, &emp.Department, &emp.Position,
		&emp.HasFace, &emp.FaceImage, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// List returns a filtered, paginated employee listing.
func (s *Store) List(ctx context.Context, filter database.EmployeeFilter) (*database.EmployeePage, error) {
	where := " WHERE 1=1"
	var args []any

	if filter.Keyword != "" {
		// The normalized column makes the name match accent-insensitive:
		// "jiri" finds "Jiří".
		args = append(args, "%"+filter.Keyword+"%")
		raw := len(args)
		args = append(args, "%"+database.NormalizeSearch(filter.Keyword)+"%")
		where += fmt.Sprintf(
			" AND (employee_id ILIKE $%d OR name ILIKE $%d OR name_search LIKE $%d)",
			raw, raw, len(args),
		)
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		where += fmt.Sprintf(" AND department = $%d", len(args))
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM employees"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count employees: %w", err)
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
		"SELECT %s FROM employees%s ORDER BY id LIMIT $%d OFFSET $%d",
		employeeColumns, where, len(args)-1, len(args),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	result := &database.EmployeePage{Total: total, Page: page, Size: size}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		result.Employees = append(result.Employees, *emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return result, nil
}

// Get retrieves a single employee, nil if not found.
func (s *Store) Get(ctx context.Context, employeeID string) (*database.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM employees WHERE employee_id = $1", employeeColumns)
	emp, err := scanEmployee(s.pool.QueryRow(ctx, query, employeeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query employee: %w", err)
	}
	return emp, nil
}

// LoadGallery returns all enrolled identities in enrollment order. The
// vector column is read back as text, which the descriptor package decodes.
func (s *Store) LoadGallery(ctx context.Context) ([]gallery.Entry, error) {
	query := `
		SELECT employee_id, name, department, face_descriptor::text, face_image
		FROM employees
		WHERE face_descriptor IS NOT NULL
		ORDER BY enrolled_at, id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query gallery: %w", err)
	}
	defer rows.Close()

	var entries []gallery.Entry
	for rows.Next() {
		var e gallery.Entry
		if err := rows.Scan(&e.EmployeeID, &e.Name, &e.Department, &e.Descriptor, &e.ImageRef); err != nil {
			return nil, fmt.Errorf("scan gallery entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery: %w", err)
	}
	return entries, nil
}

// Create inserts a new employee and returns the stored row.
func (s *Store) Create(ctx context.Context, employeeID, name, department, position string) (*database.Employee, error) {
	query := fmt.Sprintf(`
		INSERT INTO employees (employee_id, name, name_search, department, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s
	`, employeeColumns)

	emp, err := scanEmployee(s.pool.QueryRow(ctx, query,
		employeeID, name, database.NormalizeSearch(name), department, position))
	if err != nil {
		return nil, fmt.Errorf("insert employee: %w", err)
	}
	return emp, nil
}

// Update applies a partial update, nil if the employee does not exist.
func (s *Store) Update(ctx context.Context, employeeID string, upd database.EmployeeUpdate) (*database.Employee, error) {
	set := "updated_at = NOW()"
	args := []any{employeeID}

	if upd.Name != nil {
		args = append(args, *upd.Name)
		set += fmt.Sprintf(", name = $%d", len(args))
		args = append(args, database.NormalizeSearch(*upd.Name))
		set += fmt.Sprintf(", name_search = $%d", len(args))
	}
	if upd.Department != nil {
		args = append(args, *upd.Department)
		set += fmt.Sprintf(", department = $%d", len(args))
	}
	if upd.Position != nil {
		args = append(args, *upd.Position)
		set += fmt.Sprintf(", position = $%d", len(args))
	}

	query := fmt.Sprintf(
		"UPDATE employees SET %s WHERE employee_id = $1 RETURNING %s",
		set, employeeColumns,
	)

	emp, err := scanEmployee(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return emp, nil
}

// Delete removes an employee; attendance rows cascade.
func (s *Store) Delete(ctx context.Context, employeeID string) (bool, error) {
	result, err := s.pool.Exec(ctx, "DELETE FROM employees WHERE employee_id = $1", employeeID)
	if err != nil {
		return false, fmt.Errorf("delete employee: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete employee rows affected: %w", err)
	}
	return affected > 0, nil
}

// SaveDescriptor stores an enrolled descriptor, replacing any previous one.
func (s *Store) SaveDescriptor(ctx context.Context, employeeID string, desc []float32, imageRef string) error {
	query := `
		UPDATE employees
		SET face_descriptor = $2, face_image = $3, enrolled_at = NOW(), updated_at = NOW()
		WHERE employee_id = $1
	`

	result, err := s.pool.Exec(ctx, query, employeeID, pgvector.NewVector(desc), imageRef)
	if err != nil {
		return fmt.Errorf("save descriptor: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save descriptor rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("employee %s not found", employeeID)
	}
	return nil
}

// ClearDescriptor withdraws biometric data; the employee row persists.
func (s *Store) ClearDescriptor(ctx context.Context, employeeID string) error {
	query := `
		UPDATE employees
		SET face_descriptor = NULL, face_image = '', enrolled_at = NULL, updated_at = NOW()
		WHERE employee_id = $1
	`

	if _, err := s.pool.Exec(ctx, query, employeeID); err != nil {
		return fmt.Errorf("clear descriptor: %w", err)
	}
	return nil
}
