//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/patrikzak/attendo/internal/config"
	"github.com/patrikzak/attendo/internal/database"
	"github.com/patrikzak/attendo/internal/descriptor"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Store, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	defaults := config.PolicyDefaults{
		WorkStart:             "09:00",
		WorkEnd:               "18:00",
		LateToleranceMinutes:  10,
		EarlyToleranceMinutes: 10,
		RecognitionThreshold:  0.5,
	}

	store, err := Initialize(cfg, defaults)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to initialize store: %v", err)
	}

	cleanup := func() {
		store.Close()
		container.Terminate(ctx)
	}

	return store, cleanup
}

func TestEmployeeStore(t *testing.T) {
	store, cleanup := setupTestContainer(t)
	if store == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		emp, err := store.Create(ctx, "E001", "Alice", "Engineering", "Developer")
		if err != nil {
			t.Fatalf("Failed to create employee: %v", err)
		}
		if emp.EmployeeID != "E001" || emp.HasFace {
			t.Errorf("unexpected employee row: %+v", emp)
		}

		got, err := store.Get(ctx, "E001")
		if err != nil {
			t.Fatalf("Failed to get employee: %v", err)
		}
		if got == nil || got.Name != "Alice" {
			t.Errorf("Expected Alice, got %+v", got)
		}

		missing, err := store.Get(ctx, "nonexistent")
		if err != nil {
			t.Fatalf("Failed to get missing employee: %v", err)
		}
		if missing != nil {
			t.Errorf("Expected nil for missing employee, got %+v", missing)
		}
	})

	t.Run("SaveDescriptorAndLoadGallery", func(t *testing.T) {
		desc := make([]float32, descriptor.Length)
		for i := range desc {
			desc[i] = float32(i) / float32(descriptor.Length)
		}

		if err := store.SaveDescriptor(ctx, "E001", desc, "faces/E001.jpg"); err != nil {
			t.Fatalf("Failed to save descriptor: %v", err)
		}

		entries, err := store.LoadGallery(ctx)
		if err != nil {
			t.Fatalf("Failed to load gallery: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("Expected 1 gallery entry, got %d", len(entries))
		}

		decoded, err := descriptor.Decode(entries[0].Descriptor)
		if err != nil {
			t.Fatalf("Failed to decode gallery descriptor: %v", err)
		}
		if len(decoded) != descriptor.Length {
			t.Errorf("Expected %d dimensions, got %d", descriptor.Length, len(decoded))
		}

		got, err := store.Get(ctx, "E001")
		if err != nil || got == nil {
			t.Fatalf("Failed to reload employee: %v", err)
		}
		if !got.HasFace {
			t.Error("Expected HasFace after enrollment")
		}
	})

	t.Run("ClearDescriptor", func(t *testing.T) {
		if err := store.ClearDescriptor(ctx, "E001"); err != nil {
			t.Fatalf("Failed to clear descriptor: %v", err)
		}
		entries, err := store.LoadGallery(ctx)
		if err != nil {
			t.Fatalf("Failed to load gallery: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("Expected empty gallery, got %d entries", len(entries))
		}
	})

	t.Run("ListAndUpdate", func(t *testing.T) {
		if _, err := store.Create(ctx, "E002", "Bob", "Sales", ""); err != nil {
			t.Fatalf("Failed to create employee: %v", err)
		}

		page, err := store.List(ctx, database.EmployeeFilter{Department: "Sales"})
		if err != nil {
			t.Fatalf("Failed to list employees: %v", err)
		}
		if page.Total != 1 || page.Employees[0].EmployeeID != "E002" {
			t.Errorf("unexpected listing: %+v", page)
		}

		name := "Robert"
		updated, err := store.Update(ctx, "E002", database.EmployeeUpdate{Name: &name})
		if err != nil {
			t.Fatalf("Failed to update employee: %v", err)
		}
		if updated == nil || updated.Name != "Robert" {
			t.Errorf("Expected Robert, got %+v", updated)
		}
	})

	t.Run("KeywordIgnoresDiacritics", func(t *testing.T) {
		if _, err := store.Create(ctx, "E003", "Jiří Novák", "Support", ""); err != nil {
			t.Fatalf("Failed to create employee: %v", err)
		}

		page, err := store.List(ctx, database.EmployeeFilter{Keyword: "jiri"})
		if err != nil {
			t.Fatalf("Failed to list employees: %v", err)
		}
		if page.Total != 1 || page.Employees[0].EmployeeID != "E003" {
			t.Errorf("Expected to find Jiří by ascii keyword, got %+v", page)
		}
	})
}

func TestAttendanceStore(t *testing.T) {
	store, cleanup := setupTestContainer(t)
	if store == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	if _, err := store.Create(ctx, "E001", "Alice", "Engineering", ""); err != nil {
		t.Fatalf("Failed to create employee: %v", err)
	}

	t.Run("CheckInOnce", func(t *testing.T) {
		inserted, err := store.InsertCheckIn(ctx, "E001", "2026-03-02", "09:05:00", "normal", 0.8)
		if err != nil {
			t.Fatalf("Failed to insert check-in: %v", err)
		}
		if !inserted {
			t.Fatal("Expected first check-in to succeed")
		}

		inserted, err = store.InsertCheckIn(ctx, "E001", "2026-03-02", "09:30:00", "late", 0.8)
		if err != nil {
			t.Fatalf("Failed on duplicate check-in: %v", err)
		}
		if inserted {
			t.Error("Expected duplicate check-in to be declined")
		}

		rec, err := store.GetDay(ctx, "E001", "2026-03-02")
		if err != nil || rec == nil {
			t.Fatalf("Failed to get day row: %v", err)
		}
		if rec.CheckInTime != "09:05:00" {
			t.Errorf("Declined insert must not modify the row, got %s", rec.CheckInTime)
		}
	})

	t.Run("CheckOutOnce", func(t *testing.T) {
		updated, err := store.UpdateCheckOut(ctx, "E001", "2026-03-02", "18:01:00", "normal")
		if err != nil {
			t.Fatalf("Failed to update check-out: %v", err)
		}
		if !updated {
			t.Fatal("Expected check-out to succeed")
		}

		updated, err = store.UpdateCheckOut(ctx, "E001", "2026-03-02", "19:00:00", "normal")
		if err != nil {
			t.Fatalf("Failed on repeated check-out: %v", err)
		}
		if updated {
			t.Error("Expected repeated check-out to be declined")
		}

		updated, err = store.UpdateCheckOut(ctx, "E001", "2026-03-03", "18:00:00", "normal")
		if err != nil {
			t.Fatalf("Failed on check-out without check-in: %v", err)
		}
		if updated {
			t.Error("Expected check-out without check-in to be declined")
		}
	})

	t.Run("DayWithAbsent", func(t *testing.T) {
		if _, err := store.Create(ctx, "E002", "Bob", "Sales", ""); err != nil {
			t.Fatalf("Failed to create employee: %v", err)
		}

		records, err := store.DayWithAbsent(ctx, "2026-03-02")
		if err != nil {
			t.Fatalf("Failed to query day: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("Expected 2 rows, got %d", len(records))
		}

		byID := make(map[string]database.AttendanceRecord)
		for _, r := range records {
			byID[r.EmployeeID] = r
		}
		if byID["E001"].CheckInStatus != "normal" {
			t.Errorf("E001 status = %s, want normal", byID["E001"].CheckInStatus)
		}
		if byID["E002"].CheckInStatus != "absent" {
			t.Errorf("E002 status = %s, want absent", byID["E002"].CheckInStatus)
		}
	})

	t.Run("TodayStats", func(t *testing.T) {
		stats, err := store.TodayStats(ctx, "2026-03-02", "12:00:00")
		if err != nil {
			t.Fatalf("Failed to query stats: %v", err)
		}
		if stats.TotalEmployees != 2 || stats.CheckedIn != 1 || stats.CheckedOut != 1 {
			t.Errorf("unexpected stats: %+v", stats)
		}
		if stats.AttendanceRate != "50.0%" {
			t.Errorf("attendance rate = %s, want 50.0%%", stats.AttendanceRate)
		}
	})
}

func TestSettingsStore(t *testing.T) {
	store, cleanup := setupTestContainer(t)
	if store == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	settings, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if settings.WorkStartTime != "09:00" || settings.RecognitionThreshold != 0.5 {
		t.Errorf("unexpected seeded settings: %+v", settings)
	}

	start := "08:30"
	threshold := 0.65
	err = store.SaveSettings(ctx, database.SettingsUpdate{
		WorkStartTime:        &start,
		RecognitionThreshold: &threshold,
	})
	if err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}

	settings, err = store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("Failed to reload settings: %v", err)
	}
	if settings.WorkStartTime != "08:30" {
		t.Errorf("work start = %s, want 08:30", settings.WorkStartTime)
	}
	if settings.RecognitionThreshold != 0.65 {
		t.Errorf("recognition threshold = %v, want 0.65", settings.RecognitionThreshold)
	}
	if settings.WorkEndTime != "18:00" {
		t.Errorf("partial update must keep work end, got %s", settings.WorkEndTime)
	}
}
