package attendance

import (
	"testing"
	"time"

	"github.com/patrikzak/attendo/internal/database"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    Clock
		wantErr bool
	}{
		{"09:00", 9 * 60, false},
		{"18:30", 18*60 + 30, false},
		{"00:00", 0, false},
		{"23:59", 23*60 + 59, false},
		{"9am", 0, true},
		{"25:00", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestPolicyFromSettings(t *testing.T) {
	settings := &database.Settings{
		WorkStartTime:        "09:00",
		WorkEndTime:          "18:00",
		LateThreshold:        10,
		EarlyThreshold:       15,
		RecognitionThreshold: 0.5,
	}

	policy, err := PolicyFromSettings(settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy.WorkStart.String() != "09:00" {
		t.Errorf("work start = %s, want 09:00", policy.WorkStart)
	}
	if policy.LateTolerance != 10*time.Minute {
		t.Errorf("late tolerance = %v, want 10m", policy.LateTolerance)
	}
	if policy.EarlyTolerance != 15*time.Minute {
		t.Errorf("early tolerance = %v, want 15m", policy.EarlyTolerance)
	}

	settings.WorkStartTime = "not-a-time"
	if _, err := PolicyFromSettings(settings); err == nil {
		t.Error("expected error for invalid work start")
	}
}

func defaultPolicy() Policy {
	return Policy{
		WorkStart:            9 * 60,
		WorkEnd:              18 * 60,
		LateTolerance:        10 * time.Minute,
		EarlyTolerance:       10 * time.Minute,
		RecognitionThreshold: 0.5,
	}
}

func at(hour, min, sec int) time.Time {
	return time.Date(2026, time.March, 2, hour, min, sec, 0, time.UTC)
}

func TestCheckInStatus(t *testing.T) {
	policy := defaultPolicy()

	tests := []struct {
		name string
		now  time.Time
		want Status
	}{
		{"well before start", at(8, 30, 0), StatusNormal},
		{"exactly at start", at(9, 0, 0), StatusNormal},
		{"within tolerance", at(9, 5, 0), StatusNormal},
		{"exactly at deadline", at(9, 10, 0), StatusNormal},
		{"one second past deadline", at(9, 10, 1), StatusLate},
		{"well past deadline", at(11, 0, 0), StatusLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.CheckInStatus(tt.now); got != tt.want {
				t.Errorf("CheckInStatus(%s) = %s, want %s", tt.now.Format("15:04:05"), got, tt.want)
			}
		})
	}
}

func TestCheckOutStatus(t *testing.T) {
	policy := defaultPolicy()

	tests := []struct {
		name string
		now  time.Time
		want Status
	}{
		{"one second before threshold", at(17, 49, 59), StatusEarly},
		{"exactly at threshold", at(17, 50, 0), StatusNormal},
		{"at work end", at(18, 0, 0), StatusNormal},
		{"after work end", at(19, 0, 0), StatusNormal},
		{"midday", at(12, 0, 0), StatusEarly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.CheckOutStatus(tt.now); got != tt.want {
				t.Errorf("CheckOutStatus(%s) = %s, want %s", tt.now.Format("15:04:05"), got, tt.want)
			}
		})
	}
}
