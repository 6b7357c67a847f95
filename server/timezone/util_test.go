package timezone

import (
	"testing"
	"time"
)

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"", false},
		{"UTC", false},
		{"Asia/Tokyo", false},
		{"America/New_York", false},
		{"Not/AZone", true},
		{"EST5EDT5", true},
	}
	for _, tt := range tests {
		loc, err := ParseTimezone(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimezone(%q) expected error", tt.input)
			}
			if loc != UTC {
				t.Errorf("ParseTimezone(%q) should fall back to UTC", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimezone(%q) unexpected error: %v", tt.input, err)
		}
	}
}

func TestDateKeyIsTimezoneRelative(t *testing.T) {
	// 2024-01-15 02:30 UTC is still 2024-01-14 in New York.
	instant := time.Date(2024, 1, 15, 2, 30, 0, 0, time.UTC)
	ny, err := ParseTimezone("America/New_York")
	if err != nil {
		t.Fatalf("ParseTimezone: %v", err)
	}

	if got := DateKey(instant, time.UTC); got != "2024-01-15" {
		t.Errorf("DateKey UTC = %q, want 2024-01-15", got)
	}
	if got := DateKey(instant, ny); got != "2024-01-14" {
		t.Errorf("DateKey New York = %q, want 2024-01-14", got)
	}
}

func TestDateKeyNilLocationDefaultsToUTC(t *testing.T) {
	instant := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := DateKey(instant, nil); got != "2024-06-01" {
		t.Errorf("DateKey nil = %q, want 2024-06-01", got)
	}
}

func TestParseDateKeyRoundTrip(t *testing.T) {
	tokyo, _ := ParseTimezone("Asia/Tokyo")
	midnight, err := ParseDateKey("2024-03-10", tokyo)
	if err != nil {
		t.Fatalf("ParseDateKey: %v", err)
	}
	if midnight.Hour() != 0 || midnight.Location() != tokyo {
		t.Errorf("ParseDateKey = %v, want midnight in Asia/Tokyo", midnight)
	}
	if got := DateKey(midnight, tokyo); got != "2024-03-10" {
		t.Errorf("round trip = %q, want 2024-03-10", got)
	}
}

func TestParseDateKeyRejectsGarbage(t *testing.T) {
	if _, err := ParseDateKey("15/01/2024", nil); err == nil {
		t.Error("expected error for non-canonical date key")
	}
	if IsValidDateKey("2024-13-01") {
		t.Error("2024-13-01 should be invalid")
	}
}

func TestPreviousDateKeys(t *testing.T) {
	got := PreviousDateKeys("2024-03-01", 3)
	want := []string{"2024-02-29", "2024-02-28", "2024-02-27"}
	if len(got) != len(want) {
		t.Fatalf("PreviousDateKeys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PreviousDateKeys[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDayDiff(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2024-01-14", "2024-01-15", 1},
		{"2024-01-15", "2024-01-15", 0},
		{"2024-01-10", "2024-01-15", 5},
		{"2024-01-15", "2024-01-14", -1},
		{"2024-02-28", "2024-03-01", 2}, // leap year
	}
	for _, tt := range tests {
		if got := DayDiff(tt.a, tt.b); got != tt.want {
			t.Errorf("DayDiff(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestStartOfDay(t *testing.T) {
	ny, _ := ParseTimezone("America/New_York")
	instant := time.Date(2024, 1, 15, 2, 30, 0, 0, time.UTC) // Jan 14 evening in NY
	start := StartOfDay(instant, ny)
	if start.Hour() != 0 || start.Day() != 14 {
		t.Errorf("StartOfDay = %v, want Jan 14 midnight in New York", start)
	}
}
