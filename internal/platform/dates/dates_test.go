package dates

import (
	"testing"
	"time"
)

func TestParseClock_Normalizes(t *testing.T) {
	got, err := ParseClock(" 8:05 ")
	if err != nil || got != "08:05" {
		t.Fatalf("ParseClock = %q, %v", got, err)
	}
	for _, bad := range []string{"", "25:00", "8am", "08:60"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestAt_UsesDayLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	day, err := Parse("2024-03-10", loc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	at, err := At(day, "20:30")
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	want := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	if !at.Equal(want) {
		t.Fatalf("At = %v, want %v", at.UTC(), want)
	}
}

func TestCompare_IgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	if Compare(a, b) != 0 {
		t.Fatalf("same civil day must compare equal")
	}
	if Compare(b, AddDays(b, 1)) >= 0 {
		t.Fatalf("expected earlier day to compare lower")
	}
	if Format(Day(a)) != "2024-01-01" || Day(a).Hour() != 0 {
		t.Fatalf("Day must truncate to midnight")
	}
}
