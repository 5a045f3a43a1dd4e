package domain

import (
	"testing"
	"time"
)

func TestNextStreak(t *testing.T) {
	today := time.Date(2024, 11, 22, 15, 4, 5, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	twoDaysAgo := today.AddDate(0, 0, -2)
	tomorrow := today.AddDate(0, 0, 1)

	cases := []struct {
		name    string
		current int
		last    *time.Time
		want    int
	}{
		{"first activity", 0, nil, 1},
		{"consecutive day extends", 5, &yesterday, 6},
		{"same day unchanged", 5, &today, 5},
		{"gap resets", 5, &twoDaysAgo, 1},
		{"clock anomaly resets", 5, &tomorrow, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextStreak(tc.current, tc.last, today); got != tc.want {
				t.Fatalf("NextStreak(%d, %v, today) = %d, want %d", tc.current, tc.last, got, tc.want)
			}
		})
	}
}

func TestNextStreakIgnoresTimeOfDay(t *testing.T) {
	lateYesterday := time.Date(2024, 11, 21, 23, 59, 0, 0, time.UTC)
	earlyToday := time.Date(2024, 11, 22, 0, 1, 0, 0, time.UTC)
	// Two minutes apart on the clock, but a calendar-day boundary was crossed.
	if got := NextStreak(3, &lateYesterday, earlyToday); got != 4 {
		t.Fatalf("expected streak 4 across midnight, got %d", got)
	}
}

func TestMidnight(t *testing.T) {
	at := time.Date(2024, 11, 22, 18, 30, 12, 99, time.UTC)
	got := Midnight(at)
	want := time.Date(2024, 11, 22, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Midnight(%v) = %v, want %v", at, got, want)
	}
}

func TestAccuracy(t *testing.T) {
	if got := Accuracy(7, 10); got != 0.7 {
		t.Fatalf("Accuracy(7,10) = %v", got)
	}
	if got := Accuracy(0, 0); got != 0 {
		t.Fatalf("Accuracy(0,0) = %v, want 0", got)
	}
}
