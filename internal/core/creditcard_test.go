package core

import (
	"testing"
	"time"
)

func TestCardBalance(t *testing.T) {
	lines := []TransactionLine{
		line(7, nil, f(300)), // purchase on the card
		line(7, f(100), nil), // payment
		line(8, f(999), nil), // other account, ignored
	}

	if got := CardBalance(lines, 7); got != 200 {
		t.Errorf("CardBalance = %v, want 200", got)
	}
	if got := CardBalance(lines, 42); got != 0 {
		t.Errorf("CardBalance for account without lines = %v, want 0", got)
	}
}

func TestNextDueDate(t *testing.T) {
	tests := []struct {
		name     string
		dueDay   int
		today    time.Time
		wantDate string
		wantDays int
	}{
		{
			name:     "due day already passed rolls to next month",
			dueDay:   15,
			today:    time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
			wantDate: "2024-07-15",
			wantDays: 25,
		},
		{
			name:     "due day ahead in current month",
			dueDay:   15,
			today:    time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantDate: "2024-06-15",
			wantDays: 5,
		},
		{
			name:     "due day equal to today rolls to next month",
			dueDay:   15,
			today:    time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
			wantDate: "2024-07-15",
			wantDays: 30,
		},
		{
			name:     "december rolls over into january",
			dueDay:   5,
			today:    time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC),
			wantDate: "2025-01-05",
			wantDays: 26,
		},
		{
			name:     "day 31 in a 30-day month falls back to today",
			dueDay:   31,
			today:    time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC),
			wantDate: "2024-04-10",
			wantDays: 0,
		},
		{
			name:     "day out of range falls back to today",
			dueDay:   0,
			today:    time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantDate: "2024-06-10",
			wantDays: 0,
		},
		{
			name:     "time of day does not affect whole-day distance",
			dueDay:   15,
			today:    time.Date(2024, 6, 10, 23, 45, 0, 0, time.UTC),
			wantDate: "2024-06-15",
			wantDays: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due, days := NextDueDate(tt.dueDay, tt.today)
			if got := due.Format("2006-01-02"); got != tt.wantDate {
				t.Errorf("NextDueDate() date = %s, want %s", got, tt.wantDate)
			}
			if days != tt.wantDays {
				t.Errorf("NextDueDate() days = %d, want %d", days, tt.wantDays)
			}
		})
	}
}

func TestUtilization(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		limit   float64
		want    float64
	}{
		{"half used", 500, 1000, 50},
		{"rounded to two decimals", 333.333, 1000, 33.33},
		{"over limit", 1200, 1000, 120},
		{"zero limit always zero", 500, 0, 0},
		{"negative limit always zero", 500, -100, 0},
		{"zero balance", 0, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Utilization(tt.balance, tt.limit); got != tt.want {
				t.Errorf("Utilization(%v, %v) = %v, want %v", tt.balance, tt.limit, got, tt.want)
			}
		})
	}
}
