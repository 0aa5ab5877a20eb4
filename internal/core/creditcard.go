package core

import (
	"math"
	"time"
)

// CardBalance returns credit minus debit over the account's lines. The sign
// convention is inverted relative to AccountBalances: a credit card's
// balance owed grows on credits.
func CardBalance(lines []TransactionLine, accountID int64) float64 {
	var balance float64
	for _, l := range lines {
		if l.AccountID != accountID {
			continue
		}
		balance += amount(l.Credit) - amount(l.Debit)
	}
	return balance
}

// NextDueDate projects the next occurrence of dueDay relative to today.
// The candidate is dueDay in today's month; when that falls on or before
// today it moves to the same day next month, rolling December over into
// January. An out-of-range dueDay, or one that does not exist in the target
// month (day 31 in a 30-day month), falls back to today with 0 days left.
func NextDueDate(dueDay int, today time.Time) (time.Time, int) {
	today = midnight(today)
	if dueDay < 1 || dueDay > 31 {
		return today, 0
	}

	due, ok := exactDate(today.Year(), today.Month(), dueDay)
	if !ok {
		return today, 0
	}
	if !due.After(today) {
		year, month := today.Year(), today.Month()+1
		if month > time.December {
			month = time.January
			year++
		}
		due, ok = exactDate(year, month, dueDay)
		if !ok {
			return today, 0
		}
	}

	days := int(due.Sub(today).Hours() / 24)
	return due, days
}

// Utilization returns the balance as a percentage of the credit limit,
// rounded to two decimals. A non-positive limit yields 0.
func Utilization(balance, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return math.Round(balance/limit*100*100) / 100
}

// exactDate builds the date only if day exists in that month; time.Date
// would silently normalise April 31 into May 1.
func exactDate(year int, month time.Month, day int) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
