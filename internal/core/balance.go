package core

import "strings"

// AccountBalances groups all transaction lines by account and returns
// balance = Σ(debit) - Σ(credit) per account id. Nil debit/credit fields
// count as zero. Accounts without lines are absent from the map; readers
// treat a missing key as balance 0.
func AccountBalances(lines []TransactionLine) map[int64]float64 {
	balances := make(map[int64]float64, len(lines))
	for _, l := range lines {
		balances[l.AccountID] += amount(l.Debit) - amount(l.Credit)
	}
	return balances
}

// Summary holds the aggregated totals of the ledger.
type Summary struct {
	TotalAssets       float64
	TotalLiabilities  float64
	TotalEquity       float64
	TotalIncome       float64
	TotalExpenses     float64
	NetWorth          float64
	NetIncome         float64
	TotalTransactions int
	TotalAccounts     int
}

// Summarize partitions account balances into asset/liability/equity buckets
// and sums income/expense from transaction lines, keying both on
// case-insensitive substrings of the account's category name. The bucket
// conditions are independent: a category named to match more than one
// pattern contributes to every bucket it matches, and one matching none
// contributes to none. TotalTransactions and TotalAccounts are left to the
// caller, which knows the entity counts.
func Summarize(accounts []Account, categories []Category, lines []TransactionLine, balances map[int64]float64) Summary {
	catNames := make(map[int64]string, len(categories))
	for _, c := range categories {
		catNames[c.ID] = strings.ToLower(c.Name)
	}
	accountCat := make(map[int64]string, len(accounts))

	var s Summary
	for _, a := range accounts {
		name := catNames[a.CategoryID]
		accountCat[a.ID] = name
		balance := balances[a.ID]

		if containsAny(name, "asset", "cash", "bank") {
			s.TotalAssets += balance
		}
		if containsAny(name, "liability", "payable", "loan") {
			s.TotalLiabilities += abs(balance)
		}
		if containsAny(name, "equity", "capital") {
			s.TotalEquity += balance
		}
	}

	for _, l := range lines {
		name := accountCat[l.AccountID]
		if containsAny(name, "income", "revenue") {
			s.TotalIncome += amount(l.Credit)
		}
		if containsAny(name, "expense", "cost") {
			s.TotalExpenses += amount(l.Debit)
		}
	}

	s.NetWorth = s.TotalAssets - s.TotalLiabilities
	s.NetIncome = s.TotalIncome - s.TotalExpenses
	return s
}

func containsAny(name string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(name, n) {
			return true
		}
	}
	return false
}

func amount(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
