// Package services orchestrates the ledger store and the core aggregation
// engine into read-only views.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"conti/internal/core"
)

// recentTransactionLimit caps the dashboard's recent-transactions list.
const recentTransactionLimit = 5

const dateFormat = "2006-01-02"

// LedgerReader is the slice of the store the dashboard composer needs.
type LedgerReader interface {
	Accounts(ctx context.Context) ([]core.Account, error)
	Categories(ctx context.Context) ([]core.Category, error)
	Currencies(ctx context.Context) ([]core.Currency, error)
	Transactions(ctx context.Context) ([]core.Transaction, error)
}

type (
	DashboardSummary struct {
		TotalAssets       float64 `json:"total_assets"`
		TotalLiabilities  float64 `json:"total_liabilities"`
		TotalEquity       float64 `json:"total_equity"`
		TotalIncome       float64 `json:"total_income"`
		TotalExpenses     float64 `json:"total_expenses"`
		NetWorth          float64 `json:"net_worth"`
		NetIncome         float64 `json:"net_income"`
		TotalTransactions int     `json:"total_transactions"`
		TotalAccounts     int     `json:"total_accounts"`
	}

	AccountBalance struct {
		AccountID    int64       `json:"account_id"`
		Name         string      `json:"name"`
		Category     string      `json:"category"`
		Currency     string      `json:"currency"`
		Nature       core.Nature `json:"nature"`
		Term         core.Term   `json:"term"`
		Balance      float64     `json:"balance"`
		IsCreditCard bool        `json:"is_credit_card"`
	}

	RecentTransaction struct {
		ID           int64   `json:"id"`
		Description  string  `json:"description"`
		CurrencyName string  `json:"currency_name"`
		Date         string  `json:"date"`
		Amount       float64 `json:"amount"`
		Accounts     string  `json:"accounts"`
	}

	CreditCardDue struct {
		AccountID             int64   `json:"account_id"`
		Name                  string  `json:"name"`
		CurrentBalance        float64 `json:"current_balance"`
		CreditLimit           float64 `json:"credit_limit"`
		UtilizationPercentage float64 `json:"utilization_percentage"`
		DueDate               string  `json:"due_date"`
		DaysUntilDue          int     `json:"days_until_due"`
	}

	Dashboard struct {
		Summary            DashboardSummary    `json:"summary"`
		AccountBalances    []AccountBalance    `json:"account_balances"`
		RecentTransactions []RecentTransaction `json:"recent_transactions"`
		CreditCardDues     []CreditCardDue     `json:"credit_card_dues"`
	}
)

// DashboardService composes the consolidated dashboard view.
type DashboardService struct {
	reader LedgerReader
	now    func() time.Time
}

func NewDashboardService(reader LedgerReader) *DashboardService {
	return &DashboardService{reader: reader, now: time.Now}
}

// Compose builds the full dashboard. Empty sub-results degrade to empty
// lists and zero sums; only store failures propagate as errors.
func (s *DashboardService) Compose(ctx context.Context) (Dashboard, error) {
	accounts, err := s.reader.Accounts(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load accounts: %w", err)
	}
	categories, err := s.reader.Categories(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load categories: %w", err)
	}
	currencies, err := s.reader.Currencies(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load currencies: %w", err)
	}
	transactions, err := s.reader.Transactions(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load transactions: %w", err)
	}

	var lines []core.TransactionLine
	for _, t := range transactions {
		lines = append(lines, t.Lines...)
	}

	balances := core.AccountBalances(lines)
	summary := core.Summarize(accounts, categories, lines, balances)
	summary.TotalTransactions = len(transactions)
	summary.TotalAccounts = len(accounts)

	catNames := make(map[int64]string, len(categories))
	for _, c := range categories {
		catNames[c.ID] = c.Name
	}
	curNames := make(map[int64]string, len(currencies))
	for _, c := range currencies {
		curNames[c.ID] = c.Name
	}
	accountNames := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}

	d := Dashboard{
		Summary: DashboardSummary{
			TotalAssets:       summary.TotalAssets,
			TotalLiabilities:  summary.TotalLiabilities,
			TotalEquity:       summary.TotalEquity,
			TotalIncome:       summary.TotalIncome,
			TotalExpenses:     summary.TotalExpenses,
			NetWorth:          summary.NetWorth,
			NetIncome:         summary.NetIncome,
			TotalTransactions: summary.TotalTransactions,
			TotalAccounts:     summary.TotalAccounts,
		},
		AccountBalances:    make([]AccountBalance, 0, len(accounts)),
		RecentTransactions: recentTransactions(transactions, accountNames, curNames),
		CreditCardDues:     make([]CreditCardDue, 0),
	}

	today := s.now()
	for _, a := range accounts {
		d.AccountBalances = append(d.AccountBalances, AccountBalance{
			AccountID:    a.ID,
			Name:         a.Name,
			Category:     catNames[a.CategoryID],
			Currency:     currencyName(a.CurrencyID, curNames),
			Nature:       a.Nature,
			Term:         a.Term,
			Balance:      balances[a.ID],
			IsCreditCard: a.CreditCard != nil,
		})

		if a.CreditCard == nil {
			continue
		}
		balance := core.CardBalance(lines, a.ID)
		due, days := core.NextDueDate(a.CreditCard.DueDay, today)
		d.CreditCardDues = append(d.CreditCardDues, CreditCardDue{
			AccountID:             a.ID,
			Name:                  a.Name,
			CurrentBalance:        balance,
			CreditLimit:           a.CreditCard.CreditLimit,
			UtilizationPercentage: core.Utilization(balance, a.CreditCard.CreditLimit),
			DueDate:               due.Format(dateFormat),
			DaysUntilDue:          days,
		})
	}

	return d, nil
}

// recentTransactions returns at most recentTransactionLimit transactions,
// newest first. A transaction's date is the minimum line date; its amount is
// the total debit when positive, otherwise the total credit. Ties keep the
// incoming (insertion/id) order. Transactions without lines have no date and
// are skipped, as in the source listing query.
func recentTransactions(transactions []core.Transaction, accountNames, curNames map[int64]string) []RecentTransaction {
	recent := make([]RecentTransaction, 0, len(transactions))
	for _, t := range transactions {
		if len(t.Lines) == 0 {
			continue
		}

		date := t.Lines[0].Date
		var totalDebit, totalCredit float64
		var names []string
		seen := make(map[int64]bool, len(t.Lines))
		for _, l := range t.Lines {
			if l.Date.Before(date) {
				date = l.Date
			}
			if l.Debit != nil {
				totalDebit += *l.Debit
			}
			if l.Credit != nil {
				totalCredit += *l.Credit
			}
			if !seen[l.AccountID] {
				seen[l.AccountID] = true
				names = append(names, accountNames[l.AccountID])
			}
		}

		amount := totalDebit
		if totalDebit <= 0 {
			amount = totalCredit
		}

		recent = append(recent, RecentTransaction{
			ID:           t.ID,
			Description:  t.Description,
			CurrencyName: currencyName(t.CurrencyID, curNames),
			Date:         date.Format(dateFormat),
			Amount:       amount,
			Accounts:     strings.Join(names, ","),
		})
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Date > recent[j].Date
	})
	if len(recent) > recentTransactionLimit {
		recent = recent[:recentTransactionLimit]
	}
	return recent
}

func currencyName(id *int64, curNames map[int64]string) string {
	if id != nil {
		if name, ok := curNames[*id]; ok {
			return name
		}
	}
	return core.DefaultCurrencyName
}
