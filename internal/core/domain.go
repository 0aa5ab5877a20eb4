package core

import (
	"errors"
	"strings"
	"time"
)

const (
	NatureDebit  Nature = "debit"
	NatureCredit Nature = "credit"
	NatureBoth   Nature = "both"
)

const (
	TermShort     Term = "short"
	TermLong      Term = "long"
	TermUndefined Term = "undefined"
)

// DefaultCurrencyName is displayed for accounts and transactions
// without an explicit currency.
const DefaultCurrencyName = "USD"

type (
	// Nature indicates which side (debit/credit) increases an account.
	Nature string

	// Term is the time horizon of an account.
	Term string

	Currency struct {
		ID           int64
		Name         string
		ExchangeRate float64
	}

	// Category labels an account. Its accounting nature (asset, liability,
	// equity, income, expense) is inferred from the name, see Summarize.
	Category struct {
		ID   int64
		Name string
	}

	// Classification is a free-form tag attachable to accounts and to
	// individual transaction lines.
	Classification struct {
		ID   int64
		Name string
	}

	// CreditCard holds the optional credit-card metadata of an account.
	CreditCard struct {
		CreditLimit float64
		CloseDay    int
		DueDay      int
	}

	Account struct {
		ID         int64
		Name       string
		CategoryID int64
		CurrencyID *int64
		Nature     Nature
		Term       Term
		CreditCard *CreditCard

		// ClassificationIDs is populated only by detailed account queries.
		ClassificationIDs []int64
	}

	Transaction struct {
		ID          int64
		Description string
		CurrencyID  *int64
		Lines       []TransactionLine
	}

	// TransactionLine is one debit-or-credit entry against one account.
	// Exactly one of Debit/Credit is populated by convention; this is not
	// enforced, and nil is treated as zero everywhere.
	TransactionLine struct {
		ID               int64
		TransactionID    int64
		AccountID        int64
		Debit            *float64
		Credit           *float64
		Date             time.Time
		ClassificationID *int64
	}
)

var (
	ErrEmptyName          = errors.New("name is required")
	ErrEmptyDescription   = errors.New("description is required")
	ErrMissingCategory    = errors.New("category is required")
	ErrMissingAccount     = errors.New("account is required")
	ErrMissingDate        = errors.New("line date is required")
	ErrNegativeAmount     = errors.New("debit and credit must be non-negative")
	ErrInvalidNature      = errors.New("nature must be debit, credit or both")
	ErrInvalidTerm        = errors.New("term must be short, long or undefined")
	ErrInvalidRate        = errors.New("exchange rate must be positive")
	ErrInvalidCreditLimit = errors.New("credit limit must be positive")
	ErrInvalidDayOfMonth  = errors.New("day of month must be between 1 and 31")
)

func (n Nature) Valid() bool {
	switch n {
	case NatureDebit, NatureCredit, NatureBoth:
		return true
	}
	return false
}

func (t Term) Valid() bool {
	switch t {
	case TermShort, TermLong, TermUndefined:
		return true
	}
	return false
}

func (c Currency) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if c.ExchangeRate <= 0 {
		return &ValidationError{Field: "exchange_rate", Err: ErrInvalidRate}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	return nil
}

func (c Classification) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	return nil
}

func (cc CreditCard) Validate() error {
	if cc.CreditLimit <= 0 {
		return &ValidationError{Field: "credit_limit", Err: ErrInvalidCreditLimit}
	}
	if cc.CloseDay < 1 || cc.CloseDay > 31 {
		return &ValidationError{Field: "close_day", Err: ErrInvalidDayOfMonth}
	}
	if cc.DueDay < 1 || cc.DueDay > 31 {
		return &ValidationError{Field: "due_day", Err: ErrInvalidDayOfMonth}
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if a.CategoryID == 0 {
		return &ValidationError{Field: "category_id", Err: ErrMissingCategory}
	}
	if !a.Nature.Valid() {
		return &ValidationError{Field: "nature", Err: ErrInvalidNature}
	}
	if !a.Term.Valid() {
		return &ValidationError{Field: "term", Err: ErrInvalidTerm}
	}
	if a.CreditCard != nil {
		return a.CreditCard.Validate()
	}
	return nil
}

func (l TransactionLine) Validate() error {
	if l.AccountID == 0 {
		return &ValidationError{Field: "account_id", Err: ErrMissingAccount}
	}
	if l.Date.IsZero() {
		return &ValidationError{Field: "date", Err: ErrMissingDate}
	}
	if (l.Debit != nil && *l.Debit < 0) || (l.Credit != nil && *l.Credit < 0) {
		return &ValidationError{Field: "debit", Err: ErrNegativeAmount}
	}
	return nil
}

// Validate checks required fields on the header and every line. Balanced
// debits and credits are a soft invariant and deliberately not enforced.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	for _, l := range t.Lines {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}
