package storage

import (
	"context"
	"database/sql"
	"fmt"

	"conti/internal/core"
)

// TransactionSummary is the row shape of the transaction listing: one row
// per transaction with its earliest line date, signed amount and the
// accounts it touches.
type TransactionSummary struct {
	ID           int64   `json:"id"`
	Description  string  `json:"description"`
	CurrencyName string  `json:"currency_name"`
	Date         string  `json:"date"`
	Amount       float64 `json:"amount"`
	Accounts     string  `json:"accounts"`
}

// TransactionSummaries lists transactions newest first. Transactions
// without lines carry no date and are excluded by the join.
func (r *Repository) TransactionSummaries(ctx context.Context, skip, limit int) ([]TransactionSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			t.id,
			t.description,
			COALESCE(c.name, ?) AS currency_name,
			MIN(tl.date) AS date,
			COALESCE(SUM(CASE WHEN tl.debit IS NOT NULL THEN tl.debit ELSE -COALESCE(tl.credit, 0) END), 0) AS amount,
			COALESCE(GROUP_CONCAT(DISTINCT a.name), '') AS accounts
		FROM transactions t
		JOIN transaction_lines tl ON tl.transaction_id = t.id
		LEFT JOIN currencies c ON c.id = t.currency_id
		LEFT JOIN accounts a ON a.id = tl.account_id
		GROUP BY t.id, t.description, c.name
		ORDER BY date DESC, t.id
		LIMIT ? OFFSET ?`,
		core.DefaultCurrencyName, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list transaction summaries: %w", err)
	}
	defer rows.Close()

	var summaries []TransactionSummary
	for rows.Next() {
		var s TransactionSummary
		if err := rows.Scan(&s.ID, &s.Description, &s.CurrencyName, &s.Date, &s.Amount, &s.Accounts); err != nil {
			return nil, fmt.Errorf("scan transaction summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// CountTransactions returns the total number of transactions, independent
// of pagination.
func (r *Repository) CountTransactions(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// Transactions returns every transaction with its lines, ordered by id.
func (r *Repository) Transactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, currency_id FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	index := make(map[int64]int)
	for rows.Next() {
		var (
			t        core.Transaction
			currency sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Description, &currency); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.CurrencyID = intPtr(currency)
		index[t.ID] = len(transactions)
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := r.queryLines(ctx, `
		SELECT id, transaction_id, account_id, debit, credit, date, classification_id
		FROM transaction_lines ORDER BY transaction_id, id`)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		if i, ok := index[l.TransactionID]; ok {
			transactions[i].Lines = append(transactions[i].Lines, l)
		}
	}
	return transactions, nil
}

func (r *Repository) Transaction(ctx context.Context, id int64) (core.Transaction, error) {
	var (
		t        core.Transaction
		currency sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, description, currency_id FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.Description, &currency)
	if err == sql.ErrNoRows {
		return core.Transaction{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	t.CurrencyID = intPtr(currency)

	t.Lines, err = r.queryLines(ctx, `
		SELECT id, transaction_id, account_id, debit, credit, date, classification_id
		FROM transaction_lines WHERE transaction_id = ? ORDER BY id`, id)
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// TransactionLines returns the lines of one transaction (read-only view).
func (r *Repository) TransactionLines(ctx context.Context, id int64) ([]core.TransactionLine, error) {
	t, err := r.Transaction(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.Lines, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.checkTransactionRefs(ctx, tx, t); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (description, currency_id) VALUES (?, ?)`,
			t.Description, nullInt(t.CurrencyID))
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		t.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("transaction insert id: %w", err)
		}

		return insertLines(ctx, tx, t.ID, t.Lines)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return r.Transaction(ctx, t.ID)
}

// UpdateTransaction replaces the header and the full line set in a single
// database transaction, so concurrent readers never observe a half-applied
// update.
func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.checkTransactionRefs(ctx, tx, t); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET description = ?, currency_id = ? WHERE id = ?`,
			t.Description, nullInt(t.CurrencyID), t.ID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &core.NotFoundError{Entity: "transaction", ID: t.ID}
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transaction_lines WHERE transaction_id = ?`, t.ID); err != nil {
			return fmt.Errorf("delete old lines: %w", err)
		}
		return insertLines(ctx, tx, t.ID, t.Lines)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return r.Transaction(ctx, t.ID)
}

// DeleteTransaction removes the header and cascades to its lines.
func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transaction_lines WHERE transaction_id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction lines: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &core.NotFoundError{Entity: "transaction", ID: id}
		}
		return nil
	})
}

func (r *Repository) queryLines(ctx context.Context, query string, args ...any) ([]core.TransactionLine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transaction lines: %w", err)
	}
	defer rows.Close()

	var lines []core.TransactionLine
	for rows.Next() {
		var (
			l              core.TransactionLine
			debit, credit  sql.NullFloat64
			date           string
			classification sql.NullInt64
		)
		err := rows.Scan(&l.ID, &l.TransactionID, &l.AccountID, &debit, &credit, &date, &classification)
		if err != nil {
			return nil, fmt.Errorf("scan transaction line: %w", err)
		}
		l.Debit = floatPtr(debit)
		l.Credit = floatPtr(credit)
		l.ClassificationID = intPtr(classification)
		if l.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func insertLines(ctx context.Context, tx *sql.Tx, transactionID int64, lines []core.TransactionLine) error {
	for _, l := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transaction_lines (transaction_id, account_id, debit, credit, date, classification_id)
			VALUES (?, ?, ?, ?, ?, ?)`,
			transactionID, l.AccountID, nullFloat(l.Debit), nullFloat(l.Credit),
			l.Date.Format(dateFormat), nullInt(l.ClassificationID))
		if err != nil {
			return fmt.Errorf("insert transaction line: %w", err)
		}
	}
	return nil
}

// checkTransactionRefs verifies the currency, the line accounts and the
// line classifications all exist before writing anything.
func (r *Repository) checkTransactionRefs(ctx context.Context, tx *sql.Tx, t core.Transaction) error {
	if t.CurrencyID != nil {
		ok, err := rowExists(ctx, tx, `SELECT COUNT(*) FROM currencies WHERE id = ?`, *t.CurrencyID)
		if err != nil {
			return fmt.Errorf("check currency: %w", err)
		}
		if !ok {
			return &core.NotFoundError{Entity: "currency", ID: *t.CurrencyID}
		}
	}
	for _, l := range t.Lines {
		ok, err := rowExists(ctx, tx, `SELECT COUNT(*) FROM accounts WHERE id = ?`, l.AccountID)
		if err != nil {
			return fmt.Errorf("check line account: %w", err)
		}
		if !ok {
			return &core.NotFoundError{Entity: "account", ID: l.AccountID}
		}
		if l.ClassificationID != nil {
			ok, err := rowExists(ctx, tx, `SELECT COUNT(*) FROM classifications WHERE id = ?`, *l.ClassificationID)
			if err != nil {
				return fmt.Errorf("check line classification: %w", err)
			}
			if !ok {
				return &core.NotFoundError{Entity: "classification", ID: *l.ClassificationID}
			}
		}
	}
	return nil
}
