package storage

import (
	"context"
	"database/sql"
	"fmt"

	"conti/internal/core"
)

const accountColumns = `a.id, a.name, a.category_id, a.currency_id, a.nature, a.term,
	cc.credit_limit, cc.close_day, cc.due_day`

func scanAccount(rows *sql.Rows) (core.Account, error) {
	var (
		a        core.Account
		currency sql.NullInt64
		limit    sql.NullFloat64
		closeDay sql.NullInt64
		dueDay   sql.NullInt64
	)
	err := rows.Scan(&a.ID, &a.Name, &a.CategoryID, &currency, &a.Nature, &a.Term,
		&limit, &closeDay, &dueDay)
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.CurrencyID = intPtr(currency)
	if limit.Valid {
		a.CreditCard = &core.CreditCard{
			CreditLimit: limit.Float64,
			CloseDay:    int(closeDay.Int64),
			DueDay:      int(dueDay.Int64),
		}
	}
	return a, nil
}

func (r *Repository) Accounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a
		LEFT JOIN credit_cards cc ON cc.account_id = a.id
		ORDER BY a.id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// AccountsDetailed adds the linked classification ids to every account.
func (r *Repository) AccountsDetailed(ctx context.Context) ([]core.Account, error) {
	accounts, err := r.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT account_id, classification_id
		FROM account_classifications
		ORDER BY account_id, classification_id`)
	if err != nil {
		return nil, fmt.Errorf("list account classifications: %w", err)
	}
	defer rows.Close()

	links := make(map[int64][]int64)
	for rows.Next() {
		var accountID, classificationID int64
		if err := rows.Scan(&accountID, &classificationID); err != nil {
			return nil, fmt.Errorf("scan account classification: %w", err)
		}
		links[accountID] = append(links[accountID], classificationID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range accounts {
		accounts[i].ClassificationIDs = links[accounts[i].ID]
	}
	return accounts, nil
}

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.checkAccountRefs(ctx, tx, a); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (name, category_id, currency_id, nature, term)
			VALUES (?, ?, ?, ?, ?)`,
			a.Name, a.CategoryID, nullInt(a.CurrencyID), a.Nature, a.Term)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		a.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("account insert id: %w", err)
		}

		return insertCreditCard(ctx, tx, a.ID, a.CreditCard)
	})
	if err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func (r *Repository) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.checkAccountRefs(ctx, tx, a); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE accounts SET name = ?, category_id = ?, currency_id = ?, nature = ?, term = ?
			WHERE id = ?`,
			a.Name, a.CategoryID, nullInt(a.CurrencyID), a.Nature, a.Term, a.ID)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &core.NotFoundError{Entity: "account", ID: a.ID}
		}

		// Replace the credit-card metadata wholesale: the payload either
		// carries it or clears it.
		if _, err := tx.ExecContext(ctx, `DELETE FROM credit_cards WHERE account_id = ?`, a.ID); err != nil {
			return fmt.Errorf("clear credit card: %w", err)
		}
		return insertCreditCard(ctx, tx, a.ID, a.CreditCard)
	})
	if err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var lines int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transaction_lines WHERE account_id = ?`, id).Scan(&lines)
		if err != nil {
			return fmt.Errorf("count account lines: %w", err)
		}
		if lines > 0 {
			return &core.ConflictError{Entity: "account", ID: id, Dependents: "transaction lines", Count: lines}
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM account_classifications WHERE account_id = ?`, id); err != nil {
			return fmt.Errorf("delete account links: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM credit_cards WHERE account_id = ?`, id); err != nil {
			return fmt.Errorf("delete account credit card: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &core.NotFoundError{Entity: "account", ID: id}
		}
		return nil
	})
}

func (r *Repository) LinkClassification(ctx context.Context, accountID, classificationID int64) error {
	ok, err := rowExists(ctx, r.db, `SELECT COUNT(*) FROM accounts WHERE id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if !ok {
		return &core.NotFoundError{Entity: "account", ID: accountID}
	}
	ok, err = rowExists(ctx, r.db, `SELECT COUNT(*) FROM classifications WHERE id = ?`, classificationID)
	if err != nil {
		return fmt.Errorf("check classification: %w", err)
	}
	if !ok {
		return &core.NotFoundError{Entity: "classification", ID: classificationID}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO account_classifications (account_id, classification_id)
		VALUES (?, ?)`, accountID, classificationID)
	if err != nil {
		return fmt.Errorf("link classification: %w", err)
	}
	return nil
}

func (r *Repository) UnlinkClassification(ctx context.Context, accountID, classificationID int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM account_classifications
		WHERE account_id = ? AND classification_id = ?`, accountID, classificationID)
	if err != nil {
		return fmt.Errorf("unlink classification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Entity: "classification link", ID: classificationID}
	}
	return nil
}

// checkAccountRefs verifies that the referenced category and currency exist
// so dangling ids surface as NotFound instead of an opaque constraint error.
func (r *Repository) checkAccountRefs(ctx context.Context, tx *sql.Tx, a core.Account) error {
	ok, err := rowExists(ctx, tx, `SELECT COUNT(*) FROM categories WHERE id = ?`, a.CategoryID)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !ok {
		return &core.NotFoundError{Entity: "category", ID: a.CategoryID}
	}
	if a.CurrencyID != nil {
		ok, err := rowExists(ctx, tx, `SELECT COUNT(*) FROM currencies WHERE id = ?`, *a.CurrencyID)
		if err != nil {
			return fmt.Errorf("check currency: %w", err)
		}
		if !ok {
			return &core.NotFoundError{Entity: "currency", ID: *a.CurrencyID}
		}
	}
	return nil
}

func insertCreditCard(ctx context.Context, tx *sql.Tx, accountID int64, cc *core.CreditCard) error {
	if cc == nil {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO credit_cards (account_id, credit_limit, close_day, due_day)
		VALUES (?, ?, ?, ?)`,
		accountID, cc.CreditLimit, cc.CloseDay, cc.DueDay)
	if err != nil {
		return fmt.Errorf("insert credit card: %w", err)
	}
	return nil
}
