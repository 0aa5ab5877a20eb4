package storage

import (
	"context"
	"fmt"

	"conti/internal/core"
)

// Currencies, categories and classifications are flat lookup tables with
// the same CRUD shape. Deletes check for dependents first and come back
// with a ConflictError naming them.

func (r *Repository) Currencies(ctx context.Context) ([]core.Currency, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, exchange_rate FROM currencies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	var currencies []core.Currency
	for rows.Next() {
		var c core.Currency
		if err := rows.Scan(&c.ID, &c.Name, &c.ExchangeRate); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		currencies = append(currencies, c)
	}
	return currencies, rows.Err()
}

func (r *Repository) CreateCurrency(ctx context.Context, c core.Currency) (core.Currency, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO currencies (name, exchange_rate) VALUES (?, ?)`,
		c.Name, c.ExchangeRate)
	if err != nil {
		return core.Currency{}, fmt.Errorf("insert currency: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Currency{}, fmt.Errorf("currency insert id: %w", err)
	}
	return c, nil
}

func (r *Repository) UpdateCurrency(ctx context.Context, c core.Currency) (core.Currency, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE currencies SET name = ?, exchange_rate = ? WHERE id = ?`,
		c.Name, c.ExchangeRate, c.ID)
	if err != nil {
		return core.Currency{}, fmt.Errorf("update currency: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Currency{}, &core.NotFoundError{Entity: "currency", ID: c.ID}
	}
	return c, nil
}

func (r *Repository) DeleteCurrency(ctx context.Context, id int64) error {
	var accounts, transactions int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE currency_id = ?`, id).Scan(&accounts)
	if err != nil {
		return fmt.Errorf("count currency accounts: %w", err)
	}
	if accounts > 0 {
		return &core.ConflictError{Entity: "currency", ID: id, Dependents: "accounts", Count: accounts}
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE currency_id = ?`, id).Scan(&transactions)
	if err != nil {
		return fmt.Errorf("count currency transactions: %w", err)
	}
	if transactions > 0 {
		return &core.ConflictError{Entity: "currency", ID: id, Dependents: "transactions", Count: transactions}
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM currencies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete currency: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Entity: "currency", ID: id}
	}
	return nil
}

func (r *Repository) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, c.Name)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}
	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, c.Name, c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Category{}, &core.NotFoundError{Entity: "category", ID: c.ID}
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	var accounts int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE category_id = ?`, id).Scan(&accounts)
	if err != nil {
		return fmt.Errorf("count category accounts: %w", err)
	}
	if accounts > 0 {
		return &core.ConflictError{Entity: "category", ID: id, Dependents: "accounts", Count: accounts}
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Entity: "category", ID: id}
	}
	return nil
}

func (r *Repository) Classifications(ctx context.Context) ([]core.Classification, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM classifications ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	defer rows.Close()

	var classifications []core.Classification
	for rows.Next() {
		var c core.Classification
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan classification: %w", err)
		}
		classifications = append(classifications, c)
	}
	return classifications, rows.Err()
}

func (r *Repository) CreateClassification(ctx context.Context, c core.Classification) (core.Classification, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO classifications (name) VALUES (?)`, c.Name)
	if err != nil {
		return core.Classification{}, fmt.Errorf("insert classification: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Classification{}, fmt.Errorf("classification insert id: %w", err)
	}
	return c, nil
}

func (r *Repository) UpdateClassification(ctx context.Context, c core.Classification) (core.Classification, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE classifications SET name = ? WHERE id = ?`, c.Name, c.ID)
	if err != nil {
		return core.Classification{}, fmt.Errorf("update classification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Classification{}, &core.NotFoundError{Entity: "classification", ID: c.ID}
	}
	return c, nil
}

func (r *Repository) DeleteClassification(ctx context.Context, id int64) error {
	var links int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM account_classifications WHERE classification_id = ?`, id).Scan(&links)
	if err != nil {
		return fmt.Errorf("count classification links: %w", err)
	}
	if links > 0 {
		return &core.ConflictError{Entity: "classification", ID: id, Dependents: "account links", Count: links}
	}
	var lines int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transaction_lines WHERE classification_id = ?`, id).Scan(&lines)
	if err != nil {
		return fmt.Errorf("count classification lines: %w", err)
	}
	if lines > 0 {
		return &core.ConflictError{Entity: "classification", ID: id, Dependents: "transaction lines", Count: lines}
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM classifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete classification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Entity: "classification", ID: id}
	}
	return nil
}
