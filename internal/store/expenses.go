package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func prepareExpense(e *model.Expense, now time.Time) error {
	if e.Amount.IsNegative() {
		return fmt.Errorf("%w: expense amount %s is negative", model.ErrInvalidAmount, e.Amount)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SpentAt.IsZero() {
		e.SpentAt = now
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.Category = strings.TrimSpace(e.Category)
	return nil
}

// AddExpense records a single expense. A missing ID or date is filled in.
func (s *Store) AddExpense(ctx context.Context, e *model.Expense) error {
	if err := prepareExpense(e, time.Now().UTC().Truncate(time.Second)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO expenses (id, amount, category, note, spent_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Amount.String(), e.Category, e.Note, formatTime(e.SpentAt), formatTime(e.CreatedAt))
	return err
}

// ImportExpenses stores a batch of expenses in one transaction. Rows whose ID
// already exists are skipped. It returns the number of rows inserted.
func (s *Store) ImportExpenses(ctx context.Context, expenses []model.Expense) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Truncate(time.Second)
	inserted := 0
	for i := range expenses {
		e := &expenses[i]
		if err := prepareExpense(e, now); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO expenses (id, amount, category, note, spent_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.Amount.String(), e.Category, e.Note, formatTime(e.SpentAt), formatTime(e.CreatedAt))
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, tx.Commit()
}

// ListExpenses returns expenses with since <= spent_at < until, oldest first.
// A zero bound is open.
func (s *Store) ListExpenses(ctx context.Context, since, until time.Time) ([]model.Expense, error) {
	query := "SELECT id, amount, category, note, spent_at, created_at FROM expenses WHERE 1=1"
	var args []any
	if !since.IsZero() {
		query += " AND spent_at >= ?"
		args = append(args, formatTime(since))
	}
	if !until.IsZero() {
		query += " AND spent_at < ?"
		args = append(args, formatTime(until))
	}
	query += " ORDER BY spent_at, created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Expense
	for rows.Next() {
		var (
			e                      model.Expense
			amount, spent, created string
		)
		if err := rows.Scan(&e.ID, &amount, &e.Category, &e.Note, &spent, &created); err != nil {
			return nil, err
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("expense %s amount: %w", e.ID, err)
		}
		e.SpentAt = parseTime(spent)
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteExpense removes an expense.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

// ExpenseCount returns the number of stored expenses.
func (s *Store) ExpenseCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expenses").Scan(&count)
	return count, err
}
