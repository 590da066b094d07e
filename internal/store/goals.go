package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/shopspring/decimal"
)

// LoadGoalBand returns the saved band, or nil when none has been saved.
func (s *Store) LoadGoalBand(ctx context.Context) (*model.GoalBand, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM settings WHERE key IN (?, ?, ?)",
		keyGoalMin, keyGoalMax, keyGoalIncome)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	values := make(map[string]decimal.Decimal, 3)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", key, err)
		}
		values[key] = d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(values) < 3 {
		return nil, nil
	}

	return &model.GoalBand{
		MinGoal:       values[keyGoalMin],
		MaxGoal:       values[keyGoalMax],
		MonthlyIncome: values[keyGoalIncome],
	}, nil
}

// SaveGoalBand replaces the saved band. All three fields are written in one transaction.
func (s *Store) SaveGoalBand(ctx context.Context, band model.GoalBand) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now())
	for key, v := range map[string]decimal.Decimal{
		keyGoalMin:    band.MinGoal,
		keyGoalMax:    band.MaxGoal,
		keyGoalIncome: band.MonthlyIncome,
	} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, v.String(), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ClearGoalBand removes the saved band.
func (s *Store) ClearGoalBand(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key IN (?, ?, ?)",
		keyGoalMin, keyGoalMax, keyGoalIncome)
	return err
}

// GoalUpdatedAt returns when the band was last saved, or the zero time.
func (s *Store) GoalUpdatedAt(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT updated_at FROM settings WHERE key = ?", keyGoalMax).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return parseTime(raw), nil
}
