package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/schedule"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const obligationColumns = `id, kind, name, amount, due_at, recurrence, anchor_day, active, settled, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObligation(r rowScanner) (model.Obligation, error) {
	var (
		o                      model.Obligation
		kind, amount, due, rec string
		created, updated       string
		active, settled        int
	)
	if err := r.Scan(&o.ID, &kind, &o.Name, &amount, &due, &rec, &o.AnchorDay,
		&active, &settled, &created, &updated); err != nil {
		return model.Obligation{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return model.Obligation{}, fmt.Errorf("obligation %s amount: %w", o.ID, err)
	}
	o.Kind = model.Kind(kind)
	o.Amount = d
	o.DueAt = parseTime(due)
	o.Recurrence = model.Recurrence(rec)
	o.Active = active != 0
	o.Settled = settled != 0
	o.CreatedAt = parseTime(created)
	o.UpdatedAt = parseTime(updated)
	return o, nil
}

func (s *Store) queryObligations(ctx context.Context, query string, args ...any) ([]model.Obligation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpsertObligation validates and inserts or replaces an obligation.
// A missing ID is generated and written back to o, as are the timestamps and
// the anchor day.
func (s *Store) UpsertObligation(ctx context.Context, o *model.Obligation) error {
	if err := o.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	o.AnchorDay = o.EffectiveAnchorDay()

	_, err := s.db.ExecContext(ctx, `INSERT INTO obligations (`+obligationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			name = excluded.name,
			amount = excluded.amount,
			due_at = excluded.due_at,
			recurrence = excluded.recurrence,
			anchor_day = excluded.anchor_day,
			active = excluded.active,
			settled = excluded.settled,
			updated_at = excluded.updated_at`,
		o.ID, string(o.Kind), o.Name, o.Amount.String(), formatTime(o.DueAt), string(o.Recurrence),
		o.AnchorDay, boolInt(o.Active), boolInt(o.Settled), formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
	)
	return err
}

// GetObligation returns the obligation with the given ID.
func (s *Store) GetObligation(ctx context.Context, id string) (model.Obligation, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+obligationColumns+" FROM obligations WHERE id = ?", id)
	o, err := scanObligation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Obligation{}, fmt.Errorf("obligation %s: %w", id, ErrNotFound)
	}
	return o, err
}

// ListObligations returns obligations of the given kind ordered by due date.
// An empty kind lists every obligation.
func (s *Store) ListObligations(ctx context.Context, kind model.Kind) ([]model.Obligation, error) {
	if kind == "" {
		return s.queryObligations(ctx, "SELECT "+obligationColumns+" FROM obligations ORDER BY due_at, name")
	}
	return s.queryObligations(ctx,
		"SELECT "+obligationColumns+" FROM obligations WHERE kind = ? ORDER BY due_at, name", string(kind))
}

// ListActiveUnsettled returns the obligations a reminder scan considers.
func (s *Store) ListActiveUnsettled(ctx context.Context, kind model.Kind) ([]model.Obligation, error) {
	return s.queryObligations(ctx,
		"SELECT "+obligationColumns+" FROM obligations WHERE kind = ? AND active = 1 AND settled = 0 ORDER BY due_at",
		string(kind))
}

// DeleteObligation removes an obligation.
func (s *Store) DeleteObligation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM obligations WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

// MarkSettled sets or clears the settled flag. It does not move the due date.
func (s *Store) MarkSettled(ctx context.Context, id string, settled bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE obligations SET settled = ?, updated_at = ? WHERE id = ?",
		boolInt(settled), formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

// SetActive pauses or resumes an obligation.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE obligations SET active = ?, updated_at = ? WHERE id = ?",
		boolInt(active), formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

// Advance moves an obligation to its next due date and clears settled.
func (s *Store) Advance(ctx context.Context, id string) (model.Obligation, error) {
	return s.rewrite(ctx, id, schedule.Advance)
}

// AdvancePast advances an obligation at least once and then until its due
// date is not before now.
func (s *Store) AdvancePast(ctx context.Context, id string, now time.Time) (model.Obligation, error) {
	return s.rewrite(ctx, id, func(o model.Obligation) model.Obligation {
		return schedule.AdvancePast(schedule.Advance(o), now)
	})
}

func (s *Store) rewrite(ctx context.Context, id string, fn func(model.Obligation) model.Obligation) (model.Obligation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Obligation{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, "SELECT "+obligationColumns+" FROM obligations WHERE id = ?", id)
	o, err := scanObligation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Obligation{}, fmt.Errorf("obligation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Obligation{}, err
	}

	o = fn(o)
	o.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if _, err := tx.ExecContext(ctx,
		"UPDATE obligations SET due_at = ?, anchor_day = ?, settled = ?, updated_at = ? WHERE id = ?",
		formatTime(o.DueAt), o.AnchorDay, boolInt(o.Settled), formatTime(o.UpdatedAt), id); err != nil {
		return model.Obligation{}, err
	}
	return o, tx.Commit()
}
