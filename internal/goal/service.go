package goal

import (
	"context"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GoalStore persists the single active goal band.
type GoalStore interface {
	// LoadGoalBand returns nil, nil when no band has been saved.
	LoadGoalBand(ctx context.Context) (*model.GoalBand, error)
	SaveGoalBand(ctx context.Context, band model.GoalBand) error
}

// ExpenseAggregator derives spending totals for a reporting period.
type ExpenseAggregator interface {
	SumExpenses(ctx context.Context, period model.Period) (decimal.Decimal, error)
	ExpensesByCategory(ctx context.Context, period model.Period) ([]model.CategoryTotal, error)
}

// Service loads the band and spending total and evaluates them.
type Service struct {
	goals    GoalStore
	expenses ExpenseAggregator
	log      *zap.Logger
}

// NewService wires a Service. log may be nil.
func NewService(goals GoalStore, expenses ExpenseAggregator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{goals: goals, expenses: expenses, log: log}
}

// Status evaluates the stored band against spending for the period.
// Failures degrade to a result with model.StatusNone; they are logged, never returned.
func (s *Service) Status(ctx context.Context, period model.Period) model.StatusResult {
	band, err := s.goals.LoadGoalBand(ctx)
	if err != nil {
		s.log.Warn("load goal band failed", zap.Error(err))
		return model.StatusResult{Status: model.StatusNone}
	}
	if band == nil {
		return model.StatusResult{Status: model.StatusNone}
	}

	total, err := s.expenses.SumExpenses(ctx, period)
	if err != nil {
		s.log.Warn("sum expenses failed", zap.Error(err), zap.String("period", string(period)))
		return model.StatusResult{Status: model.StatusNone}
	}

	res := Evaluate(band, total)
	s.log.Debug("goal evaluated",
		zap.String("period", string(period)),
		zap.String("status", string(res.Status)),
		zap.String("remainder", res.Remainder.String()),
	)
	return res
}

// SetBand validates and persists a new band, replacing any previous one.
func (s *Service) SetBand(ctx context.Context, band model.GoalBand) error {
	if err := band.Validate(); err != nil {
		return err
	}
	return s.goals.SaveGoalBand(ctx, band)
}

// Band returns the stored band, or nil when none is set.
func (s *Service) Band(ctx context.Context) (*model.GoalBand, error) {
	return s.goals.LoadGoalBand(ctx)
}

// Breakdown returns category totals for the period.
func (s *Service) Breakdown(ctx context.Context, period model.Period) ([]model.CategoryTotal, error) {
	return s.expenses.ExpensesByCategory(ctx, period)
}

// Snapshot bundles a status evaluation with its breakdown for dashboards.
type Snapshot struct {
	At         time.Time
	Period     model.Period
	Result     model.StatusResult
	Categories []model.CategoryTotal
}

// Snapshot evaluates the period and loads its breakdown. A breakdown failure leaves Categories empty.
func (s *Service) Snapshot(ctx context.Context, period model.Period) Snapshot {
	snap := Snapshot{
		At:     time.Now(),
		Period: period,
		Result: s.Status(ctx, period),
	}
	cats, err := s.Breakdown(ctx, period)
	if err != nil {
		s.log.Warn("category breakdown failed", zap.Error(err))
		return snap
	}
	snap.Categories = cats
	return snap
}
