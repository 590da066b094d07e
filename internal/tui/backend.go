package tui

import (
	"context"

	"github.com/pocketsafe/pocketsafe/internal/goal"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/pipeline"
	"github.com/pocketsafe/pocketsafe/internal/store"
)

// StoreBackend serves the dashboard from the sqlite store.
type StoreBackend struct {
	*store.Store
	Goals    *goal.Service
	Spending *pipeline.Aggregator
}

// NewStoreBackend wires the goal service and aggregator over st.
func NewStoreBackend(st *store.Store, goals *goal.Service, spending *pipeline.Aggregator) StoreBackend {
	return StoreBackend{Store: st, Goals: goals, Spending: spending}
}

func (b StoreBackend) Snapshot(ctx context.Context, period model.Period) goal.Snapshot {
	return b.Goals.Snapshot(ctx, period)
}

func (b StoreBackend) DailySpending(ctx context.Context, period model.Period) ([]pipeline.DailySpend, error) {
	return b.Spending.DailySpending(ctx, period)
}

func (b StoreBackend) Band(ctx context.Context) (*model.GoalBand, error) {
	return b.Goals.Band(ctx)
}

func (b StoreBackend) SetBand(ctx context.Context, band model.GoalBand) error {
	return b.Goals.SetBand(ctx, band)
}
