package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/freeeve/hexcommand/internal/model"
	"github.com/freeeve/hexcommand/internal/planner"
	"github.com/freeeve/hexcommand/internal/repository"
)

// OrderSink receives the orders of a finished plan run.
type OrderSink interface {
	Name() string
	EmitOrders(ctx context.Context, run *model.PlanRun, orders []planner.Order) error
}

// PlanOrders converts orders to their stored form, numbered in emission order.
func PlanOrders(runID string, orders []planner.Order) []model.PlanOrder {
	out := make([]model.PlanOrder, len(orders))
	for i, o := range orders {
		out[i] = model.PlanOrder{
			RunID:     runID,
			Seq:       i,
			UnitID:    o.UnitID,
			OrderType: o.Type.String(),
			X:         o.X,
			Y:         o.Y,
			OrderTime: o.Time,
		}
	}
	return out
}

// RepoSink stores orders in a plan repository.
type RepoSink struct {
	Repo repository.PlanRepository
}

func (RepoSink) Name() string { return "repo" }

func (s RepoSink) EmitOrders(ctx context.Context, run *model.PlanRun, orders []planner.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return s.Repo.SaveOrders(ctx, PlanOrders(run.ID, orders))
}

// CacheSink keeps a scenario's latest orders in the plan cache.
type CacheSink struct {
	Cache repository.PlanCache
}

func (CacheSink) Name() string { return "cache" }

func (s CacheSink) EmitOrders(ctx context.Context, run *model.PlanRun, orders []planner.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal orders: %w", err)
	}
	return s.Cache.SetLatestOrders(ctx, run.ScenarioID, data)
}

// OrdersEvent is the payload of an "orders_emitted" event.
type OrdersEvent struct {
	RunID    string          `json:"run_id"`
	Strategy string          `json:"strategy"`
	Orders   []planner.Order `json:"orders"`
}

// BroadcastSink pushes orders to clients watching the scenario.
type BroadcastSink struct {
	Broadcaster Broadcaster
}

func (BroadcastSink) Name() string { return "broadcast" }

func (s BroadcastSink) EmitOrders(_ context.Context, run *model.PlanRun, orders []planner.Order) error {
	s.Broadcaster.BroadcastScenarioEvent(run.ScenarioID, "orders_emitted", OrdersEvent{
		RunID:    run.ID,
		Strategy: run.Strategy,
		Orders:   orders,
	})
	return nil
}

// WriterSink writes each run's orders to W as one JSON document.
type WriterSink struct {
	W      io.Writer
	Indent bool

	mu sync.Mutex
}

func (*WriterSink) Name() string { return "writer" }

func (s *WriterSink) EmitOrders(_ context.Context, run *model.PlanRun, orders []planner.Order) error {
	if orders == nil {
		orders = []planner.Order{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	enc := json.NewEncoder(s.W)
	if s.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(OrdersEvent{RunID: run.ID, Strategy: run.Strategy, Orders: orders})
}
