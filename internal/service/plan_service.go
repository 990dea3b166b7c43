package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	applog "github.com/freeeve/hexcommand/internal/logger"
	"github.com/freeeve/hexcommand/internal/metrics"
	"github.com/freeeve/hexcommand/internal/model"
	"github.com/freeeve/hexcommand/internal/planner"
	"github.com/freeeve/hexcommand/internal/repository"
)

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrOffMap       = errors.New("point is off the map")
)

// DefaultStrategy is used when a request names none.
const DefaultStrategy = "contour"

// PlanRequest asks for orders for one scenario snapshot.
type PlanRequest struct {
	Scenario *model.Scenario
	Strategy string
	// Friendly countries; the service default when empty.
	Friendly []string
}

// PlanResult is a finished run and its orders.
type PlanResult struct {
	Run    *model.PlanRun  `json:"run"`
	Orders []planner.Order `json:"orders"`
}

// PlanService runs strategies against scenario snapshots and hands the
// orders to its sinks.
type PlanService struct {
	repo        repository.PlanRepository
	cache       repository.PlanCache
	graphs      *GraphCache
	broadcaster Broadcaster
	sinks       []OrderSink
	params      planner.Params
	friendly    []string
}

// NewPlanService creates a PlanService. repo and cache may be nil; runs are
// then only reported through the sinks.
func NewPlanService(repo repository.PlanRepository, cache repository.PlanCache, graphs *GraphCache, params planner.Params, friendly []string, broadcaster Broadcaster, sinks ...OrderSink) *PlanService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &PlanService{
		repo:        repo,
		cache:       cache,
		graphs:      graphs,
		broadcaster: broadcaster,
		sinks:       sinks,
		params:      params,
		friendly:    friendly,
	}
}

// Planner builds a planner for sc on the shared map entry.
func (s *PlanService) Planner(ctx context.Context, sc *model.Scenario) (*planner.Planner, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	entry, err := s.graphs.Get(ctx, sc)
	if err != nil {
		return nil, err
	}
	tree, objectives, err := sc.BuildForces()
	if err != nil {
		return nil, err
	}
	return &planner.Planner{
		Network:    entry.Graph.Network,
		Graph:      entry.Graph,
		Tree:       tree,
		Objectives: objectives,
		Time:       sc.Time,
		Params:     s.params,
		Paths:      entry.Paths,
		Divide:     entry.Segments,
	}, nil
}

// Plan runs the requested strategy and emits its orders.
func (s *PlanService) Plan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	if req.Scenario == nil {
		return nil, fmt.Errorf("%w: missing scenario", model.ErrInvalidScenario)
	}
	if req.Strategy == "" {
		req.Strategy = DefaultStrategy
	}
	strategy, err := planner.StrategyByName(req.Strategy)
	if err != nil {
		return nil, err
	}
	friendly := req.Friendly
	if len(friendly) == 0 {
		friendly = s.friendly
	}

	p, err := s.Planner(ctx, req.Scenario)
	if err != nil {
		return nil, err
	}

	run := &model.PlanRun{
		ID:         uuid.NewString(),
		ScenarioID: req.Scenario.ID,
		Strategy:   strategy.Name(),
		Friendly:   slices.Clone(friendly),
		Status:     model.StatusRunning,
		CreatedAt:  time.Now().UTC(),
	}
	if s.repo != nil {
		if err := s.repo.CreateRun(ctx, run); err != nil {
			return nil, err
		}
	}
	logger := applog.ForRequest(ctx).With().Str("runId", run.ID).Str("scenarioId", run.ScenarioID).Str("strategy", run.Strategy).Logger()

	start := time.Now()
	outcome, err := strategy.Plan(ctx, p, friendly)
	metrics.PlanDuration.WithLabelValues(run.Strategy).Observe(time.Since(start).Seconds())
	if err != nil {
		s.finish(ctx, run, err)
		logger.Error().Err(err).Msg("Plan failed")
		return nil, fmt.Errorf("plan %s: %w", run.Strategy, err)
	}

	run.OrderCount = len(outcome.Orders)
	if a := outcome.Allocation; a != nil {
		run.Sweeps = a.Sweeps
		run.Converged = a.Converged
		run.Value = a.Value
		metrics.AllocSweeps.Observe(float64(a.Sweeps))
	} else {
		run.Converged = true
	}

	if err := s.emit(ctx, run, outcome.Orders); err != nil {
		s.finish(ctx, run, err)
		logger.Error().Err(err).Msg("Emitting orders failed")
		return nil, err
	}
	metrics.OrdersEmitted.Add(float64(len(outcome.Orders)))

	s.finish(ctx, run, nil)
	logger.Info().Int("orders", run.OrderCount).Int("sweeps", run.Sweeps).Dur("took", time.Since(start)).Msg("Plan completed")
	s.broadcaster.BroadcastScenarioEvent(run.ScenarioID, "plan_completed", run)
	return &PlanResult{Run: run, Orders: outcome.Orders}, nil
}

// emit hands orders to every sink concurrently. The first failure cancels
// the others.
func (s *PlanService) emit(ctx context.Context, run *model.PlanRun, orders []planner.Order) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, sink := range s.sinks {
		g.Go(func() error {
			if err := sink.EmitOrders(gctx, run, orders); err != nil {
				metrics.SinkErrors.WithLabelValues(sink.Name()).Inc()
				return fmt.Errorf("sink %s: %w", sink.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// finish records a run's final state. Bookkeeping failures are logged: the
// caller already has the outcome.
func (s *PlanService) finish(ctx context.Context, run *model.PlanRun, runErr error) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = model.StatusCompleted
	if runErr != nil {
		run.Status = model.StatusFailed
		run.Error = runErr.Error()
	}
	metrics.PlanRuns.WithLabelValues(run.Strategy, run.Status).Inc()

	// Record the outcome even when the request was canceled.
	ctx = context.WithoutCancel(ctx)
	if s.repo != nil {
		if err := s.repo.FinishRun(ctx, run); err != nil {
			log.Error().Err(err).Str("runId", run.ID).Msg("Failed to finish run")
		}
	}
	if s.cache != nil {
		if err := s.cache.SetRunSummary(ctx, run); err != nil {
			log.Warn().Err(err).Str("runId", run.ID).Msg("Failed to cache run summary")
		}
	}
}

// GetRun returns a run, preferring the cache.
func (s *PlanService) GetRun(ctx context.Context, id string) (*model.PlanRun, error) {
	if s.cache != nil {
		run, err := s.cache.GetRunSummary(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("runId", id).Msg("Run cache lookup failed")
		} else if run != nil {
			return run, nil
		}
	}
	if s.repo == nil {
		return nil, ErrPlanNotFound
	}
	run, err := s.repo.FindRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrPlanNotFound
	}
	return run, nil
}

// ListRuns returns a scenario's most recent runs.
func (s *PlanService) ListRuns(ctx context.Context, scenarioID string, limit int) ([]model.PlanRun, error) {
	if s.repo == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListRuns(ctx, scenarioID, limit)
}

// RunOrders returns the stored orders of a run.
func (s *PlanService) RunOrders(ctx context.Context, id string) ([]model.PlanOrder, error) {
	if s.repo == nil {
		return nil, ErrPlanNotFound
	}
	if _, err := s.GetRun(ctx, id); err != nil {
		return nil, err
	}
	orders, err := s.repo.OrdersByRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.PlanOrder{}
	}
	return orders, nil
}

// LatestOrders returns the orders of a scenario's most recent run.
func (s *PlanService) LatestOrders(ctx context.Context, scenarioID string) (json.RawMessage, error) {
	if s.cache == nil {
		return nil, ErrPlanNotFound
	}
	data, err := s.cache.GetLatestOrders(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrPlanNotFound
	}
	return data, nil
}
