package repository

import (
	"context"
	"encoding/json"

	"github.com/freeeve/hexcommand/internal/model"
)

// PlanRepository stores plan runs and their orders. Implemented by
// Postgres for the server and SQLite for the CLI.
type PlanRepository interface {
	CreateRun(ctx context.Context, run *model.PlanRun) error
	FinishRun(ctx context.Context, run *model.PlanRun) error
	FindRun(ctx context.Context, id string) (*model.PlanRun, error)
	ListRuns(ctx context.Context, scenarioID string, limit int) ([]model.PlanRun, error)
	SaveOrders(ctx context.Context, orders []model.PlanOrder) error
	OrdersByRun(ctx context.Context, runID string) ([]model.PlanOrder, error)
}

// PlanCache holds the latest results for fast reads (Redis).
type PlanCache interface {
	SetLatestOrders(ctx context.Context, scenarioID string, orders json.RawMessage) error
	GetLatestOrders(ctx context.Context, scenarioID string) (json.RawMessage, error)
	SetRunSummary(ctx context.Context, run *model.PlanRun) error
	GetRunSummary(ctx context.Context, id string) (*model.PlanRun, error)
	SetGraphSummary(ctx context.Context, s *model.GraphSummary) error
	GetGraphSummary(ctx context.Context, fingerprint string) (*model.GraphSummary, error)
}
