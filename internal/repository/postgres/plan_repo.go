package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/freeeve/hexcommand/internal/model"
)

// PlanRepo handles plan_runs and plan_orders database operations.
type PlanRepo struct {
	db *sql.DB
}

// NewPlanRepo creates a PlanRepo.
func NewPlanRepo(db *sql.DB) *PlanRepo {
	return &PlanRepo{db: db}
}

// CreateRun inserts a run in its initial state.
func (r *PlanRepo) CreateRun(ctx context.Context, run *model.PlanRun) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO plan_runs (id, scenario_id, strategy, friendly, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.ScenarioID, run.Strategy, pq.Array(run.Friendly), run.Status, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create plan run: %w", err)
	}
	return nil
}

// FinishRun records a run's outcome.
func (r *PlanRepo) FinishRun(ctx context.Context, run *model.PlanRun) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE plan_runs
		 SET status = $2, order_count = $3, sweeps = $4, converged = $5, value = $6, error = $7, finished_at = $8
		 WHERE id = $1`,
		run.ID, run.Status, run.OrderCount, run.Sweeps, run.Converged, run.Value, nullStr(run.Error), run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("finish plan run: %w", err)
	}
	return nil
}

const runColumns = `id, scenario_id, strategy, friendly, status, order_count, sweeps, converged, value, error, created_at, finished_at`

func scanRun(row interface{ Scan(...any) error }) (*model.PlanRun, error) {
	var run model.PlanRun
	var errText sql.NullString
	err := row.Scan(&run.ID, &run.ScenarioID, &run.Strategy, pq.Array(&run.Friendly), &run.Status,
		&run.OrderCount, &run.Sweeps, &run.Converged, &run.Value, &errText, &run.CreatedAt, &run.FinishedAt)
	if err != nil {
		return nil, err
	}
	run.Error = errText.String
	return &run, nil
}

// FindRun returns a run by ID, or nil if there is none.
func (r *PlanRepo) FindRun(ctx context.Context, id string) (*model.PlanRun, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM plan_runs WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find plan run: %w", err)
	}
	return run, nil
}

// ListRuns returns a scenario's runs, newest first.
func (r *PlanRepo) ListRuns(ctx context.Context, scenarioID string, limit int) ([]model.PlanRun, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM plan_runs WHERE scenario_id = $1
		 ORDER BY created_at DESC LIMIT $2`, scenarioID, limit)
	if err != nil {
		return nil, fmt.Errorf("list plan runs: %w", err)
	}
	defer rows.Close()

	var runs []model.PlanRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// SaveOrders inserts a batch of orders in one transaction.
func (r *PlanRepo) SaveOrders(ctx context.Context, orders []model.PlanOrder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO plan_orders (run_id, seq, unit_id, order_type, x, y, order_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("prepare insert order: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		if _, err := stmt.ExecContext(ctx, o.RunID, o.Seq, o.UnitID, o.OrderType, o.X, o.Y, o.OrderTime); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
	}
	return tx.Commit()
}

// OrdersByRun returns a run's orders in emission order.
func (r *PlanRepo) OrdersByRun(ctx context.Context, runID string) ([]model.PlanOrder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id, seq, unit_id, order_type, x, y, order_time
		 FROM plan_orders WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("orders by run: %w", err)
	}
	defer rows.Close()

	var orders []model.PlanOrder
	for rows.Next() {
		var o model.PlanOrder
		if err := rows.Scan(&o.RunID, &o.Seq, &o.UnitID, &o.OrderType, &o.X, &o.Y, &o.OrderTime); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
