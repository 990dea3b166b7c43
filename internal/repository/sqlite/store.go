// Package sqlite stores plan runs in a local SQLite file for the CLI.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/freeeve/hexcommand/internal/model"
)

// Store wraps a SQLite connection.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a store at path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single writer keeps SQLite out of SQLITE_BUSY under concurrent sinks.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plan_runs (
		id TEXT PRIMARY KEY,
		scenario_id TEXT NOT NULL,
		strategy TEXT NOT NULL,
		friendly TEXT NOT NULL,
		status TEXT NOT NULL,
		order_count INTEGER NOT NULL DEFAULT 0,
		sweeps INTEGER NOT NULL DEFAULT 0,
		converged INTEGER NOT NULL DEFAULT 0,
		value REAL NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		finished_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS plan_orders (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		unit_id TEXT NOT NULL,
		order_type TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		order_time INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_scenario ON plan_runs(scenario_id, created_at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Times are stored as Unix milliseconds.
type runRow struct {
	ID         string        `db:"id"`
	ScenarioID string        `db:"scenario_id"`
	Strategy   string        `db:"strategy"`
	Friendly   string        `db:"friendly"`
	Status     string        `db:"status"`
	OrderCount int           `db:"order_count"`
	Sweeps     int           `db:"sweeps"`
	Converged  bool          `db:"converged"`
	Value      float64       `db:"value"`
	Error      string        `db:"error"`
	CreatedAt  int64         `db:"created_at"`
	FinishedAt sql.NullInt64 `db:"finished_at"`
}

func (r runRow) run() model.PlanRun {
	run := model.PlanRun{
		ID:         r.ID,
		ScenarioID: r.ScenarioID,
		Strategy:   r.Strategy,
		Status:     r.Status,
		OrderCount: r.OrderCount,
		Sweeps:     r.Sweeps,
		Converged:  r.Converged,
		Value:      r.Value,
		Error:      r.Error,
		CreatedAt:  time.UnixMilli(r.CreatedAt).UTC(),
	}
	if r.Friendly != "" {
		run.Friendly = strings.Split(r.Friendly, ",")
	}
	if r.FinishedAt.Valid {
		t := time.UnixMilli(r.FinishedAt.Int64).UTC()
		run.FinishedAt = &t
	}
	return run
}

func millis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

// CreateRun inserts a run in its initial state.
func (s *Store) CreateRun(ctx context.Context, run *model.PlanRun) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO plan_runs (id, scenario_id, strategy, friendly, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.ScenarioID, run.Strategy, strings.Join(run.Friendly, ","), run.Status, run.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("create plan run: %w", err)
	}
	return nil
}

// FinishRun records a run's outcome.
func (s *Store) FinishRun(ctx context.Context, run *model.PlanRun) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE plan_runs
		 SET status = ?, order_count = ?, sweeps = ?, converged = ?, value = ?, error = ?, finished_at = ?
		 WHERE id = ?`,
		run.Status, run.OrderCount, run.Sweeps, run.Converged, run.Value, run.Error, millis(run.FinishedAt), run.ID)
	if err != nil {
		return fmt.Errorf("finish plan run: %w", err)
	}
	return nil
}

// FindRun returns a run by ID, or nil if there is none.
func (s *Store) FindRun(ctx context.Context, id string) (*model.PlanRun, error) {
	var row runRow
	err := s.conn.GetContext(ctx, &row, "SELECT * FROM plan_runs WHERE id = ?", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find plan run: %w", err)
	}
	run := row.run()
	return &run, nil
}

// ListRuns returns a scenario's runs, newest first.
func (s *Store) ListRuns(ctx context.Context, scenarioID string, limit int) ([]model.PlanRun, error) {
	var rows []runRow
	err := s.conn.SelectContext(ctx, &rows,
		"SELECT * FROM plan_runs WHERE scenario_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?",
		scenarioID, limit)
	if err != nil {
		return nil, fmt.Errorf("list plan runs: %w", err)
	}
	runs := make([]model.PlanRun, len(rows))
	for i, r := range rows {
		runs[i] = r.run()
	}
	return runs, nil
}

type orderRow struct {
	RunID     string `db:"run_id"`
	Seq       int    `db:"seq"`
	UnitID    string `db:"unit_id"`
	OrderType string `db:"order_type"`
	X         int    `db:"x"`
	Y         int    `db:"y"`
	OrderTime int64  `db:"order_time"`
}

// SaveOrders inserts a batch of orders in one transaction.
func (s *Store) SaveOrders(ctx context.Context, orders []model.PlanOrder) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, o := range orders {
		row := orderRow{o.RunID, o.Seq, o.UnitID, o.OrderType, o.X, o.Y, o.OrderTime.UnixMilli()}
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO plan_orders (run_id, seq, unit_id, order_type, x, y, order_time)
			 VALUES (:run_id, :seq, :unit_id, :order_type, :x, :y, :order_time)`, row)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
	}
	return tx.Commit()
}

// OrdersByRun returns a run's orders in emission order.
func (s *Store) OrdersByRun(ctx context.Context, runID string) ([]model.PlanOrder, error) {
	var rows []orderRow
	err := s.conn.SelectContext(ctx, &rows, "SELECT * FROM plan_orders WHERE run_id = ? ORDER BY seq", runID)
	if err != nil {
		return nil, fmt.Errorf("orders by run: %w", err)
	}
	orders := make([]model.PlanOrder, len(rows))
	for i, r := range rows {
		orders[i] = model.PlanOrder{
			RunID:     r.RunID,
			Seq:       r.Seq,
			UnitID:    r.UnitID,
			OrderType: r.OrderType,
			X:         r.X,
			Y:         r.Y,
			OrderTime: time.UnixMilli(r.OrderTime).UTC(),
		}
	}
	return orders, nil
}
