//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/freeeve/hexcommand/internal/model"
	"github.com/freeeve/hexcommand/internal/testutil"
)

var testDB *sql.DB

func setup(t *testing.T) {
	t.Helper()
	testDB = testutil.DB(t)
}

func createTestRun(t *testing.T, repo *PlanRepo, scenarioID string, at time.Time) *model.PlanRun {
	t.Helper()
	run := testutil.Run(scenarioID, "contour", at)
	if err := repo.CreateRun(context.Background(), run); err != nil {
		t.Fatalf("create run: %v", err)
	}
	return run
}

func TestRunCreateAndFind(t *testing.T) {
	setup(t)
	repo := NewPlanRepo(testDB)
	run := createTestRun(t, repo, "gettysburg", time.Now().UTC().Truncate(time.Second))

	got, err := repo.FindRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil {
		t.Fatal("expected run")
	}
	if got.Status != model.StatusRunning || got.Strategy != "contour" {
		t.Fatalf("unexpected run: %+v", got)
	}
	if len(got.Friendly) != 1 || got.Friendly[0] != "union" {
		t.Fatalf("friendly round-trip failed: %v", got.Friendly)
	}
	if got.FinishedAt != nil {
		t.Fatal("expected nil finished_at")
	}
}

func TestRunFindMissing(t *testing.T) {
	setup(t)
	repo := NewPlanRepo(testDB)

	got, err := repo.FindRun(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestRunFinish(t *testing.T) {
	setup(t)
	repo := NewPlanRepo(testDB)
	run := createTestRun(t, repo, "gettysburg", time.Now().UTC())

	done := time.Now().UTC()
	run.Status = model.StatusFailed
	run.Error = "context canceled"
	run.Sweeps = 3
	run.FinishedAt = &done
	if err := repo.FinishRun(context.Background(), run); err != nil {
		t.Fatalf("finish: %v", err)
	}

	got, _ := repo.FindRun(context.Background(), run.ID)
	if got.Status != model.StatusFailed || got.Error != "context canceled" || got.Sweeps != 3 {
		t.Fatalf("unexpected run after finish: %+v", got)
	}
	if got.FinishedAt == nil {
		t.Fatal("expected finished_at")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	setup(t)
	repo := NewPlanRepo(testDB)
	base := time.Now().UTC()
	old := createTestRun(t, repo, "gettysburg", base.Add(-time.Hour))
	recent := createTestRun(t, repo, "gettysburg", base)
	createTestRun(t, repo, "antietam", base)

	runs, err := repo.ListRuns(context.Background(), "gettysburg", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != recent.ID || runs[1].ID != old.ID {
		t.Fatalf("wrong order: %s, %s", runs[0].ID, runs[1].ID)
	}

	runs, _ = repo.ListRuns(context.Background(), "gettysburg", 1)
	if len(runs) != 1 {
		t.Fatalf("limit ignored: %d runs", len(runs))
	}
}

func TestSaveAndLoadOrders(t *testing.T) {
	setup(t)
	repo := NewPlanRepo(testDB)
	run := createTestRun(t, repo, "gettysburg", time.Now().UTC())
	at := time.Date(1863, 7, 1, 14, 0, 0, 0, time.UTC)

	orders := []model.PlanOrder{
		{RunID: run.ID, Seq: 1, UnitID: "u2", OrderType: "defend", X: 4, Y: 5, OrderTime: at},
		{RunID: run.ID, Seq: 0, UnitID: "u1", OrderType: "attack", X: 7, Y: 3, OrderTime: at},
	}
	if err := repo.SaveOrders(context.Background(), orders); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.OrdersByRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(got))
	}
	if got[0].UnitID != "u1" || got[1].UnitID != "u2" {
		t.Fatalf("orders not sorted by seq: %+v", got)
	}
	if !got[0].OrderTime.Equal(at) {
		t.Fatalf("order time round-trip failed: %v", got[0].OrderTime)
	}
}

func TestSaveOrdersRollsBackOnConflict(t *testing.T) {
	setup(t)
	repo := NewPlanRepo(testDB)
	run := createTestRun(t, repo, "gettysburg", time.Now().UTC())

	orders := []model.PlanOrder{
		{RunID: run.ID, Seq: 0, UnitID: "u1", OrderType: "attack", OrderTime: time.Now()},
		{RunID: run.ID, Seq: 0, UnitID: "u2", OrderType: "attack", OrderTime: time.Now()},
	}
	if err := repo.SaveOrders(context.Background(), orders); err == nil {
		t.Fatal("expected duplicate key error")
	}
	got, _ := repo.OrdersByRun(context.Background(), run.ID)
	if len(got) != 0 {
		t.Fatalf("expected rollback, got %d orders", len(got))
	}
}
