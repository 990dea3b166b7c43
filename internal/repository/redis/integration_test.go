//go:build integration

package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/freeeve/hexcommand/internal/model"
	"github.com/freeeve/hexcommand/internal/testutil"
)

var testRDB *goredis.Client

func setup(t *testing.T) *Client {
	t.Helper()
	testRDB = testutil.Redis(t)
	return &Client{rdb: testRDB}
}

func TestLatestOrdersRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	orders := json.RawMessage(`[{"unit_id":"u1","x":7,"y":3,"type":"attack"}]`)
	if err := c.SetLatestOrders(ctx, "gettysburg", orders); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.GetLatestOrders(ctx, "gettysburg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(orders) {
		t.Fatalf("round-trip failed: %s", got)
	}

	ttl := testRDB.TTL(ctx, latestOrdersKey("gettysburg")).Val()
	if ttl <= 0 || ttl > LatestOrdersTTL {
		t.Fatalf("unexpected TTL %v", ttl)
	}
}

func TestLatestOrdersMissing(t *testing.T) {
	c := setup(t)
	got, err := c.GetLatestOrders(context.Background(), "nowhere")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %s", got)
	}
}

func TestRunSummaryRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	run := &model.PlanRun{ID: "r1", ScenarioID: "s", Strategy: "p2p", Status: model.StatusCompleted, OrderCount: 4, Converged: true, CreatedAt: time.Now().UTC()}
	if err := c.SetRunSummary(ctx, run); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.GetRunSummary(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.OrderCount != 4 || !got.Converged {
		t.Fatalf("unexpected summary: %+v", got)
	}

	missing, err := c.GetRunSummary(ctx, "r2")
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", missing, err)
	}
}

func TestGraphSummaryPersists(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	s := &model.GraphSummary{Fingerprint: "abcd", Nodes: 84, Edges: 400, BuiltAt: time.Now().UTC()}
	if err := c.SetGraphSummary(ctx, s); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.GetGraphSummary(ctx, "abcd")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Nodes != 84 || got.Edges != 400 {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if ttl := testRDB.TTL(ctx, graphKey("abcd")).Val(); ttl != -1 {
		t.Fatalf("graph summary should not expire, TTL %v", ttl)
	}
}
