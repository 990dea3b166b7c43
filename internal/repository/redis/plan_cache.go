package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/hexcommand/internal/model"
)

// LatestOrdersTTL bounds how long a scenario's last orders stay readable.
const LatestOrdersTTL = 24 * time.Hour

func latestOrdersKey(scenarioID string) string { return "scenario:" + scenarioID + ":orders" }
func runKey(runID string) string               { return "run:" + runID }
func graphKey(fingerprint string) string       { return "graph:" + fingerprint }

// SetLatestOrders stores the orders of a scenario's most recent run.
func (c *Client) SetLatestOrders(ctx context.Context, scenarioID string, orders json.RawMessage) error {
	return c.rdb.Set(ctx, latestOrdersKey(scenarioID), []byte(orders), LatestOrdersTTL).Err()
}

// GetLatestOrders returns the orders of a scenario's most recent run, or nil.
func (c *Client) GetLatestOrders(ctx context.Context, scenarioID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, latestOrdersKey(scenarioID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest orders: %w", err)
	}
	return json.RawMessage(data), nil
}

// SetRunSummary caches a run record.
func (c *Client) SetRunSummary(ctx context.Context, run *model.PlanRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	return c.rdb.Set(ctx, runKey(run.ID), data, LatestOrdersTTL).Err()
}

// GetRunSummary returns a cached run record, or nil.
func (c *Client) GetRunSummary(ctx context.Context, id string) (*model.PlanRun, error) {
	var run model.PlanRun
	ok, err := c.getJSON(ctx, runKey(id), &run)
	if !ok || err != nil {
		return nil, err
	}
	return &run, nil
}

// SetGraphSummary records a built movement graph. Graph summaries do not
// expire: a fingerprint always describes the same map.
func (c *Client) SetGraphSummary(ctx context.Context, s *model.GraphSummary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal graph summary: %w", err)
	}
	return c.rdb.Set(ctx, graphKey(s.Fingerprint), data, 0).Err()
}

// GetGraphSummary returns a graph summary by fingerprint, or nil.
func (c *Client) GetGraphSummary(ctx context.Context, fingerprint string) (*model.GraphSummary, error) {
	var s model.GraphSummary
	ok, err := c.getJSON(ctx, graphKey(fingerprint), &s)
	if !ok || err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
