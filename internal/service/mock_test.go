package service

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/freeeve/hexcommand/internal/model"
	"github.com/freeeve/hexcommand/internal/planner"
)

type mockPlanRepo struct {
	mu     sync.Mutex
	runs   map[string]*model.PlanRun
	orders map[string][]model.PlanOrder
	failOn string
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{
		runs:   make(map[string]*model.PlanRun),
		orders: make(map[string][]model.PlanOrder),
	}
}

func (m *mockPlanRepo) CreateRun(_ context.Context, run *model.PlanRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "create" {
		return errors.New("db down")
	}
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *mockPlanRepo) FinishRun(_ context.Context, run *model.PlanRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *mockPlanRepo) FindRun(_ context.Context, id string) (*model.PlanRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	cp := *run
	return &cp, nil
}

func (m *mockPlanRepo) ListRuns(_ context.Context, scenarioID string, limit int) ([]model.PlanRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PlanRun
	for _, run := range m.runs {
		if run.ScenarioID == scenarioID {
			out = append(out, *run)
		}
	}
	slices.SortFunc(out, func(a, b model.PlanRun) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockPlanRepo) SaveOrders(_ context.Context, orders []model.PlanOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "save" {
		return errors.New("disk full")
	}
	for _, o := range orders {
		m.orders[o.RunID] = append(m.orders[o.RunID], o)
	}
	return nil
}

func (m *mockPlanRepo) OrdersByRun(_ context.Context, runID string) ([]model.PlanOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.orders[runID]), nil
}

type mockPlanCache struct {
	mu     sync.Mutex
	latest map[string]json.RawMessage
	runs   map[string]*model.PlanRun
	graphs map[string]*model.GraphSummary
}

func newMockPlanCache() *mockPlanCache {
	return &mockPlanCache{
		latest: make(map[string]json.RawMessage),
		runs:   make(map[string]*model.PlanRun),
		graphs: make(map[string]*model.GraphSummary),
	}
}

func (c *mockPlanCache) SetLatestOrders(_ context.Context, scenarioID string, orders json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest[scenarioID] = orders
	return nil
}

func (c *mockPlanCache) GetLatestOrders(_ context.Context, scenarioID string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest[scenarioID], nil
}

func (c *mockPlanCache) SetRunSummary(_ context.Context, run *model.PlanRun) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *run
	c.runs[run.ID] = &cp
	return nil
}

func (c *mockPlanCache) GetRunSummary(_ context.Context, id string) (*model.PlanRun, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs[id], nil
}

func (c *mockPlanCache) SetGraphSummary(_ context.Context, s *model.GraphSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.graphs[s.Fingerprint] = s
	return nil
}

func (c *mockPlanCache) GetGraphSummary(_ context.Context, fingerprint string) (*model.GraphSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graphs[fingerprint], nil
}

type broadcastEvent struct {
	scenarioID string
	eventType  string
	data       any
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *mockBroadcaster) BroadcastScenarioEvent(scenarioID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{scenarioID, eventType, data})
}

func (b *mockBroadcaster) types() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var types []string
	for _, e := range b.events {
		types = append(types, e.eventType)
	}
	return strings.Join(types, ",")
}

type failingSink struct{}

func (failingSink) Name() string { return "failing" }

func (failingSink) EmitOrders(context.Context, *model.PlanRun, []planner.Order) error {
	return errors.New("sink offline")
}
