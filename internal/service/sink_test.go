package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/freeeve/hexcommand/internal/model"
	"github.com/freeeve/hexcommand/internal/planner"
)

func TestPlanOrdersNumbersInOrder(t *testing.T) {
	at := time.Date(1863, 7, 3, 13, 0, 0, 0, time.UTC)
	got := PlanOrders("r1", []planner.Order{
		{UnitID: "a", X: 1, Y: 2, Type: planner.Attack, Time: at},
		{UnitID: "b", X: 3, Y: 4, Type: planner.Defend, Time: at},
	})
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Seq != 0 || got[1].Seq != 1 || got[1].OrderType != "defend" || got[0].RunID != "r1" {
		t.Errorf("orders = %+v", got)
	}
	if !got[0].OrderTime.Equal(at) {
		t.Errorf("time = %v", got[0].OrderTime)
	}
}

func TestRepoSinkSkipsEmpty(t *testing.T) {
	repo := newMockPlanRepo()
	repo.failOn = "save"
	if err := (RepoSink{Repo: repo}).EmitOrders(context.Background(), &model.PlanRun{ID: "r"}, nil); err != nil {
		t.Errorf("empty batch should not touch the repo: %v", err)
	}
}

func TestWriterSinkWritesEmptyList(t *testing.T) {
	var buf bytes.Buffer
	sink := &WriterSink{W: &buf, Indent: true}
	if err := sink.EmitOrders(context.Background(), &model.PlanRun{ID: "r", Strategy: "hold"}, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"orders": []`) {
		t.Errorf("output = %s", buf.String())
	}
}

func TestBroadcastSinkEvent(t *testing.T) {
	hub := &mockBroadcaster{}
	run := &model.PlanRun{ID: "r", ScenarioID: "s", Strategy: "p2p"}
	orders := []planner.Order{{UnitID: "u"}}
	if err := (BroadcastSink{Broadcaster: hub}).EmitOrders(context.Background(), run, orders); err != nil {
		t.Fatal(err)
	}
	if len(hub.events) != 1 {
		t.Fatalf("events = %v", hub.events)
	}
	ev := hub.events[0]
	payload, ok := ev.data.(OrdersEvent)
	if ev.scenarioID != "s" || ev.eventType != "orders_emitted" || !ok || payload.RunID != "r" || len(payload.Orders) != 1 {
		t.Errorf("event = %+v", ev)
	}
}
