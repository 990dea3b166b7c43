package service

import (
	"context"
	"testing"

	"github.com/freeeve/hexcommand/internal/model"
	"github.com/freeeve/hexcommand/internal/planner"
)

func TestGraphCacheSharesEntries(t *testing.T) {
	cache := newMockPlanCache()
	gc := NewGraphCache(cache, planner.DefaultParams(), 2)
	ctx := context.Background()

	a, err := gc.Get(ctx, testScenario())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// Same terrain, different forces.
	other := testScenario()
	other.Units = other.Units[:1]
	b, err := gc.Get(ctx, other)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a != b {
		t.Error("same map built twice")
	}
	s := cache.graphs[a.Fingerprint]
	if s == nil || s.Nodes != 84 {
		t.Errorf("graph summary = %+v", s)
	}
	if s != nil && s.Edges != a.Paths.G.EdgeCount() {
		t.Errorf("edges = %d, want %d", s.Edges, a.Paths.G.EdgeCount())
	}
}

func TestGraphCacheEvictsOldest(t *testing.T) {
	gc := NewGraphCache(nil, planner.DefaultParams(), 2)
	ctx := context.Background()

	var first *MapEntry
	for i, terrain := range []string{"clear", "field", "forest"} {
		sc := testScenario()
		for _, row := range sc.Terrain {
			for j := range row {
				row[j] = terrain
			}
		}
		e, err := gc.Get(ctx, sc)
		if err != nil {
			t.Fatalf("Get %s: %v", terrain, err)
		}
		if i == 0 {
			first = e
		}
	}
	if gc.Len() != 2 {
		t.Errorf("len = %d, want 2", gc.Len())
	}
	again, err := gc.Get(ctx, testScenario())
	if err != nil {
		t.Fatal(err)
	}
	if again == first {
		t.Error("oldest entry was not evicted")
	}
}

func TestMapEntrySegmentsOnce(t *testing.T) {
	gc := NewGraphCache(nil, planner.DefaultParams(), 0)
	e, err := gc.Get(context.Background(), testScenario())
	if err != nil {
		t.Fatal(err)
	}
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Segments(canceled); err == nil {
		t.Fatal("expected cancellation error")
	}
	sg1, err := e.Segments(context.Background())
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	sg2, _ := e.Segments(context.Background())
	if sg1 != sg2 {
		t.Error("segments rebuilt")
	}
}

func TestMapQueries(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	sc := testScenario()

	segs, err := e.svc.Segments(ctx, sc)
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	total := 0
	for _, s := range segs {
		total += s.Size
	}
	if total != 84 {
		t.Errorf("segments cover %d hexes, want 84", total)
	}

	cells, err := e.svc.Reach(ctx, sc, 5, 3, 3)
	if err != nil {
		t.Fatalf("Reach: %v", err)
	}
	// The hex itself plus its six clear neighbors.
	if len(cells) != 7 {
		t.Fatalf("reach = %v", cells)
	}
	for i := 1; i < len(cells); i++ {
		a, b := cells[i-1], cells[i]
		if a.Y > b.Y || (a.Y == b.Y && a.X >= b.X) {
			t.Errorf("cells not row-major at %d: %v", i, cells)
		}
	}
	if _, err := e.svc.Reach(ctx, sc, 30, 3, 3); err == nil {
		t.Error("expected off-map error")
	}

	sc.Roads = []model.Road{{Class: "pike", Hexes: [][2]int{{0, 0}, {1, 0}, {2, 0}}}}
	roads, err := e.svc.Roads(ctx, sc)
	if err != nil {
		t.Fatalf("Roads: %v", err)
	}
	if len(roads) != 1 || roads[0].Class != "pike" || len(roads[0].Hexes) != 3 {
		t.Errorf("roads = %+v", roads)
	}
}
