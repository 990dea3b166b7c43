package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/freeeve/hexcommand/internal/model"
	"github.com/freeeve/hexcommand/pkg/hexmap"
)

// Segments divides sc's map and summarizes each segment.
func (s *PlanService) Segments(ctx context.Context, sc *model.Scenario) ([]model.SegmentSummary, error) {
	entry, err := s.mapEntry(ctx, sc)
	if err != nil {
		return nil, err
	}
	sg, err := entry.Segments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.SegmentSummary, len(sg.Segments))
	for i, seg := range sg.Segments {
		sum := model.SegmentSummary{
			ID:        seg.ID,
			Size:      seg.Len(),
			XMean:     seg.XMean,
			YMean:     seg.YMean,
			Neighbors: make([]int, len(seg.Neighbors)),
		}
		if seg.Center != nil {
			sum.CenterX, sum.CenterY = seg.Center.X(), seg.Center.Y()
		}
		for j, nb := range seg.Neighbors {
			sum.Neighbors[j] = nb.ID
		}
		out[i] = sum
	}
	return out, nil
}

// Reach lists the hexes reachable from (x, y) within budget, in row-major
// order.
func (s *PlanService) Reach(ctx context.Context, sc *model.Scenario, x, y int, budget float64) ([]model.ReachCell, error) {
	entry, err := s.mapEntry(ctx, sc)
	if err != nil {
		return nil, err
	}
	src := entry.Graph.Network.At(x, y)
	if src == nil {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrOffMap, x, y)
	}
	reach := entry.Paths.Reachable(src, budget)
	cells := make([]model.ReachCell, 0, len(reach))
	for h, arrow := range reach {
		cells = append(cells, model.ReachCell{X: h.X(), Y: h.Y(), Cost: arrow.Cost})
	}
	slices.SortFunc(cells, func(a, b model.ReachCell) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
	return cells, nil
}

// Roads breaks every road class of sc's map into runs between junctions.
func (s *PlanService) Roads(ctx context.Context, sc *model.Scenario) ([]model.RoadRun, error) {
	entry, err := s.mapEntry(ctx, sc)
	if err != nil {
		return nil, err
	}
	net := entry.Graph.Network
	var out []model.RoadRun
	for _, class := range net.Terrain.Roads {
		for _, run := range net.SimplifyRoad(class) {
			out = append(out, model.RoadRun{Class: string(class), Hexes: points(run)})
		}
	}
	return out, nil
}

func (s *PlanService) mapEntry(ctx context.Context, sc *model.Scenario) (*MapEntry, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return s.graphs.Get(ctx, sc)
}

func points(hexes []*hexmap.Hex) [][2]int {
	out := make([][2]int, len(hexes))
	for i, h := range hexes {
		out[i] = [2]int{h.X(), h.Y()}
	}
	return out
}
