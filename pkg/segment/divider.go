package segment

import (
	"context"
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/freeeve/hexcommand/pkg/graph"
	"github.com/freeeve/hexcommand/pkg/hexmap"
)

const (
	DefaultRadius        = 5
	DefaultRoadLevelCoef = 0.4
)

// MaxSizeByRadius is the number of hexes within radius r of a center hex.
func MaxSizeByRadius(r int) int { return 3*r*r + 3*r + 1 }

// Divider grows segments over a movement graph.
type Divider struct {
	Graph         *hexmap.MoveGraph
	MaxSize       int
	RoadLevelCoef float64
}

func NewDivider(g *hexmap.MoveGraph) *Divider {
	return &Divider{Graph: g, MaxSize: MaxSizeByRadius(DefaultRadius), RoadLevelCoef: DefaultRoadLevelCoef}
}

type build struct {
	d        *Divider
	segments []*Segment
	index    map[*hexmap.Hex]*Segment
}

// Build partitions every non-isolated hex into segments, picks their
// centers and prices the path between each pair of touching segments.
func (d *Divider) Build(ctx context.Context) (*Graph, error) {
	if d.MaxSize < 1 {
		return nil, errors.New("segment: MaxSize must be positive")
	}
	b := &build{d: d, index: make(map[*hexmap.Hex]*Segment)}

	if err := b.seedRoads(ctx); err != nil {
		return nil, err
	}
	var isolated []*hexmap.Hex
	for _, h := range d.Graph.Nodes() {
		if _, ok := b.index[h]; ok {
			continue
		}
		if d.Graph.IsIsolated(h) {
			isolated = append(isolated, h)
			continue
		}
		b.flood(h)
	}
	b.linkBorders()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, s := range b.segments {
		b.center(s)
	}
	if err := b.pricePaths(ctx); err != nil {
		return nil, err
	}
	return &Graph{Segments: b.segments, Isolated: isolated, index: b.index}, nil
}

// seedRoads floods from road hexes, highest road class first and busiest
// junctions first within a class.
func (b *build) seedRoads(ctx context.Context) error {
	nodes := b.d.Graph.Nodes()
	roads := b.d.Graph.Network.Terrain.Roads
	for level := len(roads) - 1; level >= 0; level-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		type seed struct {
			h      *hexmap.Hex
			degree int
		}
		var seeds []seed
		for _, h := range nodes {
			if deg := h.RoadDegree(roads[level]); deg > 0 {
				seeds = append(seeds, seed{h, deg})
			}
		}
		slices.SortStableFunc(seeds, func(a, b seed) int { return b.degree - a.degree })
		for _, s := range seeds {
			if _, ok := b.index[s.h]; !ok {
				b.flood(s.h)
			}
		}
	}
	return nil
}

// flood grows a new segment from begin breadth-first until it runs out of
// unclaimed neighbors or reaches MaxSize. Claimed neighbors of another
// segment make the two adjacent.
func (b *build) flood(begin *hexmap.Hex) {
	s := newSegment(len(b.segments), begin)
	b.segments = append(b.segments, s)
	b.index[begin] = s

	open := []*hexmap.Hex{begin}
	for len(open) > 0 && s.Len() < b.d.MaxSize {
		var next []*hexmap.Hex
	ring:
		for _, cur := range open {
			for _, nb := range b.d.Graph.Neighbors(cur) {
				if other, ok := b.index[nb]; ok {
					s.link(other)
					continue
				}
				b.index[nb] = s
				s.add(nb)
				next = append(next, nb)
				if s.Len() == b.d.MaxSize {
					break ring
				}
			}
		}
		open = next
	}
}

// linkBorders makes every pair of segments joined by a graph edge adjacent,
// covering borders that a size-capped flood never reached.
func (b *build) linkBorders() {
	for _, s := range b.segments {
		for _, h := range s.Nodes {
			for _, nb := range b.d.Graph.Neighbors(h) {
				if other, ok := b.index[nb]; ok {
					s.link(other)
				}
			}
		}
	}
}

// center sets the segment mean and picks the hex with the best score: closeness
// to the mean, scaled to [0, 1] within the segment, plus a bonus per road level.
func (b *build) center(s *Segment) {
	xs := make([]float64, len(s.Nodes))
	ys := make([]float64, len(s.Nodes))
	for i, h := range s.Nodes {
		xs[i], ys[i] = float64(h.X()), float64(h.Y())
	}
	s.XMean, s.YMean = stat.Mean(xs, nil), stat.Mean(ys, nil)

	dist := make([]float64, len(s.Nodes))
	for i := range s.Nodes {
		dist[i] = math.Hypot(xs[i]-s.XMean, ys[i]-s.YMean)
	}
	minD, maxD := floats.Min(dist), floats.Max(dist)
	rangeD := maxD - minD

	ts := b.d.Graph.Network.Terrain
	best := math.Inf(-1)
	for i, h := range s.Nodes {
		score := 1.0
		if rangeD > 0 {
			score = 1 - (dist[i]-minD)/rangeD
		}
		score += b.d.RoadLevelCoef * float64(h.TopRoadLevel(ts)+1)
		if score > best {
			best, s.Center = score, h
		}
	}
}

// pricePaths runs A* between the centers of every touching pair inside the
// union of the two segments, once in each direction. Move costs depend on
// the destination hex, so a reversed path does not keep its cost.
func (b *build) pricePaths(ctx context.Context) error {
	tried := make(map[[2]int]bool)
	for _, src := range b.segments {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, dst := range src.Neighbors {
			key := [2]int{min(src.ID, dst.ID), max(src.ID, dst.ID)}
			if tried[key] {
				continue
			}
			tried[key] = true
			limited := graph.Limited[*hexmap.Hex]{Graph: b.d.Graph, Left: src.members, Right: dst.members}
			if err := price(limited, src, dst); err != nil {
				return err
			}
			if err := price(limited, dst, src); err != nil {
				return err
			}
		}
	}
	return nil
}

func price(g graph.Limited[*hexmap.Hex], from, to *Segment) error {
	p, err := graph.AStar[*hexmap.Hex](g, from.Center, to.Center)
	if errors.Is(err, graph.ErrNoPath) {
		return nil
	}
	if err != nil {
		return err
	}
	from.Paths[to] = p
	return nil
}
