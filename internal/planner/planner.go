// Package planner turns a scenario snapshot into unit orders: influence
// fields, frontier dispatch, allocation boards and the strategies that
// combine them.
package planner

import (
	"context"
	"slices"
	"time"

	"github.com/freeeve/hexcommand/pkg/alloc"
	"github.com/freeeve/hexcommand/pkg/force"
	"github.com/freeeve/hexcommand/pkg/graph"
	"github.com/freeeve/hexcommand/pkg/hexmap"
	"github.com/freeeve/hexcommand/pkg/segment"
)

// Objective is a victory location.
type Objective struct {
	X, Y       int
	VP         float64
	VPPerTurn1 float64
	VPPerTurn2 float64
}

// Points is the objective's weight in the VP field.
func (o Objective) Points() float64 { return o.VP + (o.VPPerTurn1+o.VPPerTurn2)*5 }

type Params struct {
	Influence InfluenceParams
	Alloc     alloc.Params

	// AllowancePerTurn converts path cost into turns on allocation boards.
	AllowancePerTurn float64
	// StrengthPerHex sets how much frontage a dispatched formation claims.
	StrengthPerHex float64
	// MaxPlans stops the hierarchy expansion after this many plans.
	MaxPlans int

	SegmentRadius int
	RoadLevelCoef float64
}

func DefaultParams() Params {
	return Params{
		Influence:        DefaultInfluenceParams(),
		Alloc:            alloc.DefaultParams(),
		AllowancePerTurn: 10,
		StrengthPerHex:   500,
		MaxPlans:         10000,
		SegmentRadius:    segment.DefaultRadius,
		RoadLevelCoef:    segment.DefaultRoadLevelCoef,
	}
}

// Planner holds one scenario snapshot. It is not safe for concurrent use,
// but Paths and Segments may be shared between planners over the same map.
type Planner struct {
	Network    *hexmap.Network
	Graph      *hexmap.MoveGraph
	Tree       *force.Tree
	Objectives []Objective
	Time       time.Time
	Params     Params

	// Paths answers hex path queries. New fills it with a frozen copy of
	// Graph using the admissible heuristic.
	Paths graph.PathFinder[*hexmap.Hex]
	// Segments is filled by Divide on first use.
	Segments *segment.Graph
	Divide   func(ctx context.Context) (*segment.Graph, error)
}

// New builds a planner and freezes its move graph.
func New(g *hexmap.MoveGraph, tree *force.Tree, objectives []Objective, params Params) *Planner {
	return &Planner{
		Network:    g.Network,
		Graph:      g,
		Tree:       tree,
		Objectives: objectives,
		Params:     params,
		Paths:      FreezeHexes(g),
		Divide: func(ctx context.Context) (*segment.Graph, error) {
			return DivideMap(ctx, g, params)
		},
	}
}

// FreezeHexes freezes g with a heuristic that never overestimates, so
// frozen A* stays exact on road-heavy maps.
func FreezeHexes(g *hexmap.MoveGraph) *graph.Frozen[*hexmap.Hex] {
	f := graph.Freeze[*hexmap.Hex](g, hexmap.Coord)
	f.G.EstimateCostCoef = g.AdmissibleCoef()
	return f
}

// DivideMap segments g with the radius and road weight in params.
func DivideMap(ctx context.Context, g *hexmap.MoveGraph, params Params) (*segment.Graph, error) {
	d := segment.NewDivider(g)
	d.MaxSize = segment.MaxSizeByRadius(params.SegmentRadius)
	d.RoadLevelCoef = params.RoadLevelCoef
	return d.Build(ctx)
}

// SegmentGraph returns the segment graph, dividing the map on first call.
func (p *Planner) SegmentGraph(ctx context.Context) (*segment.Graph, error) {
	if p.Segments != nil {
		return p.Segments, nil
	}
	sg, err := p.Divide(ctx)
	if err != nil {
		return nil, err
	}
	p.Segments = sg
	return sg, nil
}

func (p *Planner) hexAt(pt hexmap.Point) *hexmap.Hex { return p.Network.At(pt.X, pt.Y) }

type countrySet []string

func (c countrySet) has(country string) bool { return slices.Contains(c, country) }

// split partitions the brigades into those of the given countries and the rest.
func (p *Planner) split(countries countrySet) (mine, others []*force.Formation) {
	for _, b := range p.Tree.Brigades() {
		if countries.has(b.Country) {
			mine = append(mine, b)
		} else {
			others = append(others, b)
		}
	}
	return mine, others
}
