package hexmap

import (
	"math"
)

// MoveGraph is the movement graph of a network under one cost table.
type MoveGraph struct {
	Network *Network
	Costs   *CostTable
	// HeuristicCoef scales EstimateCost. 1 keeps the plain hex distance,
	// which can overestimate when roads are cheaper than one unit per step.
	HeuristicCoef float64
}

func NewMoveGraph(n *Network, costs *CostTable) *MoveGraph {
	return &MoveGraph{Network: n, Costs: costs, HeuristicCoef: 1}
}

func (g *MoveGraph) Nodes() []*Hex { return g.Network.Nodes() }

// Neighbors returns the adjacent hexes that can be entered from h: a road
// on the shared side or a passable base terrain.
func (g *MoveGraph) Neighbors(h *Hex) []*Hex {
	adj := h.Adjacent()
	out := make([]*Hex, 0, len(adj))
	for _, nb := range adj {
		if h.Edges[nb].HasRoad() || g.Costs.BaseCost(nb.Terrain) > 0 {
			out = append(out, nb)
		}
	}
	return out
}

// MoveCost is the cheapest priced road on the shared side when there is one.
// Otherwise it is the base cost of dst plus the dearest river crossed.
func (g *MoveGraph) MoveCost(src, dst *Hex) float64 {
	e, ok := src.Edges[dst]
	if !ok {
		return math.Inf(1)
	}
	road, hasRoad := math.Inf(1), false
	for _, c := range e.Roads {
		if v, ok := g.Costs.Road[c]; ok {
			road, hasRoad = math.Min(road, v), true
		}
	}
	if hasRoad {
		return road
	}
	river := 0.0
	for _, c := range e.Rivers {
		river = math.Max(river, g.Costs.River[c])
	}
	return g.Costs.BaseCost(dst.Terrain) + river
}

func (g *MoveGraph) EstimateCost(src, dst *Hex) float64 {
	return math.Hypot(float64(src.I-dst.I), float64(src.J-dst.J)) * g.HeuristicCoef
}

// IsIsolated reports whether h can never be entered: impassable terrain
// and no road on any side.
func (g *MoveGraph) IsIsolated(h *Hex) bool {
	return g.Costs.BaseCost(h.Terrain) == 0 && !h.HasRoad()
}

// Coord is the frozen-graph coordinate of h.
func Coord(h *Hex) (x, y float64) { return float64(h.X()), float64(h.Y()) }

// maxStep is the longest Euclidean (I, J) distance between adjacent hexes.
var maxStep = math.Sqrt2

// MinCostPerStep returns the smallest cost of any traversable edge, or 0
// when the graph has no edges.
func (g *MoveGraph) MinCostPerStep() float64 {
	best := math.Inf(1)
	for _, h := range g.Nodes() {
		for _, nb := range g.Neighbors(h) {
			best = math.Min(best, g.MoveCost(h, nb))
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return best
}

// AdmissibleCoef returns the largest heuristic coefficient for which
// EstimateCost never exceeds the true path cost.
func (g *MoveGraph) AdmissibleCoef() float64 {
	return g.MinCostPerStep() / maxStep
}
