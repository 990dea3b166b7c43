package graph

// DefaultExtraCostCoef makes 600 points of resistance double the move cost.
const DefaultExtraCostCoef = 1.0 / 600

// Blocked hides a node set from the wrapped graph: a blocked node has no
// neighbors and never appears as anyone's neighbor.
type Blocked[N comparable] struct {
	Graph   Enumerable[N]
	Blocked Set[N]
}

func (b Blocked[N]) Neighbors(n N) []N {
	if b.Blocked.Has(n) {
		return nil
	}
	src := b.Graph.Neighbors(n)
	out := make([]N, 0, len(src))
	for _, nb := range src {
		if !b.Blocked.Has(nb) {
			out = append(out, nb)
		}
	}
	return out
}

func (b Blocked[N]) MoveCost(src, dst N) float64     { return b.Graph.MoveCost(src, dst) }
func (b Blocked[N]) EstimateCost(src, dst N) float64 { return b.Graph.EstimateCost(src, dst) }
func (b Blocked[N]) Nodes() []N                      { return b.Graph.Nodes() }

// SoftBlock scales the cost of leaving a node by its resistance:
// cost * (1 + resistance(src) * ExtraCostCoef).
type SoftBlock[N comparable] struct {
	Graph         Enumerable[N]
	Resistance    map[N]float64
	ExtraCostCoef float64
}

// NewSoftBlock wraps g with the default extra cost coefficient.
func NewSoftBlock[N comparable](g Enumerable[N], resistance map[N]float64) SoftBlock[N] {
	return SoftBlock[N]{Graph: g, Resistance: resistance, ExtraCostCoef: DefaultExtraCostCoef}
}

func (s SoftBlock[N]) Neighbors(n N) []N { return s.Graph.Neighbors(n) }

func (s SoftBlock[N]) MoveCost(src, dst N) float64 {
	return s.Graph.MoveCost(src, dst) * (1 + s.Resistance[src]*s.ExtraCostCoef)
}

func (s SoftBlock[N]) EstimateCost(src, dst N) float64 { return s.Graph.EstimateCost(src, dst) }
func (s SoftBlock[N]) Nodes() []N                      { return s.Graph.Nodes() }

// Limited restricts neighbors to the union of two node sets. Segmentation
// uses it so a path between two adjacent clusters cannot cut through a third.
type Limited[N comparable] struct {
	Graph Graph[N]
	Left  Set[N]
	Right Set[N]
}

func (l Limited[N]) Neighbors(n N) []N {
	src := l.Graph.Neighbors(n)
	out := make([]N, 0, len(src))
	for _, nb := range src {
		if l.Left.Has(nb) || l.Right.Has(nb) {
			out = append(out, nb)
		}
	}
	return out
}

func (l Limited[N]) MoveCost(src, dst N) float64     { return l.Graph.MoveCost(src, dst) }
func (l Limited[N]) EstimateCost(src, dst N) float64 { return l.Graph.EstimateCost(src, dst) }
