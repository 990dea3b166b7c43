// Package segment partitions a hex movement graph into bounded clusters
// grown around the road network, and exposes the clusters as a coarse graph.
package segment

import (
	"fmt"
	"math"

	"github.com/freeeve/hexcommand/pkg/graph"
	"github.com/freeeve/hexcommand/pkg/hexmap"
)

// Segment is a connected cluster of hexes.
type Segment struct {
	ID    int
	Begin *hexmap.Hex
	// Nodes in claim order; Begin first.
	Nodes []*hexmap.Hex
	// Neighbors in the order adjacency was found.
	Neighbors []*Segment
	// Paths between centers, restricted to the two segments.
	Paths map[*Segment]graph.Path[*hexmap.Hex]

	XMean, YMean float64
	Center       *hexmap.Hex

	members  graph.Set[*hexmap.Hex]
	adjacent map[*Segment]bool
}

func newSegment(id int, begin *hexmap.Hex) *Segment {
	return &Segment{
		ID:       id,
		Begin:    begin,
		Nodes:    []*hexmap.Hex{begin},
		Paths:    make(map[*Segment]graph.Path[*hexmap.Hex]),
		members:  graph.NewSet(begin),
		adjacent: make(map[*Segment]bool),
	}
}

func (s *Segment) Len() int                    { return len(s.Nodes) }
func (s *Segment) Contains(h *hexmap.Hex) bool { return s.members.Has(h) }
func (s *Segment) Adjacent(o *Segment) bool    { return s.adjacent[o] }

func (s *Segment) add(h *hexmap.Hex) {
	s.Nodes = append(s.Nodes, h)
	s.members.Add(h)
}

func (s *Segment) link(o *Segment) {
	if s == o || s.adjacent[o] {
		return
	}
	s.adjacent[o], o.adjacent[s] = true, true
	s.Neighbors = append(s.Neighbors, o)
	o.Neighbors = append(o.Neighbors, s)
}

func (s *Segment) String() string {
	return fmt.Sprintf("Segment(%d, (%.1f, %.1f), %v, [%d], nei:%d)", s.ID, s.XMean, s.YMean, s.Center, len(s.Nodes), len(s.Neighbors))
}

// Graph is the coarse graph over segments. Two segments are neighbors when
// they touch and a path links their centers inside their union.
type Graph struct {
	Segments []*Segment
	// Isolated hexes belong to no segment.
	Isolated []*hexmap.Hex

	index map[*hexmap.Hex]*Segment
}

// Lookup returns the segment containing h.
func (g *Graph) Lookup(h *hexmap.Hex) (*Segment, bool) {
	s, ok := g.index[h]
	return s, ok
}

func (g *Graph) Nodes() []*Segment { return g.Segments }

func (g *Graph) Neighbors(s *Segment) []*Segment {
	out := make([]*Segment, 0, len(s.Neighbors))
	for _, o := range s.Neighbors {
		if _, ok := s.Paths[o]; ok {
			out = append(out, o)
		}
	}
	return out
}

func (g *Graph) MoveCost(src, dst *Segment) float64 {
	p, ok := src.Paths[dst]
	if !ok {
		return math.Inf(1)
	}
	return p.Cost
}

func (g *Graph) EstimateCost(src, dst *Segment) float64 {
	return math.Hypot(src.XMean-dst.XMean, src.YMean-dst.YMean)
}

// Coord places a segment at its mean for freezing.
func Coord(s *Segment) (x, y float64) { return s.XMean, s.YMean }

func (g *Graph) String() string {
	return fmt.Sprintf("SegmentGraph(segments:%d, hexes:%d, isolated:%d)", len(g.Segments), len(g.index), len(g.Isolated))
}
