package planner

import (
	"context"
	"math"

	"github.com/freeeve/hexcommand/pkg/alloc"
	"github.com/freeeve/hexcommand/pkg/force"
	"github.com/freeeve/hexcommand/pkg/graph"
	"github.com/freeeve/hexcommand/pkg/hexmap"
	"github.com/freeeve/hexcommand/pkg/segment"
)

// moveTimes converts path costs into turns, +Inf where no path exists.
func moveTimes[N comparable](paths graph.PathFinder[N], src N, dsts []N, allowance float64) []float64 {
	found := paths.ShortestToMany(src, dsts)
	out := make([]float64, len(dsts))
	for i, d := range dsts {
		if path, ok := found[d]; ok {
			out[i] = path.Cost / allowance
		} else {
			out[i] = math.Inf(1)
		}
	}
	return out
}

// HexBoard places every unit on its own hex.
type HexBoard struct {
	Active           []alloc.Unit[*hexmap.Hex]
	Passive          []alloc.Unit[*hexmap.Hex]
	Paths            graph.PathFinder[*hexmap.Hex]
	AllowancePerTurn float64
}

// HexBoard builds a board where units of the friendly countries move and
// everyone else is a target.
func (p *Planner) HexBoard(friendly []string) *HexBoard {
	b := &HexBoard{Paths: p.Paths, AllowancePerTurn: p.Params.AllowancePerTurn}
	for _, u := range p.Tree.Units {
		h := p.hexAt(u.Position())
		if h == nil {
			continue
		}
		au := alloc.Unit[*hexmap.Hex]{ID: u.ID, CombatValue: u.Strength, Position: h}
		if countrySet(friendly).has(u.Country) {
			b.Active = append(b.Active, au)
		} else {
			b.Passive = append(b.Passive, au)
		}
	}
	return b
}

func (b *HexBoard) ActiveUnits() []alloc.Unit[*hexmap.Hex]  { return b.Active }
func (b *HexBoard) PassiveUnits() []alloc.Unit[*hexmap.Hex] { return b.Passive }

func (b *HexBoard) MoveTime(src *hexmap.Hex, dsts []*hexmap.Hex) ([]float64, error) {
	return moveTimes(b.Paths, src, dsts, b.AllowancePerTurn), nil
}

// SegmentBoard places brigades on the segment of their anchor hex. Moving
// out of a segment costs more the more enemy strength stands in it.
type SegmentBoard struct {
	Active           []alloc.Unit[*segment.Segment]
	Passive          []alloc.Unit[*segment.Segment]
	Paths            graph.PathFinder[*segment.Segment]
	AllowancePerTurn float64
}

// SegmentBoard builds a segment board for the friendly countries.
// Brigades anchored on isolated hexes are left off the board.
func (p *Planner) SegmentBoard(ctx context.Context, friendly []string) (*SegmentBoard, error) {
	sg, err := p.SegmentGraph(ctx)
	if err != nil {
		return nil, err
	}
	b := &SegmentBoard{AllowancePerTurn: p.Params.AllowancePerTurn}
	for _, f := range p.Tree.Brigades() {
		h := p.hexAt(f.Anchor())
		if h == nil {
			continue
		}
		s, ok := sg.Lookup(h)
		if !ok {
			continue
		}
		u := alloc.Unit[*segment.Segment]{ID: f.ID, CombatValue: f.Strength, Position: s}
		if countrySet(friendly).has(f.Country) {
			b.Active = append(b.Active, u)
		} else {
			b.Passive = append(b.Passive, u)
		}
	}

	var enemies []string
	for _, c := range p.Tree.Countries() {
		if !countrySet(friendly).has(c) {
			enemies = append(enemies, c)
		}
	}
	resistance := SegmentStrength(p.Network, p.Tree, sg, enemies)
	b.Paths = graph.Freeze[*segment.Segment](graph.NewSoftBlock[*segment.Segment](sg, resistance), segment.Coord)
	return b, nil
}

func (b *SegmentBoard) ActiveUnits() []alloc.Unit[*segment.Segment]  { return b.Active }
func (b *SegmentBoard) PassiveUnits() []alloc.Unit[*segment.Segment] { return b.Passive }

func (b *SegmentBoard) MoveTime(src *segment.Segment, dsts []*segment.Segment) ([]float64, error) {
	return moveTimes(b.Paths, src, dsts, b.AllowancePerTurn), nil
}

// SegmentStrength sums the strength of the given countries' units per
// segment. Units on isolated hexes are not counted.
func SegmentStrength(n *hexmap.Network, tree *force.Tree, sg *segment.Graph, countries []string) map[*segment.Segment]float64 {
	out := make(map[*segment.Segment]float64)
	for _, u := range tree.Units {
		if !countrySet(countries).has(u.Country) {
			continue
		}
		h := n.At(u.X, u.Y)
		if h == nil {
			continue
		}
		if s, ok := sg.Lookup(h); ok {
			out[s] += u.Strength
		}
	}
	return out
}
