package planner

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/freeeve/hexcommand/pkg/alloc"
	"github.com/freeeve/hexcommand/pkg/force"
	"github.com/freeeve/hexcommand/pkg/hexmap"
	"github.com/freeeve/hexcommand/pkg/segment"
)

// OrderType is what a unit is told to do at its destination.
type OrderType int

const (
	Attack OrderType = iota
	Defend
)

func (t OrderType) String() string {
	switch t {
	case Attack:
		return "attack"
	case Defend:
		return "defend"
	}
	return fmt.Sprintf("OrderType(%d)", int(t))
}

func (t OrderType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *OrderType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "attack":
		*t = Attack
	case "defend":
		*t = Defend
	default:
		return fmt.Errorf("planner: unknown order type %q", b)
	}
	return nil
}

// Order moves a unit or formation to (X, Y).
type Order struct {
	UnitID string    `json:"unit_id" yaml:"unit_id"`
	Time   time.Time `json:"time" yaml:"time"`
	X      int       `json:"x" yaml:"x"`
	Y      int       `json:"y" yaml:"y"`
	Type   OrderType `json:"type" yaml:"type"`
}

func (o Order) String() string {
	return fmt.Sprintf("%s %s (%d,%d)", o.UnitID, o.Type, o.X, o.Y)
}

func (p *Planner) order(id string, at hexmap.Point, t OrderType) Order {
	return Order{UnitID: id, Time: p.Time, X: at.X, Y: at.Y, Type: t}
}

func (p *Planner) hold(f *force.Formation) Order { return p.order(f.ID, f.Anchor(), Defend) }

func hexPoint(h *hexmap.Hex) hexmap.Point { return hexmap.Point{X: h.X(), Y: h.Y()} }

// AllHold tells every brigade to defend its anchor.
func (p *Planner) AllHold() []Order {
	var out []Order
	for _, b := range p.Tree.Brigades() {
		out = append(out, p.hold(b))
	}
	return out
}

// AttackNearest sends each brigade of the attacking countries against the
// anchor of the closest other brigade by mean position. Everyone else
// holds, and so does an attacker with nothing to attack.
func (p *Planner) AttackNearest(attackers []string) []Order {
	mine, targets := p.split(attackers)
	var out []Order
	for _, b := range targets {
		out = append(out, p.hold(b))
	}
	for _, b := range mine {
		var nearest *force.Formation
		best := math.Inf(1)
		for _, t := range targets {
			dx, dy := b.XMean-t.XMean, b.YMean-t.YMean
			if d := dx*dx + dy*dy; d < best {
				best, nearest = d, t
			}
		}
		if nearest == nil {
			out = append(out, p.hold(b))
			continue
		}
		out = append(out, p.order(b.ID, nearest.Anchor(), Attack))
	}
	return out
}

// Contour spreads friendly brigades along the edge of enemy brigade
// influence. Other brigades hold.
func (p *Planner) Contour(ctx context.Context, friendly []string) ([]Order, error) {
	_, enemy := p.BrigadeFields(friendly)
	plans, err := p.ContourPlan(ctx, enemy, friendly)
	if err != nil {
		return nil, err
	}
	var out []Order
	for _, plan := range plans {
		out = append(out, p.order(plan.Formation.ID, hexPoint(plan.AnchorHex), Attack))
	}
	_, others := p.split(friendly)
	for _, b := range others {
		out = append(out, p.hold(b))
	}
	return out, nil
}

// HierarchyFrontal gives an attack order to every formation of the
// hierarchy plan, parents first.
func (p *Planner) HierarchyFrontal(ctx context.Context, friendly []string) ([]Order, error) {
	_, enemy := p.BrigadeFields(friendly)
	plans, err := p.HierarchyPlan(ctx, enemy, friendly)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(plans))
	for _, plan := range plans {
		out = append(out, p.order(plan.Formation.ID, hexPoint(plan.AnchorHex), Attack))
	}
	return out, nil
}

// Allocation summarizes the allocation run behind a point-to-point plan.
type Allocation struct {
	Sweeps    int
	Updates   int
	Converged bool
	Value     float64
}

func summarize[P comparable](res *alloc.Result[P]) Allocation {
	return Allocation{Sweeps: res.Sweeps, Updates: res.Updates, Converged: res.Converged, Value: res.Value()}
}

// PointToPoint allocates friendly brigades to enemy brigades on the
// segment graph. Assigned brigades attack the center of their target
// segment. Unassigned friendly brigades and all enemy brigades hold.
// An unconverged allocation still yields orders; the summary reports it.
func (p *Planner) PointToPoint(ctx context.Context, friendly []string) ([]Order, Allocation, error) {
	board, err := p.SegmentBoard(ctx, friendly)
	if err != nil {
		return nil, Allocation{}, err
	}
	res, err := alloc.New[*segment.Segment](p.Params.Alloc).Allocate(ctx, board)
	if err != nil {
		return nil, Allocation{}, err
	}
	var out []Order
	for _, a := range res.Assignments {
		f, _ := p.Tree.Formation(a.UnitID)
		if a.Assigned {
			out = append(out, p.order(a.UnitID, hexPoint(a.Position.Center), Attack))
		} else {
			out = append(out, p.hold(f))
		}
	}
	for _, u := range board.Passive {
		f, _ := p.Tree.Formation(u.ID)
		out = append(out, p.hold(f))
	}
	return out, summarize(res), nil
}

// PointToPointHex is PointToPoint at unit level on the hex graph. Units
// hold on their own hex when unassigned.
func (p *Planner) PointToPointHex(ctx context.Context, friendly []string) ([]Order, Allocation, error) {
	board := p.HexBoard(friendly)
	res, err := alloc.New[*hexmap.Hex](p.Params.Alloc).Allocate(ctx, board)
	if err != nil {
		return nil, Allocation{}, err
	}
	var out []Order
	for i, a := range res.Assignments {
		if a.Assigned {
			out = append(out, p.order(a.UnitID, hexPoint(a.Position), Attack))
		} else {
			out = append(out, p.order(a.UnitID, hexPoint(board.Active[i].Position), Defend))
		}
	}
	for _, u := range board.Passive {
		out = append(out, p.order(u.ID, hexPoint(u.Position), Defend))
	}
	return out, summarize(res), nil
}
