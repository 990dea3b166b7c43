package planner

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexcommand/pkg/force"
	"github.com/freeeve/hexcommand/pkg/graph"
	"github.com/freeeve/hexcommand/pkg/hexmap"
)

// Frontier splits the map at an enemy influence threshold.
type Frontier struct {
	Blocked    graph.Set[*hexmap.Hex]
	BlockedSeq []*hexmap.Hex
	// Available lists the open hexes touching a blocked hex, in the order
	// the blocked hexes were scanned.
	Available []*hexmap.Hex
}

// Graph is the move graph with the blocked hexes removed.
func (fr *Frontier) Graph(base graph.Enumerable[*hexmap.Hex]) graph.Blocked[*hexmap.Hex] {
	return graph.Blocked[*hexmap.Hex]{Graph: base, Blocked: fr.Blocked}
}

// BlockedAndAvailable marks every hex whose enemy influence exceeds
// threshold as blocked.
func (p *Planner) BlockedAndAvailable(enemy *Field, threshold float64) *Frontier {
	fr := &Frontier{Blocked: graph.NewSet[*hexmap.Hex]()}
	for _, h := range p.Network.Nodes() {
		if enemy.At(h.I, h.J) > threshold {
			fr.Blocked.Add(h)
			fr.BlockedSeq = append(fr.BlockedSeq, h)
		}
	}
	seen := graph.NewSet[*hexmap.Hex]()
	for _, h := range fr.BlockedSeq {
		for _, nb := range p.Graph.Neighbors(h) {
			if fr.Blocked.Has(nb) || seen.Has(nb) {
				continue
			}
			seen.Add(nb)
			fr.Available = append(fr.Available, nb)
		}
	}
	return fr
}

// DispatchPlan sends a formation to a stretch of the frontier.
type DispatchPlan struct {
	Formation      *force.Formation
	AnchorHex      *hexmap.Hex
	AllocatedSpace []*hexmap.Hex
	DesignedWidth  int
}

// DesignedWidth is the number of frontier hexes a formation of the given
// strength should hold.
func (p *Planner) DesignedWidth(strength float64) int {
	w := int(math.Ceil(strength / p.Params.StrengthPerHex))
	return max(w, 1)
}

// AllocateSpace hands out available hexes to formations, closest pair
// first. Distances are measured on frozen from each formation's anchor and
// bounded by StrengthBudget. The chosen hex is the plan's anchor; the rest
// of its space is claimed breadth first over the move graph until the
// designed width is reached. Formations that reach no remaining hex get no
// plan. frozen is only read, so one snapshot can serve a whole hierarchy.
func (p *Planner) AllocateSpace(ctx context.Context, available []*hexmap.Hex, formations []*force.Formation, frozen *graph.Frozen[*hexmap.Hex]) ([]DispatchPlan, error) {
	budget := p.Params.Influence.StrengthBudget

	type pending struct {
		f     *force.Formation
		reach graph.Reach[*hexmap.Hex]
	}
	var todo []*pending
	for _, f := range formations {
		if f.Empty() {
			continue
		}
		h := p.hexAt(f.Anchor())
		if h == nil {
			continue
		}
		todo = append(todo, &pending{f: f, reach: frozen.Reachable(h, budget)})
	}

	open := graph.NewSet(available...)
	var plans []DispatchPlan
	for len(todo) > 0 && len(open) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		best, bestHex, bestCost := -1, (*hexmap.Hex)(nil), math.Inf(1)
		for k, t := range todo {
			for _, h := range available {
				if !open.Has(h) {
					continue
				}
				if a, ok := t.reach[h]; ok && a.Cost < bestCost {
					best, bestHex, bestCost = k, h, a.Cost
				}
			}
		}
		if best < 0 {
			break
		}
		f := todo[best].f
		todo = append(todo[:best], todo[best+1:]...)

		width := p.DesignedWidth(f.Strength)
		space := p.claim(bestHex, open, width)
		plans = append(plans, DispatchPlan{
			Formation:      f,
			AnchorHex:      bestHex,
			AllocatedSpace: space,
			DesignedWidth:  width,
		})
	}
	return plans, nil
}

// claim takes start and then open hexes breadth first from it until width
// hexes are taken. Claimed hexes leave open.
func (p *Planner) claim(start *hexmap.Hex, open graph.Set[*hexmap.Hex], width int) []*hexmap.Hex {
	open.Remove(start)
	space := []*hexmap.Hex{start}
	for q := 0; q < len(space) && len(space) < width; q++ {
		for _, nb := range p.Graph.Neighbors(space[q]) {
			if len(space) >= width {
				break
			}
			if open.Has(nb) {
				open.Remove(nb)
				space = append(space, nb)
			}
		}
	}
	return space
}

// ContourPlan spreads the friendly brigades along the whole frontier
// around enemy influence.
func (p *Planner) ContourPlan(ctx context.Context, enemy *Field, friendly []string) ([]DispatchPlan, error) {
	fr := p.BlockedAndAvailable(enemy, p.Params.Influence.TargetInfluenceThreshold)
	mine, _ := p.split(friendly)
	return p.AllocateSpace(ctx, fr.Available, mine, graph.Freeze(fr.Graph(p.Graph), hexmap.Coord))
}

// HierarchyPlan dispatches the top friendly formations along the frontier,
// then splits each formation's space among its own subformations, down to
// formations with a single child. Plans come out parent before child.
func (p *Planner) HierarchyPlan(ctx context.Context, enemy *Field, friendly []string) ([]DispatchPlan, error) {
	fr := p.BlockedAndAvailable(enemy, p.Params.Influence.TargetInfluenceThreshold)
	frozen := graph.Freeze(fr.Graph(p.Graph), hexmap.Coord)

	var tops []*force.Formation
	for _, f := range p.Tree.Root.Subs {
		if countrySet(friendly).has(f.Country) {
			tops = append(tops, f)
		}
	}
	first, err := p.AllocateSpace(ctx, fr.Available, tops, frozen)
	if err != nil {
		return nil, err
	}

	var out []DispatchPlan
	stack := [][]DispatchPlan{first}
	for len(stack) > 0 {
		plans := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, plan := range plans {
			if len(out) >= p.Params.MaxPlans {
				log.Warn().Int("maxPlans", p.Params.MaxPlans).Msg("hierarchy plan truncated")
				return out, nil
			}
			out = append(out, plan)
			if len(plan.Formation.Subs) <= 1 {
				continue
			}
			space := append([]*hexmap.Hex(nil), plan.AllocatedSpace...)
			sub, err := p.AllocateSpace(ctx, space, plan.Formation.Subs, frozen)
			if err != nil {
				return nil, err
			}
			stack = append(stack, sub)
		}
	}
	return out, nil
}
