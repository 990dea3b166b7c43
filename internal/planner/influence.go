package planner

import (
	"math"

	"github.com/freeeve/hexcommand/pkg/graph"
	"github.com/freeeve/hexcommand/pkg/hexmap"
)

type InfluenceParams struct {
	VPBudget       float64
	VPDecay        float64
	FriendlyDecay  float64
	EnemyDecay     float64
	StrengthBudget float64
	// TargetInfluenceThreshold is the enemy influence above which a hex
	// counts as held by the enemy when drawing the frontier. Lower values
	// push the frontier outward.
	TargetInfluenceThreshold float64
}

func DefaultInfluenceParams() InfluenceParams {
	return InfluenceParams{
		VPBudget:                 100,
		VPDecay:                  0.1,
		FriendlyDecay:            0.5,
		EnemyDecay:               0.5,
		StrengthBudget:           50,
		TargetInfluenceThreshold: 100,
	}
}

// stamp adds source * exp(-decay * cost) to every hex in reach.
func stamp(f *Field, reach graph.Reach[*hexmap.Hex], source, decay float64) {
	for h, a := range reach {
		f.Add(h.I, h.J, source*math.Exp(-decay*a.Cost))
	}
}

// VPField spreads every objective's points over the hexes within VPBudget.
func (p *Planner) VPField() *Field {
	f := fieldFor(p.Network)
	ip := p.Params.Influence
	for _, o := range p.Objectives {
		h := p.Network.At(o.X, o.Y)
		if h == nil {
			continue
		}
		stamp(f, p.Paths.Reachable(h, ip.VPBudget), o.Points(), ip.VPDecay)
	}
	return f
}

type anchorGroup struct {
	hex             *hexmap.Hex
	friendly, enemy float64
}

// BrigadeFields stamps brigade strength from each brigade's anchor hex.
// Brigades sharing an anchor share one reachability search.
func (p *Planner) BrigadeFields(friendly []string) (fr, en *Field) {
	var groups []*anchorGroup
	byHex := make(map[*hexmap.Hex]*anchorGroup)
	for _, b := range p.Tree.Brigades() {
		h := p.hexAt(b.Anchor())
		if h == nil {
			continue
		}
		g, ok := byHex[h]
		if !ok {
			g = &anchorGroup{hex: h}
			byHex[h] = g
			groups = append(groups, g)
		}
		if countrySet(friendly).has(b.Country) {
			g.friendly += b.Strength
		} else {
			g.enemy += b.Strength
		}
	}
	return p.stampGroups(groups)
}

// UnitFields stamps each unit's strength from its own hex.
func (p *Planner) UnitFields(friendly []string) (fr, en *Field) {
	var groups []*anchorGroup
	byHex := make(map[*hexmap.Hex]*anchorGroup)
	for _, u := range p.Tree.Units {
		h := p.hexAt(u.Position())
		if h == nil {
			continue
		}
		g, ok := byHex[h]
		if !ok {
			g = &anchorGroup{hex: h}
			byHex[h] = g
			groups = append(groups, g)
		}
		if countrySet(friendly).has(u.Country) {
			g.friendly += u.Strength
		} else {
			g.enemy += u.Strength
		}
	}
	return p.stampGroups(groups)
}

func (p *Planner) stampGroups(groups []*anchorGroup) (fr, en *Field) {
	ip := p.Params.Influence
	fr, en = fieldFor(p.Network), fieldFor(p.Network)
	for _, g := range groups {
		reach := p.Paths.Reachable(g.hex, ip.StrengthBudget)
		if g.friendly > 0 {
			stamp(fr, reach, g.friendly, ip.FriendlyDecay)
		}
		if g.enemy > 0 {
			stamp(en, reach, g.enemy, ip.EnemyDecay)
		}
	}
	return fr, en
}

// InfluenceMap is the full set of influence fields for one side.
type InfluenceMap struct {
	VP          *Field
	Friendly    *Field
	Enemy       *Field
	Engagement  *Field
	Control     *Field
	AssignValue *Field

	MaxFriendly   float64
	MaxFriendlyAt hexmap.Point
	MaxEnemy      float64
	MaxEnemyAt    hexmap.Point
}

// InfluenceMap computes every field from unit positions, seen from the
// given friendly countries.
func (p *Planner) InfluenceMap(friendly []string) (*InfluenceMap, error) {
	m := &InfluenceMap{VP: p.VPField()}
	m.Friendly, m.Enemy = p.UnitFields(friendly)

	var err error
	if m.Engagement, err = Engagement(m.Friendly, m.Enemy); err != nil {
		return nil, err
	}
	if m.Control, err = Control(m.Friendly, m.Enemy); err != nil {
		return nil, err
	}
	if m.AssignValue, err = AssignValue(m.VP, m.Friendly, m.Enemy); err != nil {
		return nil, err
	}

	var i, j int
	m.MaxFriendly, i, j = m.Friendly.FindMax()
	m.MaxFriendlyAt = hexmap.Point{X: j, Y: i}
	m.MaxEnemy, i, j = m.Enemy.FindMax()
	m.MaxEnemyAt = hexmap.Point{X: j, Y: i}
	return m, nil
}
