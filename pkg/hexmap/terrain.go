// Package hexmap models an offset hex grid with terrain and edge features
// (roads, rivers) and exposes it as a weighted movement graph.
package hexmap

import (
	"errors"
	"fmt"
	"slices"
)

var ErrBadGrid = errors.New("invalid hex grid")

// TerrainCode names a hex terrain type, e.g. "clear" or "forest".
type TerrainCode string

// EdgeCode names an edge feature class, e.g. "pike" or "stream".
type EdgeCode string

// TerrainSystem lists the codes a map may use. Roads are ordered by level,
// lowest capacity first; the index of a road class is its level.
type TerrainSystem struct {
	Hex    []TerrainCode
	Roads  []EdgeCode
	Rivers []EdgeCode
}

// DefaultTerrainSystem returns the terrain set used by generated maps.
func DefaultTerrainSystem() *TerrainSystem {
	return &TerrainSystem{
		Hex:    []TerrainCode{"water", "clear", "field", "village", "forest", "orchard", "rough", "marsh", "blocked"},
		Roads:  []EdgeCode{"path", "road", "pike"},
		Rivers: []EdgeCode{"stream", "creek"},
	}
}

func (ts *TerrainSystem) HasTerrain(c TerrainCode) bool { return slices.Contains(ts.Hex, c) }

// RoadLevel returns the level of a road class, or -1 if c is not a road.
func (ts *TerrainSystem) RoadLevel(c EdgeCode) int { return slices.Index(ts.Roads, c) }

func (ts *TerrainSystem) IsRoad(c EdgeCode) bool  { return slices.Contains(ts.Roads, c) }
func (ts *TerrainSystem) IsRiver(c EdgeCode) bool { return slices.Contains(ts.Rivers, c) }

// Validate checks that no code is listed twice.
func (ts *TerrainSystem) Validate() error {
	seen := make(map[string]bool)
	for _, c := range ts.Hex {
		if seen["hex:"+string(c)] {
			return fmt.Errorf("%w: duplicate terrain %q", ErrBadGrid, c)
		}
		seen["hex:"+string(c)] = true
	}
	for _, c := range append(slices.Clone(ts.Roads), ts.Rivers...) {
		if seen["edge:"+string(c)] {
			return fmt.Errorf("%w: duplicate edge feature %q", ErrBadGrid, c)
		}
		seen["edge:"+string(c)] = true
	}
	return nil
}

// CostTable is the movement cost parameter set for one movement class.
// A terrain with base cost 0 (or absent) is impassable unless a road leads in.
type CostTable struct {
	Name  string
	Base  map[TerrainCode]float64
	Road  map[EdgeCode]float64
	River map[EdgeCode]float64
}

// DefaultCostTable returns column infantry costs for DefaultTerrainSystem.
func DefaultCostTable() *CostTable {
	return &CostTable{
		Name: "column infantry",
		Base: map[TerrainCode]float64{
			"water": 0, "blocked": 0,
			"clear": 3, "field": 3, "village": 3,
			"orchard": 4, "forest": 5, "rough": 6, "marsh": 8,
		},
		Road:  map[EdgeCode]float64{"path": 2, "road": 1.5, "pike": 1},
		River: map[EdgeCode]float64{"stream": 4, "creek": 8},
	}
}

func (c *CostTable) BaseCost(t TerrainCode) float64 { return c.Base[t] }

// Validate checks that every cost refers to a known code and is not negative.
func (c *CostTable) Validate(ts *TerrainSystem) error {
	for t, v := range c.Base {
		if !ts.HasTerrain(t) {
			return fmt.Errorf("%w: cost table %q: unknown terrain %q", ErrBadGrid, c.Name, t)
		}
		if v < 0 {
			return fmt.Errorf("%w: cost table %q: negative cost for %q", ErrBadGrid, c.Name, t)
		}
	}
	for e, v := range c.Road {
		if !ts.IsRoad(e) || v < 0 {
			return fmt.Errorf("%w: cost table %q: bad road cost %q=%v", ErrBadGrid, c.Name, e, v)
		}
	}
	for e, v := range c.River {
		if !ts.IsRiver(e) || v < 0 {
			return fmt.Errorf("%w: cost table %q: bad river cost %q=%v", ErrBadGrid, c.Name, e, v)
		}
	}
	return nil
}
