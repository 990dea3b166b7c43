package hexmap

import (
	"fmt"
)

// Point is a hex coordinate in map order (X = column, Y = row).
type Point struct {
	X, Y int
}

// RoadSpec is a road polyline: consecutive points must be adjacent hexes.
type RoadSpec struct {
	Class EdgeCode
	Hexes []Point
}

// RiverSpec lists the hex pairs whose shared side carries a river.
type RiverSpec struct {
	Class     EdgeCode
	Crossings [][2]Point
}

// GridSpec describes a map to build. Terrain is indexed [y][x].
type GridSpec struct {
	Width, Height int
	Terrain       [][]TerrainCode
	Heights       [][]int
	Roads         []RoadSpec
	Rivers        []RiverSpec
	System        *TerrainSystem
}

// Network is the hex grid. Hexes is indexed [i][j] (row, column).
type Network struct {
	Width, Height int
	Hexes         [][]*Hex
	Terrain       *TerrainSystem

	nodes []*Hex
}

// NewNetwork builds a network from spec, linking every adjacent pair with a
// shared Edge per direction and laying roads and rivers on both sides.
func NewNetwork(spec GridSpec) (*Network, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrBadGrid, spec.Width, spec.Height)
	}
	if len(spec.Terrain) != spec.Height {
		return nil, fmt.Errorf("%w: terrain has %d rows, want %d", ErrBadGrid, len(spec.Terrain), spec.Height)
	}
	ts := spec.System
	if ts == nil {
		ts = DefaultTerrainSystem()
	}
	if err := ts.Validate(); err != nil {
		return nil, err
	}

	n := &Network{Width: spec.Width, Height: spec.Height, Terrain: ts}
	n.Hexes = make([][]*Hex, spec.Height)
	for i := range spec.Height {
		row := spec.Terrain[i]
		if len(row) != spec.Width {
			return nil, fmt.Errorf("%w: terrain row %d has %d columns, want %d", ErrBadGrid, i, len(row), spec.Width)
		}
		n.Hexes[i] = make([]*Hex, spec.Width)
		for j, code := range row {
			if !ts.HasTerrain(code) {
				return nil, fmt.Errorf("%w: unknown terrain %q at (%d,%d)", ErrBadGrid, code, j, i)
			}
			h := &Hex{I: i, J: j, Terrain: code, Edges: make(map[*Hex]*Edge, 6)}
			if i < len(spec.Heights) && j < len(spec.Heights[i]) {
				h.Height = spec.Heights[i][j]
			}
			n.Hexes[i][j] = h
			n.nodes = append(n.nodes, h)
		}
	}
	for _, h := range n.nodes {
		for d := Top; d <= TopLeft; d++ {
			nb := n.Neighbor(h, d)
			if nb == nil {
				continue
			}
			h.adjacent = append(h.adjacent, nb)
			h.Edges[nb] = &Edge{Direction: d}
		}
	}

	for _, r := range spec.Roads {
		if !ts.IsRoad(r.Class) {
			return nil, fmt.Errorf("%w: unknown road class %q", ErrBadGrid, r.Class)
		}
		for k := 1; k < len(r.Hexes); k++ {
			if err := n.AddRoad(r.Hexes[k-1], r.Hexes[k], r.Class); err != nil {
				return nil, err
			}
		}
	}
	for _, r := range spec.Rivers {
		if !ts.IsRiver(r.Class) {
			return nil, fmt.Errorf("%w: unknown river class %q", ErrBadGrid, r.Class)
		}
		for _, c := range r.Crossings {
			if err := n.AddRiver(c[0], c[1], r.Class); err != nil {
				return nil, err
			}
		}
	}
	return n, nil
}

// Hex returns the hex at row i, column j, or nil when out of bounds.
func (n *Network) Hex(i, j int) *Hex {
	if i < 0 || i >= n.Height || j < 0 || j >= n.Width {
		return nil
	}
	return n.Hexes[i][j]
}

// At returns the hex at map coordinate (x, y).
func (n *Network) At(x, y int) *Hex { return n.Hex(y, x) }

// Neighbor returns the hex beside h toward d, or nil at the map border.
func (n *Network) Neighbor(h *Hex, d Direction) *Hex {
	di, dj := Offset(h.J, d)
	return n.Hex(h.I+di, h.J+dj)
}

// Nodes returns every hex in row-major order.
func (n *Network) Nodes() []*Hex { return n.nodes }

func (n *Network) edgePair(a, b Point) (*Edge, *Edge, error) {
	ha, hb := n.At(a.X, a.Y), n.At(b.X, b.Y)
	if ha == nil || hb == nil {
		return nil, nil, fmt.Errorf("%w: %v-%v out of bounds", ErrBadGrid, a, b)
	}
	fwd, ok := ha.Edges[hb]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %v and %v are not adjacent", ErrBadGrid, a, b)
	}
	return fwd, hb.Edges[ha], nil
}

// AddRoad lays road class c on the side shared by a and b.
func (n *Network) AddRoad(a, b Point, c EdgeCode) error {
	fwd, back, err := n.edgePair(a, b)
	if err != nil {
		return err
	}
	fwd.addRoad(c)
	back.addRoad(c)
	return nil
}

// AddRiver puts river class c on the side shared by a and b.
func (n *Network) AddRiver(a, b Point, c EdgeCode) error {
	fwd, back, err := n.edgePair(a, b)
	if err != nil {
		return err
	}
	fwd.addRiver(c)
	back.addRiver(c)
	return nil
}
