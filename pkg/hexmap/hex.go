package hexmap

import (
	"fmt"
	"slices"
)

// Direction is one of the six hex sides, clockwise from Top.
type Direction int

const (
	Top Direction = iota
	TopRight
	BottomRight
	Bottom
	BottomLeft
	TopLeft
)

func (d Direction) String() string {
	switch d {
	case Top:
		return "top"
	case TopRight:
		return "top-right"
	case BottomRight:
		return "bottom-right"
	case Bottom:
		return "bottom"
	case BottomLeft:
		return "bottom-left"
	case TopLeft:
		return "top-left"
	default:
		return "unknown"
	}
}

func (d Direction) Opposite() Direction { return (d + 3) % 6 }

// (di, dj) offsets by direction; the column parity picks the table.
var (
	evenColumnOffsets = [6][2]int{{-1, 0}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}}
	oddColumnOffsets  = [6][2]int{{-1, 0}, {-1, 1}, {0, 1}, {1, 0}, {0, -1}, {-1, -1}}
)

// Offset returns the (di, dj) step from a hex in column j toward d.
func Offset(j int, d Direction) (di, dj int) {
	o := evenColumnOffsets[d]
	if j%2 != 0 {
		o = oddColumnOffsets[d]
	}
	return o[0], o[1]
}

// Edge holds the features on the side shared by two adjacent hexes.
type Edge struct {
	Direction Direction
	Roads     []EdgeCode
	Rivers    []EdgeCode
}

func (e *Edge) HasRoad() bool                 { return len(e.Roads) > 0 }
func (e *Edge) HasRiver() bool                { return len(e.Rivers) > 0 }
func (e *Edge) ContainsRoad(c EdgeCode) bool  { return slices.Contains(e.Roads, c) }
func (e *Edge) ContainsRiver(c EdgeCode) bool { return slices.Contains(e.Rivers, c) }

func (e *Edge) addRoad(c EdgeCode) {
	if !e.ContainsRoad(c) {
		e.Roads = append(e.Roads, c)
	}
}

func (e *Edge) addRiver(c EdgeCode) {
	if !e.ContainsRiver(c) {
		e.Rivers = append(e.Rivers, c)
	}
}

// Hex is a grid cell. I is the row and J the column; X and Y are the same
// coordinates in map order.
type Hex struct {
	I, J    int
	Terrain TerrainCode
	Height  int
	Edges   map[*Hex]*Edge

	adjacent []*Hex // in direction order
}

func (h *Hex) X() int { return h.J }
func (h *Hex) Y() int { return h.I }

func (h *Hex) String() string {
	return fmt.Sprintf("Hex(%d,%d %s)", h.X(), h.Y(), h.Terrain)
}

// Adjacent returns the in-bounds neighbors in direction order.
func (h *Hex) Adjacent() []*Hex { return h.adjacent }

// HasRoad reports whether any side of h carries a road.
func (h *Hex) HasRoad() bool {
	for _, e := range h.Edges {
		if e.HasRoad() {
			return true
		}
	}
	return false
}

// RoadDegree counts the sides of h carrying road class c.
func (h *Hex) RoadDegree(c EdgeCode) int {
	n := 0
	for _, e := range h.Edges {
		if e.ContainsRoad(c) {
			n++
		}
	}
	return n
}

// TopRoadLevel returns the highest road level touching h, or -1.
func (h *Hex) TopRoadLevel(ts *TerrainSystem) int {
	for level := len(ts.Roads) - 1; level >= 0; level-- {
		if h.RoadDegree(ts.Roads[level]) > 0 {
			return level
		}
	}
	return -1
}
