// Package force holds the order of battle: units on the map grouped into a
// strict tree of formations with aggregate strength and position.
package force

import (
	"fmt"
	"math"

	"github.com/freeeve/hexcommand/pkg/hexmap"
)

// Unit is a leaf of the tree: one counter on the map.
type Unit struct {
	ID       string
	Name     string
	Country  string
	X, Y     int
	Strength float64
	Parent   *Formation
}

func (u *Unit) Position() hexmap.Point { return hexmap.Point{X: u.X, Y: u.Y} }

func (u *Unit) String() string {
	return fmt.Sprintf("Unit(%s %s (%d,%d) %.0f)", u.ID, u.Country, u.X, u.Y, u.Strength)
}

// Formation is an inner node of the tree. Aggregates are only valid after
// Recompute.
type Formation struct {
	ID      string
	Name    string
	Country string
	// Size is the echelon code; "B" marks a brigade.
	Size   string
	Units  []*Unit
	Subs   []*Formation
	Parent *Formation

	Strength float64
	// XMean/YMean are strength weighted, falling back to XMeanUnit/YMeanUnit,
	// the plain mean of the distinct positions, when Strength is 0.
	XMean, YMean         float64
	XMeanUnit, YMeanUnit float64
	AnchorX, AnchorY     int
	Positions            []hexmap.Point
}

// Recompute refreshes the aggregates of f and every formation below it and
// resets their parent links. Call it after changing any unit.
func (f *Formation) Recompute() {
	f.Strength = 0
	f.Positions = f.Positions[:0]
	seen := make(map[hexmap.Point]bool)
	addPos := func(p hexmap.Point) {
		if !seen[p] {
			seen[p] = true
			f.Positions = append(f.Positions, p)
		}
	}

	var wx, wy float64
	for _, u := range f.Units {
		u.Parent = f
		f.Strength += u.Strength
		wx += u.Strength * float64(u.X)
		wy += u.Strength * float64(u.Y)
		addPos(u.Position())
	}
	for _, sub := range f.Subs {
		sub.Parent = f
		sub.Recompute()
		f.Strength += sub.Strength
		wx += sub.Strength * sub.XMean
		wy += sub.Strength * sub.YMean
		for _, p := range sub.Positions {
			addPos(p)
		}
	}

	f.XMeanUnit, f.YMeanUnit = 0, 0
	for _, p := range f.Positions {
		f.XMeanUnit += float64(p.X)
		f.YMeanUnit += float64(p.Y)
	}
	if n := len(f.Positions); n > 0 {
		f.XMeanUnit /= float64(n)
		f.YMeanUnit /= float64(n)
	}
	if f.Strength > 0 {
		f.XMean, f.YMean = wx/f.Strength, wy/f.Strength
	} else {
		f.XMean, f.YMean = f.XMeanUnit, f.YMeanUnit
	}

	best := math.Inf(1)
	for _, p := range f.Positions {
		dx, dy := float64(p.X)-f.XMean, float64(p.Y)-f.YMean
		if d := dx*dx + dy*dy; d < best {
			best, f.AnchorX, f.AnchorY = d, p.X, p.Y
		}
	}
}

// Anchor is the occupied position closest to the formation mean.
func (f *Formation) Anchor() hexmap.Point { return hexmap.Point{X: f.AnchorX, Y: f.AnchorY} }

// Empty reports whether no unit below f is on the map.
func (f *Formation) Empty() bool { return len(f.Positions) == 0 }

// Flatten returns every unit below f, depth first.
func (f *Formation) Flatten() []*Unit {
	out := append([]*Unit(nil), f.Units...)
	for _, sub := range f.Subs {
		out = append(out, sub.Flatten()...)
	}
	return out
}

// Walk visits f and its descendants in pre-order.
func (f *Formation) Walk(fn func(*Formation)) {
	fn(f)
	for _, sub := range f.Subs {
		sub.Walk(fn)
	}
}

// DistanceTo is the distance between the two formation means.
func (f *Formation) DistanceTo(o *Formation) float64 {
	return math.Hypot(f.XMean-o.XMean, f.YMean-o.YMean)
}

func (f *Formation) String() string {
	parent := ""
	if f.Parent != nil {
		parent = ", parent " + f.Parent.ID
	}
	return fmt.Sprintf("Formation(%s %q %s/%s, strength %.0f, units:%d, subs:%d, positions:%d%s)",
		f.ID, f.Name, f.Country, f.Size, f.Strength, len(f.Units), len(f.Subs), len(f.Positions), parent)
}
