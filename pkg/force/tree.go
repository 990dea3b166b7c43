package force

import (
	"errors"
	"fmt"
	"slices"
)

var ErrBadTree = errors.New("invalid order of battle")

// RootID names the synthetic root added when several groups have no parent.
const RootID = "root"

// Brigade is the echelon code of formations the planner gives orders to.
const Brigade = "B"

// GroupSpec declares a formation. An empty Parent makes it a top-level group.
type GroupSpec struct {
	ID      string
	Name    string
	Country string
	Size    string
	Parent  string
}

// UnitSpec declares a unit on the map. An empty Group attaches it to the root.
type UnitSpec struct {
	ID       string
	Name     string
	Group    string
	Country  string
	X, Y     int
	Strength float64
}

// Tree is a built order of battle.
type Tree struct {
	Root       *Formation
	Units      []*Unit
	Formations []*Formation

	byID map[string]*Formation
}

// Build links units and groups into a tree and computes its aggregates.
// Children keep the order they are declared in.
func Build(units []UnitSpec, groups []GroupSpec) (*Tree, error) {
	t := &Tree{byID: make(map[string]*Formation, len(groups)+1)}
	for _, g := range groups {
		if g.ID == "" {
			return nil, fmt.Errorf("%w: group without id", ErrBadTree)
		}
		if _, dup := t.byID[g.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate group %q", ErrBadTree, g.ID)
		}
		f := &Formation{ID: g.ID, Name: g.Name, Country: g.Country, Size: g.Size}
		t.byID[g.ID] = f
		t.Formations = append(t.Formations, f)
	}

	var tops []*Formation
	for _, g := range groups {
		f := t.byID[g.ID]
		if g.Parent == "" {
			tops = append(tops, f)
			continue
		}
		p, ok := t.byID[g.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: group %q has unknown parent %q", ErrBadTree, g.ID, g.Parent)
		}
		p.Subs = append(p.Subs, f)
		f.Parent = p
	}
	for _, f := range t.Formations {
		if err := checkAcyclic(f, len(t.Formations)); err != nil {
			return nil, err
		}
	}

	var loose []*Unit
	unitIDs := make(map[string]bool, len(units))
	for _, us := range units {
		if unitIDs[us.ID] {
			return nil, fmt.Errorf("%w: duplicate unit %q", ErrBadTree, us.ID)
		}
		unitIDs[us.ID] = true
		if us.Strength < 0 {
			return nil, fmt.Errorf("%w: unit %q has negative strength", ErrBadTree, us.ID)
		}
		u := &Unit{ID: us.ID, Name: us.Name, Country: us.Country, X: us.X, Y: us.Y, Strength: us.Strength}
		t.Units = append(t.Units, u)
		if us.Group == "" {
			loose = append(loose, u)
			continue
		}
		f, ok := t.byID[us.Group]
		if !ok {
			return nil, fmt.Errorf("%w: unit %q in unknown group %q", ErrBadTree, us.ID, us.Group)
		}
		f.Units = append(f.Units, u)
		if f.Country == "" {
			f.Country = u.Country
		}
	}

	if len(tops) == 1 && len(loose) == 0 {
		t.Root = tops[0]
	} else {
		if _, taken := t.byID[RootID]; taken {
			return nil, fmt.Errorf("%w: group id %q is reserved", ErrBadTree, RootID)
		}
		t.Root = &Formation{ID: RootID, Name: "all forces", Units: loose, Subs: tops}
		t.byID[RootID] = t.Root
		t.Formations = append([]*Formation{t.Root}, t.Formations...)
	}
	t.Root.Parent = nil
	t.Root.Recompute()
	return t, nil
}

func checkAcyclic(f *Formation, limit int) error {
	steps := 0
	for p := f.Parent; p != nil; p = p.Parent {
		if steps++; steps > limit {
			return fmt.Errorf("%w: group %q is its own ancestor", ErrBadTree, f.ID)
		}
	}
	return nil
}

// Recompute refreshes every aggregate in the tree.
func (t *Tree) Recompute() { t.Root.Recompute() }

// Formation looks a formation up by id.
func (t *Tree) Formation(id string) (*Formation, bool) {
	f, ok := t.byID[id]
	return f, ok
}

// Brigades returns the brigades with at least one unit on the map, in tree
// pre-order.
func (t *Tree) Brigades() []*Formation {
	var out []*Formation
	t.Root.Walk(func(f *Formation) {
		if f.Size == Brigade && !f.Empty() {
			out = append(out, f)
		}
	})
	return out
}

// Countries returns the distinct unit countries, sorted.
func (t *Tree) Countries() []string {
	var out []string
	for _, u := range t.Units {
		if !slices.Contains(out, u.Country) {
			out = append(out, u.Country)
		}
	}
	slices.Sort(out)
	return out
}
