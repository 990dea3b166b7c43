// Package alloc assigns mover units to target positions so that the summed
// position value is as high as a greedy pass plus local search can find.
package alloc

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
)

var ErrNotConverged = errors.New("allocation did not converge")

// Unit is a unit on a board. Position is the board's position type.
type Unit[P comparable] struct {
	ID          string
	CombatValue float64
	Position    P
}

// Board supplies the units and travel times an allocation runs on.
// MoveTime returns one time per destination, math.Inf(1) when a destination
// cannot be reached.
type Board[P comparable] interface {
	ActiveUnits() []Unit[P]
	PassiveUnits() []Unit[P]
	MoveTime(src P, dsts []P) ([]float64, error)
}

// Assignment is the outcome for one active unit.
type Assignment[P comparable] struct {
	UnitID      string
	Assigned    bool
	Position    P
	ArrivalTime float64
}

// PositionSummary describes a target position after allocation.
type PositionSummary struct {
	Value    float64
	Passive  float64
	Assigned float64
}

type Result[P comparable] struct {
	// Assignments has one entry per active unit, in board order.
	Assignments []Assignment[P]
	Positions   map[P]PositionSummary
	// AssignOrder lists unit ids in the order the greedy pass placed them.
	AssignOrder []string
	Sweeps      int
	Updates     int
	Converged   bool

	run *run[P]
}

// Err returns ErrNotConverged when the sweep cap was hit.
func (r *Result[P]) Err() error {
	if !r.Converged {
		return ErrNotConverged
	}
	return nil
}

// Value is the summed value of all target positions.
func (r *Result[P]) Value() float64 {
	total := 0.0
	for _, s := range r.Positions {
		total += s.Value
	}
	return total
}

type Allocator[P comparable] struct {
	Params Params
}

func New[P comparable](p Params) *Allocator[P] { return &Allocator[P]{Params: p} }

// unitRec and target are arena records; they refer to each other by index.
type unitRec struct {
	id       string
	value    float64
	source   int
	assigned int // target index, -1 when unassigned
}

type target struct {
	passive float64
	members []int
}

type run[P comparable] struct {
	params  Params
	units   []unitRec
	sources []P
	targets []P
	tpos    []target
	times   [][]float64 // [source][target]
	order   []string
}

// Allocate runs the greedy pass and then sweeps every (unit, target) pair
// until a sweep accepts no move or MaxSweeps is reached.
func (a *Allocator[P]) Allocate(ctx context.Context, board Board[P]) (*Result[P], error) {
	r, err := newRun(a.Params, board)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.greedy()

	res := &Result[P]{run: r}
	for res.Sweeps < a.Params.MaxSweeps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := r.sweep()
		res.Sweeps++
		res.Updates += n
		if n == 0 {
			res.Converged = true
			break
		}
	}
	r.fill(res)
	return res, nil
}

// Sweep runs one more local-search sweep on res and returns the number of
// accepted moves. At a fixed point it returns 0 and changes nothing.
func (a *Allocator[P]) Sweep(res *Result[P]) int {
	n := res.run.sweep()
	res.Sweeps++
	res.Updates += n
	res.run.fill(res)
	return n
}

func newRun[P comparable](params Params, board Board[P]) (*run[P], error) {
	r := &run[P]{params: params}
	srcIdx := make(map[P]int)
	for _, u := range board.ActiveUnits() {
		i, ok := srcIdx[u.Position]
		if !ok {
			i = len(r.sources)
			srcIdx[u.Position] = i
			r.sources = append(r.sources, u.Position)
		}
		r.units = append(r.units, unitRec{id: u.ID, value: u.CombatValue * params.Coef, source: i, assigned: -1})
	}
	tgtIdx := make(map[P]int)
	for _, u := range board.PassiveUnits() {
		i, ok := tgtIdx[u.Position]
		if !ok {
			i = len(r.targets)
			tgtIdx[u.Position] = i
			r.targets = append(r.targets, u.Position)
			r.tpos = append(r.tpos, target{})
		}
		r.tpos[i].passive += u.CombatValue * params.Coef
	}

	r.times = make([][]float64, len(r.sources))
	if len(r.targets) == 0 {
		return r, nil
	}
	for i, src := range r.sources {
		times, err := board.MoveTime(src, r.targets)
		if err != nil {
			return nil, fmt.Errorf("alloc: move time from %v: %w", src, err)
		}
		if len(times) != len(r.targets) {
			return nil, fmt.Errorf("alloc: move time from %v: got %d times for %d targets", src, len(times), len(r.targets))
		}
		r.times[i] = times
	}
	return r, nil
}

func (r *run[P]) time(u, k int) float64 { return r.times[r.units[u].source][k] }

func reachable(t float64) bool { return !math.IsInf(t, 1) && !math.IsNaN(t) }

func (r *run[P]) greedy() {
	type pair struct {
		u, k int
		t    float64
	}
	var pairs []pair
	for u := range r.units {
		for k := range r.targets {
			if t := r.time(u, k); reachable(t) {
				pairs = append(pairs, pair{u, k, t})
			}
		}
	}
	slices.SortStableFunc(pairs, func(a, b pair) int { return cmp.Compare(a.t, b.t) })
	for _, p := range pairs {
		if r.units[p.u].assigned < 0 {
			r.assign(p.u, p.k)
			r.order = append(r.order, r.units[p.u].id)
			continue
		}
		r.tryUpdate(p.u, p.k)
	}
}

func (r *run[P]) sweep() int {
	n := 0
	for u := range r.units {
		for k := range r.targets {
			if reachable(r.time(u, k)) && r.tryUpdate(u, k) {
				n++
			}
		}
	}
	return n
}

// assign moves unit u to target k, or unassigns it when k < 0.
func (r *run[P]) assign(u, k int) {
	if old := r.units[u].assigned; old >= 0 {
		m := r.tpos[old].members
		r.tpos[old].members = slices.DeleteFunc(m, func(x int) bool { return x == u })
	}
	r.units[u].assigned = k
	if k >= 0 {
		r.tpos[k].members = append(r.tpos[k].members, u)
	}
}

// tryUpdate moves u to dst and keeps the move only when the value of the
// two affected positions strictly rises.
func (r *run[P]) tryUpdate(u, dst int) bool {
	src := r.units[u].assigned
	if src == dst {
		return false
	}
	before := r.value(src) + r.value(dst)
	r.assign(u, dst)
	after := r.value(src) + r.value(dst)
	if before >= after {
		r.assign(u, src)
		return false
	}
	return true
}

func (r *run[P]) value(k int) float64 {
	if k < 0 || len(r.tpos[k].members) == 0 {
		return 0
	}
	return r.params.value(r.arrivals(k), r.tpos[k].passive)
}

// arrivals lists the members of k by arrival time, unit order on ties.
func (r *run[P]) arrivals(k int) []Arrival {
	members := slices.Clone(r.tpos[k].members)
	slices.SortFunc(members, func(a, b int) int {
		if c := cmp.Compare(r.time(a, k), r.time(b, k)); c != 0 {
			return c
		}
		return a - b
	})
	out := make([]Arrival, len(members))
	for i, u := range members {
		out[i] = Arrival{Time: r.time(u, k), CombatValue: r.units[u].value}
	}
	return out
}

func (r *run[P]) fill(res *Result[P]) {
	res.Assignments = make([]Assignment[P], len(r.units))
	for u, rec := range r.units {
		a := Assignment[P]{UnitID: rec.id}
		if rec.assigned >= 0 {
			a.Assigned = true
			a.Position = r.targets[rec.assigned]
			a.ArrivalTime = r.time(u, rec.assigned)
		}
		res.Assignments[u] = a
	}
	res.Positions = make(map[P]PositionSummary, len(r.targets))
	for k, p := range r.targets {
		s := PositionSummary{Value: r.value(k), Passive: r.tpos[k].passive}
		for _, u := range r.tpos[k].members {
			s.Assigned += r.units[u].value
		}
		res.Positions[p] = s
	}
	res.AssignOrder = slices.Clone(r.order)
}
