package alloc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
)

// tableBoard is a board over string positions with a fixed time table.
type tableBoard struct {
	active, passive []Unit[string]
	times           map[[2]string]float64
	err             error
}

func (b *tableBoard) ActiveUnits() []Unit[string]  { return b.active }
func (b *tableBoard) PassiveUnits() []Unit[string] { return b.passive }

func (b *tableBoard) MoveTime(src string, dsts []string) ([]float64, error) {
	if b.err != nil {
		return nil, b.err
	}
	out := make([]float64, len(dsts))
	for i, d := range dsts {
		t, ok := b.times[[2]string{src, d}]
		if !ok {
			t = math.Inf(1)
		}
		out[i] = t
	}
	return out, nil
}

func TestPositionValueEmpty(t *testing.T) {
	if got := DefaultParams().PositionValue(nil, 50); got != 0 {
		t.Errorf("PositionValue(nil) = %v, want 0", got)
	}
}

func TestInternalValuePanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("value(empty) did not panic")
		}
	}()
	DefaultParams().value(nil, 50)
}

func TestPositionValueGrowsWithStrongerThirdUnit(t *testing.T) {
	p := DefaultParams()
	two := []Arrival{{Time: 1, CombatValue: 30}, {Time: 3, CombatValue: 30}}
	three := append([]Arrival{{Time: 2, CombatValue: 100}}, two...)

	v2 := p.PositionValue(two, 50)
	v3 := p.PositionValue(three, 50)
	if !(v3 > v2) {
		t.Errorf("value with third unit = %v, want above %v", v3, v2)
	}
	if v2 <= 0 {
		t.Errorf("two-unit value = %v, want positive", v2)
	}
}

func TestTwoUnitsOneTarget(t *testing.T) {
	b := &tableBoard{
		active: []Unit[string]{
			{ID: "slow", CombatValue: 30, Position: "s"},
			{ID: "fast", CombatValue: 30, Position: "f"},
		},
		passive: []Unit[string]{{ID: "enemy", CombatValue: 50, Position: "T"}},
		times: map[[2]string]float64{
			{"s", "T"}: 3,
			{"f", "T"}: 1,
		},
	}
	res, err := New[string](DefaultParams()).Allocate(context.Background(), b)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(res.AssignOrder) == 0 || res.AssignOrder[0] != "fast" {
		t.Errorf("assign order = %v, want fast first", res.AssignOrder)
	}
	for _, a := range res.Assignments {
		if !a.Assigned || a.Position != "T" {
			t.Errorf("%s assigned=%v to %q, want T", a.UnitID, a.Assigned, a.Position)
		}
	}
	if !res.Converged || res.Err() != nil {
		t.Errorf("converged = %v, err = %v", res.Converged, res.Err())
	}
	pos := res.Positions["T"]
	if pos.Passive != 50 || pos.Assigned != 60 {
		t.Errorf("position summary = %+v", pos)
	}
	want := DefaultParams().PositionValue([]Arrival{{1, 30}, {3, 30}}, 50)
	if math.Abs(pos.Value-want) > 1e-12 {
		t.Errorf("position value = %v, want %v", pos.Value, want)
	}

	b.active = append(b.active, Unit[string]{ID: "heavy", CombatValue: 100, Position: "h"})
	b.times[[2]string{"h", "T"}] = 2
	res3, err := New[string](DefaultParams()).Allocate(context.Background(), b)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got := res3.Positions["T"].Value; !(got > pos.Value) {
		t.Errorf("value with third unit = %v, want above %v", got, pos.Value)
	}
}

func TestUnreachablePairsAreExcluded(t *testing.T) {
	b := &tableBoard{
		active: []Unit[string]{
			{ID: "a", CombatValue: 40, Position: "x"},
			{ID: "cut-off", CombatValue: 40, Position: "island"},
		},
		passive: []Unit[string]{
			{ID: "e1", CombatValue: 20, Position: "T1"},
			{ID: "e2", CombatValue: 20, Position: "T2"},
		},
		times: map[[2]string]float64{{"x", "T2"}: 2},
	}
	res, err := New[string](DefaultParams()).Allocate(context.Background(), b)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if a := res.Assignments[0]; !a.Assigned || a.Position != "T2" || a.ArrivalTime != 2 {
		t.Errorf("a = %+v, want T2 at 2", a)
	}
	if a := res.Assignments[1]; a.Assigned {
		t.Errorf("cut-off unit assigned to %q", a.Position)
	}
	if res.Positions["T1"].Value != 0 {
		t.Errorf("T1 value = %v, want 0", res.Positions["T1"].Value)
	}
}

func randomBoard(seed uint64, actives, targets int) *tableBoard {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b9))
	b := &tableBoard{times: make(map[[2]string]float64)}
	for i := range actives {
		b.active = append(b.active, Unit[string]{
			ID:          fmt.Sprintf("a%d", i),
			CombatValue: 10 + float64(rng.IntN(90)),
			Position:    fmt.Sprintf("s%d", i%(actives/2+1)),
		})
	}
	for k := range targets {
		b.passive = append(b.passive, Unit[string]{
			ID:          fmt.Sprintf("p%d", k),
			CombatValue: 20 + float64(rng.IntN(120)),
			Position:    fmt.Sprintf("t%d", k),
		})
	}
	for _, a := range b.active {
		for _, p := range b.passive {
			if rng.IntN(6) == 0 {
				continue // unreachable
			}
			b.times[[2]string{a.Position, p.Position}] = 0.2 + rng.Float64()*4
		}
	}
	return b
}

func TestSweepIsIdempotentAtFixedPoint(t *testing.T) {
	for seed := uint64(1); seed <= 8; seed++ {
		b := randomBoard(seed, 9, 4)
		alloc := New[string](DefaultParams())
		res, err := alloc.Allocate(context.Background(), b)
		if err != nil {
			t.Fatalf("seed %d: Allocate: %v", seed, err)
		}
		if !res.Converged {
			t.Fatalf("seed %d: did not converge in %d sweeps", seed, res.Sweeps)
		}
		before := res.Value()
		if n := alloc.Sweep(res); n != 0 {
			t.Errorf("seed %d: extra sweep accepted %d moves", seed, n)
		}
		if after := res.Value(); after != before {
			t.Errorf("seed %d: value changed %v -> %v", seed, before, after)
		}
	}
}

func TestAllocateIsDeterministic(t *testing.T) {
	a, err := New[string](DefaultParams()).Allocate(context.Background(), randomBoard(42, 12, 5))
	if err != nil {
		t.Fatal(err)
	}
	b, err := New[string](DefaultParams()).Allocate(context.Background(), randomBoard(42, 12, 5))
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Assignments {
		if a.Assignments[i] != b.Assignments[i] {
			t.Errorf("assignment %d: %+v vs %+v", i, a.Assignments[i], b.Assignments[i])
		}
	}
}

func TestSweepCapReportsNotConverged(t *testing.T) {
	p := DefaultParams()
	p.MaxSweeps = 0
	res, err := New[string](p).Allocate(context.Background(), randomBoard(3, 6, 3))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if res.Converged || !errors.Is(res.Err(), ErrNotConverged) {
		t.Errorf("converged = %v, err = %v, want ErrNotConverged", res.Converged, res.Err())
	}
	assigned := 0
	for _, a := range res.Assignments {
		if a.Assigned {
			assigned++
		}
	}
	if assigned == 0 {
		t.Error("greedy assignment missing from unconverged result")
	}
}

func TestMoveTimeErrorFailsRun(t *testing.T) {
	boom := errors.New("boom")
	b := randomBoard(5, 4, 2)
	b.err = boom
	_, err := New[string](DefaultParams()).Allocate(context.Background(), b)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

func TestAllocateHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New[string](DefaultParams()).Allocate(ctx, randomBoard(5, 4, 2))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNoTargets(t *testing.T) {
	b := &tableBoard{active: []Unit[string]{{ID: "a", CombatValue: 10, Position: "x"}}}
	res, err := New[string](DefaultParams()).Allocate(context.Background(), b)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(res.Assignments) != 1 || res.Assignments[0].Assigned || !res.Converged {
		t.Errorf("result = %+v", res)
	}
}

func BenchmarkAllocate(b *testing.B) {
	board := randomBoard(7, 40, 12)
	alloc := New[string](DefaultParams())
	for b.Loop() {
		if _, err := alloc.Allocate(context.Background(), board); err != nil {
			b.Fatal(err)
		}
	}
}
