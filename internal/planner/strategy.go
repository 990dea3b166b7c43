package planner

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// Outcome is what a strategy produced for one snapshot.
type Outcome struct {
	Orders []Order
	// Allocation is set by strategies that run the allocator.
	Allocation *Allocation
}

// Strategy turns a snapshot into orders for the friendly countries.
type Strategy interface {
	Name() string
	Plan(ctx context.Context, p *Planner, friendly []string) (*Outcome, error)
}

var strategyNames = []string{"hold", "nearest", "contour", "hierarchy", "p2p", "p2p-hex"}

// StrategyNames lists every name StrategyByName accepts.
func StrategyNames() []string { return slices.Clone(strategyNames) }

// StrategyByName returns the named strategy.
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "hold":
		return HoldStrategy{}, nil
	case "nearest":
		return NearestStrategy{}, nil
	case "contour":
		return ContourStrategy{}, nil
	case "hierarchy":
		return HierarchyStrategy{}, nil
	case "p2p":
		return PointToPointStrategy{}, nil
	case "p2p-hex":
		return PointToPointStrategy{Hexes: true}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// --- HoldStrategy ---

// HoldStrategy keeps every brigade on its anchor.
type HoldStrategy struct{}

func (HoldStrategy) Name() string { return "hold" }

func (HoldStrategy) Plan(_ context.Context, p *Planner, _ []string) (*Outcome, error) {
	return &Outcome{Orders: p.AllHold()}, nil
}

// --- NearestStrategy ---

// NearestStrategy sends each friendly brigade at the closest enemy brigade.
type NearestStrategy struct{}

func (NearestStrategy) Name() string { return "nearest" }

func (NearestStrategy) Plan(_ context.Context, p *Planner, friendly []string) (*Outcome, error) {
	return &Outcome{Orders: p.AttackNearest(friendly)}, nil
}

// --- ContourStrategy ---

type ContourStrategy struct{}

func (ContourStrategy) Name() string { return "contour" }

func (ContourStrategy) Plan(ctx context.Context, p *Planner, friendly []string) (*Outcome, error) {
	orders, err := p.Contour(ctx, friendly)
	if err != nil {
		return nil, fmt.Errorf("contour: %w", err)
	}
	return &Outcome{Orders: orders}, nil
}

// --- HierarchyStrategy ---

type HierarchyStrategy struct{}

func (HierarchyStrategy) Name() string { return "hierarchy" }

func (HierarchyStrategy) Plan(ctx context.Context, p *Planner, friendly []string) (*Outcome, error) {
	orders, err := p.HierarchyFrontal(ctx, friendly)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: %w", err)
	}
	return &Outcome{Orders: orders}, nil
}

// --- PointToPointStrategy ---

// PointToPointStrategy runs the allocator. Hexes switches from brigades on
// segments to single units on hexes.
type PointToPointStrategy struct {
	Hexes bool
}

func (s PointToPointStrategy) Name() string {
	if s.Hexes {
		return "p2p-hex"
	}
	return "p2p"
}

func (s PointToPointStrategy) Plan(ctx context.Context, p *Planner, friendly []string) (*Outcome, error) {
	run := p.PointToPoint
	if s.Hexes {
		run = p.PointToPointHex
	}
	orders, a, err := run(ctx, friendly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	ev := log.Debug()
	if !a.Converged {
		ev = log.Warn()
	}
	ev.Str("strategy", s.Name()).Int("sweeps", a.Sweeps).Int("updates", a.Updates).
		Bool("converged", a.Converged).Float64("value", a.Value).Msg("allocation finished")
	return &Outcome{Orders: orders, Allocation: &a}, nil
}
