package alloc

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/freeeve/hexcommand/pkg/combat"
)

// Params tunes the valuation and the search.
type Params struct {
	// Coef scales every unit's combat value.
	Coef float64
	// DiscountRate r discounts a value reached at time t by 1/(1+r)^t.
	DiscountRate float64
	// LanchesterPercent is the break point of each simulated fight.
	LanchesterPercent float64
	// Diversionary terms: exponential CDF rates over arrival time and over
	// the attacker/defender strength ratio, and the weight of their integral.
	DiversionaryTimeLambda    float64
	DiversionaryPercentLambda float64
	DiversionaryCoef          float64
	// LossCoef weights the best discounted exchange.
	LossCoef float64
	// MaxSweeps caps local-search sweeps. 0 keeps the greedy assignment
	// and reports it unconverged.
	MaxSweeps int
}

func DefaultParams() Params {
	return Params{
		Coef:                      1,
		DiscountRate:              0.1,
		LanchesterPercent:         0.5,
		DiversionaryTimeLambda:    5,
		DiversionaryPercentLambda: 1,
		DiversionaryCoef:          1,
		LossCoef:                  5,
		MaxSweeps:                 100,
	}
}

// Arrival is one unit reaching a position.
type Arrival struct {
	Time        float64
	CombatValue float64
}

// PositionValue values a position defended by passive strength against the
// given arrivals. No arrivals is worth 0.
func (p Params) PositionValue(arrivals []Arrival, passive float64) float64 {
	if len(arrivals) == 0 {
		return 0
	}
	sorted := slices.Clone(arrivals)
	slices.SortStableFunc(sorted, func(a, b Arrival) int { return cmp.Compare(a.Time, b.Time) })
	return p.value(sorted, passive)
}

// value walks arrivals in time order. At each arrival the accumulated
// attackers fight the defenders to LanchesterPercent and the discounted
// exchange is recorded; the best one counts. Between arrivals the exponential
// time mass is weighted by how strong the attack already is.
// sorted must not be empty.
func (p Params) value(sorted []Arrival, passive float64) float64 {
	if len(sorted) == 0 {
		panic("alloc: position value of an empty arrival list")
	}
	var (
		accum   float64
		massInt float64
		lastT   float64
		present = make([]float64, len(sorted))
	)
	for i, a := range sorted {
		if i > 0 {
			massInt += (p.timeMass(a.Time) - p.timeMass(lastT)) * p.strengthMass(accum, passive)
		}
		lastT = a.Time
		accum += a.CombatValue

		fight := combat.New(accum, passive)
		fight.FightToMinPercent(p.LanchesterPercent)
		exchange := fight.BlueLoss() - fight.RedLoss()
		present[i] = exchange / math.Pow(1+p.DiscountRate, a.Time)
	}
	massInt += (1 - p.timeMass(lastT)) * p.strengthMass(accum, passive)

	return p.LossCoef*math.Max(0, floats.Max(present)) + p.DiversionaryCoef*massInt
}

func expCDF(x, lambda float64) float64 { return 1 - math.Exp(-x*lambda) }

func (p Params) timeMass(t float64) float64 { return expCDF(t, p.DiversionaryTimeLambda) }

func (p Params) strengthMass(assigned, passive float64) float64 {
	if passive <= 0 {
		if assigned > 0 {
			return 1
		}
		return 0
	}
	return expCDF(assigned/passive, p.DiversionaryPercentLambda)
}
