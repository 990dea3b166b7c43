// Package combat implements Lanchester's square-law attrition model.
package combat

import (
	"fmt"
	"math"
)

// Lanchester is a two-sided engagement under the square law. Red and Blue
// start at Red0 and Blue0; the coefficients weight each side's fire.
// FightToMinPercent fills RedCurrent and BlueCurrent.
type Lanchester struct {
	Red0, Blue0       float64
	RedCoef, BlueCoef float64

	RedCurrent, BlueCurrent float64
}

// New returns an engagement with both coefficients at 1.
func New(red0, blue0 float64) *Lanchester {
	return &Lanchester{Red0: red0, Blue0: blue0, RedCoef: 1, BlueCoef: 1, RedCurrent: red0, BlueCurrent: blue0}
}

func (l *Lanchester) RedLoss() float64  { return l.Red0 - l.RedCurrent }
func (l *Lanchester) BlueLoss() float64 { return l.Blue0 - l.BlueCurrent }

// Solve returns one side's strength once the other side has fallen from
// blue0 to blueCurrent. A negative radicand means the side was wiped out
// before that point and yields 0.
func Solve(blue0, blueCoef, blueCurrent, red0, redCoef float64) float64 {
	r := red0*red0 - (blueCoef/redCoef)*(blue0*blue0-blueCurrent*blueCurrent)
	if r <= 0 {
		return 0
	}
	return math.Sqrt(r)
}

// SolveRed returns red strength when blue stands at blueCurrent.
func (l *Lanchester) SolveRed(blueCurrent float64) float64 {
	return Solve(l.Blue0, l.BlueCoef, blueCurrent, l.Red0, l.RedCoef)
}

// SolveBlue returns blue strength when red stands at redCurrent.
func (l *Lanchester) SolveBlue(redCurrent float64) float64 {
	return Solve(l.Red0, l.RedCoef, redCurrent, l.Blue0, l.BlueCoef)
}

// FightToMinPercent runs the fight until the first side is reduced to
// fraction p of its starting strength. It first assumes red breaks and
// checks that blue is still above p at that point; if not, blue breaks first.
// An absent blue side leaves red untouched.
func (l *Lanchester) FightToMinPercent(p float64) {
	if l.Blue0 <= 0 {
		l.BlueCurrent, l.RedCurrent = 0, l.Red0
		return
	}
	blue := l.SolveBlue(l.Red0 * p)
	if blue/l.Blue0 > p {
		l.BlueCurrent, l.RedCurrent = blue, l.Red0*p
		return
	}
	l.BlueCurrent = l.Blue0 * p
	l.RedCurrent = l.SolveRed(l.BlueCurrent)
}

func (l *Lanchester) String() string {
	return fmt.Sprintf("Lanchester(red %.2f->%.2f x%.2f, blue %.2f->%.2f x%.2f)",
		l.Red0, l.RedCurrent, l.RedCoef, l.Blue0, l.BlueCurrent, l.BlueCoef)
}
