package model

import (
	"fmt"
	"math/rand/v2"

	"github.com/freeeve/hexcommand/pkg/hexmap"
)

// Synthetic builds a generated-map scenario with two armies facing each
// other across it: "union" in the western third and "confederate" in the
// eastern third, each with corps of brigades on passable hexes. The same
// arguments always give the same scenario.
func Synthetic(seed int64, width, height, corps, brigades int) (*Scenario, error) {
	net, err := hexmap.Generate(hexmap.GenSpec{Width: width, Height: height, Seed: seed})
	if err != nil {
		return nil, err
	}
	costs := hexmap.DefaultCostTable()
	s := &Scenario{
		ID:       fmt.Sprintf("synthetic-%d", seed),
		Width:    width,
		Height:   height,
		Generate: &GenerateSpec{Seed: seed},
		Objectives: []Objective{
			{X: width / 2, Y: height / 2, VP: 50, VPPerTurn1: 2, VPPerTurn2: 2},
		},
	}
	rng := rand.New(rand.NewPCG(uint64(seed), 0x5eed))
	sides := []struct {
		country    string
		xmin, xmax int
	}{
		{"union", 0, max(width/3, 1)},
		{"confederate", width - max(width/3, 1), width},
	}
	for _, side := range sides {
		army := side.country + "-army"
		s.Groups = append(s.Groups, Group{ID: army, Name: side.country + " army", Country: side.country, Size: "A"})
		for c := range corps {
			corpsID := fmt.Sprintf("%s-c%d", side.country, c+1)
			s.Groups = append(s.Groups, Group{ID: corpsID, Size: "C", Parent: army})
			for b := range brigades {
				brigadeID := fmt.Sprintf("%s-b%d", corpsID, b+1)
				s.Groups = append(s.Groups, Group{ID: brigadeID, Size: "B", Parent: corpsID})
				for u := range 2 {
					x, y, ok := passable(rng, net, costs, side.xmin, side.xmax)
					if !ok {
						return nil, fmt.Errorf("%w: no passable hex for %s", ErrInvalidScenario, side.country)
					}
					s.Units = append(s.Units, Unit{
						ID:       fmt.Sprintf("%s-u%d", brigadeID, u+1),
						Group:    brigadeID,
						Country:  side.country,
						X:        x,
						Y:        y,
						Strength: float64(200 + rng.IntN(400)),
					})
				}
			}
		}
	}
	return s, nil
}

// passable draws hexes in columns [xmin, xmax) until one can be entered.
func passable(rng *rand.Rand, net *hexmap.Network, costs *hexmap.CostTable, xmin, xmax int) (x, y int, ok bool) {
	for range 1000 {
		x, y = xmin+rng.IntN(xmax-xmin), rng.IntN(net.Height)
		if costs.BaseCost(net.At(x, y).Terrain) > 0 {
			return x, y, true
		}
	}
	return 0, 0, false
}
