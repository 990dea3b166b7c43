package hexmap

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenSpec configures Generate.
type GenSpec struct {
	Width, Height int
	Seed          int64
}

// Generate builds a synthetic map from layered simplex noise. Elevation picks
// water, open ground, forest and rough; moisture turns low wet ground into
// marsh and dry ground into fields. A pike runs across the middle row, a road
// meanders from top to bottom and a stream splits the eastern third. The same
// spec always yields the same map.
func Generate(spec GenSpec) (*Network, error) {
	elevNoise := opensimplex.NewNormalized(spec.Seed)
	wetNoise := opensimplex.NewNormalized(spec.Seed + 1)
	roadNoise := opensimplex.NewNormalized(spec.Seed + 2)

	grid := GridSpec{
		Width:  spec.Width,
		Height: spec.Height,
		System: DefaultTerrainSystem(),
	}
	grid.Terrain = make([][]TerrainCode, spec.Height)
	grid.Heights = make([][]int, spec.Height)
	for i := range spec.Height {
		grid.Terrain[i] = make([]TerrainCode, spec.Width)
		grid.Heights[i] = make([]int, spec.Width)
		for j := range spec.Width {
			x, y := hexCenter(i, j)
			elev := octaveNoise(elevNoise, x, y, 4, 0.09, 0.5)
			wet := octaveNoise(wetNoise, x, y, 3, 0.07, 0.5)
			grid.Terrain[i][j] = deriveTerrain(elev, wet)
			grid.Heights[i][j] = int(math.Round(elev * 100))
		}
	}

	if spec.Width > 1 {
		pike := RoadSpec{Class: "pike"}
		row := spec.Height / 2
		for x := range spec.Width {
			pike.Hexes = append(pike.Hexes, Point{X: x, Y: row})
		}
		grid.Roads = append(grid.Roads, pike)
	}
	if spec.Height > 1 {
		grid.Roads = append(grid.Roads, RoadSpec{Class: "road", Hexes: meander(spec, roadNoise)})
	}
	if spec.Width > 3 {
		col := spec.Width * 2 / 3
		stream := RiverSpec{Class: "stream"}
		for y := range spec.Height {
			stream.Crossings = append(stream.Crossings, [2]Point{{X: col, Y: y}, {X: col + 1, Y: y}})
		}
		grid.Rivers = append(grid.Rivers, stream)
	}
	return NewNetwork(grid)
}

// hexCenter maps (row, column) to a continuous plane for noise sampling.
func hexCenter(i, j int) (x, y float64) {
	x = float64(j) * math.Sqrt(3) / 2
	y = float64(i)
	if j%2 != 0 {
		y -= 0.5
	}
	return x, y
}

func deriveTerrain(elev, wet float64) TerrainCode {
	switch {
	case elev < 0.28:
		return "water"
	case elev > 0.74:
		return "rough"
	case wet > 0.66 && elev < 0.42:
		return "marsh"
	case elev > 0.6:
		return "forest"
	case wet > 0.6:
		return "orchard"
	case wet < 0.35:
		return "field"
	default:
		return "clear"
	}
}

// meander walks from the top edge to the bottom edge starting a third of the
// way across, drifting sideways where the noise says so. A sideways step is
// always followed by a step down so the walk reaches the bottom.
func meander(spec GenSpec, noise opensimplex.Noise) []Point {
	i, j := 0, spec.Width/3
	out := []Point{{X: j, Y: i}}
	lateral := false
	for i < spec.Height-1 {
		d := Bottom
		if !lateral {
			v := noise.Eval2(float64(i)*0.3, float64(j)*0.3)
			switch {
			case v < 0.3 && j > 0:
				d = BottomLeft
			case v > 0.7 && j < spec.Width-1:
				d = BottomRight
			}
		}
		di, dj := Offset(j, d)
		i, j = i+di, j+dj
		lateral = d != Bottom
		out = append(out, Point{X: j, Y: i})
	}
	return out
}

// octaveNoise sums octaves of noise at doubling frequency and normalizes the
// result back to [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total, amplitude, maxVal := 0.0, 1.0, 0.0
	for range octaves {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}
