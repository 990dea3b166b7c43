package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/freeeve/hexcommand/internal/planner"
	"github.com/freeeve/hexcommand/pkg/force"
	"github.com/freeeve/hexcommand/pkg/hexmap"
)

var ErrInvalidScenario = errors.New("invalid scenario")

// MaxCells bounds width*height. The largest historical maps are well under
// a quarter of it.
const MaxCells = 1 << 20

// Scenario is a snapshot of a battle: the map, the order of battle and the
// objectives. Points are [x, y].
type Scenario struct {
	ID     string    `json:"id" yaml:"id"`
	Time   time.Time `json:"time" yaml:"time"`
	Width  int       `json:"width" yaml:"width"`
	Height int       `json:"height" yaml:"height"`

	// Generate replaces Terrain, Heights, Roads and Rivers with a synthetic
	// map of the same size.
	Generate *GenerateSpec `json:"generate,omitempty" yaml:"generate,omitempty"`

	Terrain       [][]string     `json:"terrain,omitempty" yaml:"terrain,omitempty"`
	Heights       [][]int        `json:"heights,omitempty" yaml:"heights,omitempty"`
	Roads         []Road         `json:"roads,omitempty" yaml:"roads,omitempty"`
	Rivers        []River        `json:"rivers,omitempty" yaml:"rivers,omitempty"`
	TerrainSystem *TerrainSystem `json:"terrain_system,omitempty" yaml:"terrain_system,omitempty"`
	Costs         *Costs         `json:"costs,omitempty" yaml:"costs,omitempty"`

	Objectives []Objective `json:"objectives,omitempty" yaml:"objectives,omitempty"`
	Groups     []Group     `json:"groups" yaml:"groups"`
	Units      []Unit      `json:"units" yaml:"units"`
}

type GenerateSpec struct {
	Seed int64 `json:"seed" yaml:"seed"`
}

type Road struct {
	Class string   `json:"class" yaml:"class"`
	Hexes [][2]int `json:"hexes" yaml:"hexes"`
}

// River lists the hex sides a river runs along, each as a pair of points.
type River struct {
	Class     string      `json:"class" yaml:"class"`
	Crossings [][2][2]int `json:"crossings" yaml:"crossings"`
}

type TerrainSystem struct {
	Hex    []string `json:"hex" yaml:"hex"`
	Roads  []string `json:"roads" yaml:"roads"`
	Rivers []string `json:"rivers" yaml:"rivers"`
}

type Costs struct {
	Name  string             `json:"name" yaml:"name"`
	Base  map[string]float64 `json:"base" yaml:"base"`
	Road  map[string]float64 `json:"road" yaml:"road"`
	River map[string]float64 `json:"river" yaml:"river"`
}

type Objective struct {
	X          int     `json:"x" yaml:"x"`
	Y          int     `json:"y" yaml:"y"`
	VP         float64 `json:"vp" yaml:"vp"`
	VPPerTurn1 float64 `json:"vp_per_turn1" yaml:"vp_per_turn1"`
	VPPerTurn2 float64 `json:"vp_per_turn2" yaml:"vp_per_turn2"`
}

type Group struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
	Size    string `json:"size" yaml:"size"`
	Parent  string `json:"parent,omitempty" yaml:"parent,omitempty"`
}

type Unit struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	Group    string  `json:"group" yaml:"group"`
	Country  string  `json:"country" yaml:"country"`
	X        int     `json:"x" yaml:"x"`
	Y        int     `json:"y" yaml:"y"`
	Strength float64 `json:"strength" yaml:"strength"`
}

// ParseScenario decodes a scenario from JSON, or from YAML when asYAML is set.
func ParseScenario(data []byte, asYAML bool) (*Scenario, error) {
	var s Scenario
	var err error
	if asYAML {
		err = yaml.Unmarshal(data, &s)
	} else {
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return &s, nil
}

// LoadScenario reads a scenario file. .yaml and .yml files are YAML,
// anything else JSON.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ParseScenario(data, ext == ".yaml" || ext == ".yml")
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidScenario, fmt.Sprintf(format, args...))
}

func (s *Scenario) inBounds(x, y int) bool {
	return x >= 0 && x < s.Width && y >= 0 && y < s.Height
}

// Validate checks the parts of a scenario the core packages do not: sizes,
// bounds and strengths. Map and tree structure are checked by Build.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return invalid("missing id")
	}
	if s.Width <= 0 || s.Height <= 0 {
		return invalid("size %dx%d", s.Width, s.Height)
	}
	if s.Width > MaxCells || s.Height > MaxCells || s.Width*s.Height > MaxCells {
		return invalid("size %dx%d exceeds %d cells", s.Width, s.Height, MaxCells)
	}
	if s.Generate == nil {
		if len(s.Terrain) != s.Height {
			return invalid("terrain has %d rows, want %d", len(s.Terrain), s.Height)
		}
		for y, row := range s.Terrain {
			if len(row) != s.Width {
				return invalid("terrain row %d has %d columns, want %d", y, len(row), s.Width)
			}
		}
	}
	if len(s.Units) == 0 {
		return invalid("no units")
	}
	for _, u := range s.Units {
		if !s.inBounds(u.X, u.Y) {
			return invalid("unit %q at (%d,%d) is off the map", u.ID, u.X, u.Y)
		}
		if math.IsNaN(u.Strength) || math.IsInf(u.Strength, 0) || u.Strength < 0 {
			return invalid("unit %q has strength %v", u.ID, u.Strength)
		}
	}
	for _, o := range s.Objectives {
		if !s.inBounds(o.X, o.Y) {
			return invalid("objective at (%d,%d) is off the map", o.X, o.Y)
		}
	}
	return nil
}

// Snapshot is a scenario converted to core types.
type Snapshot struct {
	Network    *hexmap.Network
	Graph      *hexmap.MoveGraph
	Tree       *force.Tree
	Objectives []planner.Objective
	Time       time.Time
}

// Build validates s and converts it.
func (s *Scenario) Build() (*Snapshot, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	g, err := s.BuildMap()
	if err != nil {
		return nil, err
	}
	tree, objectives, err := s.BuildForces()
	if err != nil {
		return nil, err
	}
	return &Snapshot{Network: g.Network, Graph: g, Tree: tree, Objectives: objectives, Time: s.Time}, nil
}

// BuildMap converts the map and its cost table into a movement graph.
func (s *Scenario) BuildMap() (*hexmap.MoveGraph, error) {
	net, err := s.network()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	costs := hexmap.DefaultCostTable()
	if s.Costs != nil {
		costs = s.Costs.table()
	}
	if err := costs.Validate(net.Terrain); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return hexmap.NewMoveGraph(net, costs), nil
}

// BuildForces converts the order of battle and the objectives.
func (s *Scenario) BuildForces() (*force.Tree, []planner.Objective, error) {
	units := make([]force.UnitSpec, len(s.Units))
	for i, u := range s.Units {
		units[i] = force.UnitSpec{ID: u.ID, Name: u.Name, Group: u.Group, Country: u.Country, X: u.X, Y: u.Y, Strength: u.Strength}
	}
	groups := make([]force.GroupSpec, len(s.Groups))
	for i, g := range s.Groups {
		groups[i] = force.GroupSpec{ID: g.ID, Name: g.Name, Country: g.Country, Size: g.Size, Parent: g.Parent}
	}
	tree, err := force.Build(units, groups)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	objectives := make([]planner.Objective, len(s.Objectives))
	for i, o := range s.Objectives {
		objectives[i] = planner.Objective{X: o.X, Y: o.Y, VP: o.VP, VPPerTurn1: o.VPPerTurn1, VPPerTurn2: o.VPPerTurn2}
	}
	return tree, objectives, nil
}

func (s *Scenario) network() (*hexmap.Network, error) {
	if s.Generate != nil {
		return hexmap.Generate(hexmap.GenSpec{Width: s.Width, Height: s.Height, Seed: s.Generate.Seed})
	}
	grid := hexmap.GridSpec{Width: s.Width, Height: s.Height, Heights: s.Heights}
	grid.Terrain = make([][]hexmap.TerrainCode, len(s.Terrain))
	for y, row := range s.Terrain {
		grid.Terrain[y] = make([]hexmap.TerrainCode, len(row))
		for x, c := range row {
			grid.Terrain[y][x] = hexmap.TerrainCode(c)
		}
	}
	for _, r := range s.Roads {
		rs := hexmap.RoadSpec{Class: hexmap.EdgeCode(r.Class)}
		for _, p := range r.Hexes {
			rs.Hexes = append(rs.Hexes, hexmap.Point{X: p[0], Y: p[1]})
		}
		grid.Roads = append(grid.Roads, rs)
	}
	for _, r := range s.Rivers {
		rs := hexmap.RiverSpec{Class: hexmap.EdgeCode(r.Class)}
		for _, c := range r.Crossings {
			rs.Crossings = append(rs.Crossings, [2]hexmap.Point{{X: c[0][0], Y: c[0][1]}, {X: c[1][0], Y: c[1][1]}})
		}
		grid.Rivers = append(grid.Rivers, rs)
	}
	if ts := s.TerrainSystem; ts != nil {
		grid.System = &hexmap.TerrainSystem{
			Hex:    codes[hexmap.TerrainCode](ts.Hex),
			Roads:  codes[hexmap.EdgeCode](ts.Roads),
			Rivers: codes[hexmap.EdgeCode](ts.Rivers),
		}
	}
	return hexmap.NewNetwork(grid)
}

func codes[C ~string](in []string) []C {
	out := make([]C, len(in))
	for i, s := range in {
		out[i] = C(s)
	}
	return out
}

func (c *Costs) table() *hexmap.CostTable {
	t := &hexmap.CostTable{
		Name:  c.Name,
		Base:  make(map[hexmap.TerrainCode]float64, len(c.Base)),
		Road:  make(map[hexmap.EdgeCode]float64, len(c.Road)),
		River: make(map[hexmap.EdgeCode]float64, len(c.River)),
	}
	for k, v := range c.Base {
		t.Base[hexmap.TerrainCode(k)] = v
	}
	for k, v := range c.Road {
		t.Road[hexmap.EdgeCode(k)] = v
	}
	for k, v := range c.River {
		t.River[hexmap.EdgeCode(k)] = v
	}
	return t
}

// MapFingerprint hashes the parts of the scenario that shape the movement
// graph. Scenarios with the same fingerprint can share frozen graphs.
func (s *Scenario) MapFingerprint() string {
	m := struct {
		W, H    int
		Gen     *GenerateSpec
		Terrain [][]string
		Roads   []Road
		Rivers  []River
		TS      *TerrainSystem
		Costs   *Costs
	}{s.Width, s.Height, s.Generate, s.Terrain, s.Roads, s.Rivers, s.TerrainSystem, s.Costs}
	// encoding/json sorts map keys, so equal maps hash equally.
	data, _ := json.Marshal(m)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
