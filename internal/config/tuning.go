package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/freeeve/hexcommand/internal/planner"
)

// Tuning is the YAML form of the planner coefficients. Absent keys keep
// their defaults.
type Tuning struct {
	Influence struct {
		VPBudget                 *float64 `yaml:"vp_budget"`
		VPDecay                  *float64 `yaml:"vp_decay"`
		FriendlyDecay            *float64 `yaml:"friendly_decay"`
		EnemyDecay               *float64 `yaml:"enemy_decay"`
		StrengthBudget           *float64 `yaml:"strength_budget"`
		TargetInfluenceThreshold *float64 `yaml:"target_influence_threshold"`
	} `yaml:"influence"`
	Alloc struct {
		Coef                      *float64 `yaml:"coef"`
		DiscountRate              *float64 `yaml:"discount_rate"`
		LanchesterPercent         *float64 `yaml:"lanchester_percent"`
		DiversionaryTimeLambda    *float64 `yaml:"diversionary_time_lambda"`
		DiversionaryPercentLambda *float64 `yaml:"diversionary_percent_lambda"`
		DiversionaryCoef          *float64 `yaml:"diversionary_coef"`
		LossCoef                  *float64 `yaml:"loss_coef"`
		MaxSweeps                 *int     `yaml:"max_sweeps"`
	} `yaml:"alloc"`
	AllowancePerTurn *float64 `yaml:"allowance_per_turn"`
	StrengthPerHex   *float64 `yaml:"strength_per_hex"`
	MaxPlans         *int     `yaml:"max_plans"`
	SegmentRadius    *int     `yaml:"segment_radius"`
	RoadLevelCoef    *float64 `yaml:"road_level_coef"`
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Apply overlays the tuning onto p.
func (t *Tuning) Apply(p *planner.Params) {
	set(&p.Influence.VPBudget, t.Influence.VPBudget)
	set(&p.Influence.VPDecay, t.Influence.VPDecay)
	set(&p.Influence.FriendlyDecay, t.Influence.FriendlyDecay)
	set(&p.Influence.EnemyDecay, t.Influence.EnemyDecay)
	set(&p.Influence.StrengthBudget, t.Influence.StrengthBudget)
	set(&p.Influence.TargetInfluenceThreshold, t.Influence.TargetInfluenceThreshold)

	set(&p.Alloc.Coef, t.Alloc.Coef)
	set(&p.Alloc.DiscountRate, t.Alloc.DiscountRate)
	set(&p.Alloc.LanchesterPercent, t.Alloc.LanchesterPercent)
	set(&p.Alloc.DiversionaryTimeLambda, t.Alloc.DiversionaryTimeLambda)
	set(&p.Alloc.DiversionaryPercentLambda, t.Alloc.DiversionaryPercentLambda)
	set(&p.Alloc.DiversionaryCoef, t.Alloc.DiversionaryCoef)
	set(&p.Alloc.LossCoef, t.Alloc.LossCoef)
	set(&p.Alloc.MaxSweeps, t.Alloc.MaxSweeps)

	set(&p.AllowancePerTurn, t.AllowancePerTurn)
	set(&p.StrengthPerHex, t.StrengthPerHex)
	set(&p.MaxPlans, t.MaxPlans)
	set(&p.SegmentRadius, t.SegmentRadius)
	set(&p.RoadLevelCoef, t.RoadLevelCoef)
}

// LoadParams returns the default planner parameters with the tuning file
// at path applied. An empty path or a missing file yields the defaults.
func LoadParams(path string) (planner.Params, error) {
	p := planner.DefaultParams()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read tuning: %w", err)
	}
	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return p, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	t.Apply(&p)
	if err := validateParams(p); err != nil {
		return p, fmt.Errorf("tuning %s: %w", path, err)
	}
	return p, nil
}

func validateParams(p planner.Params) error {
	switch {
	case p.AllowancePerTurn <= 0:
		return errors.New("allowance_per_turn must be positive")
	case p.StrengthPerHex <= 0:
		return errors.New("strength_per_hex must be positive")
	case p.SegmentRadius < 0:
		return errors.New("segment_radius must not be negative")
	case p.Alloc.MaxSweeps < 0:
		return errors.New("max_sweeps must not be negative")
	}
	return nil
}
