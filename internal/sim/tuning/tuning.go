// Package tuning holds the facilitator-configurable game parameters and the
// policy switches that differ between deployments of the game.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"savingsmonopoly.app/internal/sim/engine"
)

type Tuning struct {
	Goal       int `yaml:"goal"`
	Income     int `yaml:"income"`
	FixedCosts int `yaml:"fixed_costs"`
	Rounds     int `yaml:"rounds"`
	EFCap      int `yaml:"ef_cap"`

	Policies Policies `yaml:"policies"`
}

type Policies struct {
	// funding: "wants_first" or "ef_first".
	Funding string `yaml:"funding"`
	// wellbeing: "clamp" or "reject".
	Wellbeing string `yaml:"wellbeing"`
	// replenish: "round_start" or "round_end".
	Replenish string `yaml:"replenish"`
}

func Defaults() Tuning {
	return Tuning{
		Goal:       5000,
		Income:     2000,
		FixedCosts: 1000,
		Rounds:     10,
		EFCap:      3000,
		Policies: Policies{
			Funding:   "wants_first",
			Wellbeing: "clamp",
			Replenish: "round_start",
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) validate() error {
	if t.Goal < 0 || t.Income < 0 || t.FixedCosts < 0 || t.EFCap < 0 {
		return fmt.Errorf("negative amounts are not allowed")
	}
	if t.Rounds < 1 {
		return fmt.Errorf("rounds must be >= 1")
	}
	if t.FixedCosts > t.Income {
		return fmt.Errorf("fixed_costs %d exceeds income %d", t.FixedCosts, t.Income)
	}
	if _, err := t.fundingPolicy(); err != nil {
		return err
	}
	if _, err := t.wellbeingPolicy(); err != nil {
		return err
	}
	if _, err := t.replenishTiming(); err != nil {
		return err
	}
	return nil
}

func (t Tuning) fundingPolicy() (engine.FundingPolicy, error) {
	switch t.Policies.Funding {
	case "", "wants_first":
		return engine.FundingWantsFirst, nil
	case "ef_first":
		return engine.FundingEFFirst, nil
	}
	return 0, fmt.Errorf("unknown funding policy %q", t.Policies.Funding)
}

func (t Tuning) wellbeingPolicy() (engine.WellbeingPolicy, error) {
	switch t.Policies.Wellbeing {
	case "", "clamp":
		return engine.WellbeingClamp, nil
	case "reject":
		return engine.WellbeingReject, nil
	}
	return 0, fmt.Errorf("unknown wellbeing policy %q", t.Policies.Wellbeing)
}

func (t Tuning) replenishTiming() (engine.ReplenishTiming, error) {
	switch t.Policies.Replenish {
	case "", "round_start":
		return engine.ReplenishRoundStart, nil
	case "round_end":
		return engine.ReplenishRoundEnd, nil
	}
	return 0, fmt.Errorf("unknown replenish timing %q", t.Policies.Replenish)
}

// EngineConfig converts the loaded tuning into the engine's config value.
// Load has already validated the policy strings.
func (t Tuning) EngineConfig() engine.Config {
	funding, _ := t.fundingPolicy()
	wellbeing, _ := t.wellbeingPolicy()
	replenish, _ := t.replenishTiming()
	return engine.Config{
		Goal:       t.Goal,
		Income:     t.Income,
		FixedCosts: t.FixedCosts,
		Rounds:     t.Rounds,
		EFCap:      t.EFCap,
		Funding:    funding,
		Wellbeing:  wellbeing,
		Replenish:  replenish,
	}
}
