package tuning

import (
	"os"
	"path/filepath"
	"testing"

	"savingsmonopoly.app/internal/sim/engine"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTemp(t, `
goal: 8000
income: 3000
fixed_costs: 1500
rounds: 12
ef_cap: 4500
policies:
  funding: ef_first
  wellbeing: reject
  replenish: round_end
`)
	tn, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := tn.EngineConfig()
	if cfg.Goal != 8000 || cfg.Rounds != 12 || cfg.EFCap != 4500 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Funding != engine.FundingEFFirst {
		t.Fatalf("expected ef_first funding")
	}
	if cfg.Wellbeing != engine.WellbeingReject {
		t.Fatalf("expected reject wellbeing policy")
	}
	if cfg.Replenish != engine.ReplenishRoundEnd {
		t.Fatalf("expected round_end replenish")
	}
}

func TestLoad_PartialFallsBackToDefaults(t *testing.T) {
	path := writeTemp(t, "goal: 6000\n")
	tn, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tn.Goal != 6000 {
		t.Fatalf("goal override lost: %d", tn.Goal)
	}
	if tn.Income != 2000 || tn.Rounds != 10 || tn.EFCap != 3000 {
		t.Fatalf("defaults not applied: %+v", tn)
	}
	cfg := tn.EngineConfig()
	if cfg.Funding != engine.FundingWantsFirst || cfg.Wellbeing != engine.WellbeingClamp {
		t.Fatalf("default policies not applied: %+v", cfg)
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"fixed costs over income", "income: 1000\nfixed_costs: 1200\n"},
		{"zero rounds", "rounds: 0\n"},
		{"negative goal", "goal: -1\n"},
		{"unknown funding", "policies:\n  funding: yolo\n"},
		{"unknown wellbeing", "policies:\n  wellbeing: ignore\n"},
		{"unknown replenish", "policies:\n  replenish: never\n"},
	}
	for _, tc := range cases {
		path := writeTemp(t, tc.content)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
