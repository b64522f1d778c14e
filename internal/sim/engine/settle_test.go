package engine

import (
	"errors"
	"reflect"
	"testing"

	"savingsmonopoly.app/internal/sim/deck"
)

func settledPlayer(t *testing.T, cfg Config, card *deck.Card) *PlayerState {
	t.Helper()
	p := testPlayer(t, cfg)
	p.AwaitingRoundStart = false
	p.CurrentCard = card
	return p
}

func card(title string, efEligible bool, opts ...deck.Option) *deck.Card {
	return &deck.Card{Title: title, Type: deck.TypeNeutral, EFEligible: efEligible, Options: opts}
}

func TestSettle_WantsFirstDrainsInOrder(t *testing.T) {
	cfg := testConfig()
	p := settledPlayer(t, cfg, card("Car Repair", false,
		deck.Option{Label: "Pay up", Money: -120, Wellbeing: 1, Time: 1}))
	p.WantsBalance, p.Savings, p.EFBalance = 100, 50, 0

	if err := Settle(p, p.CurrentCard.Options[0], cfg); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if p.WantsBalance != 0 || p.Savings != 30 {
		t.Fatalf("expected wants=0 savings=30, got wants=%d savings=%d", p.WantsBalance, p.Savings)
	}
	if p.RoundsPlayed != 1 || len(p.DecisionLog) != 1 {
		t.Fatalf("round bookkeeping wrong: rounds=%d log=%d", p.RoundsPlayed, len(p.DecisionLog))
	}
	if p.DecisionLog[0] != (Decision{Card: "Car Repair", Choice: "Pay up"}) {
		t.Fatalf("unexpected log entry: %+v", p.DecisionLog[0])
	}
	if p.CurrentCard != nil || !p.AwaitingRoundStart {
		t.Fatalf("card not cleared after settle")
	}
}

func TestSettle_InsufficientFundsLeavesStateUntouched(t *testing.T) {
	cfg := testConfig()
	p := settledPlayer(t, cfg, card("Car Repair", false,
		deck.Option{Label: "Pay up", Money: -200, Wellbeing: 1, Time: 1}))
	p.WantsBalance, p.Savings, p.EFBalance = 100, 50, 0

	before := p.Clone()
	err := Settle(p, p.CurrentCard.Options[0], cfg)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !reflect.DeepEqual(before, p.Clone()) {
		t.Fatalf("failed settle mutated state:\nbefore=%+v\nafter=%+v", before, p)
	}
}

func TestSettle_InsufficientTime(t *testing.T) {
	cfg := testConfig()
	p := settledPlayer(t, cfg, card("Overtime", false,
		deck.Option{Label: "Work the weekend", Money: 200, Wellbeing: -1, Time: 2}))
	p.Time = 1

	before := p.Clone()
	err := Settle(p, p.CurrentCard.Options[0], cfg)
	if !errors.Is(err, ErrInsufficientTime) {
		t.Fatalf("expected ErrInsufficientTime, got %v", err)
	}
	if p.Time != 1 || !reflect.DeepEqual(before, p.Clone()) {
		t.Fatalf("failed settle mutated state")
	}
}

func TestSettle_EFEligibleFundingPolicies(t *testing.T) {
	opt := deck.Option{Label: "Pay the bill", Money: -500, Wellbeing: -1, Time: 1}

	t.Run("wants_first uses EF last", func(t *testing.T) {
		cfg := testConfig()
		cfg.Funding = FundingWantsFirst
		p := settledPlayer(t, cfg, card("Medical Bill", true, opt))
		p.WantsBalance, p.Savings, p.EFBalance = 200, 100, 1000

		if err := Settle(p, opt, cfg); err != nil {
			t.Fatalf("settle: %v", err)
		}
		if p.WantsBalance != 0 || p.Savings != 0 || p.EFBalance != 800 {
			t.Fatalf("got wants=%d savings=%d ef=%d", p.WantsBalance, p.Savings, p.EFBalance)
		}
	})

	t.Run("ef_first bypasses wants", func(t *testing.T) {
		cfg := testConfig()
		cfg.Funding = FundingEFFirst
		p := settledPlayer(t, cfg, card("Medical Bill", true, opt))
		p.WantsBalance, p.Savings, p.EFBalance = 200, 400, 300

		if err := Settle(p, opt, cfg); err != nil {
			t.Fatalf("settle: %v", err)
		}
		if p.WantsBalance != 200 || p.EFBalance != 0 || p.Savings != 200 {
			t.Fatalf("got wants=%d savings=%d ef=%d", p.WantsBalance, p.Savings, p.EFBalance)
		}
	})

	t.Run("ef_first falls back for non-eligible cards", func(t *testing.T) {
		cfg := testConfig()
		cfg.Funding = FundingEFFirst
		p := settledPlayer(t, cfg, card("Concert Tickets", false, opt))
		p.WantsBalance, p.Savings, p.EFBalance = 300, 400, 1000

		if err := Settle(p, opt, cfg); err != nil {
			t.Fatalf("settle: %v", err)
		}
		if p.WantsBalance != 0 || p.Savings != 200 || p.EFBalance != 1000 {
			t.Fatalf("got wants=%d savings=%d ef=%d", p.WantsBalance, p.Savings, p.EFBalance)
		}
	})

	t.Run("non-eligible card never touches EF", func(t *testing.T) {
		cfg := testConfig()
		p := settledPlayer(t, cfg, card("Concert Tickets", false, opt))
		p.WantsBalance, p.Savings, p.EFBalance = 100, 100, 5000

		err := Settle(p, opt, cfg)
		if !errors.Is(err, ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}
		if p.EFBalance != 5000 {
			t.Fatalf("EF touched on failure: %d", p.EFBalance)
		}
	})
}

func TestSettle_PositiveMoneyGoesToSavings(t *testing.T) {
	cfg := testConfig()
	p := settledPlayer(t, cfg, card("Freelance Gig", false,
		deck.Option{Label: "Take it", Money: 400, Wellbeing: -1, Time: 2}))
	p.WantsBalance, p.Savings = 100, 50

	if err := Settle(p, p.CurrentCard.Options[0], cfg); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if p.Savings != 450 || p.WantsBalance != 100 {
		t.Fatalf("positive delta should land in savings: savings=%d wants=%d", p.Savings, p.WantsBalance)
	}
}

func TestSettle_WellbeingPolicies(t *testing.T) {
	opt := deck.Option{Label: "Tough it out", Money: 0, Wellbeing: -7, Time: 0}

	t.Run("clamp", func(t *testing.T) {
		cfg := testConfig()
		cfg.Wellbeing = WellbeingClamp
		p := settledPlayer(t, cfg, card("Bad Week", false, opt))
		if err := Settle(p, opt, cfg); err != nil {
			t.Fatalf("settle: %v", err)
		}
		if p.Wellbeing != 0 {
			t.Fatalf("expected wellbeing clamped to 0, got %d", p.Wellbeing)
		}
	})

	t.Run("reject", func(t *testing.T) {
		cfg := testConfig()
		cfg.Wellbeing = WellbeingReject
		p := settledPlayer(t, cfg, card("Bad Week", false, opt))
		before := p.Clone()
		err := Settle(p, opt, cfg)
		var rangeErr WellbeingRangeError
		if !errors.As(err, &rangeErr) {
			t.Fatalf("expected WellbeingRangeError, got %v", err)
		}
		if !reflect.DeepEqual(before, p.Clone()) {
			t.Fatalf("rejected settle mutated state")
		}
	})
}

func TestSettle_GaugesStayBounded(t *testing.T) {
	cfg := testConfig()
	opts := []deck.Option{
		{Label: "a", Money: 100, Wellbeing: 8, Time: 0},
		{Label: "b", Money: 100, Wellbeing: -3, Time: 2},
		{Label: "c", Money: 100, Wellbeing: 5, Time: -4},
		{Label: "d", Money: 100, Wellbeing: -9, Time: 1},
	}
	p := testPlayer(t, cfg)
	p.AwaitingRoundStart = false
	for _, opt := range opts {
		p.CurrentCard = card("Swing", false, opt)
		if err := Settle(p, opt, cfg); err != nil {
			t.Fatalf("settle %q: %v", opt.Label, err)
		}
		if p.Wellbeing < 0 || p.Wellbeing > 10 || p.Time < 0 || p.Time > 10 {
			t.Fatalf("gauge out of bounds after %q: wellbeing=%d time=%d", opt.Label, p.Wellbeing, p.Time)
		}
		if len(p.DecisionLog) != p.RoundsPlayed {
			t.Fatalf("log length invariant broken: log=%d rounds=%d", len(p.DecisionLog), p.RoundsPlayed)
		}
		p.AwaitingRoundStart = false
	}
}

func TestSettle_Preconditions(t *testing.T) {
	cfg := testConfig()

	p := testPlayer(t, cfg)
	p.AwaitingRoundStart = false
	if err := Settle(p, deck.Option{Label: "x"}, cfg); !errors.Is(err, ErrNoCard) {
		t.Fatalf("expected ErrNoCard, got %v", err)
	}

	p.CurrentCard = &deck.Card{Title: "Blank"}
	if err := Settle(p, deck.Option{Label: "x"}, cfg); !errors.Is(err, ErrEmptyOptions) {
		t.Fatalf("expected ErrEmptyOptions, got %v", err)
	}
}

func TestSettle_RoundEndReplenish(t *testing.T) {
	cfg := testConfig()
	cfg.Replenish = ReplenishRoundEnd
	p := settledPlayer(t, cfg, card("Quiet Month", false,
		deck.Option{Label: "Relax", Money: 0, Wellbeing: 1, Time: 0}))

	if err := Settle(p, p.CurrentCard.Options[0], cfg); err != nil {
		t.Fatalf("settle: %v", err)
	}
	// Allocation 400/300/300 folds in as part of the commit.
	if p.WantsBalance != 400 || p.EFBalance != 300 || p.Savings != 300 {
		t.Fatalf("round-end replenish missing: wants=%d ef=%d savings=%d", p.WantsBalance, p.EFBalance, p.Savings)
	}
}

func TestSettle_RoundEndReplenishCapsEF(t *testing.T) {
	cfg := testConfig()
	cfg.Replenish = ReplenishRoundEnd
	cfg.EFCap = 100
	p := settledPlayer(t, cfg, card("Quiet Month", false,
		deck.Option{Label: "Relax", Money: 0, Wellbeing: 0, Time: 0}))
	p.EFBalance = 50

	if err := Settle(p, p.CurrentCard.Options[0], cfg); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if p.EFBalance != 100 {
		t.Fatalf("EF exceeded cap: %d", p.EFBalance)
	}
}
