package engine

import "savingsmonopoly.app/internal/sim/deck"

// Settle applies the chosen option of the current card to the player state.
// All checks run against scratch values first; the state is written only
// when everything passed, so a failed settlement leaves the player exactly
// as it was.
func Settle(p *PlayerState, opt deck.Option, cfg Config) error {
	card := p.CurrentCard
	if card == nil {
		return ErrNoCard
	}
	if len(card.Options) == 0 {
		return ErrEmptyOptions
	}

	// Time feasibility. Options that grant time clamp at the gauge max.
	newTime := p.Time - opt.Time
	if newTime < 0 {
		return ErrInsufficientTime
	}
	if newTime > gaugeMax {
		newTime = gaugeMax
	}

	// Wellbeing, per policy.
	newWellbeing := p.Wellbeing + opt.Wellbeing
	if cfg.Wellbeing == WellbeingReject && (newWellbeing < 0 || newWellbeing > gaugeMax) {
		return WellbeingRangeError{Current: p.Wellbeing, Delta: opt.Wellbeing}
	}
	newWellbeing = clampGauge(newWellbeing)

	// Money settlement on scratch balances.
	wants, ef, savings := p.WantsBalance, p.EFBalance, p.Savings
	if opt.Money >= 0 {
		// Positive deltas are net income and go to savings in full.
		savings += opt.Money
	} else {
		need := -opt.Money
		drain := func(bucket *int) {
			take := *bucket
			if take > need {
				take = need
			}
			*bucket -= take
			need -= take
		}
		switch cfg.Funding {
		case FundingEFFirst:
			if card.EFEligible {
				drain(&ef)
				drain(&savings)
			} else {
				drain(&wants)
				drain(&savings)
			}
		default: // FundingWantsFirst
			drain(&wants)
			drain(&savings)
			if card.EFEligible {
				drain(&ef)
			}
		}
		if need > 0 {
			return ErrInsufficientFunds
		}
	}

	// Commit.
	p.Time = newTime
	p.Wellbeing = newWellbeing
	p.WantsBalance = wants
	p.EFBalance = ef
	p.Savings = savings
	p.DecisionLog = append(p.DecisionLog, Decision{Card: card.Title, Choice: opt.Label})
	p.RoundsPlayed++
	p.CurrentCard = nil
	p.AwaitingRoundStart = true

	if cfg.Replenish == ReplenishRoundEnd {
		p.replenish(cfg)
	}
	return nil
}

// replenish folds the committed allocation into the balances. EF excess
// over the cap is dropped here; the interactive redirect prompt only exists
// on the round-start path (see StartRound).
func (p *PlayerState) replenish(cfg Config) {
	room := cfg.EFCap - p.EFBalance
	if room < 0 {
		room = 0
	}
	add := p.Allocation.EF
	if add > room {
		add = room
	}
	p.EFBalance += add
	p.Savings += p.Allocation.Savings
	p.WantsBalance += p.Allocation.Wants
}
