// Package engine implements the round-settlement rules of the game: budget
// allocation, card drawing, settlement of a chosen option, and the
// progression state machine. Everything here is a synchronous computation
// over an explicit PlayerState value; callers own the mutable reference and
// serialize access.
package engine

import "savingsmonopoly.app/internal/sim/deck"

// FundingPolicy selects the order in which a negative money delta drains
// the player's funds.
type FundingPolicy int

const (
	// FundingWantsFirst drains wants, then savings, then (for EF-eligible
	// cards only) the emergency fund.
	FundingWantsFirst FundingPolicy = iota
	// FundingEFFirst drains the emergency fund first for EF-eligible cards,
	// with the shortfall taken from savings and wants untouched. Cards that
	// are not EF-eligible fall back to wants then savings.
	FundingEFFirst
)

// WellbeingPolicy decides what happens when an option would push wellbeing
// outside [0,10].
type WellbeingPolicy int

const (
	WellbeingClamp WellbeingPolicy = iota
	WellbeingReject
)

// ReplenishTiming decides when the committed allocation tops up the
// balances: at the start of each round, or as part of settling the round.
type ReplenishTiming int

const (
	ReplenishRoundStart ReplenishTiming = iota
	ReplenishRoundEnd
)

func (p FundingPolicy) String() string {
	if p == FundingEFFirst {
		return "ef_first"
	}
	return "wants_first"
}

func (p WellbeingPolicy) String() string {
	if p == WellbeingReject {
		return "reject"
	}
	return "clamp"
}

func (t ReplenishTiming) String() string {
	if t == ReplenishRoundEnd {
		return "round_end"
	}
	return "round_start"
}

// Config is the facilitator configuration plus the policy switches.
// Read-only during a session.
type Config struct {
	Goal       int
	Income     int
	FixedCosts int
	Rounds     int
	EFCap      int

	Funding   FundingPolicy
	Wellbeing WellbeingPolicy
	Replenish ReplenishTiming
}

// Available is the disposable income the allocation must sum to.
func (c Config) Available() int { return c.Income - c.FixedCosts }

// Allocation is the player's three-way monthly budget split.
type Allocation struct {
	Wants   int `json:"wants"`
	EF      int `json:"ef"`
	Savings int `json:"savings"`
}

func (a Allocation) Total() int { return a.Wants + a.EF + a.Savings }

// Decision is one entry of the append-only decision log.
type Decision struct {
	Card   string `json:"card"`
	Choice string `json:"choice"`
}

const (
	gaugeMax     = 10
	gaugeInitial = 5
	// Time value a player restarts with after an exhaustion penalty.
	timePenaltyReset = 3
)

// PlayerState is the full mutable state of one game session.
type PlayerState struct {
	Team     string
	Name     string
	GoalDesc string

	Income     int
	FixedCosts int

	Allocation Allocation

	WantsBalance int
	EFBalance    int
	Savings      int

	Wellbeing int
	Time      int

	RoundsPlayed int
	DecisionLog  []Decision

	CurrentCard *deck.Card

	// AwaitingRoundStart is set between rounds; StartRound clears it.
	AwaitingRoundStart bool
	// EFFullAlert is raised when the monthly EF contribution would hit the
	// cap; it must be resolved before the round can start.
	EFFullAlert bool
	// EFAlertAcked suppresses re-raising the alert on the round it was
	// just resolved for.
	EFAlertAcked bool
}

// NewPlayerState creates the state for a fresh session. The allocation must
// already satisfy the split invariant against the config's income and fixed
// costs.
func NewPlayerState(team, name, goalDesc string, cfg Config, a Allocation) (*PlayerState, error) {
	if err := ValidateAllocation(cfg.Income, cfg.FixedCosts, a); err != nil {
		return nil, err
	}
	return &PlayerState{
		Team:               team,
		Name:               name,
		GoalDesc:           goalDesc,
		Income:             cfg.Income,
		FixedCosts:         cfg.FixedCosts,
		Allocation:         a,
		Wellbeing:          gaugeInitial,
		Time:               gaugeInitial,
		AwaitingRoundStart: true,
	}, nil
}

// Clone returns a deep copy of the state. Used for snapshots handed to the
// presentation layer so engine state never escapes the session.
func (p *PlayerState) Clone() *PlayerState {
	cp := *p
	cp.DecisionLog = append([]Decision(nil), p.DecisionLog...)
	if p.CurrentCard != nil {
		card := *p.CurrentCard
		card.Options = append([]deck.Option(nil), p.CurrentCard.Options...)
		cp.CurrentCard = &card
	}
	return &cp
}

func clampGauge(v int) int {
	if v < 0 {
		return 0
	}
	if v > gaugeMax {
		return gaugeMax
	}
	return v
}
