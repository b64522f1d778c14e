package engine

// Status is the progression verdict.
type Status int

const (
	StatusContinue Status = iota
	StatusWonGoal
	StatusLostBurnout
	StatusLostRoundsExhausted
)

func (s Status) String() string {
	switch s {
	case StatusContinue:
		return "CONTINUE"
	case StatusWonGoal:
		return "WON_GOAL"
	case StatusLostBurnout:
		return "LOST_BURNOUT"
	case StatusLostRoundsExhausted:
		return "LOST_ROUNDS"
	}
	return "UNKNOWN"
}

// Terminal reports whether the game is over. Terminal states freeze
// drawing and settling; the only valid operation left is a session reset.
func (s Status) Terminal() bool { return s != StatusContinue }

// EvaluateTerminal checks only the terminal conditions, in priority order:
// burnout, goal reached, rounds exhausted. Safe to call mid-round (e.g.
// right after a settlement) because it never mutates state.
func EvaluateTerminal(p *PlayerState, cfg Config) Status {
	if p.Wellbeing <= 0 {
		return StatusLostBurnout
	}
	if p.Savings >= cfg.Goal {
		return StatusWonGoal
	}
	if p.RoundsPlayed >= cfg.Rounds {
		// Goal not met (checked above), so running out of rounds loses.
		return StatusLostRoundsExhausted
	}
	return StatusContinue
}

// Evaluate runs the full round-start state machine: terminal conditions,
// then the non-terminal time-exhaustion penalty (lose 2 wellbeing, time
// resets to 3) followed by a terminal re-check. The second return value
// reports whether the penalty was applied.
func Evaluate(p *PlayerState, cfg Config) (Status, bool) {
	if st := EvaluateTerminal(p, cfg); st.Terminal() {
		return st, false
	}
	if p.Time <= 0 {
		p.Wellbeing = clampGauge(p.Wellbeing - 2)
		p.Time = timePenaltyReset
		return EvaluateTerminal(p, cfg), true
	}
	return StatusContinue, false
}
