// Package session owns the per-player game lifecycle. A Session wraps one
// PlayerState behind a mutex so exactly one mutation is in flight at a time;
// the Hub hands out sessions, resume tokens, and fans settled rounds out to
// the persistence sinks.
package session

import (
	"errors"
	"sync"

	"savingsmonopoly.app/internal/protocol"
	"savingsmonopoly.app/internal/sim/deck"
	"savingsmonopoly.app/internal/sim/engine"
)

var (
	// ErrGameOver rejects any play operation on a terminal session. The
	// session stays readable (Snapshot) and can be reset.
	ErrGameOver = errors.New("game is over")
	// ErrInvalidOption rejects a CHOOSE whose option index is out of range.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrHubFull rejects Create once the hub holds its configured maximum
	// number of sessions.
	ErrHubFull = errors.New("session limit reached")
)

type Session struct {
	ID          string
	ResumeToken string

	mu      sync.Mutex
	cfg     engine.Config
	deck    *deck.Deck
	rng     engine.Rand
	player  *engine.PlayerState
	status  engine.Status
	penalty bool

	// The allocation the game was created with; Reset restores it.
	initialAlloc engine.Allocation
	recorded     bool

	hub *Hub
}

// StartRound replenishes the balances (under the round-start policy) and runs
// the progression checks. A pending emergency-fund overflow alert surfaces as
// engine.ErrEFCapReached with no state change; the client resolves it via
// ResolveEFOverflow and retries.
func (s *Session) StartRound() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return ErrGameOver
	}
	s.penalty = false
	if err := engine.StartRound(s.player, s.cfg); err != nil {
		return err
	}
	st, penalty := engine.Evaluate(s.player, s.cfg)
	s.penalty = penalty
	s.setStatusLocked(st)
	return nil
}

// Draw picks the round's card from the eligible pool.
func (s *Session) Draw() (*deck.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return nil, ErrGameOver
	}
	s.penalty = false
	return engine.Draw(s.deck, s.player, s.cfg, s.rng)
}

// Choose settles the current card with the option at the given index. On
// success the round is recorded to the hub's sinks and the terminal
// conditions are re-checked so a win or burnout shows up immediately.
func (s *Session) Choose(option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return ErrGameOver
	}
	s.penalty = false
	card := s.player.CurrentCard
	if card == nil {
		return engine.ErrNoCard
	}
	if len(card.Options) == 0 {
		return engine.ErrEmptyOptions
	}
	if option < 0 || option >= len(card.Options) {
		return ErrInvalidOption
	}
	opt := card.Options[option]
	if err := engine.Settle(s.player, opt, s.cfg); err != nil {
		return err
	}
	s.setStatusLocked(engine.EvaluateTerminal(s.player, s.cfg))
	if s.hub != nil {
		s.hub.recordRound(s, card.Title, opt)
	}
	return nil
}

// Allocate applies a new budget split. Mid-round the new split only takes
// effect at the next replenishment; validation errors leave the old split.
func (s *Session) Allocate(a engine.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return ErrGameOver
	}
	s.penalty = false
	return s.player.CommitAllocation(a)
}

// ResolveEFOverflow answers a pending emergency-fund overflow alert.
// redirect=true moves the EF slice of the allocation into savings.
func (s *Session) ResolveEFOverflow(redirect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return ErrGameOver
	}
	s.penalty = false
	return engine.ResolveEFOverflow(s.player, redirect)
}

// Reset rebuilds the player from the session's initial identity and
// allocation. Valid in any state, including terminal ones.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := engine.NewPlayerState(s.player.Team, s.player.Name, s.player.GoalDesc, s.cfg, s.initialAlloc)
	if err != nil {
		return err
	}
	s.player = p
	s.status = engine.StatusContinue
	s.penalty = false
	s.recorded = false
	return nil
}

// Status returns the current progression verdict.
func (s *Session) Status() engine.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Params describes the fixed game parameters for the WELCOME message.
func (s *Session) Params() protocol.GameParams {
	return protocol.GameParams{
		Goal:            s.cfg.Goal,
		Income:          s.cfg.Income,
		FixedCosts:      s.cfg.FixedCosts,
		Rounds:          s.cfg.Rounds,
		EFCap:           s.cfg.EFCap,
		FundingPolicy:   s.cfg.Funding.String(),
		WellbeingPolicy: s.cfg.Wellbeing.String(),
		ReplenishPolicy: s.cfg.Replenish.String(),
	}
}

// Snapshot renders the full state for the client. ref echoes the id of the
// action being answered, empty for unsolicited snapshots.
func (s *Session) Snapshot(ref string) protocol.StateMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.player.Clone()
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Ref:             ref,
		Status:          s.status.String(),
		TimePenalty:     s.penalty,
		Player:          playerView(p),
	}
	if p.CurrentCard != nil {
		cv := cardView(p.CurrentCard)
		msg.CurrentCard = &cv
	}
	return msg
}

// setStatusLocked transitions the progression status and records the final
// result exactly once per game. Caller holds s.mu.
func (s *Session) setStatusLocked(st engine.Status) {
	s.status = st
	if st.Terminal() && !s.recorded {
		s.recorded = true
		if s.hub != nil {
			s.hub.recordResult(s)
		}
	}
}

func playerView(p *engine.PlayerState) protocol.PlayerView {
	v := protocol.PlayerView{
		Team:       p.Team,
		Name:       p.Name,
		GoalDesc:   p.GoalDesc,
		Income:     p.Income,
		FixedCosts: p.FixedCosts,
		Allocation: protocol.Allocation{
			Wants:   p.Allocation.Wants,
			EF:      p.Allocation.EF,
			Savings: p.Allocation.Savings,
		},
		WantsBalance:       p.WantsBalance,
		EFBalance:          p.EFBalance,
		Savings:            p.Savings,
		Wellbeing:          p.Wellbeing,
		Time:               p.Time,
		RoundsPlayed:       p.RoundsPlayed,
		DecisionLog:        make([]protocol.Decision, 0, len(p.DecisionLog)),
		AwaitingRoundStart: p.AwaitingRoundStart,
		EFFullAlert:        p.EFFullAlert,
	}
	for _, d := range p.DecisionLog {
		v.DecisionLog = append(v.DecisionLog, protocol.Decision{Card: d.Card, Choice: d.Choice})
	}
	return v
}

func cardView(c *deck.Card) protocol.CardView {
	v := protocol.CardView{
		Title:       c.Title,
		Description: c.Description,
		CardType:    c.Type,
		EFEligible:  c.EFEligible,
		Options:     make([]protocol.OptionView, 0, len(c.Options)),
	}
	for _, o := range c.Options {
		v.Options = append(v.Options, protocol.OptionView{
			Label:     o.Label,
			Money:     o.Money,
			Wellbeing: o.Wellbeing,
			Time:      o.Time,
		})
	}
	return v
}
