package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	roundlog "savingsmonopoly.app/internal/persistence/log"
	"savingsmonopoly.app/internal/persistence/resultsdb"
	"savingsmonopoly.app/internal/sim/deck"
	"savingsmonopoly.app/internal/sim/engine"
)

// RoundSink receives one entry per settled round, for the append-only log.
type RoundSink interface {
	WriteRound(roundlog.RoundEntry) error
}

// ResultSink receives settled rounds and final results for the read model.
type ResultSink interface {
	WriteRound(resultsdb.RoundRow)
	WriteResult(resultsdb.ResultRow)
}

// DefaultMaxSessions bounds the hub when HubConfig leaves MaxSessions zero.
// Sessions live for the whole process, so without a cap the maps grow with
// every Create.
const DefaultMaxSessions = 4096

// HubConfig wires a Hub. Deck and Engine are required; the sinks, logger and
// NewRand are optional (nil sinks drop the writes, nil NewRand seeds from
// the clock). MaxSessions of zero means DefaultMaxSessions.
type HubConfig struct {
	Engine      engine.Config
	Deck        *deck.Deck
	Logger      *log.Logger
	Rounds      RoundSink
	Results     ResultSink
	NewRand     func() engine.Rand
	MaxSessions int
}

// Counters is a point-in-time snapshot of the hub's metrics.
type Counters struct {
	Sessions      int
	RoundsSettled uint64
	Won           uint64
	LostBurnout   uint64
	LostRounds    uint64
}

type Hub struct {
	cfg         engine.Config
	deck        *deck.Deck
	logger      *log.Logger
	rounds      RoundSink
	results     ResultSink
	newRand     func() engine.Rand
	maxSessions int

	mu       sync.Mutex
	sessions map[string]*Session
	byToken  map[string]*Session
	nextID   uint64
	counters Counters
}

func NewHub(cfg HubConfig) (*Hub, error) {
	if cfg.Deck == nil || len(cfg.Deck.Cards) == 0 {
		return nil, fmt.Errorf("hub requires a non-empty deck")
	}
	if cfg.Engine.Rounds < 1 {
		return nil, fmt.Errorf("hub requires rounds >= 1, got %d", cfg.Engine.Rounds)
	}
	newRand := cfg.NewRand
	if newRand == nil {
		newRand = engine.DefaultRand
	}
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Hub{
		cfg:         cfg.Engine,
		deck:        cfg.Deck,
		logger:      cfg.Logger,
		rounds:      cfg.Rounds,
		results:     cfg.Results,
		newRand:     newRand,
		maxSessions: maxSessions,
		sessions:    make(map[string]*Session),
		byToken:     make(map[string]*Session),
	}, nil
}

// Create opens a new session for the given identity and initial allocation.
// Allocation errors are returned verbatim so the transport can map them.
func (h *Hub) Create(team, name, goalDesc string, a engine.Allocation) (*Session, error) {
	p, err := engine.NewPlayerState(team, name, goalDesc, h.cfg, a)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.sessions) >= h.maxSessions {
		return nil, ErrHubFull
	}
	h.nextID++
	id := fmt.Sprintf("S%d", h.nextID)
	s := &Session{
		ID:           id,
		ResumeToken:  fmt.Sprintf("resume_%s_%d", id, time.Now().UnixNano()),
		cfg:          h.cfg,
		deck:         h.deck,
		rng:          h.newRand(),
		player:       p,
		initialAlloc: a,
		hub:          h,
	}
	h.sessions[id] = s
	h.byToken[s.ResumeToken] = s
	h.counters.Sessions = len(h.sessions)
	if h.logger != nil {
		h.logger.Printf("session %s created team=%q player=%q", id, team, name)
	}
	return s, nil
}

// Resume looks a session up by resume token.
func (h *Hub) Resume(token string) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.byToken[token]
	return s, ok
}

// Get looks a session up by id.
func (h *Hub) Get(id string) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Counters returns a snapshot of the hub metrics.
func (h *Hub) Counters() Counters {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counters
}

// DeckDigest exposes the loaded deck's content digest for the handshake.
func (h *Hub) DeckDigest() string { return h.deck.Digest }

// recordRound fans one settled round out to the sinks. Called with the
// session's mutex held; only h.mu is taken here, never s.mu.
func (h *Hub) recordRound(s *Session, card string, opt deck.Option) {
	h.mu.Lock()
	h.counters.RoundsSettled++
	h.mu.Unlock()

	p := s.player
	if h.rounds != nil {
		err := h.rounds.WriteRound(roundlog.RoundEntry{
			TS:           time.Now().UTC().Format(time.RFC3339Nano),
			SessionID:    s.ID,
			Team:         p.Team,
			Player:       p.Name,
			Round:        p.RoundsPlayed,
			Card:         card,
			Choice:       opt.Label,
			Money:        opt.Money,
			Wellbeing:    p.Wellbeing,
			Time:         p.Time,
			WantsBalance: p.WantsBalance,
			EFBalance:    p.EFBalance,
			Savings:      p.Savings,
			Status:       s.status.String(),
		})
		if err != nil && h.logger != nil {
			h.logger.Printf("round log write failed for %s: %v", s.ID, err)
		}
	}
	if h.results != nil {
		h.results.WriteRound(resultsdb.RoundRow{
			SessionID: s.ID,
			Round:     p.RoundsPlayed,
			Card:      card,
			Choice:    opt.Label,
		})
	}
}

// recordResult persists the final standing of a finished game.
func (h *Hub) recordResult(s *Session) {
	h.mu.Lock()
	switch s.status {
	case engine.StatusWonGoal:
		h.counters.Won++
	case engine.StatusLostBurnout:
		h.counters.LostBurnout++
	case engine.StatusLostRoundsExhausted:
		h.counters.LostRounds++
	}
	h.mu.Unlock()

	p := s.player
	if h.results != nil {
		h.results.WriteResult(resultsdb.ResultRow{
			SessionID:    s.ID,
			Team:         p.Team,
			Player:       p.Name,
			Goal:         h.cfg.Goal,
			Savings:      p.Savings,
			RoundsPlayed: p.RoundsPlayed,
			Wellbeing:    p.Wellbeing,
			Time:         p.Time,
			Status:       s.status.String(),
			RecordedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
	if h.logger != nil {
		h.logger.Printf("session %s finished status=%s savings=%d rounds=%d",
			s.ID, s.status, p.Savings, p.RoundsPlayed)
	}
}
