package engine

import "savingsmonopoly.app/internal/sim/deck"

// EligibleTypes returns the card types drawable on the given round.
// roundIndex is the 1-based number of the round being played. The harder
// negative cards unlock from round 4; temptation cards unlock once savings
// reach 60% of the goal.
func EligibleTypes(roundIndex, savings, goal int) map[string]bool {
	types := map[string]bool{
		deck.TypePositive:    true,
		deck.TypeNeutral:     true,
		deck.TypeNegativeOne: true,
	}
	if roundIndex >= 4 {
		types[deck.TypeNegativeTwo] = true
	}
	if 5*savings >= 3*goal {
		types[deck.TypeTemptation] = true
	}
	return types
}

// Draw filters the deck to the types permitted for the upcoming round and
// picks one card uniformly at random. The drawn card becomes the player's
// current card; drawing while one is outstanding is rejected.
func Draw(d *deck.Deck, p *PlayerState, cfg Config, rng Rand) (*deck.Card, error) {
	if p.CurrentCard != nil {
		return nil, ErrCardPending
	}
	if p.AwaitingRoundStart {
		return nil, ErrRoundNotStarted
	}

	types := EligibleTypes(p.RoundsPlayed+1, p.Savings, cfg.Goal)
	pool := make([]deck.Card, 0, len(d.Cards))
	for _, c := range d.Cards {
		if types[c.Type] {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	card := pool[rng.Intn(len(pool))]
	p.CurrentCard = &card
	return &card, nil
}
