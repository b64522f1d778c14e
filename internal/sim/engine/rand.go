package engine

import (
	"math/rand"
	"time"
)

// Rand is the randomness capability CardEngine needs. *math/rand.Rand
// satisfies it; tests inject a scripted source to assert exact draws.
type Rand interface {
	Intn(n int) int
}

func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

func DefaultRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
