package session

import (
	"errors"

	"savingsmonopoly.app/internal/protocol"
	"savingsmonopoly.app/internal/sim/engine"
)

// CodeForError maps an engine or session error to its wire error code.
// Unrecognized errors map to E_INTERNAL so the client never sees a bare Go
// error string as a code.
func CodeForError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrGameOver):
		return protocol.ErrGameOver
	case errors.Is(err, ErrInvalidOption):
		return protocol.ErrProtoBadRequest
	case errors.Is(err, ErrHubFull):
		return protocol.ErrServerFull
	case errors.Is(err, engine.ErrEmptyPool):
		return protocol.ErrEmptyPool
	case errors.Is(err, engine.ErrCardPending):
		return protocol.ErrCardPending
	case errors.Is(err, engine.ErrNoCard):
		return protocol.ErrNoCard
	case errors.Is(err, engine.ErrEmptyOptions):
		return protocol.ErrEmptyOptions
	case errors.Is(err, engine.ErrInsufficientTime):
		return protocol.ErrNoTime
	case errors.Is(err, engine.ErrInsufficientFunds):
		return protocol.ErrNoFunds
	case errors.Is(err, engine.ErrRoundNotStarted):
		return protocol.ErrRoundNotStarted
	case errors.Is(err, engine.ErrRoundInProgress):
		return protocol.ErrRoundInProgress
	case errors.Is(err, engine.ErrEFCapReached):
		return protocol.ErrEFCap
	case errors.Is(err, engine.ErrEFAlertPending):
		return protocol.ErrEFAlertPending
	case errors.Is(err, engine.ErrNoEFAlert):
		return protocol.ErrNoEFAlert
	}

	var (
		negAvail engine.NegativeAvailableError
		mismatch engine.AllocationMismatchError
		negBuck  engine.NegativeBucketError
		wbRange  engine.WellbeingRangeError
	)
	switch {
	case errors.As(err, &negAvail):
		return protocol.ErrNegativeAvailable
	case errors.As(err, &mismatch), errors.As(err, &negBuck):
		return protocol.ErrAllocationMismatch
	case errors.As(err, &wbRange):
		return protocol.ErrWellbeingRange
	}
	return protocol.ErrInternal
}
