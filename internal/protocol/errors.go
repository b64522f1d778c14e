package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrSessionNotFound = "E_SESSION_NOT_FOUND"
	ErrServerFull      = "E_SERVER_FULL"

	// Budget allocation.
	ErrNegativeAvailable  = "E_NEGATIVE_AVAILABLE"
	ErrAllocationMismatch = "E_ALLOCATION_MISMATCH"

	// Card drawing.
	ErrEmptyPool   = "E_EMPTY_POOL"
	ErrCardPending = "E_CARD_PENDING"

	// Settlement.
	ErrNoCard         = "E_NO_CARD"
	ErrEmptyOptions   = "E_EMPTY_OPTIONS"
	ErrNoTime         = "E_NO_TIME"
	ErrNoFunds        = "E_NO_FUNDS"
	ErrWellbeingRange = "E_WELLBEING_RANGE"

	// Round sequencing.
	ErrRoundNotStarted = "E_ROUND_NOT_STARTED"
	ErrRoundInProgress = "E_ROUND_IN_PROGRESS"
	ErrEFCap           = "E_EF_CAP"
	ErrEFAlertPending  = "E_EF_ALERT_PENDING"
	ErrNoEFAlert       = "E_NO_EF_ALERT"
	ErrGameOver        = "E_GAME_OVER"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:    {},
	ErrSessionNotFound:    {},
	ErrServerFull:         {},
	ErrNegativeAvailable:  {},
	ErrAllocationMismatch: {},
	ErrEmptyPool:          {},
	ErrCardPending:        {},
	ErrNoCard:             {},
	ErrEmptyOptions:       {},
	ErrNoTime:             {},
	ErrNoFunds:            {},
	ErrWellbeingRange:     {},
	ErrRoundNotStarted:    {},
	ErrRoundInProgress:    {},
	ErrEFCap:              {},
	ErrEFAlertPending:     {},
	ErrNoEFAlert:          {},
	ErrGameOver:           {},
	ErrInternal:           {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
