package engine

import (
	"errors"
	"fmt"
)

// All engine errors are recoverable: the player picks a different option or
// corrects the input. On any error the state is left unchanged.
var (
	ErrEmptyPool         = errors.New("no eligible cards in the pool")
	ErrCardPending       = errors.New("a card is already awaiting a decision")
	ErrNoCard            = errors.New("no card has been drawn")
	ErrEmptyOptions      = errors.New("card has no options")
	ErrInsufficientTime  = errors.New("not enough time for this option")
	ErrInsufficientFunds = errors.New("not enough funds for this option")
	ErrRoundNotStarted   = errors.New("round has not been started")
	ErrRoundInProgress   = errors.New("round is already in progress")
	ErrEFCapReached      = errors.New("emergency fund contribution would hit the cap")
	ErrEFAlertPending    = errors.New("emergency fund alert must be resolved first")
	ErrNoEFAlert         = errors.New("no emergency fund alert to resolve")
)

// NegativeAvailableError reports fixed costs exceeding income.
type NegativeAvailableError struct {
	Income     int
	FixedCosts int
}

func (e NegativeAvailableError) Error() string {
	return fmt.Sprintf("fixed costs %d exceed income %d", e.FixedCosts, e.Income)
}

// AllocationMismatchError reports a split that does not sum to the
// disposable income. Exact integer equality is required; nothing is clamped.
type AllocationMismatchError struct {
	Expected int
	Actual   int
}

func (e AllocationMismatchError) Error() string {
	return fmt.Sprintf("allocation sums to %d, expected %d", e.Actual, e.Expected)
}

// NegativeBucketError reports a negative amount in one of the three
// allocation buckets.
type NegativeBucketError struct {
	Bucket string
	Amount int
}

func (e NegativeBucketError) Error() string {
	return fmt.Sprintf("allocation bucket %s is negative (%d)", e.Bucket, e.Amount)
}

// WellbeingRangeError is returned under WellbeingReject when an option
// would push wellbeing outside [0,10].
type WellbeingRangeError struct {
	Current int
	Delta   int
}

func (e WellbeingRangeError) Error() string {
	return fmt.Sprintf("wellbeing %d%+d out of range", e.Current, e.Delta)
}
