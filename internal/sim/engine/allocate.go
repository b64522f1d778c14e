package engine

// ValidateAllocation checks a proposed split against the available-income
// invariant: wants + ef + savings must equal income - fixedCosts exactly.
// Pure and idempotent; callers commit only on nil.
func ValidateAllocation(income, fixedCosts int, a Allocation) error {
	available := income - fixedCosts
	if available < 0 {
		return NegativeAvailableError{Income: income, FixedCosts: fixedCosts}
	}
	switch {
	case a.Wants < 0:
		return NegativeBucketError{Bucket: "wants", Amount: a.Wants}
	case a.EF < 0:
		return NegativeBucketError{Bucket: "ef", Amount: a.EF}
	case a.Savings < 0:
		return NegativeBucketError{Bucket: "savings", Amount: a.Savings}
	}
	if a.Total() != available {
		return AllocationMismatchError{Expected: available, Actual: a.Total()}
	}
	return nil
}

// CommitAllocation validates the split against the player's income and
// fixed costs, then writes the triple atomically. Mid-round edits are
// allowed; the new split only affects balances at the next replenishment
// boundary.
func (p *PlayerState) CommitAllocation(a Allocation) error {
	if err := ValidateAllocation(p.Income, p.FixedCosts, a); err != nil {
		return err
	}
	p.Allocation = a
	return nil
}
