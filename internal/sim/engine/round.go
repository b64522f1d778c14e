package engine

// StartRound arms a new round. Under ReplenishRoundStart it folds the
// committed allocation into the balances first; if a non-zero EF
// contribution would hit the cap, the EF-full alert is raised instead and
// nothing is mutated until ResolveEFOverflow is called.
func StartRound(p *PlayerState, cfg Config) error {
	if !p.AwaitingRoundStart {
		return ErrRoundInProgress
	}
	if p.EFFullAlert {
		return ErrEFAlertPending
	}

	if cfg.Replenish == ReplenishRoundStart {
		if !p.EFAlertAcked && p.Allocation.EF > 0 && p.EFBalance+p.Allocation.EF >= cfg.EFCap {
			p.EFFullAlert = true
			return ErrEFCapReached
		}
		p.replenish(cfg)
	}
	p.AwaitingRoundStart = false
	p.EFAlertAcked = false
	return nil
}

// ResolveEFOverflow answers the EF-full alert. Redirecting moves the
// monthly EF contribution into the savings allocation; keeping leaves the
// split alone, in which case the contribution is simply capped when the
// round starts. Either way the alert is acknowledged for this round only.
func ResolveEFOverflow(p *PlayerState, redirect bool) error {
	if !p.EFFullAlert {
		return ErrNoEFAlert
	}
	if redirect {
		p.Allocation.Savings += p.Allocation.EF
		p.Allocation.EF = 0
	}
	p.EFFullAlert = false
	p.EFAlertAcked = true
	return nil
}
