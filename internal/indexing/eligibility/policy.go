package eligibility

import "time"

// Policy tunes the freshness check.
type Policy struct {
	// FailOpen notifies when the oracle cannot answer. The default,
	// fail-closed, skips the event instead: a missed alert is preferred over
	// alerting on every transient lookup failure. Enabling this is a
	// deliberate policy change.
	FailOpen bool

	// OracleTimeout bounds a single freshness lookup.
	OracleTimeout time.Duration

	// HistoryLimit is the result cap passed to the oracle. Only the boundary
	// between "at most one" and "more" matters, so 2 is enough.
	HistoryLimit int
}

// DefaultPolicy returns the fail-closed policy.
func DefaultPolicy() Policy {
	return Policy{
		FailOpen:      false,
		OracleTimeout: 5 * time.Second,
		HistoryLimit:  2,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.OracleTimeout <= 0 {
		p.OracleTimeout = d.OracleTimeout
	}
	if p.HistoryLimit < 2 {
		p.HistoryLimit = d.HistoryLimit
	}
	return p
}
