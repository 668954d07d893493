package supervisor

import "time"

// allowRestart is the sliding-window predicate from spec §4.2: prune
// history entries older than now-interval, append now, and compare the
// resulting length against max_restarts. It is a pure function of its
// inputs so the window's pruning logic can be tested without a running
// supervisor.
//
// The window is kept once per supervisor (not once per child): restart
// intensity is a property of the whole supervisor's churn, matching both
// the RestartHistory singular in the data model and real OTP semantics,
// where a single counter governs every RestartOne/RestartAll decision the
// supervisor makes.
func allowRestart(now time.Time, history []time.Time, limit RestartLimit) (bool, []time.Time) {
	if limit.MaxRestarts <= 0 {
		return false, history
	}

	cutoff := now.Add(-limit.Interval)
	kept := make([]time.Time, 0, len(history)+1)
	for _, t := range history {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)

	return len(kept) <= limit.MaxRestarts, kept
}
