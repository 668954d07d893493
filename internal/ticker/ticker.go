// Package ticker wraps the periodic-goroutine pattern (used by the
// gorilix-sup command to tick its heartbeat child) so each call site
// doesn't re-derive its own ticker/stop-channel plumbing.
package ticker

import (
	"context"
	"time"
)

// Run calls fn every interval until ctx is done, starting after the
// first interval has elapsed (it does not call fn immediately).
func Run(ctx context.Context, interval time.Duration, fn func()) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// Go starts Run on its own goroutine and returns a cancel func that stops
// it. Callers that already own a context can just use Run directly.
func Go(interval time.Duration, fn func()) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	go Run(ctx, interval, fn)
	return cancel
}
