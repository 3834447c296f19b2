package collector

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ttlpool/ttlpool/pkg/types"
)

// TriggerReactive runs exactly one sweep pass in the calling goroutine and
// returns the number of entries it removed.
func (c *Collector) TriggerReactive() int {
	removed, _ := c.sweep(types.SweepReactive)
	return removed
}

// loop is the periodic sweep loop. It sweeps, then waits for either the
// period to elapse or wake to be closed.
func (c *Collector) loop(period time.Duration, wake <-chan struct{}, done chan struct{}) {
	defer c.wg.Done()
	defer c.finish(done)

	timer := time.NewTimer(period)
	defer timer.Stop()

	for {
		if _, err := c.sweep(types.SweepPeriodic); err != nil {
			slog.Error("collector: periodic sweep failed", "err", err)
		}

		timer.Reset(period)
		select {
		case <-wake:
			return
		case <-timer.C:
		}
	}
}

// finish reports the stop and returns the collector to Idle. The
// notification goes out first so a following StartPeriodic cannot be
// reported before it.
func (c *Collector) finish(done chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("collector: stop notification failed", "panic", r)
		}
		c.mu.Lock()
		c.state = Idle
		c.mu.Unlock()
		close(done)
	}()

	c.notifier.CollectorStopped()
}

// sweep removes every expired entry present when the pass starts. Each
// entry is checked and removed under its own lock hold; an entry deleted
// concurrently is skipped. A panic anywhere in the pass is recovered and
// returned as an error.
func (c *Collector) sweep(kind types.SweepKind) (removed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collector: %s sweep aborted: %v", kind, r)
			slog.Error("collector: sweep aborted", "kind", kind, "removed", removed, "panic", r)
		}
	}()

	c.notifier.SweepStarted(kind)

	for _, id := range c.store.IDs() {
		if c.store.DeleteIfExpired(id, c.now()) {
			removed++
			c.notifier.EntryRemoved(id, kind)
		}
	}

	if removed > 0 {
		slog.Debug("collector: sweep complete", "kind", kind, "removed", removed)
	}
	return removed, nil
}
