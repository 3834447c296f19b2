package notify

import (
	"log/slog"
	"time"

	"github.com/ttlpool/ttlpool/pkg/types"
	"github.com/ttlpool/ttlpool/server/internal/collector"
)

// Multi delivers each notification to every notifier in order. A panic in
// one notifier is logged and does not stop delivery to the rest.
type Multi []collector.Notifier

// CollectorStarted forwards to every element, as do the other Notifier methods.
func (m Multi) CollectorStarted(period time.Duration) {
	m.each("collector_started", func(n collector.Notifier) { n.CollectorStarted(period) })
}

func (m Multi) CollectorStopped() {
	m.each("collector_stopped", func(n collector.Notifier) { n.CollectorStopped() })
}

func (m Multi) SweepStarted(kind types.SweepKind) {
	m.each("sweep_started", func(n collector.Notifier) { n.SweepStarted(kind) })
}

func (m Multi) EntryInserted(id string, lifetime time.Duration) {
	m.each("entry_inserted", func(n collector.Notifier) { n.EntryInserted(id, lifetime) })
}

func (m Multi) EntryDeleted(id string) {
	m.each("entry_deleted", func(n collector.Notifier) { n.EntryDeleted(id) })
}

func (m Multi) EntryRemoved(id string, kind types.SweepKind) {
	m.each("entry_removed", func(n collector.Notifier) { n.EntryRemoved(id, kind) })
}

func (m Multi) each(event string, fn func(collector.Notifier)) {
	for _, n := range m {
		if n == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("notify: notifier panicked", "event", event, "panic", r)
				}
			}()
			fn(n)
		}()
	}
}
