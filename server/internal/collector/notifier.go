package collector

import (
	"time"

	"github.com/ttlpool/ttlpool/pkg/types"
)

// Notifier receives fire-and-forget notifications from a Collector.
// Implementations must not block and must be safe for concurrent use.
type Notifier interface {
	CollectorStarted(period time.Duration)
	CollectorStopped()
	SweepStarted(kind types.SweepKind)
	EntryInserted(id string, lifetime time.Duration)
	EntryDeleted(id string)
	EntryRemoved(id string, kind types.SweepKind)
}

type nopNotifier struct{}

func (nopNotifier) CollectorStarted(time.Duration)       {}
func (nopNotifier) CollectorStopped()                    {}
func (nopNotifier) SweepStarted(types.SweepKind)         {}
func (nopNotifier) EntryInserted(string, time.Duration)  {}
func (nopNotifier) EntryDeleted(string)                  {}
func (nopNotifier) EntryRemoved(string, types.SweepKind) {}
