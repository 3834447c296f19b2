package notify

import (
	"log/slog"
	"time"

	"github.com/ttlpool/ttlpool/pkg/types"
)

// Log records collector notifications on a slog.Logger.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a Log writing to logger, or to slog.Default() if logger is nil.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// CollectorStarted logs the start of the periodic loop.
func (l *Log) CollectorStarted(period time.Duration) {
	l.logger.Info("collector: started", "period", period)
}

// CollectorStopped logs the exit of the periodic loop.
func (l *Log) CollectorStopped() {
	l.logger.Info("collector: garbage collector stopped")
}

// SweepStarted logs the start of a sweep pass.
func (l *Log) SweepStarted(kind types.SweepKind) {
	l.logger.Info("collector: running garbage collection", "kind", kind)
}

// EntryInserted logs a new entry.
func (l *Log) EntryInserted(id string, lifetime time.Duration) {
	l.logger.Info("pool: added entry", "id", id, "lifetime", lifetime)
}

// EntryDeleted logs an explicit delete.
func (l *Log) EntryDeleted(id string) {
	l.logger.Info("pool: deleted entry", "id", id)
}

// EntryRemoved logs an expired entry removed by a sweep.
func (l *Log) EntryRemoved(id string, kind types.SweepKind) {
	l.logger.Info("collector: removed expired entry", "id", id, "kind", kind)
}
