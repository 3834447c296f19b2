package metrics

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/ttlpool/ttlpool/pkg/types"
)

const namespace = "ttlpool"

// Metrics owns a private registry with the pool's series.
type Metrics struct {
	reg *prometheus.Registry

	inserted prometheus.Counter
	deleted  prometheus.Counter
	expired  *prometheus.CounterVec
	sweeps   *prometheus.CounterVec
	running  prometheus.Gauge
}

// New registers all series. count reports the current number of entries and
// is called on every scrape.
func New(count func() int) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		inserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_inserted_total",
			Help:      "Entries added to the pool.",
		}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_deleted_total",
			Help:      "Entries removed by an explicit delete.",
		}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_expired_total",
			Help:      "Expired entries removed by a sweep.",
		}, []string{"kind"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "Sweep passes started.",
		}, []string{"kind"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collector_running",
			Help:      "1 while the periodic collector loop is running.",
		}),
	}

	entries := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "entries",
		Help:      "Entries currently in the pool, including expired ones not yet swept.",
	}, func() float64 { return float64(count()) })

	m.reg.MustRegister(m.inserted, m.deleted, m.expired, m.sweeps, m.running, entries)

	// Pre-create both label values so they are exported as 0 before the first sweep.
	for _, k := range []types.SweepKind{types.SweepPeriodic, types.SweepReactive} {
		m.expired.WithLabelValues(string(k))
		m.sweeps.WithLabelValues(string(k))
	}
	return m
}

// Registry returns the underlying registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// WriteText writes every series to w in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	mfs, err := m.reg.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// CollectorStarted sets ttlpool_collector_running to 1.
func (m *Metrics) CollectorStarted(time.Duration) { m.running.Set(1) }

// CollectorStopped sets ttlpool_collector_running to 0.
func (m *Metrics) CollectorStopped() { m.running.Set(0) }

// SweepStarted counts one sweep of kind.
func (m *Metrics) SweepStarted(kind types.SweepKind) {
	m.sweeps.WithLabelValues(string(kind)).Inc()
}

// EntryInserted counts one insert.
func (m *Metrics) EntryInserted(string, time.Duration) { m.inserted.Inc() }

// EntryDeleted counts one explicit delete.
func (m *Metrics) EntryDeleted(string) { m.deleted.Inc() }

// EntryRemoved counts one expired entry removed by a sweep of kind.
func (m *Metrics) EntryRemoved(_ string, kind types.SweepKind) {
	m.expired.WithLabelValues(string(kind)).Inc()
}
