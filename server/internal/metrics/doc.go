// Package metrics exposes pool and collector counters in the Prometheus
// format. Metrics implements collector.Notifier, so it is kept current by
// the same notifications that drive logging and the event stream.
//
// Exported series:
//   - ttlpool_entries                      gauge, entries currently held
//   - ttlpool_entries_inserted_total       counter
//   - ttlpool_entries_deleted_total        counter, explicit deletes
//   - ttlpool_entries_expired_total{kind}  counter, removed by sweeps
//   - ttlpool_sweeps_total{kind}           counter, kind = periodic|reactive
//   - ttlpool_collector_running            gauge, 1 while the periodic loop runs
package metrics
