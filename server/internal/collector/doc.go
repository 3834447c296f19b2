// Package collector is the expiry engine for the entry pool.
//
// A Collector owns at most one periodic sweep loop and any number of
// one-shot reactive sweeps. Every sweep snapshots the current IDs and then
// checks and removes each expired entry under its own short store lock, so
// inserts and deletes are never blocked for a whole pass.
//
// Lifecycle of the periodic loop:
//
//	Idle --StartPeriodic--> Running --StopPeriodic--> StopRequested --loop exits--> Idle
//
// StopPeriodic closes the loop's wake channel. The loop waits in a select on
// that channel and a timer, so stopping never waits out the period. A closed
// channel stays readable, which latches a stop that races with the loop
// entering its wait.
//
// Reactive mode makes every Insert spawn one TriggerReactive in its own
// goroutine. Reactive sweeps never read or change the periodic state.
package collector
