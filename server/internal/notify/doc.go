// Package notify provides collector.Notifier implementations that are not
// tied to a transport: Log writes each notification as a structured log
// record, and Multi fans notifications out to several notifiers.
package notify
