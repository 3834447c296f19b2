// Package health serves the standard grpc.health.v1 service.
//
// The overall status ("") is SERVING while the process is up. The service
// "ttlpool.Collector" tracks the periodic sweep loop: SERVING while it runs,
// NOT_SERVING while it is idle. Server implements collector.Notifier and is
// updated from the collector's start and stop notifications.
package health
