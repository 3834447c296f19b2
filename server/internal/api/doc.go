// Package api implements the ttlpool REST API.
//
// Endpoints (all JSON):
//   - GET    /api/v1/entries           : list entries, oldest first, with ages
//   - POST   /api/v1/entries           : insert {"payload": "...", "lifetime": "30s" | 30}
//   - GET    /api/v1/entries/{id}      : one entry
//   - DELETE /api/v1/entries/{id}      : delete one entry
//   - GET    /api/v1/collector         : collector state, period, reactive flag, entry count
//   - POST   /api/v1/collector/{action}: start[?period=10s] | stop | enable | disable | sweep
//
// A missing lifetime on insert is replaced by the configured random default.
// Unknown IDs return 404. Starting a running collector or stopping an idle
// one returns 409 and changes nothing.
package api
