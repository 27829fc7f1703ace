// Package app wires the AgroNexus dashboard server together: configuration,
// logging, OpenTelemetry, the websocket hub, the data services, and the chi
// router, plus graceful startup and shutdown.
//
// The router keeps the /ws endpoint outside the full middleware group so the
// WebSocket upgrade never passes through middleware that wraps the
// ResponseWriter. Everything else (API, embedded dashboard page) runs behind
// structured logging, panic recovery, security headers, CORS, and rate
// limiting. The Prometheus scrape endpoint is mounted outside the group.
package app
