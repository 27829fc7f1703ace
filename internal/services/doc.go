// Package services holds the business logic behind the HTTP handlers.
//
// DashboardService owns the fetch, merge, filter and metrics pipeline:
// climate history and commodity quotes are fetched concurrently, degraded
// to synthetic fallbacks per source when an upstream is unreachable,
// merged on the date key and memoized in the result cache. HealthService
// backs the liveness, readiness and version endpoints.
package services
