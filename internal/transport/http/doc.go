// Package http contains the chi handlers behind the dashboard API.
//
// Endpoints are grouped by handler: DashboardHandler serves the merged
// dataset, metrics and refresh trigger; ExportHandler streams CSV and
// Excel downloads; HealthHandler backs liveness, readiness and version;
// WSHandler upgrades browsers onto the refresh hub. All errors render as
// RFC 7807 problem details.
package http
