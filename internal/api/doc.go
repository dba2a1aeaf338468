// Package api hosts the HTTP server, middleware, and REST handlers for the
// audit service. Notable routes:
//   - POST /v1/audits runs a single-page audit and stores the report.
//   - GET /v1/reports/{id} returns a stored report.
//   - GET /v1/reports/{id}/diff/{previous_id} compares two stored reports.
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
