// Package api hosts the HTTP server, middleware, and JSON handlers consumed
// by the page-rendering layer. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/pages/* for cached single-page lookups.
//   - GET /v1/events, /v1/services, /v1/departments for filtered listings.
//   - POST /v1/sync for an on-demand full sync.
package api
