// Package api implements the HTTP REST API and WebSocket server for the dashboard.
//
// This package provides:
//   - REST endpoints for the topic list, control publishing and the MQTT session
//   - WebSocket hub that renders controller updates to connected pages
//   - Optional JWT bearer auth with viewer/operator roles
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - Prometheus /metrics and the embedded dashboard page
//
// # Architecture
//
// The API sits between the browser page and the dashboard controller.
// Requests call controller actions, which run on the controller's event
// loop; display changes flow back through the Hub, which the controller
// uses as its renderer.
//
// # Graceful Degradation
//
// The server runs without a broker connection. Reads, topic edits and
// the event stream work; only publishes fail with 503.
package api
