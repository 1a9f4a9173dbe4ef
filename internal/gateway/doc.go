// Package gateway implements the blackboard-gateway server orchestration.
//
// # Overview
//
// The gateway wires the configuration, the provenance and shop stores,
// the auth service, and the capability registry into one HTTP server and
// manages its lifecycle. All capability traffic flows through a single
// endpoint; the dispatcher decides which handler serves each request and
// records the provenance of every attempt.
//
// # Endpoints
//
// Dispatch:
//
//	POST /dispatch                 Capability requests (gating inside the dispatcher)
//	GET  /dispatch/graph           Provenance graph, latest session by default
//	GET  /dispatch/events          Recent provenance events, newest first
//
// Auth (reachable without a token):
//
//	POST /auth/login
//	POST /auth/register
//
// Shop (token required):
//
//	GET  /products
//	GET  /orders
//	POST /orders/{id}/confirm
//
// Health:
//
//	GET /health
//	GET /health/ready
//
// # Status Mapping
//
// POST /dispatch returns 200 for successful dispatches and business
// failures alike (the body's ok flag distinguishes them), 400 for
// structural errors, 401 when the gate rejects the credential, and 500
// for handler faults and provenance outages. The body is always a
// capability response.
//
// # Lifecycle
//
// New() builds everything; Run() serves until the context is canceled,
// then shuts down the HTTP server and closes both stores with a 5 second
// grace period.
package gateway
