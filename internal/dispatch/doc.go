// Package dispatch is the blackboard core: a single entry point that
// resolves each requested capability against the handler registry and
// records every attempt, success, and failure in the provenance graph.
//
// # Flow
//
// A request moves through validating → gated → session-open → the
// per-capability loop → responded. Structural errors stop before any
// session exists. Every other outcome, including "no handler" and
// handler panics, leaves a step in the graph, so the provenance record
// and the business response never diverge. Capabilities run in request
// order and the loop short-circuits on the first failure; the response
// for a multi-capability request is the last handler's response with
// the session's trace id echoed back.
//
// Handlers are trusted with business logic but not with process safety:
// the dispatcher recovers panics at the invoke boundary and converts
// them into failed steps and fault responses.
package dispatch
