// Package capability defines the contract between UI components and the
// blackboard: capability identifiers, the message event request, the
// uniform response type, the polymorphic handler interface, and the
// registry that resolves a capability to its handler.
//
// A caller declares what it needs (a capability list), never who provides
// it. The Registry is built once at process start from the full set of
// handler implementations and rejects duplicate registrations.
package capability
