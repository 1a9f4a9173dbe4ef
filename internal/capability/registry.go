// ABOUTME: Immutable lookup table from capability to its handler.
// ABOUTME: Built once at startup; duplicate registration is a startup error.

package capability

import (
	"context"
	"errors"
	"fmt"
)

// ErrDuplicateHandler indicates two handlers declared the same capability.
var ErrDuplicateHandler = errors.New("duplicate capability handler")

// Handler executes the business action for one capability.
//
// Expected business failures (bad credentials, not-found) must be returned
// as a Response with OK=false, not as an error. The error return is
// reserved for faults; the dispatcher converts those into a failed step
// and a uniform error response.
type Handler interface {
	Capability() Capability
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// Registry maps each capability to its handler. It is built once from the
// full set of handler implementations and is read-only thereafter, so no
// locking is needed.
type Registry struct {
	handlers map[Capability]Handler
}

// NewRegistry builds a registry from the given handlers. A second handler
// for the same capability is rejected rather than silently overwritten.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	m := make(map[Capability]Handler, len(handlers))
	for _, h := range handlers {
		cap := h.Capability()
		if prev, exists := m[cap]; exists {
			return nil, fmt.Errorf("%w: %s claimed by %T and %T", ErrDuplicateHandler, cap, prev, h)
		}
		m[cap] = h
	}
	return &Registry{handlers: m}, nil
}

// Resolve returns the handler for cap, or false when none is registered.
func (r *Registry) Resolve(cap Capability) (Handler, bool) {
	h, ok := r.handlers[cap]
	return h, ok
}

// Capabilities returns the registered capability set.
func (r *Registry) Capabilities() []Capability {
	caps := make([]Capability, 0, len(r.handlers))
	for c := range r.handlers {
		caps = append(caps, c)
	}
	return caps
}
