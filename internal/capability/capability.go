// ABOUTME: Capability identifiers and the request/response types exchanged
// ABOUTME: between UI components and the blackboard dispatcher.

package capability

import (
	"encoding/json"
	"strings"
)

// Capability names a service contract a component can require or provide.
// The known set is closed; unknown names survive JSON decoding so that the
// dispatcher can report them as resolution failures instead of dropping them.
type Capability string

// Known capabilities.
const (
	Authentication Capability = "Authentication"
	Authorization  Capability = "Authorization"
	ProductList    Capability = "ProductList"
	OrderPlaced    Capability = "OrderPlaced"
)

// Known reports whether c is part of the closed capability set.
func (c Capability) Known() bool {
	switch c {
	case Authentication, Authorization, ProductList, OrderPlaced:
		return true
	}
	return false
}

func (c Capability) String() string { return string(c) }

// Sender identifies the UI component that issued a request.
type Sender struct {
	Component   string `json:"component"`
	Application string `json:"application,omitempty"`
}

// ComponentName returns the sender component normalized for the
// provenance graph; frontend file extensions are dropped (Cart.vue → Cart).
func (s Sender) ComponentName() string {
	return strings.TrimSuffix(strings.TrimSpace(s.Component), ".vue")
}

// Request is one inbound dispatch request (a message event). It is
// constructed per HTTP call and never mutated.
type Request struct {
	TraceID      string          `json:"traceId,omitempty"`
	Sender       Sender          `json:"sender"`
	Capabilities []Capability    `json:"capabilities"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// TraceIDOrEmpty returns the trimmed trace id, or "" when absent/blank.
func (r *Request) TraceIDOrEmpty() string {
	return strings.TrimSpace(r.TraceID)
}

// PayloadMap decodes the opaque payload into a map. A missing or
// non-object payload yields an empty map, never an error.
func (r *Request) PayloadMap() map[string]any {
	if len(r.Payload) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(r.Payload, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

// RequiresCapability reports whether the request asks for cap.
func (r *Request) RequiresCapability(cap Capability) bool {
	for _, c := range r.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}
