// ABOUTME: Tests for the capability registry and request helpers.
// ABOUTME: Covers duplicate rejection, resolution, and payload decoding.

package capability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type stubHandler struct {
	cap Capability
}

func (s *stubHandler) Capability() Capability { return s.cap }

func (s *stubHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	return OKData(map[string]any{"handled": string(s.cap)}), nil
}

func TestRegistry_Resolve(t *testing.T) {
	reg, err := NewRegistry(&stubHandler{cap: ProductList}, &stubHandler{cap: Authentication})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	h, ok := reg.Resolve(ProductList)
	if !ok {
		t.Fatal("Resolve(ProductList) not found")
	}
	if h.Capability() != ProductList {
		t.Errorf("Capability() = %q, want %q", h.Capability(), ProductList)
	}

	if _, ok := reg.Resolve(Capability("Teleport")); ok {
		t.Error("Resolve(Teleport) should not find a handler")
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	_, err := NewRegistry(&stubHandler{cap: ProductList}, &stubHandler{cap: ProductList})
	if !errors.Is(err, ErrDuplicateHandler) {
		t.Fatalf("NewRegistry() error = %v, want ErrDuplicateHandler", err)
	}
}

func TestRegistry_EmptyIsValid(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if _, ok := reg.Resolve(Authentication); ok {
		t.Error("empty registry should resolve nothing")
	}
}

func TestRequest_PayloadMap(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantKey string
	}{
		{name: "object", payload: `{"username":"demo"}`, wantKey: "username"},
		{name: "empty", payload: ``},
		{name: "null", payload: `null`},
		{name: "array", payload: `[1,2,3]`},
		{name: "garbage", payload: `{{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Payload: json.RawMessage(tt.payload)}
			m := req.PayloadMap()
			if m == nil {
				t.Fatal("PayloadMap() returned nil")
			}
			if tt.wantKey != "" {
				if _, ok := m[tt.wantKey]; !ok {
					t.Errorf("PayloadMap() missing key %q", tt.wantKey)
				}
			} else if len(m) != 0 {
				t.Errorf("PayloadMap() = %v, want empty", m)
			}
		})
	}
}

func TestRequest_TraceIDOrEmpty(t *testing.T) {
	if got := (&Request{TraceID: "  "}).TraceIDOrEmpty(); got != "" {
		t.Errorf("TraceIDOrEmpty() = %q, want empty", got)
	}
	if got := (&Request{TraceID: " abc "}).TraceIDOrEmpty(); got != "abc" {
		t.Errorf("TraceIDOrEmpty() = %q, want %q", got, "abc")
	}
}

func TestResponse_ErrorMessage(t *testing.T) {
	if got := Fail("boom", nil).ErrorMessage(); got != "boom" {
		t.Errorf("ErrorMessage() = %q, want %q", got, "boom")
	}
	if got := (&Response{OK: false, Data: map[string]any{"error": 42}}).ErrorMessage(); got != "Unknown error" {
		t.Errorf("ErrorMessage() = %q, want Unknown error", got)
	}
	if got := (&Response{OK: false}).ErrorMessage(); got != "Unknown error" {
		t.Errorf("ErrorMessage() = %q, want Unknown error", got)
	}
}
