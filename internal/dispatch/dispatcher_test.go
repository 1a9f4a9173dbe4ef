// ABOUTME: Tests for the dispatcher state machine: gating, short-circuit,
// ABOUTME: fault containment, and the provenance record of each outcome.

package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopnserve/blackboard/internal/capability"
	"github.com/shopnserve/blackboard/internal/provenance"
)

type stubHandler struct {
	cap     capability.Capability
	backend string
	fn      func(ctx context.Context, req *capability.Request) (*capability.Response, error)
	calls   int
}

func (h *stubHandler) Capability() capability.Capability { return h.cap }

func (h *stubHandler) BackendComponent() string { return h.backend }

func (h *stubHandler) Handle(ctx context.Context, req *capability.Request) (*capability.Response, error) {
	h.calls++
	return h.fn(ctx, req)
}

type allowGate bool

func (g allowGate) Validate(authHeader string) bool { return bool(g) }

func okHandler(cap capability.Capability) *stubHandler {
	return &stubHandler{
		cap:     cap,
		backend: string(cap) + "Service",
		fn: func(ctx context.Context, req *capability.Request) (*capability.Response, error) {
			return capability.OKData(map[string]any{"handled": string(cap)}), nil
		},
	}
}

func newDispatcher(t *testing.T, gate AuthGate, handlers ...capability.Handler) (*Dispatcher, provenance.Store) {
	t.Helper()
	registry, err := capability.NewRegistry(handlers...)
	require.NoError(t, err)
	store := provenance.NewMemoryStore()
	return New(registry, gate, store, slog.Default()), store
}

func request(traceID string, caps ...capability.Capability) *capability.Request {
	return &capability.Request{
		TraceID:      traceID,
		Sender:       capability.Sender{Component: "Cart.vue", Application: "shop-frontend"},
		Capabilities: caps,
	}
}

func stepStatuses(t *testing.T, store provenance.Store, sessionID string) []string {
	t.Helper()
	g, err := store.QueryGraph(context.Background(), sessionID)
	require.NoError(t, err)
	var out []string
	for _, n := range g.Nodes {
		if n.Type == string(provenance.KindStep) {
			out = append(out, n.Status)
		}
	}
	return out
}

func TestDispatch_EmptyCapabilities(t *testing.T) {
	d, store := newDispatcher(t, allowGate(true))

	resp, status := d.Dispatch(context.Background(), request("t-1"), "")
	assert.Equal(t, StatusBadRequest, status)
	assert.False(t, resp.OK)

	// Structural errors must not open a session.
	_, err := store.QueryGraph(context.Background(), "")
	assert.ErrorIs(t, err, provenance.ErrNotFound)
}

func TestDispatch_BlankSenderComponent(t *testing.T) {
	d, _ := newDispatcher(t, allowGate(true), okHandler(capability.ProductList))

	req := request("t-1", capability.ProductList)
	req.Sender.Component = "   "
	resp, status := d.Dispatch(context.Background(), req, "")
	assert.Equal(t, StatusBadRequest, status)
	assert.Equal(t, "sender component must not be blank", resp.ErrorMessage())
}

func TestDispatch_GateRejectsWithoutInvokingHandler(t *testing.T) {
	h := okHandler(capability.ProductList)
	d, store := newDispatcher(t, allowGate(false), h)

	resp, status := d.Dispatch(context.Background(), request("t-gate", capability.ProductList), "Bearer junk")
	assert.Equal(t, StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", resp.ErrorMessage())
	assert.Equal(t, "t-gate", resp.Data["traceId"])
	assert.Zero(t, h.calls)

	// Rejected requests leave no provenance.
	_, err := store.QueryGraph(context.Background(), "")
	assert.ErrorIs(t, err, provenance.ErrNotFound)
}

func TestDispatch_AuthenticationBypassesGate(t *testing.T) {
	h := okHandler(capability.Authentication)
	d, _ := newDispatcher(t, allowGate(false), h)

	resp, status := d.Dispatch(context.Background(), request("t-login", capability.Authentication), "")
	assert.Equal(t, StatusOK, status)
	assert.True(t, resp.OK)
	assert.Equal(t, 1, h.calls)
}

func TestDispatch_SuccessRecordsCompleteChain(t *testing.T) {
	a := okHandler(capability.Authorization)
	b := okHandler(capability.ProductList)
	d, store := newDispatcher(t, allowGate(true), a, b)

	resp, status := d.Dispatch(context.Background(),
		request("t-ok", capability.Authorization, capability.ProductList), "Bearer good")
	require.Equal(t, StatusOK, status)
	assert.True(t, resp.OK)
	// The response is the last handler's, trace id echoed.
	assert.Equal(t, "ProductList", resp.Data["handled"])
	assert.Equal(t, "t-ok", resp.Data["traceId"])
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)

	assert.Equal(t, []string{"complete", "complete"}, stepStatuses(t, store, "t-ok"))

	g, err := store.QueryGraph(context.Background(), "t-ok")
	require.NoError(t, err)
	var first, next int
	for _, e := range g.Edges {
		switch e.Type {
		case provenance.EdgeFirstStep:
			first++
		case provenance.EdgeNext:
			next++
		}
	}
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, next)
}

func TestDispatch_ShortCircuitsOnFailure(t *testing.T) {
	failing := &stubHandler{
		cap: capability.Authorization,
		fn: func(ctx context.Context, req *capability.Request) (*capability.Response, error) {
			return capability.Fail("not allowed", nil), nil
		},
	}
	never := okHandler(capability.ProductList)
	d, store := newDispatcher(t, allowGate(true), failing, never)

	resp, status := d.Dispatch(context.Background(),
		request("t-fail", capability.Authorization, capability.ProductList), "Bearer good")
	assert.Equal(t, StatusFailed, status)
	assert.False(t, resp.OK)
	assert.Equal(t, "not allowed", resp.ErrorMessage())
	assert.Equal(t, "t-fail", resp.Data["traceId"])
	assert.Zero(t, never.calls)

	// Exactly one step, failed. The second capability never got one.
	assert.Equal(t, []string{"failed"}, stepStatuses(t, store, "t-fail"))
}

func TestDispatch_UnknownCapability(t *testing.T) {
	d, store := newDispatcher(t, allowGate(true), okHandler(capability.ProductList))

	resp, status := d.Dispatch(context.Background(),
		request("t-tp", capability.Capability("Teleport")), "Bearer good")
	assert.Equal(t, StatusFailed, status)
	assert.Equal(t, "No handler for capability: Teleport", resp.ErrorMessage())

	// Resolution failures still leave a failed step.
	assert.Equal(t, []string{"failed"}, stepStatuses(t, store, "t-tp"))
}

func TestDispatch_HandlerPanicBecomesFault(t *testing.T) {
	boom := &stubHandler{
		cap: capability.ProductList,
		fn: func(ctx context.Context, req *capability.Request) (*capability.Response, error) {
			panic("boom")
		},
	}
	d, store := newDispatcher(t, allowGate(true), boom)

	resp, status := d.Dispatch(context.Background(),
		request("t-panic", capability.ProductList), "Bearer good")
	assert.Equal(t, StatusFault, status)
	assert.Equal(t, "Handler exception for: ProductList", resp.ErrorMessage())
	assert.Equal(t, "panic: boom", resp.Data["message"])

	assert.Equal(t, []string{"failed"}, stepStatuses(t, store, "t-panic"))
}

func TestDispatch_HandlerErrorBecomesFault(t *testing.T) {
	broken := &stubHandler{
		cap: capability.OrderPlaced,
		fn: func(ctx context.Context, req *capability.Request) (*capability.Response, error) {
			return nil, errors.New("database gone")
		},
	}
	d, store := newDispatcher(t, allowGate(true), broken)

	resp, status := d.Dispatch(context.Background(),
		request("t-err", capability.OrderPlaced), "Bearer good")
	assert.Equal(t, StatusFault, status)
	assert.Equal(t, "Handler exception for: OrderPlaced", resp.ErrorMessage())
	assert.Equal(t, "database gone", resp.Data["message"])

	assert.Equal(t, []string{"failed"}, stepStatuses(t, store, "t-err"))
}

func TestDispatch_NilResponseWithoutError(t *testing.T) {
	quiet := &stubHandler{
		cap: capability.ProductList,
		fn: func(ctx context.Context, req *capability.Request) (*capability.Response, error) {
			return nil, nil
		},
	}
	d, store := newDispatcher(t, allowGate(true), quiet)

	resp, status := d.Dispatch(context.Background(),
		request("t-nil", capability.ProductList), "Bearer good")
	assert.Equal(t, StatusFailed, status)
	assert.Equal(t, "Handler returned null for: ProductList", resp.ErrorMessage())

	assert.Equal(t, []string{"failed"}, stepStatuses(t, store, "t-nil"))
}

func TestDispatch_NilDataMapGetsTraceID(t *testing.T) {
	bare := &stubHandler{
		cap: capability.ProductList,
		fn: func(ctx context.Context, req *capability.Request) (*capability.Response, error) {
			return &capability.Response{OK: true}, nil
		},
	}
	d, _ := newDispatcher(t, allowGate(true), bare)

	resp, status := d.Dispatch(context.Background(),
		request("t-bare", capability.ProductList), "Bearer good")
	require.Equal(t, StatusOK, status)
	assert.True(t, resp.OK)
	assert.Equal(t, "t-bare", resp.Data["traceId"])
}

func TestDispatch_NilDataMapOnFailure(t *testing.T) {
	bare := &stubHandler{
		cap: capability.ProductList,
		fn: func(ctx context.Context, req *capability.Request) (*capability.Response, error) {
			return &capability.Response{OK: false}, nil
		},
	}
	d, store := newDispatcher(t, allowGate(true), bare)

	resp, status := d.Dispatch(context.Background(),
		request("t-bare-fail", capability.ProductList), "Bearer good")
	assert.Equal(t, StatusFailed, status)
	assert.False(t, resp.OK)
	assert.Equal(t, "Unknown error", resp.ErrorMessage())
	assert.Equal(t, "t-bare-fail", resp.Data["traceId"])

	assert.Equal(t, []string{"failed"}, stepStatuses(t, store, "t-bare-fail"))
}

// brokenStore wraps a working store and fails one operation, so each
// provenance write site can be driven into its outage path.
type brokenStore struct {
	provenance.Store
	failEnsure bool
	failCreate bool
	failStatus bool
}

func (b *brokenStore) EnsureSession(ctx context.Context, id string) (string, error) {
	if b.failEnsure {
		return "", errors.New("store down")
	}
	return b.Store.EnsureSession(ctx, id)
}

func (b *brokenStore) CreateStep(ctx context.Context, sessionID string, cap capability.Capability, rec provenance.EventRecord) (string, error) {
	if b.failCreate {
		return "", errors.New("store down")
	}
	return b.Store.CreateStep(ctx, sessionID, cap, rec)
}

func (b *brokenStore) SetStepStatus(ctx context.Context, stepID string, status provenance.StepStatus, errMsg string) error {
	if b.failStatus {
		return errors.New("store down")
	}
	return b.Store.SetStepStatus(ctx, stepID, status, errMsg)
}

func TestDispatch_StoreOutageFailsTheRequest(t *testing.T) {
	tests := []struct {
		name  string
		store *brokenStore
	}{
		{"ensure session fails", &brokenStore{failEnsure: true}},
		{"create step fails", &brokenStore{failCreate: true}},
		{"set step status fails", &brokenStore{failStatus: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := okHandler(capability.ProductList)
			registry, err := capability.NewRegistry(h)
			require.NoError(t, err)
			tt.store.Store = provenance.NewMemoryStore()
			d := New(registry, allowGate(true), tt.store, slog.Default())

			resp, status := d.Dispatch(context.Background(),
				request("t-outage", capability.ProductList), "Bearer good")
			assert.Equal(t, StatusFault, status)
			assert.False(t, resp.OK)
		})
	}
}

func TestDispatch_GeneratesSessionWhenTraceIDMissing(t *testing.T) {
	d, _ := newDispatcher(t, allowGate(true), okHandler(capability.ProductList))

	resp, status := d.Dispatch(context.Background(),
		request("", capability.ProductList), "Bearer good")
	require.Equal(t, StatusOK, status)
	assert.NotEmpty(t, resp.Data["traceId"])
}

func TestDispatch_RecordsSenderApplication(t *testing.T) {
	d, store := newDispatcher(t, allowGate(true), okHandler(capability.ProductList))

	_, status := d.Dispatch(context.Background(),
		request("t-app", capability.ProductList), "Bearer good")
	require.Equal(t, StatusOK, status)

	g, err := store.QueryGraph(context.Background(), "t-app")
	require.NoError(t, err)
	assert.Contains(t, g.Edges, provenance.Edge{
		From: "UIComponent:Cart",
		To:   "MicroClient:shop-frontend",
		Type: provenance.EdgePartOf,
	})
	assert.Contains(t, g.Edges, provenance.Edge{
		From: "UIComponent:Cart",
		To:   "Capability:ProductList",
		Type: provenance.EdgeRequires,
	})
}
