// ABOUTME: The blackboard dispatcher: validates, auth-gates, opens a session,
// ABOUTME: and drives the per-capability loop with short-circuit-on-failure.

package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopnserve/blackboard/internal/capability"
	"github.com/shopnserve/blackboard/internal/provenance"
)

// Status classifies a dispatch outcome for HTTP mapping.
type Status int

const (
	// StatusOK: all capabilities succeeded.
	StatusOK Status = iota
	// StatusBadRequest: structural error, no session or provenance created.
	StatusBadRequest
	// StatusUnauthorized: the auth gate rejected the request.
	StatusUnauthorized
	// StatusFailed: a handler reported a business failure or a capability
	// had no handler. The response carries the details.
	StatusFailed
	// StatusFault: a handler fault or a provenance store outage.
	StatusFault
)

// AuthGate validates the bearer credential on non-Authentication requests.
type AuthGate interface {
	Validate(authHeader string) bool
}

// BackendNamer is optionally implemented by handlers to name the backend
// component recorded as handling their steps.
type BackendNamer interface {
	BackendComponent() string
}

// Dispatcher mediates between UI components and capability handlers,
// recording the full causal chain of every request into the provenance
// store.
type Dispatcher struct {
	registry *capability.Registry
	gate     AuthGate
	store    provenance.Store
	logger   *slog.Logger
}

// New creates a Dispatcher.
func New(registry *capability.Registry, gate AuthGate, store provenance.Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		gate:     gate,
		store:    store,
		logger:   logger.With("component", "dispatch"),
	}
}

// Dispatch runs one request through the state machine:
// validating → gated → session-open → per-capability loop → responded.
func (d *Dispatcher) Dispatch(ctx context.Context, req *capability.Request, authHeader string) (*capability.Response, Status) {
	// validating: structural errors create no session and no provenance.
	if req == nil || len(req.Capabilities) == 0 {
		return capability.Fail("capabilities must not be empty", nil), StatusBadRequest
	}
	if strings.TrimSpace(req.Sender.Component) == "" {
		return capability.Fail("sender component must not be blank", nil), StatusBadRequest
	}

	// gated: everything except Authentication needs a valid credential.
	if !req.RequiresCapability(capability.Authentication) && !d.gate.Validate(authHeader) {
		extra := map[string]any{}
		if tid := req.TraceIDOrEmpty(); tid != "" {
			extra["traceId"] = tid
		}
		return capability.Fail("Unauthorized", extra), StatusUnauthorized
	}

	// session-open
	sessionID, err := d.store.EnsureSession(ctx, req.TraceIDOrEmpty())
	if err != nil {
		return d.storeFailure(req.TraceIDOrEmpty(), "ensuring session", err)
	}

	ui := req.Sender.ComponentName()
	if app := strings.TrimSpace(req.Sender.Application); app != "" {
		if err := d.store.RecordEdge(ctx, provenance.KindUIComponent, ui,
			provenance.KindApplication, app, provenance.EdgePartOf); err != nil {
			return d.storeFailure(sessionID, "recording sender application", err)
		}
	}

	var last *capability.Response
	for _, cap := range req.Capabilities {
		if err := d.store.RecordEdge(ctx, provenance.KindUIComponent, ui,
			provenance.KindCapability, cap.String(), provenance.EdgeRequires); err != nil {
			return d.storeFailure(sessionID, "recording requirement", err)
		}

		handler, ok := d.registry.Resolve(cap)
		if !ok {
			msg := "No handler for capability: " + cap.String()
			if resp, status, fatal := d.recordFailedStep(ctx, sessionID, cap, req, ui, msg); fatal {
				return resp, status
			}
			return capability.Fail(msg, map[string]any{"traceId": sessionID}), StatusFailed
		}

		rec := provenance.EventRecord{
			Payload:          req.Payload,
			UIComponent:      ui,
			BackendComponent: backendName(handler),
		}
		stepID, err := d.store.CreateStep(ctx, sessionID, cap, rec)
		if err != nil {
			return d.storeFailure(sessionID, "creating step", err)
		}

		resp, herr := d.invoke(ctx, handler, req)
		if resp != nil && resp.Data == nil {
			// Handlers may legally return a nil Data map; the trace-id
			// echo below needs a real one.
			resp.Data = map[string]any{}
		}
		switch {
		case herr != nil:
			d.logger.Error("handler fault", "capability", cap, "session", sessionID, "error", herr)
			if err := d.store.SetStepStatus(ctx, stepID, provenance.StepFailed, faultMessage(herr)); err != nil {
				return d.storeFailure(sessionID, "failing step", err)
			}
			return capability.Fail("Handler exception for: "+cap.String(), map[string]any{
				"message": herr.Error(),
				"traceId": sessionID,
			}), StatusFault

		case resp == nil:
			msg := "Handler returned null for: " + cap.String()
			if err := d.store.SetStepStatus(ctx, stepID, provenance.StepFailed, msg); err != nil {
				return d.storeFailure(sessionID, "failing step", err)
			}
			return capability.Fail(msg, map[string]any{"traceId": sessionID}), StatusFailed

		case !resp.OK:
			if err := d.store.SetStepStatus(ctx, stepID, provenance.StepFailed, resp.ErrorMessage()); err != nil {
				return d.storeFailure(sessionID, "failing step", err)
			}
			if _, ok := resp.Data["traceId"]; !ok {
				resp.Data["traceId"] = sessionID
			}
			return resp, StatusFailed

		default:
			if err := d.store.SetStepStatus(ctx, stepID, provenance.StepComplete, ""); err != nil {
				return d.storeFailure(sessionID, "completing step", err)
			}
			last = resp
		}
	}

	// responded
	if last == nil {
		return capability.OKData(map[string]any{"traceId": sessionID}), StatusOK
	}
	if _, ok := last.Data["traceId"]; !ok {
		last.Data["traceId"] = sessionID
	}
	return last, StatusOK
}

// invoke calls the handler with a recover boundary. Panics become errors;
// this is the single place unexpected faults are contained.
func (d *Dispatcher) invoke(ctx context.Context, h capability.Handler, req *capability.Request) (resp *capability.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Handle(ctx, req)
}

// recordFailedStep writes a step that is failed on arrival (resolution
// failures). Returns a fatal store-failure response when provenance
// cannot be written.
func (d *Dispatcher) recordFailedStep(ctx context.Context, sessionID string, cap capability.Capability, req *capability.Request, ui, msg string) (*capability.Response, Status, bool) {
	stepID, err := d.store.CreateStep(ctx, sessionID, cap, provenance.EventRecord{
		Payload:     req.Payload,
		UIComponent: ui,
	})
	if err != nil {
		resp, status := d.storeFailure(sessionID, "creating step", err)
		return resp, status, true
	}
	if err := d.store.SetStepStatus(ctx, stepID, provenance.StepFailed, msg); err != nil {
		resp, status := d.storeFailure(sessionID, "failing step", err)
		return resp, status, true
	}
	return nil, StatusOK, false
}

// storeFailure converts a provenance write failure into a dispatch
// failure: the provenance record and the business response must not
// diverge, so a store outage fails the request.
func (d *Dispatcher) storeFailure(traceID, op string, err error) (*capability.Response, Status) {
	d.logger.Error("provenance store failure", "op", op, "error", err)
	extra := map[string]any{}
	if traceID != "" {
		extra["traceId"] = traceID
	}
	return capability.Fail("provenance store failure: "+op, extra), StatusFault
}

// faultMessage formats a handler fault as "<cause>: <message>" for the
// failed step record.
func faultMessage(err error) string {
	msg := err.Error()
	if strings.HasPrefix(msg, "panic: ") {
		return msg
	}
	return "handler error: " + msg
}

// backendName resolves the backend component a handler records against.
func backendName(h capability.Handler) string {
	if n, ok := h.(BackendNamer); ok {
		return n.BackendComponent()
	}
	return ""
}
