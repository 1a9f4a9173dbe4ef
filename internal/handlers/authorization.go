// ABOUTME: Authorization capability handler: re-checks a token presented
// ABOUTME: in the payload and reports the authorization decision.

package handlers

import (
	"context"
	"log/slog"

	"github.com/shopnserve/blackboard/internal/auth"
	"github.com/shopnserve/blackboard/internal/capability"
	"github.com/shopnserve/blackboard/internal/provenance"
)

// AuthorizationHandler serves the Authorization capability. The request
// already passed the dispatcher's gate; when the payload carries its own
// token that one is checked too, so a component can probe a stored token
// without retrying a real operation.
type AuthorizationHandler struct {
	svc    *auth.Service
	prov   provenance.Store
	logger *slog.Logger
}

// NewAuthorizationHandler creates the handler.
func NewAuthorizationHandler(svc *auth.Service, prov provenance.Store, logger *slog.Logger) *AuthorizationHandler {
	return &AuthorizationHandler{
		svc:    svc,
		prov:   prov,
		logger: logger.With("handler", "authorization"),
	}
}

func (h *AuthorizationHandler) Capability() capability.Capability {
	return capability.Authorization
}

func (h *AuthorizationHandler) BackendComponent() string { return authServiceName }

func (h *AuthorizationHandler) Handle(ctx context.Context, req *capability.Request) (*capability.Response, error) {
	recordProvides(ctx, h.prov, h.logger, authServiceName, capability.Authorization, req)

	if token := stringField(req.PayloadMap(), "token"); token != "" && !h.svc.Validate(token) {
		return capability.Fail("Invalid token", map[string]any{"authorized": false}), nil
	}
	return capability.OKData(map[string]any{"authorized": true}), nil
}
