// ABOUTME: Authentication capability handler: login and register via the
// ABOUTME: auth service, issuing bearer tokens for subsequent requests.

package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopnserve/blackboard/internal/auth"
	"github.com/shopnserve/blackboard/internal/capability"
	"github.com/shopnserve/blackboard/internal/provenance"
)

// AuthService is the backend component name auth steps are recorded against.
const authServiceName = "AuthService"

// AuthenticationHandler serves the Authentication capability. The payload
// selects the action: "register" creates a user, anything else is a login.
type AuthenticationHandler struct {
	svc    *auth.Service
	prov   provenance.Store
	logger *slog.Logger
}

// NewAuthenticationHandler creates the handler.
func NewAuthenticationHandler(svc *auth.Service, prov provenance.Store, logger *slog.Logger) *AuthenticationHandler {
	return &AuthenticationHandler{
		svc:    svc,
		prov:   prov,
		logger: logger.With("handler", "authentication"),
	}
}

func (h *AuthenticationHandler) Capability() capability.Capability {
	return capability.Authentication
}

func (h *AuthenticationHandler) BackendComponent() string { return authServiceName }

// Handle performs login or register and returns {username, token} on
// success.
func (h *AuthenticationHandler) Handle(ctx context.Context, req *capability.Request) (*capability.Response, error) {
	payload := req.PayloadMap()
	username := stringField(payload, "username")
	password := stringField(payload, "password")
	if username == "" || password == "" {
		return capability.Fail("username and password are required", nil), nil
	}

	recordProvides(ctx, h.prov, h.logger, authServiceName, capability.Authentication, req)

	var result auth.Result
	if strings.EqualFold(stringField(payload, "action"), "register") {
		result = h.svc.Register(username, password)
	} else {
		result = h.svc.Login(username, password)
	}
	if !result.Success {
		return capability.Fail(result.Message, nil), nil
	}

	return capability.OKData(map[string]any{
		"username": result.Username,
		"token":    result.Token,
	}), nil
}
