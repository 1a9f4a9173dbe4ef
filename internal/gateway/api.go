// ABOUTME: HTTP API handlers for dispatch, provenance queries, auth, and
// ABOUTME: the shop endpoints recovered from the storefront.

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopnserve/blackboard/internal/capability"
	"github.com/shopnserve/blackboard/internal/dispatch"
	"github.com/shopnserve/blackboard/internal/provenance"
	"github.com/shopnserve/blackboard/internal/shop"
)

// CredentialsRequest is the JSON request body for POST /auth/login and
// POST /auth/register.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// EventsResponse is the JSON response for GET /dispatch/events.
type EventsResponse struct {
	Events []*provenance.Event `json:"events"`
}

// ProductsResponse is the JSON response for GET /products.
type ProductsResponse struct {
	Products []shop.Product `json:"products"`
}

// OrdersResponse is the JSON response for GET /orders.
type OrdersResponse struct {
	Orders []shop.Order `json:"orders"`
}

// requireToken wraps a handler with bearer token validation.
func (g *Gateway) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.authSvc.Validate(r.Header.Get("Authorization")) {
			g.sendJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

// handleHealth handles GET /health requests.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady handles GET /health/ready requests. Readiness means both
// stores answer a query.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := g.shop.Products(r.Context()); err != nil {
		g.sendJSONError(w, http.StatusServiceUnavailable, "shop store unavailable")
		return
	}
	if _, err := g.prov.ListRecentEvents(r.Context(), 1, ""); err != nil {
		g.sendJSONError(w, http.StatusServiceUnavailable, "provenance store unavailable")
		return
	}
	g.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleDispatch handles POST /dispatch requests: the single entry point
// for capability requests. The body is always a capability response, even
// on failure.
func (g *Gateway) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req capability.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, status := g.dispatcher.Dispatch(r.Context(), &req, r.Header.Get("Authorization"))
	g.writeJSON(w, httpStatusFor(status), resp)
}

// httpStatusFor maps a dispatch outcome to an HTTP status code. Business
// failures are 200 with ok:false; the transport worked and the response
// says what went wrong.
func httpStatusFor(status dispatch.Status) int {
	switch status {
	case dispatch.StatusBadRequest:
		return http.StatusBadRequest
	case dispatch.StatusUnauthorized:
		return http.StatusUnauthorized
	case dispatch.StatusFault:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// handleGraph handles GET /dispatch/graph requests. Without a sessionId
// the most recent session is returned.
func (g *Gateway) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	graph, err := g.prov.QueryGraph(r.Context(), r.URL.Query().Get("sessionId"))
	if errors.Is(err, provenance.ErrNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		g.logger.Error("graph query failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	g.writeJSON(w, http.StatusOK, graph)
}

// handleEvents handles GET /dispatch/events requests.
// Supports ?limit=N and ?sessionId=X query parameters.
func (g *Gateway) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			g.sendJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	events, err := g.prov.ListRecentEvents(r.Context(), limit, r.URL.Query().Get("sessionId"))
	if err != nil {
		g.logger.Error("listing events failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if events == nil {
		events = []*provenance.Event{}
	}
	g.writeJSON(w, http.StatusOK, EventsResponse{Events: events})
}

// handleLogin handles POST /auth/login requests.
func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, ok := g.parseCredentials(w, r)
	if !ok {
		return
	}

	result := g.authSvc.Login(creds.Username, creds.Password)
	if !result.Success {
		g.writeJSON(w, http.StatusUnauthorized, result)
		return
	}
	g.writeJSON(w, http.StatusOK, result)
}

// handleRegister handles POST /auth/register requests.
func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, ok := g.parseCredentials(w, r)
	if !ok {
		return
	}

	result := g.authSvc.Register(creds.Username, creds.Password)
	if !result.Success {
		g.writeJSON(w, http.StatusConflict, result)
		return
	}
	g.writeJSON(w, http.StatusOK, result)
}

// parseCredentials validates the method and decodes a credentials body.
func (g *Gateway) parseCredentials(w http.ResponseWriter, r *http.Request) (*CredentialsRequest, bool) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return nil, false
	}

	var creds CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		g.sendJSONError(w, http.StatusBadRequest, "username and password are required")
		return nil, false
	}
	return &creds, true
}

// handleProducts handles GET /products requests.
func (g *Gateway) handleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	products, err := g.shop.Products(r.Context())
	if err != nil {
		g.logger.Error("listing products failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if products == nil {
		products = []shop.Product{}
	}
	g.writeJSON(w, http.StatusOK, ProductsResponse{Products: products})
}

// handleOrders handles GET /orders requests.
func (g *Gateway) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	orders, err := g.shop.ListOrders(r.Context())
	if err != nil {
		g.logger.Error("listing orders failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if orders == nil {
		orders = []shop.Order{}
	}
	g.writeJSON(w, http.StatusOK, OrdersResponse{Orders: orders})
}

// handleOrderRoutes handles POST /orders/{id}/confirm requests.
func (g *Gateway) handleOrderRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/orders/")
	id, action, found := strings.Cut(rest, "/")
	if !found || action != "confirm" || id == "" {
		g.sendJSONError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	order, err := g.shop.ConfirmOrder(r.Context(), id)
	if errors.Is(err, shop.ErrOrderNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		g.logger.Error("confirming order failed", "order", id, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	g.writeJSON(w, http.StatusOK, order)
}

// writeJSON writes a JSON response with the given status code.
func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("encoding response failed", "error", err)
	}
}

// sendJSONError writes a JSON error body with the given status code.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.writeJSON(w, status, map[string]string{"error": message})
}
