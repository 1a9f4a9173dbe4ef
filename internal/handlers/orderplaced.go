// ABOUTME: OrderPlaced capability handler: validates the buyer against the
// ABOUTME: identity store and records the order.

package handlers

import (
	"context"
	"log/slog"

	"github.com/shopnserve/blackboard/internal/auth"
	"github.com/shopnserve/blackboard/internal/capability"
	"github.com/shopnserve/blackboard/internal/provenance"
	"github.com/shopnserve/blackboard/internal/shop"
)

const orderServiceName = "OrderService"

// OrderPlacedHandler serves the OrderPlaced capability.
type OrderPlacedHandler struct {
	identity *auth.IdentityStore
	store    *shop.Store
	prov     provenance.Store
	logger   *slog.Logger
}

// NewOrderPlacedHandler creates the handler.
func NewOrderPlacedHandler(identity *auth.IdentityStore, store *shop.Store, prov provenance.Store, logger *slog.Logger) *OrderPlacedHandler {
	return &OrderPlacedHandler{
		identity: identity,
		store:    store,
		prov:     prov,
		logger:   logger.With("handler", "orderplaced"),
	}
}

func (h *OrderPlacedHandler) Capability() capability.Capability {
	return capability.OrderPlaced
}

func (h *OrderPlacedHandler) BackendComponent() string { return orderServiceName }

// Handle places an order for an existing user and returns
// {orderId, status}.
func (h *OrderPlacedHandler) Handle(ctx context.Context, req *capability.Request) (*capability.Response, error) {
	payload := req.PayloadMap()
	username := stringField(payload, "username")
	productName := stringField(payload, "productName")
	if productName == "" {
		productName = stringField(payload, "product")
	}

	if username == "" {
		return capability.Fail("username is required", nil), nil
	}
	if !h.identity.Exists(username) {
		return capability.Fail("User not found", nil), nil
	}
	if productName == "" {
		return capability.Fail("product name is required", nil), nil
	}

	recordProvides(ctx, h.prov, h.logger, orderServiceName, capability.OrderPlaced, req)
	// The buyer check above is a real dependency between the services.
	if err := h.prov.RecordEdge(ctx, provenance.KindBackendComponent, orderServiceName,
		provenance.KindBackendComponent, authServiceName, provenance.EdgeCommunicatesWith); err != nil {
		h.logger.Warn("recording service dependency failed", "error", err)
	}

	order, err := h.store.CreateOrder(ctx, username, productName, intField(payload, "quantity"))
	if err != nil {
		return nil, err
	}
	return capability.OKData(map[string]any{
		"orderId":     order.ID,
		"status":      order.Status,
		"productName": order.ProductName,
		"quantity":    order.Quantity,
	}), nil
}
