// ABOUTME: ProductList capability handler: serves the catalog from the
// ABOUTME: shop store.

package handlers

import (
	"context"
	"log/slog"

	"github.com/shopnserve/blackboard/internal/capability"
	"github.com/shopnserve/blackboard/internal/provenance"
	"github.com/shopnserve/blackboard/internal/shop"
)

const catalogServiceName = "CatalogService"

// ProductListHandler serves the ProductList capability.
type ProductListHandler struct {
	store  *shop.Store
	prov   provenance.Store
	logger *slog.Logger
}

// NewProductListHandler creates the handler.
func NewProductListHandler(store *shop.Store, prov provenance.Store, logger *slog.Logger) *ProductListHandler {
	return &ProductListHandler{
		store:  store,
		prov:   prov,
		logger: logger.With("handler", "productlist"),
	}
}

func (h *ProductListHandler) Capability() capability.Capability {
	return capability.ProductList
}

func (h *ProductListHandler) BackendComponent() string { return catalogServiceName }

// Handle returns the full catalog as {productList}. A store failure is a
// handler fault, not a business failure.
func (h *ProductListHandler) Handle(ctx context.Context, req *capability.Request) (*capability.Response, error) {
	recordProvides(ctx, h.prov, h.logger, catalogServiceName, capability.ProductList, req)

	products, err := h.store.Products(ctx)
	if err != nil {
		return nil, err
	}
	return capability.OKData(map[string]any{"productList": products}), nil
}
