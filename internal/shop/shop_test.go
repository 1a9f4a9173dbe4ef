// ABOUTME: Tests for the shop store: catalog seeding and order lifecycle.

package shop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProducts_Seeded(t *testing.T) {
	s := newTestStore(t)

	products, err := s.Products(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, products)

	names := make(map[string]bool)
	for _, p := range products {
		names[p.Name] = true
		assert.Greater(t, p.PriceCents, 0)
	}
	assert.True(t, names["Coca Cola"])
	assert.True(t, names["Oatmeal Cookie"])
}

func TestOrders_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	o, err := s.CreateOrder(ctx, "demo", "Coca Cola", 2)
	require.NoError(t, err)
	assert.Equal(t, OrderCreated, o.Status)
	assert.Equal(t, 2, o.Quantity)

	confirmed, err := s.ConfirmOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderConfirmed, confirmed.Status)

	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, o.ID, orders[0].ID)
}

func TestOrders_QuantityDefaultsToOne(t *testing.T) {
	s := newTestStore(t)

	o, err := s.CreateOrder(context.Background(), "demo", "Fanta", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, o.Quantity)
}

func TestConfirmOrder_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ConfirmOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
