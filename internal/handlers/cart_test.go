package handlers

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartHandler_EmptyCart(t *testing.T) {
	c := newTestApp(t).client(t)

	rec := c.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp cartResponse
	decodeBody(t, rec, &resp)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.Total.IsZero())
	assert.Equal(t, 0, resp.Count)
}

func TestCartHandler_AddMergesSameID(t *testing.T) {
	c := newTestApp(t).client(t)

	rec := c.do(http.MethodPost, "/api/cart/items", pistaItem(2))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = c.do(http.MethodPost, "/api/cart/items", pistaItem(1))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp cartResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Quantity)
	assert.Equal(t, "pista", resp.Items[0].TicketTypeID)
	assert.Equal(t, "Inteira", resp.Items[0].Category)
	assert.True(t, decimal.NewFromInt(450).Equal(resp.Total))
	assert.Equal(t, 3, resp.Count)

	// the cart survives across requests of the same session
	rec = c.do(http.MethodGet, "/api/cart", nil)
	decodeBody(t, rec, &resp)
	assert.Len(t, resp.Items, 1)
}

func TestCartHandler_AddInvalidItem(t *testing.T) {
	c := newTestApp(t).client(t)

	rec := c.do(http.MethodPost, "/api/cart/items", pistaItem(0))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "quantity must be at least 1")

	rec = c.do(http.MethodPost, "/api/cart/items", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartHandler_UpdateQuantity(t *testing.T) {
	c := newTestApp(t).client(t)
	c.do(http.MethodPost, "/api/cart/items", pistaItem(2))

	t.Run("below one is ignored", func(t *testing.T) {
		rec := c.do(http.MethodPatch, "/api/cart/items/1", updateQuantityRequest{Quantity: 0})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp cartResponse
		decodeBody(t, rec, &resp)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 2, resp.Items[0].Quantity)
	})

	t.Run("sets quantity", func(t *testing.T) {
		rec := c.do(http.MethodPatch, "/api/cart/items/1", updateQuantityRequest{Quantity: 5})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp cartResponse
		decodeBody(t, rec, &resp)
		assert.True(t, decimal.NewFromInt(750).Equal(resp.Total))
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := c.do(http.MethodPatch, "/api/cart/items/abc", updateQuantityRequest{Quantity: 5})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCartHandler_RemoveAndClear(t *testing.T) {
	c := newTestApp(t).client(t)

	second := pistaItem(1)
	second.ID = 2
	second.Title = "Festival - VIP Meia"
	second.Price = decimal.NewFromInt(100)

	c.do(http.MethodPost, "/api/cart/items", pistaItem(2))
	c.do(http.MethodPost, "/api/cart/items", second)

	rec := c.do(http.MethodDelete, "/api/cart/items/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp cartResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].ID)
	assert.True(t, decimal.NewFromInt(100).Equal(resp.Total))

	// unknown ids leave the cart as is
	rec = c.do(http.MethodDelete, "/api/cart/items/99", nil)
	decodeBody(t, rec, &resp)
	assert.Len(t, resp.Items, 1)

	rec = c.do(http.MethodDelete, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Empty(t, resp.Items)
}

func TestCartHandler_SessionsAreIsolated(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	bob := app.client(t)

	alice.do(http.MethodPost, "/api/cart/items", pistaItem(2))

	var resp cartResponse
	decodeBody(t, bob.do(http.MethodGet, "/api/cart", nil), &resp)
	assert.Empty(t, resp.Items)

	decodeBody(t, alice.do(http.MethodGet, "/api/cart", nil), &resp)
	assert.Len(t, resp.Items, 1)
}
