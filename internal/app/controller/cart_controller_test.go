package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ikkim/shopfront-backend/internal/app/service"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCartController(t *testing.T) (*fixture, *CartController) {
	f := newFixture(t)
	return f, NewCartController(service.NewCartService(f.db, f.carts, f.products))
}

func TestCartController_AddAndGet(t *testing.T) {
	f, ctrl := setupCartController(t)
	user := f.customer(t, "cart@example.com")
	product := f.product(t, 100, 80)

	f.router.GET("/cart", asUser(user.ID), ctrl.GetCart)
	f.router.POST("/cart", asUser(user.ID), ctrl.AddToCart)

	w := performRequest(f.router, http.MethodPost, "/cart", map[string]interface{}{
		"productId": product.ID, "size": "M", "quantity": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cart := decodeBody(t, w)["cart"].(map[string]interface{})
	assert.Equal(t, float64(160), cart["totalPrice"])
	assert.Equal(t, float64(2), cart["totalItems"])
	assert.Equal(t, float64(40), cart["totalDiscount"])

	w = performRequest(f.router, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cart = decodeBody(t, w)["cart"].(map[string]interface{})
	assert.Len(t, cart["items"], 1)
}

func TestCartController_AddErrors(t *testing.T) {
	f, ctrl := setupCartController(t)
	user := f.customer(t, "errors@example.com")
	product := f.product(t, 100, 80)
	f.router.POST("/cart", asUser(user.ID), ctrl.AddToCart)

	w := performRequest(f.router, http.MethodPost, "/cart", map[string]interface{}{
		"productId": product.ID, "size": "M", "quantity": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"duplicate line", map[string]interface{}{"productId": product.ID, "size": "M", "quantity": 3}, http.StatusConflict, apperrors.CartItemDuplicate},
		{"negative quantity", map[string]interface{}{"productId": product.ID, "size": "L", "quantity": -1}, http.StatusBadRequest, apperrors.ValidationInvalidRange},
		{"missing size", map[string]interface{}{"productId": product.ID, "quantity": 1}, http.StatusBadRequest, apperrors.ValidationRequired},
		{"unknown product", map[string]interface{}{"productId": 999, "size": "M", "quantity": 1}, http.StatusNotFound, apperrors.ProductNotFound},
		{"missing product id", map[string]interface{}{"size": "M"}, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(f.router, http.MethodPost, "/cart", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeBody(t, w)["error"])
		})
	}

	cart, err := f.carts.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestCartController_UpdateAndRemove(t *testing.T) {
	f, ctrl := setupCartController(t)
	user := f.customer(t, "update@example.com")
	other := f.customer(t, "other@example.com")
	product := f.product(t, 100, 80)

	cart, err := service.NewCartService(f.db, f.carts, f.products).AddItem(user.ID, product.ID, "M", 1)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	f.router.PUT("/cart", asUser(user.ID), ctrl.UpdateCartItem)
	f.router.DELETE("/cart/:cartItemId", asUser(user.ID), ctrl.RemoveFromCart)
	f.router.DELETE("/other/cart/:cartItemId", asUser(other.ID), ctrl.RemoveFromCart)

	w := performRequest(f.router, http.MethodPut, "/cart", map[string]interface{}{"cartItemId": itemID, "quantity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(240), decodeBody(t, w)["cart"].(map[string]interface{})["totalPrice"])

	w = performRequest(f.router, http.MethodPut, "/cart", map[string]interface{}{"cartItemId": itemID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(f.router, http.MethodDelete, fmt.Sprintf("/other/cart/%d", itemID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.CartItemNotFound, decodeBody(t, w)["error"])

	w = performRequest(f.router, http.MethodDelete, "/cart/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ValidationInvalidID, decodeBody(t, w)["error"])

	w = performRequest(f.router, http.MethodDelete, fmt.Sprintf("/cart/%d", itemID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	emptied := decodeBody(t, w)["cart"].(map[string]interface{})
	assert.Equal(t, float64(0), emptied["totalItems"])
	assert.Equal(t, float64(0), emptied["totalPrice"])
}

func TestCartController_RequiresUser(t *testing.T) {
	f, ctrl := setupCartController(t)
	f.router.GET("/cart", ctrl.GetCart)

	w := performRequest(f.router, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
