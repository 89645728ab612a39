package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressController(t *testing.T) {
	f := newFixture(t)
	ctrl := NewAddressController(service.NewAddressService(repository.NewAddressRepository(f.db)))
	owner := f.customer(t, "home@example.com")
	other := f.customer(t, "away@example.com")

	f.router.GET("/user/addresses", asUser(owner.ID), ctrl.ListAddresses)
	f.router.POST("/user/address", asUser(owner.ID), ctrl.CreateAddress)
	f.router.DELETE("/user/address/:addressId", asUser(owner.ID), ctrl.DeleteAddress)
	f.router.DELETE("/other/address/:addressId", asUser(other.ID), ctrl.DeleteAddress)

	w := performRequest(f.router, http.MethodPost, "/user/address", testShipping())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	address := decodeBody(t, w)["address"].(map[string]interface{})
	assert.Equal(t, "560001", address["zipcode"])
	id := uint(address["id"].(float64))

	incomplete := testShipping()
	incomplete.Mobile = ""
	w = performRequest(f.router, http.MethodPost, "/user/address", incomplete)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(f.router, http.MethodGet, "/user/addresses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	w = performRequest(f.router, http.MethodDelete, fmt.Sprintf("/other/address/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.AddressNotFound, decodeBody(t, w)["error"])

	w = performRequest(f.router, http.MethodDelete, fmt.Sprintf("/user/address/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(f.router, http.MethodGet, "/user/addresses", nil)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])
}
