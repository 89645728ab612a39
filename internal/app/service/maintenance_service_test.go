package service

import (
	"testing"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaintenanceService_ReconcileRatings(t *testing.T) {
	env := newTestEnv(t)
	maintenance := NewMaintenanceService(env.db, env.products, env.reviews, env.carts)
	user := env.customer(t, "rater@example.com")
	category := env.category(t, "Clothing", "Shirts")
	reviewed := env.product(t, category.ID, 100, 80)
	drifted := env.product(t, category.ID, 100, 80, func(p *model.Product) { p.Ratings = 4.9 })

	require.NoError(t, env.db.Create(&model.Review{UserID: user.ID, ProductID: reviewed.ID, Rating: 3, Comment: "ok"}).Error)

	processed, err := maintenance.ReconcileRatings()
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	got, err := env.products.FindByID(reviewed.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.Ratings)

	got, err = env.products.FindByID(drifted.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Ratings)
}

func TestMaintenanceService_CleanupCarts(t *testing.T) {
	env := newTestEnv(t)
	maintenance := NewMaintenanceService(env.db, env.products, env.reviews, env.carts)
	user := env.customer(t, "cleanup@example.com")
	category := env.category(t, "Clothing", "Shirts")
	kept := env.product(t, category.ID, 100, 80)
	gone := env.product(t, category.ID, 50, 40)

	carts := env.cartService()
	_, err := carts.AddItem(user.ID, kept.ID, "M", 1)
	require.NoError(t, err)
	_, err = carts.AddItem(user.ID, gone.ID, "M", 2)
	require.NoError(t, err)
	require.NoError(t, env.db.Delete(&model.Product{}, gone.ID).Error)

	removed, err := maintenance.CleanupCarts()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	cart, err := env.carts.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assertCartTotals(t, cart, 80, 1, 20)
}
