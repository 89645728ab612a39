package repository

import (
	"fmt"
	"testing"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createUser(t *testing.T, tx *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "hash",
		Role:         model.RoleCustomer,
	}
	require.NoError(t, tx.Create(user).Error)
	return user
}

func createCategory(t *testing.T, tx *gorm.DB) *model.Category {
	t.Helper()
	top := &model.Category{Name: "Clothing"}
	require.NoError(t, tx.Create(top).Error)
	leaf := &model.Category{Name: "Shirts", ParentID: &top.ID}
	require.NoError(t, tx.Create(leaf).Error)
	return leaf
}

func createProduct(t *testing.T, tx *gorm.DB, categoryID uint, price, discounted float64, mutate ...func(*model.Product)) *model.Product {
	t.Helper()
	product := &model.Product{
		Title:           fmt.Sprintf("Product %.0f", price),
		Description:     "test product",
		Price:           model.NewMoney(price),
		DiscountedPrice: model.NewMoney(discounted),
		Brand:           "Acme",
		Color:           "Blue",
		Gender:          model.GenderMen,
		CategoryID:      categoryID,
		Sizes:           []model.ProductSize{{Name: "M", Quantity: 10}},
	}
	for _, m := range mutate {
		m(product)
	}
	require.NoError(t, tx.Create(product).Error)
	return product
}
