package repository

import (
	"testing"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestReviewRepository_RatingSummary(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewReviewRepository(testDB)
	category := createCategory(t, testDB)
	product := createProduct(t, testDB, category.ID, 100, 100)
	alice := createUser(t, testDB, "alice@example.com")
	bob := createUser(t, testDB, "bob@example.com")

	empty, err := repo.RatingSummary(product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Count)
	assert.Equal(t, 0.0, empty.Average)

	require.NoError(t, repo.Create(&model.Review{UserID: alice.ID, ProductID: product.ID, Rating: 5, Comment: "great"}))
	second := &model.Review{UserID: bob.ID, ProductID: product.ID, Rating: 2, Comment: "meh"}
	require.NoError(t, repo.Create(second))

	summary, err := repo.RatingSummary(product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Count)
	assert.InDelta(t, 3.5, summary.Average, 0.0001)

	second.Rating = 4
	second.Comment = "better on second wear"
	require.NoError(t, repo.Update(second))
	found, err := repo.FindByID(second.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, found.Rating)
	assert.Equal(t, "better on second wear", found.Comment)

	require.NoError(t, repo.Delete(second.ID))
	_, err = repo.FindByID(second.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	reviews, err := repo.FindByProductID(product.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}
