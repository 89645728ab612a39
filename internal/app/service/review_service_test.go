package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewService_RatingsFollowReviews(t *testing.T) {
	env := newTestEnv(t)
	reviews := NewReviewService(env.db, env.reviews, env.products)
	alice := env.customer(t, "alice@example.com")
	bob := env.customer(t, "bob@example.com")
	category := env.category(t, "Clothing", "Shirts")
	shirt := env.product(t, category.ID, 100, 80)

	product, err := reviews.CreateReview(alice.ID, shirt.ID, 5, "fits well")
	require.NoError(t, err)
	assert.Equal(t, 5.0, product.Ratings)
	require.Len(t, product.Reviews, 1)

	product, err = reviews.CreateReview(bob.ID, shirt.ID, 4, "decent")
	require.NoError(t, err)
	assert.Equal(t, 4.5, product.Ratings)

	bobReview := product.Reviews[0]
	require.Equal(t, bob.ID, bobReview.UserID)

	product, err = reviews.UpdateReview(bob.ID, bobReview.ID, 2, "shrank after washing")
	require.NoError(t, err)
	assert.Equal(t, 3.5, product.Ratings)

	product, err = reviews.DeleteReview(bob.ID, bobReview.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, product.Ratings)

	product, err = reviews.DeleteReview(alice.ID, product.Reviews[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, product.Ratings)
	assert.Empty(t, product.Reviews)
}

func TestReviewService_StoresArithmeticMean(t *testing.T) {
	env := newTestEnv(t)
	reviews := NewReviewService(env.db, env.reviews, env.products)
	category := env.category(t, "Clothing", "Shirts")
	shirt := env.product(t, category.ID, 100, 80)

	var ratings float64
	for i, rating := range []int{5, 4, 4} {
		user := env.customer(t, fmt.Sprintf("rater%d@example.com", i))
		product, err := reviews.CreateReview(user.ID, shirt.ID, rating, "ok")
		require.NoError(t, err)
		ratings = product.Ratings
	}
	assert.InDelta(t, 13.0/3.0, ratings, 1e-9)
}

func TestReviewService_Validation(t *testing.T) {
	env := newTestEnv(t)
	reviews := NewReviewService(env.db, env.reviews, env.products)
	user := env.customer(t, "v@example.com")
	category := env.category(t, "Clothing", "Shirts")
	shirt := env.product(t, category.ID, 100, 80)

	_, err := reviews.CreateReview(user.ID, shirt.ID, 0, "bad")
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = reviews.CreateReview(user.ID, shirt.ID, 6, "bad")
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = reviews.CreateReview(user.ID, shirt.ID, 3, "   ")
	assert.ErrorIs(t, err, ErrEmptyComment)
	_, err = reviews.CreateReview(user.ID, shirt.ID+1, 3, "no product")
	assert.ErrorIs(t, err, ErrProductNotFound)

	stored, err := env.reviews.FindByProductID(shirt.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)

	_, err = reviews.UpdateReview(user.ID, 999, 3, "missing")
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestReviewService_OnlyAuthorMayModify(t *testing.T) {
	env := newTestEnv(t)
	reviews := NewReviewService(env.db, env.reviews, env.products)
	author := env.customer(t, "author@example.com")
	other := env.customer(t, "other@example.com")
	category := env.category(t, "Clothing", "Shirts")
	shirt := env.product(t, category.ID, 100, 80)

	product, err := reviews.CreateReview(author.ID, shirt.ID, 4, "nice")
	require.NoError(t, err)
	reviewID := product.Reviews[0].ID

	_, err = reviews.UpdateReview(other.ID, reviewID, 1, "hijacked")
	assert.ErrorIs(t, err, ErrNotReviewAuthor)
	_, err = reviews.DeleteReview(other.ID, reviewID)
	assert.ErrorIs(t, err, ErrNotReviewAuthor)

	stored, err := env.reviews.FindByID(reviewID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Rating)
	assert.Equal(t, "nice", stored.Comment)

	unchanged, err := env.products.FindByID(shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, unchanged.Ratings)
}
