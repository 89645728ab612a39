package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrNotReviewAuthor = errors.New("only the author can modify this review")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrEmptyComment    = errors.New("comment is required")
)

type ReviewService interface {
	CreateReview(userID, productID uint, rating int, comment string) (*model.Product, error)
	UpdateReview(userID, reviewID uint, rating int, comment string) (*model.Product, error)
	DeleteReview(userID, reviewID uint) (*model.Product, error)
}

type reviewService struct {
	db          *gorm.DB
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
}

func NewReviewService(db *gorm.DB, reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository) ReviewService {
	return &reviewService{
		db:          db,
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
	}
}

func validateReview(rating int, comment string) error {
	if !model.ValidRating(rating) {
		return ErrInvalidRating
	}
	if strings.TrimSpace(comment) == "" {
		return ErrEmptyComment
	}
	return nil
}

func (s *reviewService) CreateReview(userID, productID uint, rating int, comment string) (*model.Product, error) {
	if err := validateReview(rating, comment); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		if _, err := products.FindByID(productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		reviews := s.reviewRepo.WithTx(tx)
		review := &model.Review{
			UserID:    userID,
			ProductID: productID,
			Rating:    rating,
			Comment:   strings.TrimSpace(comment),
		}
		if err := reviews.Create(review); err != nil {
			return err
		}
		_, err := RecalculateRatings(reviews, products, productID)
		return err
	})
	if err != nil {
		return nil, s.wrap("create", err)
	}

	logger.Info("Review created", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"rating":     rating,
	})
	return s.productView(productID)
}

func (s *reviewService) UpdateReview(userID, reviewID uint, rating int, comment string) (*model.Product, error) {
	if err := validateReview(rating, comment); err != nil {
		return nil, err
	}

	var productID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		reviews := s.reviewRepo.WithTx(tx)
		review, err := authoredReview(reviews, userID, reviewID)
		if err != nil {
			return err
		}
		productID = review.ProductID

		review.Rating = rating
		review.Comment = strings.TrimSpace(comment)
		if err := reviews.Update(review); err != nil {
			return err
		}
		_, err = RecalculateRatings(reviews, s.productRepo.WithTx(tx), productID)
		return err
	})
	if err != nil {
		return nil, s.wrap("update", err)
	}

	logger.Info("Review updated", map[string]interface{}{
		"user_id":   userID,
		"review_id": reviewID,
	})
	return s.productView(productID)
}

func (s *reviewService) DeleteReview(userID, reviewID uint) (*model.Product, error) {
	var productID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		reviews := s.reviewRepo.WithTx(tx)
		review, err := authoredReview(reviews, userID, reviewID)
		if err != nil {
			return err
		}
		productID = review.ProductID

		if err := reviews.Delete(review.ID); err != nil {
			return err
		}
		_, err = RecalculateRatings(reviews, s.productRepo.WithTx(tx), productID)
		return err
	})
	if err != nil {
		return nil, s.wrap("delete", err)
	}

	logger.Info("Review deleted", map[string]interface{}{
		"user_id":   userID,
		"review_id": reviewID,
	})
	return s.productView(productID)
}

func authoredReview(reviews repository.ReviewRepository, userID, reviewID uint) (*model.Review, error) {
	review, err := reviews.FindByID(reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if review.UserID != userID {
		logger.Warn("Review modification by non-author rejected", map[string]interface{}{
			"review_id": reviewID,
			"author_id": review.UserID,
			"user_id":   userID,
		})
		return nil, ErrNotReviewAuthor
	}
	return review, nil
}

func (s *reviewService) productView(productID uint) (*model.Product, error) {
	product, err := s.productRepo.FindWithReviews(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}
	return product, nil
}

func (s *reviewService) wrap(op string, err error) error {
	switch {
	case errors.Is(err, ErrReviewNotFound),
		errors.Is(err, ErrNotReviewAuthor),
		errors.Is(err, ErrProductNotFound):
		return err
	}
	return fmt.Errorf("failed to %s review: %w", op, err)
}

// RecalculateRatings stores the mean rating of the product's reviews, or 0
// when it has none.
func RecalculateRatings(reviews repository.ReviewRepository, products repository.ProductRepository, productID uint) (float64, error) {
	summary, err := reviews.RatingSummary(productID)
	if err != nil {
		return 0, err
	}

	ratings := 0.0
	if summary.Count > 0 {
		ratings = summary.Average
	}
	if err := products.UpdateRatings(productID, ratings); err != nil {
		return 0, err
	}
	return ratings, nil
}
