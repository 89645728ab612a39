package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/middleware"
)

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{
		reviewService: reviewService,
	}
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateReview adds the caller's review and returns the product.
// POST /api/v1/product/review/:id
func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid review data")
		return
	}

	product, err := ctrl.reviewService.CreateReview(userID, productID, req.Rating, req.Comment)
	if err != nil {
		ctrl.respondError(c, err, "create review")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateReview PUT /api/v1/product/review/:reviewId
func (ctrl *ReviewController) UpdateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	reviewID, ok := idParam(c, "reviewId")
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid review data")
		return
	}

	product, err := ctrl.reviewService.UpdateReview(userID, reviewID, req.Rating, req.Comment)
	if err != nil {
		ctrl.respondError(c, err, "update review")
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteReview DELETE /api/v1/product/review/:reviewId
func (ctrl *ReviewController) DeleteReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	reviewID, ok := idParam(c, "reviewId")
	if !ok {
		return
	}

	product, err := ctrl.reviewService.DeleteReview(userID, reviewID)
	if err != nil {
		ctrl.respondError(c, err, "delete review")
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (ctrl *ReviewController) respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrInvalidRating):
		apperrors.BadRequest(c, apperrors.ReviewInvalidRating, "rating must be between 1 and 5")
	case errors.Is(err, service.ErrEmptyComment):
		apperrors.BadRequest(c, apperrors.ValidationRequired, "comment is required")
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "product not found")
	case errors.Is(err, service.ErrReviewNotFound):
		apperrors.NotFound(c, apperrors.ReviewNotFound, "review not found")
	case errors.Is(err, service.ErrNotReviewAuthor):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.ReviewNotAuthor, "only the author can modify this review")
	default:
		middleware.GetLoggerFromContext(c).Error("Review mutation failed", err, map[string]interface{}{
			"action": action,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
	}
}
