package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint   `json:"productId" binding:"required"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartRequest struct {
	CartItemID uint `json:"cartItemId" binding:"required"`
	Quantity   int  `json:"quantity"`
}

// GetCart returns user's cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.GetCart(userID)
	if err != nil {
		respondCartError(c, err, userID, "fetch cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// AddToCart adds item to cart
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "productId is required")
		return
	}

	cart, err := ctrl.cartService.AddItem(userID, req.ProductID, req.Size, req.Quantity)
	if err != nil {
		respondCartError(c, err, userID, "add item to cart")
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": req.ProductID,
		"size":       req.Size,
	})

	c.JSON(http.StatusCreated, gin.H{"cart": cart})
}

// UpdateCartItem changes the quantity of one line
// PUT /api/v1/cart
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "cartItemId is required")
		return
	}

	cart, err := ctrl.cartService.UpdateItemQuantity(userID, req.CartItemID, req.Quantity)
	if err != nil {
		respondCartError(c, err, userID, "update cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// RemoveFromCart removes one line
// DELETE /api/v1/cart/:cartItemId
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "cartItemId")
	if !ok {
		return
	}

	cart, err := ctrl.cartService.RemoveItem(userID, itemID)
	if err != nil {
		respondCartError(c, err, userID, "remove cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

func respondCartError(c *gin.Context, err error, userID uint, action string) {
	switch {
	case errors.Is(err, service.ErrCartNotFound):
		apperrors.NotFound(c, apperrors.CartNotFound, "cart not found")
	case errors.Is(err, service.ErrCartItemNotFound):
		apperrors.NotFound(c, apperrors.CartItemNotFound, "cart item not found")
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "product not found")
	case errors.Is(err, service.ErrCartItemExists):
		apperrors.Conflict(c, apperrors.CartItemDuplicate, "item already in cart")
	case errors.Is(err, service.ErrCartModified):
		apperrors.Conflict(c, apperrors.CartModified, "cart was modified, please retry")
	case errors.Is(err, service.ErrInvalidQuantity):
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "quantity must be at least 1")
	case errors.Is(err, service.ErrSizeRequired):
		apperrors.BadRequest(c, apperrors.ValidationRequired, "size is required")
	default:
		middleware.GetLoggerFromContext(c).Error("Cart operation failed", err, map[string]interface{}{
			"user_id": userID,
			"action":  action,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
	}
}
