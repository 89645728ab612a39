package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/middleware"
)

const stripeSignatureHeader = "Stripe-Signature"

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

type CheckoutSessionRequest struct {
	ShippingAddress model.PostalAddress `json:"shippingAddress"`
}

// CreateCheckoutSession starts a hosted checkout for the caller's cart
// POST /api/v1/payment/create-payment-intent
func (ctrl *PaymentController) CreateCheckoutSession(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout session request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "a complete shipping address is required")
		return
	}

	session, err := ctrl.paymentService.CreateCheckoutSession(c.Request.Context(), userID, req.ShippingAddress)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			apperrors.BadRequest(c, apperrors.CartEmpty, "cart is empty")
		case errors.Is(err, service.ErrInvalidShippingAddress):
			apperrors.BadRequest(c, apperrors.ValidationRequired, err.Error())
		case errors.Is(err, service.ErrCartNotFound):
			apperrors.NotFound(c, apperrors.CartNotFound, "cart not found")
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "a product in the cart no longer exists")
		case errors.Is(err, service.ErrPaymentNotConfigured):
			apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.PaymentNotConfigured, "payments are not configured")
		case errors.Is(err, service.ErrPaymentProvider):
			apperrors.BadGateway(c, apperrors.PaymentProviderError, "payment provider error")
		default:
			log.Error("Failed to create checkout session", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.InternalError(c, "failed to create checkout session")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":  session.ID,
		"url": session.URL,
	})
}

// Webhook receives signed provider events. The raw body is required for the
// signature check, so it is never bound.
// POST /api/v1/payment/webhook
func (ctrl *PaymentController) Webhook(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	payload, err := c.GetRawData()
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "could not read request body")
		return
	}

	result, err := ctrl.paymentService.HandleWebhook(c.Request.Context(), payload, c.GetHeader(stripeSignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookSignature):
			apperrors.BadRequest(c, apperrors.PaymentSignatureInvalid, "webhook signature verification failed")
		case errors.Is(err, service.ErrInvalidWebhookPayload):
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "invalid webhook payload")
		case errors.Is(err, service.ErrPaymentNotConfigured):
			apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.PaymentNotConfigured, "payments are not configured")
		default:
			log.Error("Webhook processing failed", err)
			apperrors.InternalError(c, "webhook processing failed")
		}
		return
	}

	fields := map[string]interface{}{
		"event_id":   result.EventID,
		"event_type": result.EventType,
		"duplicate":  result.Duplicate,
		"ignored":    result.Ignored,
	}
	if result.Order != nil {
		fields["order_id"] = result.Order.ID
	}
	log.Info("Webhook processed", fields)

	c.JSON(http.StatusOK, gin.H{"received": true})
}
