package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/ikkim/shopfront-backend/pkg/payment/stripe"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotConfigured   = errors.New("payment provider is not configured")
	ErrWebhookSignature       = errors.New("webhook signature verification failed")
	ErrInvalidWebhookPayload  = errors.New("invalid webhook payload")
	ErrInvalidWebhookMetadata = errors.New("invalid checkout session metadata")
	ErrPaymentProvider        = errors.New("payment provider error")
)

const (
	metadataUserID          = "user_id"
	metadataShippingAddress = "shipping_address"

	cardPaymentMethod = "card"
	webhookEventTTL   = 72 * time.Hour
)

var minorUnits = decimal.NewFromInt(100)

// PaymentGateway is the hosted checkout provider.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req stripe.CheckoutRequest) (*stripe.CheckoutSession, error)
	ParseWebhook(payload []byte, signatureHeader string) (*stripe.WebhookEvent, error)
}

// EventLedger remembers which provider events were already handled.
type EventLedger interface {
	MarkEventProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	ForgetEvent(ctx context.Context, eventID string) error
}

// WebhookResult describes what a delivery did. Exactly one of Order,
// Duplicate or Ignored is set.
type WebhookResult struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Order     *model.Order `json:"order,omitempty"`
	Duplicate bool         `json:"duplicate,omitempty"`
	Ignored   bool         `json:"ignored,omitempty"`
}

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, userID uint, shipping model.PostalAddress) (*stripe.CheckoutSession, error)
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error)
}

type paymentService struct {
	gateway  PaymentGateway
	ledger   EventLedger
	orders   OrderService
	cartRepo repository.CartRepository
	userRepo repository.UserRepository
}

// NewPaymentService wires checkout and webhook handling. gateway is nil when
// Stripe keys are absent; ledger is nil when Redis is disabled, in which case
// deliveries are deduplicated only by payment intent id.
func NewPaymentService(
	gateway PaymentGateway,
	ledger EventLedger,
	orders OrderService,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
) PaymentService {
	return &paymentService{
		gateway:  gateway,
		ledger:   ledger,
		orders:   orders,
		cartRepo: cartRepo,
		userRepo: userRepo,
	}
}

func (s *paymentService) CreateCheckoutSession(ctx context.Context, userID uint, shipping model.PostalAddress) (*stripe.CheckoutSession, error) {
	if s.gateway == nil {
		return nil, ErrPaymentNotConfigured
	}
	if field := shipping.Missing(); field != "" {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidShippingAddress, field)
	}

	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	items := make([]stripe.LineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		if item.Product == nil {
			return nil, ErrProductNotFound
		}
		line := stripe.LineItem{
			Name:       item.Product.Title,
			UnitAmount: item.Product.DiscountedPrice.Mul(minorUnits).Round(0).IntPart(),
			Quantity:   int64(item.Quantity),
		}
		if len(item.Product.Images) > 0 {
			line.ImageURL = item.Product.Images[0].URL
		}
		items = append(items, line)
	}

	address, err := json.Marshal(shipping)
	if err != nil {
		return nil, err
	}

	req := stripe.CheckoutRequest{
		Items:             items,
		ClientReferenceID: strconv.FormatUint(uint64(userID), 10),
		Metadata: map[string]string{
			metadataUserID:          strconv.FormatUint(uint64(userID), 10),
			metadataShippingAddress: string(address),
		},
	}
	if user, err := s.userRepo.FindByID(userID); err == nil {
		req.CustomerEmail = user.Email
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		logger.Error("Failed to create checkout session", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	logger.Info("Checkout session created", map[string]interface{}{
		"user_id":    userID,
		"session_id": session.ID,
		"items":      len(items),
	})
	return session, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error) {
	if s.gateway == nil {
		return nil, ErrPaymentNotConfigured
	}

	event, err := s.gateway.ParseWebhook(payload, signatureHeader)
	if err != nil {
		logger.Warn("Rejected webhook delivery", map[string]interface{}{
			"error": err.Error(),
		})
		if errors.Is(err, stripe.ErrInvalidSignature) {
			return nil, ErrWebhookSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}

	result := &WebhookResult{EventID: event.ID, EventType: event.Type}
	if event.Type != stripe.EventCheckoutSessionCompleted || event.Session == nil {
		logger.Debug("Ignoring webhook event", map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
		})
		result.Ignored = true
		return result, nil
	}

	if s.ledger != nil {
		first, err := s.ledger.MarkEventProcessed(ctx, event.ID, webhookEventTTL)
		if err != nil {
			logger.Warn("Webhook ledger unavailable, relying on transaction id", map[string]interface{}{
				"event_id": event.ID,
				"error":    err.Error(),
			})
		} else if !first {
			logger.Info("Duplicate webhook delivery skipped", map[string]interface{}{
				"event_id": event.ID,
			})
			result.Duplicate = true
			return result, nil
		}
	}

	order, err := s.fulfil(event.Session)
	switch {
	case err == nil:
		result.Order = order
		return result, nil
	case errors.Is(err, ErrDuplicateTransaction):
		result.Duplicate = true
		return result, nil
	case errors.Is(err, ErrInvalidWebhookMetadata),
		errors.Is(err, ErrInvalidShippingAddress),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrCartNotFound),
		errors.Is(err, ErrProductNotFound):
		// Retrying cannot succeed; acknowledge so the provider stops.
		logger.Warn("Completed checkout could not be fulfilled", map[string]interface{}{
			"event_id":   event.ID,
			"session_id": event.Session.ID,
			"reason":     err.Error(),
		})
		result.Ignored = true
		return result, nil
	}

	if s.ledger != nil {
		if ferr := s.ledger.ForgetEvent(ctx, event.ID); ferr != nil {
			logger.Error("Failed to release webhook event for retry", ferr, map[string]interface{}{
				"event_id": event.ID,
			})
		}
	}
	return nil, err
}

func (s *paymentService) fulfil(session *stripe.CompletedSession) (*model.Order, error) {
	userID, err := strconv.ParseUint(session.Metadata[metadataUserID], 10, 64)
	if err != nil || userID == 0 {
		return nil, fmt.Errorf("%w: user_id", ErrInvalidWebhookMetadata)
	}

	var shipping model.PostalAddress
	if err := json.Unmarshal([]byte(session.Metadata[metadataShippingAddress]), &shipping); err != nil {
		return nil, fmt.Errorf("%w: shipping_address", ErrInvalidWebhookMetadata)
	}

	transactionID := session.PaymentIntentID
	if transactionID == "" {
		transactionID = session.ID
	}
	paidAt := session.Created

	logger.Info("Fulfilling paid checkout session", map[string]interface{}{
		"user_id":        userID,
		"session_id":     session.ID,
		"transaction_id": transactionID,
		"amount_total":   session.AmountTotal,
	})
	if cart, err := s.cartRepo.FindByUserID(uint(userID)); err == nil {
		if expected := cart.TotalPrice.Mul(minorUnits).Round(0).IntPart(); expected != session.AmountTotal {
			logger.Warn("Paid amount differs from cart total", map[string]interface{}{
				"user_id":      userID,
				"session_id":   session.ID,
				"amount_total": session.AmountTotal,
				"cart_total":   expected,
			})
		}
	}

	return s.orders.CreateOrderFromCart(uint(userID), shipping, model.PaymentDetails{
		PaymentMethod: cardPaymentMethod,
		TransactionID: transactionID,
		PaymentStatus: model.PaymentStatusPaid,
		PaidAt:        &paidAt,
	})
}
