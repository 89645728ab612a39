package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Client creates checkout sessions and verifies webhook deliveries.
type Client struct {
	config   Config
	sessions *session.Client
}

func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		sessions: &session.Client{
			B:   stripeapi.GetBackend(stripeapi.APIBackend),
			Key: config.SecretKey,
		},
	}, nil
}

func (c *Client) GetConfig() Config {
	return c.config
}

// CreateCheckoutSession opens a hosted payment page for the given items.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if len(req.Items) == 0 {
		return nil, ErrInvalidRequest
	}

	params := &stripeapi.CheckoutSessionParams{
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		SuccessURL:         stripeapi.String(c.config.SuccessURL),
		CancelURL:          stripeapi.String(c.config.CancelURL),
	}
	params.Context = ctx

	for _, item := range req.Items {
		product := &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripeapi.String(item.Name),
		}
		if item.ImageURL != "" {
			product.Images = stripeapi.StringSlice([]string{item.ImageURL})
		}
		params.LineItems = append(params.LineItems, &stripeapi.CheckoutSessionLineItemParams{
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripeapi.String(c.config.Currency),
				ProductData: product,
				UnitAmount:  stripeapi.Int64(item.UnitAmount),
			},
			Quantity: stripeapi.Int64(item.Quantity),
		})
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripeapi.String(req.CustomerEmail)
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripeapi.String(req.ClientReferenceID)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := c.sessions.New(params)
	if err != nil {
		var apiErr *stripeapi.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %s", ErrProvider, apiErr.Msg)
		}
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header against the raw payload
// and only then decodes the event.
func (c *Client) ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	return parseWebhook(payload, signatureHeader, c.config.WebhookSecret)
}

func parseWebhook(payload []byte, signatureHeader, secret string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != EventCheckoutSessionCompleted {
		return out, nil
	}
	if event.Data == nil {
		return nil, ErrInvalidPayload
	}

	var cs stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	completed := &CompletedSession{
		ID:          cs.ID,
		AmountTotal: cs.AmountTotal,
		Metadata:    cs.Metadata,
		Created:     time.Unix(cs.Created, 0).UTC(),
	}
	if cs.PaymentIntent != nil {
		completed.PaymentIntentID = cs.PaymentIntent.ID
	}
	out.Session = completed
	return out, nil
}
