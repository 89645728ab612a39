package stripe

import "strings"

// Config represents the configuration for the Stripe client
type Config struct {
	// SecretKey authenticates API calls (sk_live_... / sk_test_...)
	SecretKey string

	// WebhookSecret verifies the Stripe-Signature header (whsec_...)
	WebhookSecret string

	// Currency is the ISO code used for every line item
	Currency string

	// SuccessURL is where the customer lands after paying
	SuccessURL string

	// CancelURL is where the customer lands after abandoning checkout
	CancelURL string
}

// NewConfig derives redirect targets from the storefront base URL.
func NewConfig(secretKey, webhookSecret, currency, frontendURL string) Config {
	base := strings.TrimRight(frontendURL, "/")
	return Config{
		SecretKey:     secretKey,
		WebhookSecret: webhookSecret,
		Currency:      strings.ToLower(currency),
		SuccessURL:    base + "/order/success",
		CancelURL:     base + "/order/fail",
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SecretKey == "" || c.WebhookSecret == "" {
		return ErrNotConfigured
	}
	if c.Currency == "" || c.SuccessURL == "" || c.CancelURL == "" {
		return ErrInvalidRequest
	}
	return nil
}
