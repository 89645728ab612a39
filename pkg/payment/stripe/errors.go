package stripe

import "errors"

var (
	// ErrNotConfigured is returned when API or webhook keys are missing
	ErrNotConfigured = errors.New("stripe is not configured")

	// ErrInvalidRequest is returned when the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidSignature is returned when a webhook payload fails verification
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrInvalidPayload is returned when a verified event cannot be decoded
	ErrInvalidPayload = errors.New("invalid webhook payload")

	// ErrProvider wraps failures reported by the Stripe API
	ErrProvider = errors.New("stripe api error")
)
