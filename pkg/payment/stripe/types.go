package stripe

import "time"

const EventCheckoutSessionCompleted = "checkout.session.completed"

// LineItem is one cart line priced in the currency's minor unit.
type LineItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64
	Quantity   int64
}

type CheckoutRequest struct {
	Items             []LineItem
	CustomerEmail     string
	ClientReferenceID string
	Metadata          map[string]string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CompletedSession is the part of a paid checkout session the order flow needs.
type CompletedSession struct {
	ID              string
	PaymentIntentID string
	AmountTotal     int64
	Metadata        map[string]string
	Created         time.Time
}

// WebhookEvent is a verified event. Session is set only for
// checkout.session.completed.
type WebhookEvent struct {
	ID      string
	Type    string
	Session *CompletedSession
}
