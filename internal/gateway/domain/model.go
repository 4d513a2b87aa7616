package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportedStatus is the normalized provider status vocabulary.
type ReportedStatus string

const (
	StatusCaptured ReportedStatus = "captured"
	StatusFailed   ReportedStatus = "failed"
	StatusPending  ReportedStatus = "pending"
)

// PaymentNotification is the canonical payment outcome parsed by adapters
// from a webhook body, a redirect query or a status-query response. It is
// ephemeral: its effect is persisted through the Order, never the
// notification itself.
type PaymentNotification struct {
	Provider         string
	ProviderOrderRef string
	// SecondaryRefs are alternative identifiers the provider may have used
	// for the same order, e.g. a payment-link id distinct from the order id,
	// or a caller-supplied reference echoed back through notes. Ordered by
	// how trustworthy they are.
	SecondaryRefs  []string
	PayerEmail     string
	FormID         string
	ReportedStatus ReportedStatus
	ReportedAmount decimal.Decimal
	Currency       string
	OccurredAt     time.Time
	RawPayload     []byte
}

// RedirectResult is what an adapter extracts from a browser-carried redirect.
// Authoritative is true only when the provider signed the redirect
// parameters; an unsigned redirect is advisory and the caller must re-fetch
// the real status before touching settlement state.
type RedirectResult struct {
	Notification  *PaymentNotification
	Authoritative bool
}

// CheckoutSession is the result of creating an order/payment link upstream.
type CheckoutSession struct {
	ProviderOrderRef string
	CheckoutURL      string
}

// CreateOrderRequest is the outbound create-order/create-link call input.
type CreateOrderRequest struct {
	OrderID     string
	Amount      decimal.Decimal
	Currency    string
	PayerEmail  string
	ProductName string
	ReturnURL   string
}
