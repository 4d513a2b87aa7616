package domain

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/formpay/formpay/internal/money"
)

var (
	ErrProviderNotFound = errors.New("provider_not_found")
	ErrInvalidConfig    = errors.New("invalid_provider_config")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrEventIgnored     = errors.New("event_ignored")
	ErrUnavailable      = errors.New("provider_unavailable")
	ErrRequestRejected  = errors.New("provider_request_rejected")
)

// Adapter translates one provider's wire formats into canonical values and
// owns the provider-specific authenticity checks.
type Adapter interface {
	Provider() string
	FeeModel() money.FeeModel

	// VerifyWebhook recomputes the provider's HMAC over the raw body and
	// compares constant-time against the header-supplied signature.
	VerifyWebhook(ctx context.Context, payload []byte, headers http.Header) error
	ParseWebhook(ctx context.Context, payload []byte) (*PaymentNotification, error)

	// ParseRedirect extracts payment identifiers from a redirect query.
	// The result is authoritative only if the provider signed it.
	ParseRedirect(ctx context.Context, query url.Values) (*RedirectResult, error)

	// FetchStatus queries the provider's order API for the authoritative
	// payment status. Safe to retry; read-only upstream.
	FetchStatus(ctx context.Context, providerOrderRef string) (*PaymentNotification, error)

	// CreateOrder creates the order/payment link upstream.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CheckoutSession, error)
}
