package domain

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	gatewaydomain "github.com/formpay/formpay/internal/gateway/domain"
	orderdomain "github.com/formpay/formpay/internal/order/domain"
)

var (
	ErrOrderNotFound = errors.New("order_not_found")
	// ErrAmbiguousOrder is a data-integrity fault: an exact-identifier
	// strategy matched more than one order. Non-retryable.
	ErrAmbiguousOrder = errors.New("ambiguous_order")
	ErrMalformed      = errors.New("malformed_notification")
)

// Result describes one reconciliation attempt. Order carries the
// post-reconciliation row; Applied is true only when this call committed the
// terminal transition (duplicates and pending observations leave it false).
type Result struct {
	Order   *orderdomain.Order
	Applied bool
}

// Service is the single reconciliation entry point shared by the webhook and
// redirect paths.
type Service interface {
	// IngestWebhook authenticates and parses a provider webhook delivery,
	// then reconciles the resulting notification.
	IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) (*Result, error)

	// VerifyRedirect handles a browser-carried redirect. Unsigned redirects
	// are advisory: the authoritative status is re-fetched from the provider
	// before any settlement state changes.
	VerifyRedirect(ctx context.Context, provider string, query url.Values) (*Result, error)

	// Reconcile resolves the notification to an order and applies its effect
	// exactly once.
	Reconcile(ctx context.Context, notification *gatewaydomain.PaymentNotification) (*Result, error)
}
