package domain

import (
	"context"
	"errors"

	"github.com/formpay/formpay/internal/money"
	orderdomain "github.com/formpay/formpay/internal/order/domain"
)

// Outcome is the result of one settlement attempt.
type Outcome string

const (
	// OutcomeApplied means this call won the transition and, for paid,
	// wrote the commission record.
	OutcomeApplied Outcome = "applied"
	// OutcomeAlreadyTerminal means the order was settled before this call;
	// duplicate deliveries land here and are success to the caller.
	OutcomeAlreadyTerminal Outcome = "already_terminal"
	// OutcomeRejected means the order does not exist; nothing was written.
	OutcomeRejected Outcome = "rejected"
)

var (
	ErrSplitRequired     = errors.New("split_required")
	ErrInvalidTransition = errors.New("invalid_transition")
)

// Service is the settlement ledger: the only writer of terminal Order state.
// ApplyIfAbsent must be safe under concurrent invocations for the same
// orderId: exactly one caller observes Applied.
type Service interface {
	ApplyIfAbsent(ctx context.Context, orderID string, target orderdomain.Status, split *money.Split) (Outcome, *orderdomain.Order, error)
}
