package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("order_not_found")
	ErrInvalidRequest  = errors.New("invalid_order_request")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidCurrency = errors.New("invalid_currency")
)

// CreateOrderRequest carries a validated form submission.
type CreateOrderRequest struct {
	Provider    string          `json:"provider"`
	FormID      string          `json:"form_id"`
	PayeeID     int64           `json:"payee_id,string"`
	PayerEmail  string          `json:"payer_email"`
	ProductName string          `json:"product_name"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	Currency    string          `json:"currency"`
}

// CreateOrderResponse is returned to the form frontend so it can send the
// payer to the provider's checkout page.
type CreateOrderResponse struct {
	OrderID     string          `json:"order_id"`
	CheckoutURL string          `json:"checkout_url"`
	GatewayFee  decimal.Decimal `json:"gateway_fee"`
	PlatformFee decimal.Decimal `json:"platform_commission"`
	NetToPayee  decimal.Decimal `json:"net_to_payee"`
}

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error)
	Get(ctx context.Context, orderID string) (*Order, error)
}

// Repository is the Order lookup/persistence contract. Resolution lookups are
// point reads; the settlement write path lives in the settlement service.
type Repository interface {
	Create(ctx context.Context, db *gorm.DB, order *Order) error
	SetProviderOrderRef(ctx context.Context, db *gorm.DB, orderID string, ref string) error
	FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*Order, error)
	FindByProviderOrderRef(ctx context.Context, db *gorm.DB, ref string) ([]Order, error)
	FindByAnyProviderOrderRef(ctx context.Context, db *gorm.DB, refs []string) ([]Order, error)
	FindPendingByPayer(ctx context.Context, db *gorm.DB, payerEmail string, formID string) ([]Order, error)
}
