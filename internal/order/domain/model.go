package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Status is the Order lifecycle state. Transitions are forward-only;
// paid, failed and cancelled are terminal.
type Status string

const (
	StatusCreated   Status = "created"
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	switch s {
	case StatusPaid, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Order is one payer-facing payment request. Rows are append-only from the
// audit perspective: status and split move forward exactly once, descriptive
// fields never change after creation.
type Order struct {
	ID               snowflake.ID        `json:"id" gorm:"primaryKey"`
	OrderID          string              `json:"order_id" gorm:"type:text;not null;uniqueIndex"`
	Provider         string              `json:"provider" gorm:"type:text;not null"`
	ProviderOrderRef *string             `json:"provider_order_ref,omitempty" gorm:"type:text;index"`
	FormID           string              `json:"form_id" gorm:"type:text;not null;index"`
	PayeeID          snowflake.ID        `json:"payee_id" gorm:"not null;index"`
	PayerEmail       string              `json:"payer_email" gorm:"type:text;not null;index"`
	ProductName      string              `json:"product_name" gorm:"type:text;not null"`
	GrossAmount      decimal.Decimal     `json:"gross_amount" gorm:"type:numeric;not null"`
	Currency         string              `json:"currency" gorm:"type:text;not null"`
	Status           Status              `json:"status" gorm:"type:text;not null;index"`
	GatewayFee       decimal.NullDecimal `json:"gateway_fee,omitempty" gorm:"type:numeric"`
	PlatformFee      decimal.NullDecimal `json:"platform_commission,omitempty" gorm:"type:numeric;column:platform_commission"`
	NetToPayee       decimal.NullDecimal `json:"net_to_payee,omitempty" gorm:"type:numeric"`
	CreatedAt        time.Time           `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time           `json:"updated_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

// CommissionRecord is written exactly once per Order, atomically with the
// transition to paid. Never updated afterwards.
type CommissionRecord struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	OrderID     string          `json:"order_id" gorm:"type:text;not null;uniqueIndex"`
	GatewayFee  decimal.Decimal `json:"gateway_fee" gorm:"type:numeric;not null"`
	PlatformFee decimal.Decimal `json:"platform_commission" gorm:"type:numeric;not null;column:platform_commission"`
	NetToPayee  decimal.Decimal `json:"net_to_payee" gorm:"type:numeric;not null"`
	RecordedAt  time.Time       `json:"recorded_at" gorm:"not null"`
}

func (CommissionRecord) TableName() string { return "commission_records" }
