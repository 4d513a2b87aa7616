package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid_amount")

// FeeModel describes how a provider prices a transaction: a percentage of
// the gross, a fixed fee, and an optional tax rate applied to the fee itself.
type FeeModel struct {
	Rate     decimal.Decimal
	FixedFee decimal.Decimal
	TaxOnFee decimal.Decimal
}

// Split is the three-way division of a gross payment.
type Split struct {
	GatewayFee         decimal.Decimal
	PlatformCommission decimal.Decimal
	NetToPayee         decimal.Decimal
}

// Compute splits gross into gateway fee, platform commission and payee net.
// All three outputs are rounded to 2 decimals, net last, so the parts sum to
// gross within one minor unit (exactly, for a 2-decimal gross). Deterministic
// and stateless: order-creation and settlement must produce identical splits
// for identical inputs.
func Compute(gross decimal.Decimal, model FeeModel, platformRate decimal.Decimal) (Split, error) {
	if gross.LessThanOrEqual(decimal.Zero) {
		return Split{}, ErrInvalidAmount
	}

	fee := gross.Mul(model.Rate).Add(model.FixedFee)
	if model.TaxOnFee.IsPositive() {
		fee = fee.Add(fee.Mul(model.TaxOnFee))
	}
	fee = fee.Round(2)

	commission := gross.Mul(platformRate).Round(2)
	net := gross.Sub(fee).Sub(commission).Round(2)

	return Split{
		GatewayFee:         fee,
		PlatformCommission: commission,
		NetToPayee:         net,
	}, nil
}
