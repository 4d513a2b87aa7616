package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeHappyPath(t *testing.T) {
	model := FeeModel{Rate: d("0.025"), FixedFee: d("3")}

	split, err := Compute(d("1000"), model, d("0.03"))
	require.NoError(t, err)

	assert.True(t, split.GatewayFee.Equal(d("28.00")), "gateway fee %s", split.GatewayFee)
	assert.True(t, split.PlatformCommission.Equal(d("30.00")), "commission %s", split.PlatformCommission)
	assert.True(t, split.NetToPayee.Equal(d("942.00")), "net %s", split.NetToPayee)
}

func TestComputeTaxOnFee(t *testing.T) {
	model := FeeModel{Rate: d("0.02"), FixedFee: d("3"), TaxOnFee: d("0.18")}

	split, err := Compute(d("1000"), model, d("0.03"))
	require.NoError(t, err)

	// fee = (20 + 3) * 1.18 = 27.14
	assert.True(t, split.GatewayFee.Equal(d("27.14")), "gateway fee %s", split.GatewayFee)
	assert.True(t, split.NetToPayee.Equal(d("942.86")), "net %s", split.NetToPayee)
}

func TestComputePartsSumToGross(t *testing.T) {
	model := FeeModel{Rate: d("0.025"), FixedFee: d("3")}
	platformRate := d("0.03")

	for _, gross := range []string{"0.01", "1", "99.99", "123.45", "1000", "99999.99", "7.77"} {
		split, err := Compute(d(gross), model, platformRate)
		require.NoError(t, err, "gross %s", gross)

		sum := split.GatewayFee.Add(split.PlatformCommission).Add(split.NetToPayee)
		assert.True(t, sum.Equal(d(gross)), "gross %s: parts sum to %s", gross, sum)
	}
}

func TestComputeSubMinorUnitGrossRoundsNet(t *testing.T) {
	model := FeeModel{Rate: d("0.025"), FixedFee: d("3")}

	split, err := Compute(d("10.005"), model, d("0.03"))
	require.NoError(t, err)

	// fee = 10.005*0.025 + 3 = 3.250125 -> 3.25, commission = 0.30015 -> 0.30,
	// net = 10.005 - 3.25 - 0.30 = 6.455 -> 6.46.
	assert.True(t, split.GatewayFee.Equal(d("3.25")), "gateway fee %s", split.GatewayFee)
	assert.True(t, split.PlatformCommission.Equal(d("0.30")), "commission %s", split.PlatformCommission)
	assert.True(t, split.NetToPayee.Equal(d("6.46")), "net %s", split.NetToPayee)

	sum := split.GatewayFee.Add(split.PlatformCommission).Add(split.NetToPayee)
	assert.True(t, sum.Sub(d("10.005")).Abs().LessThanOrEqual(d("0.01")),
		"parts sum %s diverges from gross by more than one minor unit", sum)
}

func TestComputeDeterministic(t *testing.T) {
	model := FeeModel{Rate: d("0.02"), FixedFee: d("3"), TaxOnFee: d("0.18")}

	first, err := Compute(d("523.17"), model, d("0.03"))
	require.NoError(t, err)
	second, err := Compute(d("523.17"), model, d("0.03"))
	require.NoError(t, err)

	assert.True(t, first.GatewayFee.Equal(second.GatewayFee))
	assert.True(t, first.PlatformCommission.Equal(second.PlatformCommission))
	assert.True(t, first.NetToPayee.Equal(second.NetToPayee))
}

func TestComputeRejectsNonPositive(t *testing.T) {
	model := FeeModel{Rate: d("0.025"), FixedFee: d("3")}

	_, err := Compute(decimal.Zero, model, d("0.03"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Compute(d("-5"), model, d("0.03"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
