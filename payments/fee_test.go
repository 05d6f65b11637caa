package payments

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		split  string
		want   string
	}{
		{"ten percent of 100", "100.00", "10", "10.00"},
		{"zero split", "100.00", "0", "0.00"},
		{"max split", "200.00", "50", "100.00"},
		{"rounds half up", "33.33", "15", "5.00"},
		{"sub-cent amount", "0.01", "10", "0.00"},
		{"fractional split", "149.90", "12.5", "18.74"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			split := decimal.RequireFromString(tt.split)
			fee := ComputeFee(amount, split)
			assert.Equal(t, tt.want, fee.StringFixed(2))
		})
	}
}

// Fee plus merchant net must reconstruct the gross amount exactly: decimal
// arithmetic leaves no floating residue for any split in [0,50].
func TestComputeFee_FeePlusNetEqualsGross(t *testing.T) {
	amounts := []string{"0.01", "1.00", "33.33", "99.99", "100.00", "12345.67"}
	splits := []string{"0", "1", "7.5", "10", "25", "33", "50"}

	for _, a := range amounts {
		for _, s := range splits {
			amount := decimal.RequireFromString(a)
			split := decimal.RequireFromString(s)

			fee := ComputeFee(amount, split)
			net := amount.Sub(fee)

			require.True(t, fee.Add(net).Equal(amount),
				"amount=%s split=%s fee=%s net=%s", a, s, fee, net)
			require.True(t, fee.GreaterThanOrEqual(decimal.Zero))
			require.True(t, net.GreaterThanOrEqual(decimal.Zero))
		}
	}
}
