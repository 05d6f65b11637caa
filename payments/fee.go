package payments

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// ComputeFee returns the platform's share of a sale:
// round(amount * splitPercent / 100, 2). Decimal arithmetic keeps
// fee + net == amount exact at two decimal places; the stored split value is
// trusted as-is (the administrative boundary clamps it to [0,50]).
func ComputeFee(amount, splitPercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(splitPercent).Div(oneHundred).Round(2)
}
