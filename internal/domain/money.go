package domain

import "github.com/shopspring/decimal"

// Money is a monetary amount rounded to cents.
type Money = decimal.Decimal

// Total sums price*quantity over items. Rounding happens once, on the final
// sum, half away from zero.
func Total(items []CartItem) Money {
	sum := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		sum = sum.Add(line)
	}
	return sum.Round(2)
}
