package model

import "github.com/shopspring/decimal"

func init() {
	// API clients read prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Money is a decimal amount with two fractional digits.
type Money = decimal.Decimal

func NewMoney(v float64) Money {
	return decimal.NewFromFloat(v).Round(2)
}
