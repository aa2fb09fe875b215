package models

import "github.com/shopspring/decimal"

// Les montants sont stockés en float64 mais tous les calculs passent par decimal, arrondis au centime.

func RoundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// CoversMoney indique si balance suffit à payer amount
func CoversMoney(balance, amount float64) bool {
	return !decimal.NewFromFloat(amount).GreaterThan(decimal.NewFromFloat(balance))
}

func AddMoney(balance, amount float64) float64 {
	f, _ := decimal.NewFromFloat(balance).Add(decimal.NewFromFloat(amount)).Round(2).Float64()
	return f
}

func SubMoney(balance, amount float64) float64 {
	f, _ := decimal.NewFromFloat(balance).Sub(decimal.NewFromFloat(amount)).Round(2).Float64()
	return f
}
