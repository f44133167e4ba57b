package tax

import (
	"github.com/shopspring/decimal"
)

// VATCalculator implements Calculator for a single configured rate.
// Prices in the catalog are VAT-inclusive; the calculator extracts the
// embedded tax rather than adding tax on top.
type VATCalculator struct {
	rate    decimal.Decimal
	divisor decimal.Decimal // 1 + rate
}

var _ Calculator = (*VATCalculator)(nil)

// NewVATCalculator creates a calculator for the given rate (0.20 for 20%).
func NewVATCalculator(rate decimal.Decimal) *VATCalculator {
	return &VATCalculator{
		rate:    rate,
		divisor: decimal.NewFromInt(1).Add(rate),
	}
}

// ExtractVAT computes VAT = inclusive - inclusive/(1+rate).
// The intermediate division keeps four decimal places so the subtraction is
// rounded half-up once, at the end.
func (c *VATCalculator) ExtractVAT(inclusive decimal.Decimal) decimal.Decimal {
	exclusive := inclusive.DivRound(c.divisor, 4)
	return inclusive.Sub(exclusive).Round(2)
}

// ExtractExclusive computes inclusive/(1+rate) rounded half-up to two places.
func (c *VATCalculator) ExtractExclusive(inclusive decimal.Decimal) decimal.Decimal {
	return inclusive.DivRound(c.divisor, 2)
}

// AddVAT computes exclusive*(1+rate) rounded half-up to two places.
func (c *VATCalculator) AddVAT(exclusive decimal.Decimal) decimal.Decimal {
	return exclusive.Mul(c.divisor).Round(2)
}

// Rate returns the configured VAT rate.
func (c *VATCalculator) Rate() decimal.Decimal {
	return c.rate
}
