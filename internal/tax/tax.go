package tax

import (
	"github.com/shopspring/decimal"
)

// Calculator converts between VAT-inclusive and VAT-exclusive prices.
// All outputs carry exactly two decimal digits, rounded half-up at the
// final step only, so round-trips do not drift by a cent.
type Calculator interface {
	// ExtractVAT returns the VAT amount embedded in a VAT-inclusive price.
	ExtractVAT(inclusive decimal.Decimal) decimal.Decimal

	// ExtractExclusive returns the VAT-exclusive part of a VAT-inclusive price.
	ExtractExclusive(inclusive decimal.Decimal) decimal.Decimal

	// AddVAT returns the VAT-inclusive price for a VAT-exclusive price.
	AddVAT(exclusive decimal.Decimal) decimal.Decimal

	// Rate returns the configured VAT rate (e.g. 0.20 for 20%).
	Rate() decimal.Decimal
}
