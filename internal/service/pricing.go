package service

import (
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the 21% VAT applied when no rate is configured
var DefaultTaxRate = decimal.RequireFromString("0.21")

// PriceCalculator derives cart totals from cart lines. It holds no state
// besides the tax rate, so Summarize is deterministic.
type PriceCalculator struct {
	taxRate decimal.Decimal
}

// NewPriceCalculator creates a calculator applying taxRate to the subtotal
func NewPriceCalculator(taxRate decimal.Decimal) PriceCalculator {
	return PriceCalculator{taxRate: taxRate}
}

// TaxRate returns the configured rate
func (c PriceCalculator) TaxRate() decimal.Decimal {
	return c.taxRate
}

// Summarize prices every line at its product's current price.
// Subtotal and tax are rounded to cents half-up; total is their sum, so
// total == subtotal + tax holds exactly.
func (c PriceCalculator) Summarize(lines []domain.CartLine) domain.CartSummary {
	subtotal := domain.ZeroMoney()
	itemCount := 0

	for _, line := range lines {
		subtotal = subtotal.Add(line.Product.Price.MulInt(line.Quantity))
		itemCount += line.Quantity
	}

	subtotal = subtotal.Round()
	tax := subtotal.MulRate(c.taxRate).Round()

	items := lines
	if items == nil {
		items = []domain.CartLine{}
	}

	return domain.CartSummary{
		Items:     items,
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     subtotal.Add(tax).Round(),
		ItemCount: itemCount,
	}
}
