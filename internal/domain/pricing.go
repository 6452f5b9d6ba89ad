package domain

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places amounts are rounded to.
const MoneyPlaces = 2

// WholeCents reports whether d has no digits beyond MoneyPlaces.
func WholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyPlaces))
}

// Totals is the derived financial state of a cart.
type Totals struct {
	Subtotal          decimal.Decimal `json:"subtotal"`
	CustomerDiscount  decimal.Decimal `json:"customer_discount"`
	PromotionDiscount decimal.Decimal `json:"promotion_discount"`
	CustomDiscount    decimal.Decimal `json:"custom_discount"`
	TotalDiscount     decimal.Decimal `json:"total_discount"`
	DiscountCapped    bool            `json:"discount_capped"`
	TaxableAmount     decimal.Decimal `json:"taxable_amount"`
	TaxPercent        decimal.Decimal `json:"tax_percent"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
}

// ComputeTotals derives subtotal, discounts, tax and grand total for lines.
//
// The three discounts are each taken from the undiscounted subtotal and stack.
// A fixed promotion never exceeds the subtotal, and neither does the stacked
// discount, so the taxable amount and grand total are never negative.
// Every reported amount is rounded half away from zero to MoneyPlaces.
func ComputeTotals(lines []CartLine, customer *Customer, promotion *Promotion, customDiscountPercent, taxPercent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}
	subtotal = roundMoney(subtotal)

	customerDiscount := decimal.Zero
	if customer != nil && customer.DiscountPercent.IsPositive() {
		customerDiscount = percentOf(subtotal, customer.DiscountPercent)
	}

	promotionDiscount := decimal.Zero
	if promotion != nil {
		switch promotion.DiscountType {
		case DiscountPercentage:
			promotionDiscount = percentOf(subtotal, promotion.DiscountValue)
		case DiscountFixed:
			promotionDiscount = decimal.Min(roundMoney(promotion.DiscountValue), subtotal)
		}
	}

	customDiscount := decimal.Zero
	if customDiscountPercent.IsPositive() {
		customDiscount = percentOf(subtotal, customDiscountPercent)
	}

	totalDiscount := customerDiscount.Add(promotionDiscount).Add(customDiscount)
	capped := false
	if totalDiscount.GreaterThan(subtotal) {
		totalDiscount = subtotal
		capped = true
	}

	taxable := subtotal.Sub(totalDiscount)
	tax := percentOf(taxable, taxPercent)

	return Totals{
		Subtotal:          subtotal,
		CustomerDiscount:  customerDiscount,
		PromotionDiscount: promotionDiscount,
		CustomDiscount:    customDiscount,
		TotalDiscount:     totalDiscount,
		DiscountCapped:    capped,
		TaxableAmount:     taxable,
		TaxPercent:        taxPercent,
		TaxAmount:         tax,
		GrandTotal:        taxable.Add(tax),
	}
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return roundMoney(amount.Mul(percent).Div(hundred))
}

func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
