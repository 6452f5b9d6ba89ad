package domain_test

import (
	"testing"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(price string, qty int) domain.CartLine {
	return domain.CartLine{
		Product:   domain.Product{ID: price, Price: d(price), Stock: 1000},
		Quantity:  qty,
		UnitPrice: d(price),
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.Truef(t, got.Equal(d(want)), "%s: want %s, got %s", msg, want, got)
}

func TestComputeTotals_NoDiscounts(t *testing.T) {
	tot := domain.ComputeTotals([]domain.CartLine{line("1000", 2)}, nil, nil, decimal.Zero, d("19.25"))

	assertDec(t, "2000", tot.Subtotal, "subtotal")
	assertDec(t, "0", tot.TotalDiscount, "discount")
	assertDec(t, "385", tot.TaxAmount, "tax")
	assertDec(t, "2385", tot.GrandTotal, "total")
}

func TestComputeTotals_DiscountsDoNotCompound(t *testing.T) {
	customer := &domain.Customer{DiscountPercent: d("10")}
	tot := domain.ComputeTotals([]domain.CartLine{line("1000", 2)}, customer, nil, d("5"), d("19.25"))

	assertDec(t, "200", tot.CustomerDiscount, "customer")
	assertDec(t, "100", tot.CustomDiscount, "custom")
	assertDec(t, "300", tot.TotalDiscount, "total discount")
	assertDec(t, "1700", tot.TaxableAmount, "taxable")
	assertDec(t, "327.25", tot.TaxAmount, "tax")
	assertDec(t, "2027.25", tot.GrandTotal, "total")
}

func TestComputeTotals_Promotions(t *testing.T) {
	lines := []domain.CartLine{line("1000", 2), line("250", 1)}

	pct := &domain.Promotion{DiscountType: domain.DiscountPercentage, DiscountValue: d("15")}
	tot := domain.ComputeTotals(lines, nil, pct, decimal.Zero, decimal.Zero)
	assertDec(t, "2250", tot.Subtotal, "subtotal")
	assertDec(t, "337.5", tot.PromotionDiscount, "percentage promotion")

	fixed := &domain.Promotion{DiscountType: domain.DiscountFixed, DiscountValue: d("500")}
	tot = domain.ComputeTotals(lines, nil, fixed, decimal.Zero, decimal.Zero)
	assertDec(t, "500", tot.PromotionDiscount, "fixed promotion")

	big := &domain.Promotion{DiscountType: domain.DiscountFixed, DiscountValue: d("9000")}
	tot = domain.ComputeTotals(lines, nil, big, decimal.Zero, decimal.Zero)
	assertDec(t, "2250", tot.PromotionDiscount, "fixed promotion is capped at the subtotal")
	assertDec(t, "0", tot.GrandTotal, "total")
}

func TestComputeTotals_StackedDiscountCapped(t *testing.T) {
	customer := &domain.Customer{DiscountPercent: d("60")}
	promo := &domain.Promotion{DiscountType: domain.DiscountPercentage, DiscountValue: d("50")}
	tot := domain.ComputeTotals([]domain.CartLine{line("100", 1)}, customer, promo, d("10"), d("19.25"))

	assert.True(t, tot.DiscountCapped)
	assertDec(t, "100", tot.TotalDiscount, "total discount")
	assertDec(t, "0", tot.GrandTotal, "total")
}

func TestComputeTotals_Rounding(t *testing.T) {
	tot := domain.ComputeTotals([]domain.CartLine{line("33.33", 3)}, nil, nil, decimal.Zero, d("19.25"))

	assertDec(t, "99.99", tot.Subtotal, "subtotal")
	assertDec(t, "19.25", tot.TaxAmount, "tax rounds half away from zero")
	assertDec(t, "119.24", tot.GrandTotal, "total")
}

func TestComputeTotals_EmptyCart(t *testing.T) {
	tot := domain.ComputeTotals(nil, nil, nil, decimal.Zero, d("19.25"))
	assertDec(t, "0", tot.Subtotal, "subtotal")
	assertDec(t, "0", tot.GrandTotal, "total")
}

func TestComputeTotals_Properties(t *testing.T) {
	prices := []string{"0", "0.01", "1", "99.99", "1000", "12345.67"}
	quantities := []int{0, 1, 2, 7}
	customer := &domain.Customer{DiscountPercent: d("7.5")}
	promo := &domain.Promotion{DiscountType: domain.DiscountPercentage, DiscountValue: d("12")}

	for _, p1 := range prices {
		for _, p2 := range prices {
			for _, q := range quantities {
				lines := []domain.CartLine{line(p1, q), line(p2, q+1)}
				tot := domain.ComputeTotals(lines, customer, promo, d("3"), d("19.25"))

				sum := d(p1).Mul(decimal.NewFromInt(int64(q))).Add(d(p2).Mul(decimal.NewFromInt(int64(q + 1))))
				require.Truef(t, tot.Subtotal.Equal(sum.Round(2)), "subtotal %s != %s", tot.Subtotal, sum)

				parts := tot.CustomerDiscount.Add(tot.PromotionDiscount).Add(tot.CustomDiscount)
				require.Truef(t, tot.TotalDiscount.Equal(parts), "discount %s != %s", tot.TotalDiscount, parts)
				require.True(t, tot.GrandTotal.Equal(tot.TaxableAmount.Add(tot.TaxAmount)))
				require.False(t, tot.GrandTotal.IsNegative())

				again := domain.ComputeTotals(lines, customer, promo, d("3"), d("19.25"))
				require.Equal(t, tot.GrandTotal.String(), again.GrandTotal.String())
			}
		}
	}
}
