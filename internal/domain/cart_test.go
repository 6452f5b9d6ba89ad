package domain_test

import (
	"errors"
	"testing"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soap() domain.Product {
	return domain.Product{ID: "p-1", Name: "Savon", Price: d("1000"), MinPrice: d("800"), MaxPrice: d("1200"), Stock: 3}
}

func TestCart_AddLineMergesAndRespectsStock(t *testing.T) {
	c := domain.NewCart("co-1", "u-1", d("19.25"))

	require.NoError(t, c.AddLine(soap()))
	require.NoError(t, c.AddLine(soap()))
	require.NoError(t, c.AddLine(soap()))
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Quantity)

	err := c.AddLine(soap())
	var se *domain.ErrInsufficientStock
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 3, c.Lines[0].Quantity)

	out := soap()
	out.ID, out.Stock = "p-2", 0
	require.Error(t, c.AddLine(out))
	assert.Len(t, c.Lines, 1)
}

func TestCart_SetUnitPriceBand(t *testing.T) {
	c := domain.NewCart("co-1", "u-1", decimal.Zero)
	require.NoError(t, c.AddLine(soap()))

	for _, bad := range []string{"1200.01", "799.99", "-1"} {
		require.Errorf(t, c.SetUnitPrice("p-1", d(bad)), "price %s", bad)
		assertDec(t, "1000", c.Lines[0].UnitPrice, "price unchanged after "+bad)
	}
	require.NoError(t, c.SetUnitPrice("p-1", d("1200")))
	require.NoError(t, c.SetUnitPrice("p-1", d("800")))

	var nf *domain.ErrNotFound
	require.True(t, errors.As(c.SetUnitPrice("missing", d("1")), &nf))
}

func TestCart_SetUnitPriceRejectsSubCent(t *testing.T) {
	c := domain.NewCart("co-1", "u-1", decimal.Zero)
	require.NoError(t, c.AddLine(soap()))
	require.NoError(t, c.SetQuantity("p-1", 3))

	var ve *domain.ErrValidation
	require.True(t, errors.As(c.SetUnitPrice("p-1", d("1000.005")), &ve))
	assert.Equal(t, "unit_price", ve.Field)
	assertDec(t, "1000", c.Lines[0].UnitPrice, "price unchanged")

	// Trailing zeros are still whole cents.
	require.NoError(t, c.SetUnitPrice("p-1", d("1000.500")))

	// Every stored line total is exactly quantity x unit price.
	line := c.Lines[0]
	assertDec(t, "3001.5", line.LineTotal(), "line total")
	assert.True(t, line.LineTotal().Equal(line.LineTotal().Round(domain.MoneyPlaces)))
	p := soap()
	assert.False(t, p.PriceAllowed(d("999.999")))
}

func TestCart_UnboundedMaxPrice(t *testing.T) {
	p := soap()
	p.MaxPrice = decimal.Zero
	c := domain.NewCart("co-1", "u-1", decimal.Zero)
	require.NoError(t, c.AddLine(p))
	require.NoError(t, c.SetUnitPrice("p-1", d("99999")))
}

func TestCart_SetQuantity(t *testing.T) {
	c := domain.NewCart("co-1", "u-1", decimal.Zero)
	require.NoError(t, c.AddLine(soap()))

	require.NoError(t, c.SetQuantity("p-1", 2))
	assert.Equal(t, 2, c.Lines[0].Quantity)
	require.Error(t, c.SetQuantity("p-1", 4))
	assert.Equal(t, 2, c.Lines[0].Quantity)

	require.NoError(t, c.SetQuantity("p-1", -1))
	assert.True(t, c.IsEmpty())
}

func TestCart_AdjustmentsAndReset(t *testing.T) {
	c := domain.NewCart("co-1", "u-1", d("19.25"))
	require.NoError(t, c.AddLine(soap()))

	require.Error(t, c.SetAdjustments(d("101"), d("19.25")))
	require.Error(t, c.SetAdjustments(d("5"), d("-1")))
	require.NoError(t, c.SetAdjustments(d("5"), d("10")))
	c.SetCustomer(&domain.Customer{ID: "c-1", DiscountPercent: d("10")})

	c.Reset()
	assert.True(t, c.IsEmpty())
	assert.Nil(t, c.Customer)
	assert.Nil(t, c.Promotion)
	assert.True(t, c.CustomDiscountPercent.IsZero())
	assertDec(t, "10", c.TaxPercent, "tax kept")
}
