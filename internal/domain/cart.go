package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is a product selection in a cart. It keeps a snapshot of the
// product so price and stock rules can be checked without another read.
type CartLine struct {
	Product   Product         `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineTotal is quantity × unit price, unrounded.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the point-of-sale working state of one seller in one company.
type Cart struct {
	TenantID              string          `json:"company_id"`
	SellerID              string          `json:"seller_id"`
	Lines                 []CartLine      `json:"lines"`
	Customer              *Customer       `json:"customer,omitempty"`
	Promotion             *Promotion      `json:"promotion,omitempty"`
	CustomDiscountPercent decimal.Decimal `json:"custom_discount_percent"`
	TaxPercent            decimal.Decimal `json:"tax_percent"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// NewCart returns an empty cart with the given tax rate.
func NewCart(tenantID, sellerID string, taxPercent decimal.Decimal) *Cart {
	return &Cart{
		TenantID:   tenantID,
		SellerID:   sellerID,
		Lines:      []CartLine{},
		TaxPercent: taxPercent,
		UpdatedAt:  time.Now(),
	}
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// Line returns the line for productID, if any.
func (c *Cart) Line(productID string) (*CartLine, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return &c.Lines[i], true
	}
	return nil, false
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// AddLine adds one unit of product, creating a line at the product's default
// price when it is not in the cart yet. The resulting quantity may not exceed
// the product's stock.
func (c *Cart) AddLine(product Product) error {
	if i := c.indexOf(product.ID); i >= 0 {
		line := &c.Lines[i]
		line.Product = product
		if line.Quantity+1 > product.Stock {
			return &ErrInsufficientStock{ProductID: product.ID, Available: product.Stock, Requested: line.Quantity + 1}
		}
		line.Quantity++
		c.touch()
		return nil
	}
	if product.Stock < 1 {
		return &ErrInsufficientStock{ProductID: product.ID, Available: product.Stock, Requested: 1}
	}
	c.Lines = append(c.Lines, CartLine{Product: product, Quantity: 1, UnitPrice: product.Price})
	c.touch()
	return nil
}

// SetQuantity sets the quantity of a line; zero or less removes it.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	i := c.indexOf(productID)
	if i < 0 {
		return &ErrNotFound{Resource: "cart line", ID: productID}
	}
	if quantity <= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		c.touch()
		return nil
	}
	if stock := c.Lines[i].Product.Stock; quantity > stock {
		return &ErrInsufficientStock{ProductID: productID, Available: stock, Requested: quantity}
	}
	c.Lines[i].Quantity = quantity
	c.touch()
	return nil
}

// SetUnitPrice changes the unit price of a line. A price outside the
// product's band is rejected and the line keeps its current price.
func (c *Cart) SetUnitPrice(productID string, price decimal.Decimal) error {
	i := c.indexOf(productID)
	if i < 0 {
		return &ErrNotFound{Resource: "cart line", ID: productID}
	}
	line := &c.Lines[i]
	if !WholeCents(price) {
		return &ErrValidation{Field: "unit_price", Message: "must have at most 2 decimal places"}
	}
	if !line.Product.PriceAllowed(price) {
		return &ErrValidation{
			Field:   "unit_price",
			Message: "price outside the allowed band [" + line.Product.MinPrice.String() + ", " + maxLabel(line.Product.MaxPrice) + "]",
		}
	}
	line.UnitPrice = price
	c.touch()
	return nil
}

// SetCustomer selects the customer (nil clears it).
func (c *Cart) SetCustomer(customer *Customer) {
	c.Customer = customer
	c.touch()
}

// SetPromotion selects the promotion (nil clears it).
func (c *Cart) SetPromotion(promotion *Promotion) {
	c.Promotion = promotion
	c.touch()
}

// SetAdjustments sets the free-form discount and the tax rate.
func (c *Cart) SetAdjustments(customDiscountPercent, taxPercent decimal.Decimal) error {
	if !percentInRange(customDiscountPercent) {
		return &ErrValidation{Field: "custom_discount_percent", Message: "must be between 0 and 100"}
	}
	if taxPercent.IsNegative() {
		return &ErrValidation{Field: "tax_percent", Message: "must not be negative"}
	}
	c.CustomDiscountPercent = customDiscountPercent
	c.TaxPercent = taxPercent
	c.touch()
	return nil
}

// Totals computes the cart's current totals.
func (c *Cart) Totals() Totals {
	return ComputeTotals(c.Lines, c.Customer, c.Promotion, c.CustomDiscountPercent, c.TaxPercent)
}

// Reset clears lines, customer, promotion and custom discount. The tax rate is kept.
func (c *Cart) Reset() {
	c.Lines = []CartLine{}
	c.Customer = nil
	c.Promotion = nil
	c.CustomDiscountPercent = decimal.Zero
	c.touch()
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}

func maxLabel(max decimal.Decimal) string {
	if max.IsPositive() {
		return max.String()
	}
	return "∞"
}

// CartView is a cart together with its computed totals.
type CartView struct {
	*Cart
	Totals Totals `json:"totals"`
}
