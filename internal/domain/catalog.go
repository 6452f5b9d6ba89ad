package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item of a company. Price is the default unit price;
// MinPrice and MaxPrice bound what a seller may charge (zero means unbounded on that side).
type Product struct {
	ID        string          `json:"id" db:"id"`
	CompanyID string          `json:"company_id" db:"company_id"`
	Name      string          `json:"name" db:"name"`
	SKU       string          `json:"sku" db:"sku"`
	Price     decimal.Decimal `json:"price" db:"price"`
	MinPrice  decimal.Decimal `json:"min_price" db:"min_price"`
	MaxPrice  decimal.Decimal `json:"max_price" db:"max_price"`
	Stock     int             `json:"stock" db:"stock"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// PriceAllowed reports whether price sits inside the product's price band
// and is expressed in whole cents.
func (p *Product) PriceAllowed(price decimal.Decimal) bool {
	if price.IsNegative() || !WholeCents(price) {
		return false
	}
	if price.LessThan(p.MinPrice) {
		return false
	}
	if p.MaxPrice.IsPositive() && price.GreaterThan(p.MaxPrice) {
		return false
	}
	return true
}

// ProductInput carries the writable fields of a product.
type ProductInput struct {
	Name     string          `json:"name"`
	SKU      string          `json:"sku"`
	Price    decimal.Decimal `json:"price"`
	MinPrice decimal.Decimal `json:"min_price"`
	MaxPrice decimal.Decimal `json:"max_price"`
	Stock    int             `json:"stock"`
}

// Validate checks the product fields that pricing depends on.
func (in *ProductInput) Validate() error {
	if in.Name == "" {
		return &ErrValidation{Field: "name", Message: "required"}
	}
	if in.Price.IsNegative() || in.MinPrice.IsNegative() || in.MaxPrice.IsNegative() {
		return &ErrValidation{Field: "price", Message: "prices must not be negative"}
	}
	if !WholeCents(in.Price) || !WholeCents(in.MinPrice) || !WholeCents(in.MaxPrice) {
		return &ErrValidation{Field: "price", Message: "prices must have at most 2 decimal places"}
	}
	if in.Stock < 0 {
		return &ErrValidation{Field: "stock", Message: "must not be negative"}
	}
	probe := Product{MinPrice: in.MinPrice, MaxPrice: in.MaxPrice}
	if !probe.PriceAllowed(in.Price) {
		return &ErrValidation{Field: "price", Message: "default price must lie within [min_price, max_price]"}
	}
	return nil
}

// Customer is a client of a company, optionally entitled to a personal discount.
type Customer struct {
	ID              string          `json:"id" db:"id"`
	CompanyID       string          `json:"company_id" db:"company_id"`
	Name            string          `json:"name" db:"name"`
	Email           string          `json:"email" db:"email"`
	Phone           string          `json:"phone" db:"phone"`
	DiscountPercent decimal.Decimal `json:"discount_percent" db:"discount_percent"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// CustomerInput carries the writable fields of a customer.
type CustomerInput struct {
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Validate checks the customer input.
func (in *CustomerInput) Validate() error {
	if in.Name == "" {
		return &ErrValidation{Field: "name", Message: "required"}
	}
	if !percentInRange(in.DiscountPercent) {
		return &ErrValidation{Field: "discount_percent", Message: "must be between 0 and 100"}
	}
	return nil
}

// DiscountKind tells how a promotion value is applied.
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// Promotion is a company-wide discount with an optional usage limit and validity window.
// StartDate and EndDate are calendar dates (YYYY-MM-DD); empty means open-ended.
type Promotion struct {
	ID            string          `json:"id" db:"id"`
	CompanyID     string          `json:"company_id" db:"company_id"`
	Name          string          `json:"name" db:"name"`
	DiscountValue decimal.Decimal `json:"discount_value" db:"discount_value"`
	DiscountType  DiscountKind    `json:"discount_type" db:"discount_type"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	UsageLimit    *int            `json:"usage_limit,omitempty" db:"usage_limit"`
	UsageCount    int             `json:"usage_count" db:"usage_count"`
	StartDate     string          `json:"start_date,omitempty" db:"start_date"`
	EndDate       string          `json:"end_date,omitempty" db:"end_date"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Applicable returns nil when the promotion can be used on day now.
func (p *Promotion) Applicable(now time.Time) error {
	if !p.IsActive {
		return &ErrPromotionUnavailable{PromotionID: p.ID, Reason: "inactive"}
	}
	today := now.UTC().Format(DateLayout)
	if p.StartDate != "" && today < p.StartDate {
		return &ErrPromotionUnavailable{PromotionID: p.ID, Reason: "not started"}
	}
	if p.EndDate != "" && today > p.EndDate {
		return &ErrPromotionUnavailable{PromotionID: p.ID, Reason: "expired"}
	}
	if p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit {
		return &ErrPromotionUnavailable{PromotionID: p.ID, Reason: "usage limit reached"}
	}
	return nil
}

// PromotionInput carries the writable fields of a promotion.
type PromotionInput struct {
	Name          string          `json:"name"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	DiscountType  DiscountKind    `json:"discount_type"`
	IsActive      bool            `json:"is_active"`
	UsageLimit    *int            `json:"usage_limit,omitempty"`
	StartDate     string          `json:"start_date,omitempty"`
	EndDate       string          `json:"end_date,omitempty"`
}

// Validate checks the promotion input.
func (in *PromotionInput) Validate() error {
	if in.Name == "" {
		return &ErrValidation{Field: "name", Message: "required"}
	}
	switch in.DiscountType {
	case DiscountPercentage:
		if !percentInRange(in.DiscountValue) {
			return &ErrValidation{Field: "discount_value", Message: "percentage must be between 0 and 100"}
		}
	case DiscountFixed:
		if in.DiscountValue.IsNegative() {
			return &ErrValidation{Field: "discount_value", Message: "must not be negative"}
		}
	default:
		return &ErrValidation{Field: "discount_type", Message: "must be percentage or fixed"}
	}
	if in.UsageLimit != nil && *in.UsageLimit < 0 {
		return &ErrValidation{Field: "usage_limit", Message: "must not be negative"}
	}
	for field, v := range map[string]string{"start_date": in.StartDate, "end_date": in.EndDate} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, v); err != nil {
			return &ErrValidation{Field: field, Message: "expected YYYY-MM-DD"}
		}
	}
	if in.StartDate != "" && in.EndDate != "" && in.EndDate < in.StartDate {
		return &ErrValidation{Field: "end_date", Message: "must not precede start_date"}
	}
	return nil
}

var hundred = decimal.NewFromInt(100)

func percentInRange(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}
