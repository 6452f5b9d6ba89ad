package domain_test

import (
	"testing"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestPromotionApplicable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	limit := 2

	tests := []struct {
		name string
		p    domain.Promotion
		ok   bool
	}{
		{"active open-ended", domain.Promotion{IsActive: true}, true},
		{"inactive", domain.Promotion{IsActive: false}, false},
		{"inside window", domain.Promotion{IsActive: true, StartDate: "2026-03-01", EndDate: "2026-03-10"}, true},
		{"not started", domain.Promotion{IsActive: true, StartDate: "2026-03-11"}, false},
		{"expired", domain.Promotion{IsActive: true, EndDate: "2026-03-09"}, false},
		{"below limit", domain.Promotion{IsActive: true, UsageLimit: &limit, UsageCount: 1}, true},
		{"limit reached", domain.Promotion{IsActive: true, UsageLimit: &limit, UsageCount: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Applicable(now)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestPromotionApplicableUsesUTCDay(t *testing.T) {
	// 00:30 on the 11th in UTC+2 is still the 10th in UTC, the day invoices are dated.
	local := time.Date(2026, 3, 11, 0, 30, 0, 0, time.FixedZone("UTC+2", 2*60*60))
	p := domain.Promotion{IsActive: true, EndDate: "2026-03-10"}
	assert.NoError(t, p.Applicable(local))

	late := domain.Promotion{IsActive: true, StartDate: "2026-03-11"}
	assert.Error(t, late.Applicable(local))
}

func TestInputValidation(t *testing.T) {
	assert.NoError(t, (&domain.ProductInput{Name: "Savon", Price: d("1000"), MinPrice: d("800")}).Validate())
	assert.Error(t, (&domain.ProductInput{Price: d("1")}).Validate())
	assert.Error(t, (&domain.ProductInput{Name: "Savon", Price: d("1"), Stock: -1}).Validate())
	assert.Error(t, (&domain.ProductInput{Name: "Savon", Price: d("700"), MinPrice: d("800")}).Validate())
	assert.Error(t, (&domain.ProductInput{Name: "Savon", Price: d("1000.005")}).Validate())
	assert.Error(t, (&domain.ProductInput{Name: "Savon", Price: d("1000"), MaxPrice: d("1200.001")}).Validate())
	assert.NoError(t, (&domain.ProductInput{Name: "Savon", Price: d("1000.50")}).Validate())

	assert.NoError(t, (&domain.CustomerInput{Name: "Mme Ngo", DiscountPercent: d("100")}).Validate())
	assert.Error(t, (&domain.CustomerInput{Name: "Mme Ngo", DiscountPercent: d("100.5")}).Validate())

	assert.NoError(t, (&domain.PromotionInput{Name: "Soldes", DiscountType: domain.DiscountFixed, DiscountValue: d("500")}).Validate())
	assert.Error(t, (&domain.PromotionInput{Name: "Soldes", DiscountType: "bogo"}).Validate())
	assert.Error(t, (&domain.PromotionInput{Name: "Soldes", DiscountType: domain.DiscountPercentage, DiscountValue: d("120")}).Validate())
	assert.Error(t, (&domain.PromotionInput{Name: "Soldes", DiscountType: domain.DiscountFixed, StartDate: "2026-03-10", EndDate: "2026-03-01"}).Validate())
	assert.Error(t, (&domain.PromotionInput{Name: "Soldes", DiscountType: domain.DiscountFixed, StartDate: "10/03/2026"}).Validate())
}

func TestCanView(t *testing.T) {
	assert.True(t, domain.CanView(domain.RoleEmployee, domain.PageDashboard))
	assert.False(t, domain.CanView(domain.RoleEmployee, domain.PageTeam))
	assert.True(t, domain.CanView(domain.RoleManager, domain.PageReports))
	assert.False(t, domain.CanView(domain.RoleManager, domain.PageSettings))
	assert.False(t, domain.CanView("", domain.PageDashboard))
}
