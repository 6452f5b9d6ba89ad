package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/service"

	"go.uber.org/zap"
)

func TestCatalog_ProductLifecycle(t *testing.T) {
	store := newFakeStore()
	svc := service.NewCatalogService(store, zap.NewNop())
	tc := &domain.TenantContext{TenantID: "co-1", PrincipalID: "u-1", Role: domain.RoleManager}
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, tc, &domain.ProductInput{Name: "Savon", Price: dec("1000"), MinPrice: dec("800"), MaxPrice: dec("1200"), Stock: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.CompanyID != "co-1" || p.ID == "" {
		t.Errorf("unexpected product: %+v", p)
	}

	updated, err := svc.UpdateProduct(ctx, tc, p.ID, &domain.ProductInput{Name: "Savon noir", Price: dec("900"), MinPrice: dec("800"), Stock: 10})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Savon noir" || updated.Stock != 10 || !updated.MaxPrice.IsZero() {
		t.Errorf("unexpected update: %+v", updated)
	}

	other := &domain.TenantContext{TenantID: "co-2"}
	_, err = svc.GetProduct(ctx, other, p.ID)
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found for another company, got %v", err)
	}
}

func TestCatalog_RejectsPriceOutsideBand(t *testing.T) {
	svc := service.NewCatalogService(newFakeStore(), zap.NewNop())
	_, err := svc.CreateProduct(context.Background(), &domain.TenantContext{TenantID: "co-1"},
		&domain.ProductInput{Name: "Savon", Price: dec("1500"), MinPrice: dec("800"), MaxPrice: dec("1200")})
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCatalog_ListInvoicesStatus(t *testing.T) {
	store := newFakeStore()
	store.invoices = []domain.Invoice{
		{ID: "i-1", CompanyID: "co-1", Status: domain.InvoiceSent},
		{ID: "i-2", CompanyID: "co-1", Status: domain.InvoicePaid},
	}
	svc := service.NewCatalogService(store, zap.NewNop())
	tc := &domain.TenantContext{TenantID: "co-1"}

	sent, err := svc.ListInvoices(context.Background(), tc, domain.InvoiceSent)
	if err != nil || len(sent) != 1 || sent[0].ID != "i-1" {
		t.Fatalf("unexpected sent invoices: %v %v", sent, err)
	}
	if _, err := svc.ListInvoices(context.Background(), tc, "draft"); err == nil {
		t.Fatal("expected validation error for unknown status")
	}
}
