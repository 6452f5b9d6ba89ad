package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var catalogTracer = otel.Tracer("service/catalog")

// CatalogService manages a company's products, clients and promotions,
// and serves its sales history.
type CatalogService struct {
	catalog port.CatalogStore
	sales   port.SalesStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewCatalogService creates the catalog service.
func NewCatalogService(store port.Store, logger *zap.Logger) *CatalogService {
	return &CatalogService{catalog: store, sales: store, logger: logger, now: time.Now}
}

// --- Products ---

func (s *CatalogService) ListProducts(ctx context.Context, tc *domain.TenantContext) ([]domain.Product, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListProducts")
	defer span.End()
	return s.catalog.ListProducts(ctx, tc.TenantID)
}

func (s *CatalogService) GetProduct(ctx context.Context, tc *domain.TenantContext, id string) (*domain.Product, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.GetProduct")
	defer span.End()
	return s.catalog.GetProduct(ctx, tc.TenantID, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, tc *domain.TenantContext, in *domain.ProductInput) (*domain.Product, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p := &domain.Product{
		ID:        uuid.NewString(),
		CompanyID: tc.TenantID,
		Name:      in.Name,
		SKU:       in.SKU,
		Price:     in.Price,
		MinPrice:  in.MinPrice,
		MaxPrice:  in.MaxPrice,
		Stock:     in.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.catalog.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", zap.String("company_id", tc.TenantID), zap.String("product_id", p.ID))
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, tc *domain.TenantContext, id string, in *domain.ProductInput) (*domain.Product, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := s.catalog.GetProduct(ctx, tc.TenantID, id)
	if err != nil {
		return nil, err
	}
	p.Name, p.SKU = in.Name, in.SKU
	p.Price, p.MinPrice, p.MaxPrice = in.Price, in.MinPrice, in.MaxPrice
	p.Stock = in.Stock
	p.UpdatedAt = s.now().UTC()

	if err := s.catalog.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// --- Clients ---

func (s *CatalogService) ListCustomers(ctx context.Context, tc *domain.TenantContext) ([]domain.Customer, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListCustomers")
	defer span.End()
	return s.catalog.ListCustomers(ctx, tc.TenantID)
}

func (s *CatalogService) CreateCustomer(ctx context.Context, tc *domain.TenantContext, in *domain.CustomerInput) (*domain.Customer, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.CreateCustomer")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	c := &domain.Customer{
		ID:              uuid.NewString(),
		CompanyID:       tc.TenantID,
		Name:            in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		DiscountPercent: in.DiscountPercent,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.catalog.CreateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// --- Promotions ---

func (s *CatalogService) ListPromotions(ctx context.Context, tc *domain.TenantContext) ([]domain.Promotion, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListPromotions")
	defer span.End()
	return s.catalog.ListPromotions(ctx, tc.TenantID)
}

func (s *CatalogService) CreatePromotion(ctx context.Context, tc *domain.TenantContext, in *domain.PromotionInput) (*domain.Promotion, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.CreatePromotion")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := &domain.Promotion{
		ID:            uuid.NewString(),
		CompanyID:     tc.TenantID,
		Name:          in.Name,
		DiscountValue: in.DiscountValue,
		DiscountType:  in.DiscountType,
		IsActive:      in.IsActive,
		UsageLimit:    in.UsageLimit,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.catalog.CreatePromotion(ctx, p); err != nil {
		return nil, fmt.Errorf("create promotion: %w", err)
	}
	return p, nil
}

// --- Sales history ---

func (s *CatalogService) ListSales(ctx context.Context, tc *domain.TenantContext, q domain.SalesQuery) ([]domain.Sale, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListSales")
	defer span.End()

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	return s.sales.ListSales(ctx, tc.TenantID, q)
}

func (s *CatalogService) GetSale(ctx context.Context, tc *domain.TenantContext, id string) (*domain.SaleDetail, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.GetSale")
	defer span.End()
	return s.sales.GetSale(ctx, tc.TenantID, id)
}

func (s *CatalogService) ListInvoices(ctx context.Context, tc *domain.TenantContext, status domain.InvoiceStatus) ([]domain.Invoice, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListInvoices")
	defer span.End()

	switch status {
	case "", domain.InvoiceSent, domain.InvoicePaid:
	default:
		return nil, &domain.ErrValidation{Field: "status", Message: "must be sent or paid"}
	}
	return s.sales.ListInvoices(ctx, tc.TenantID, status)
}
