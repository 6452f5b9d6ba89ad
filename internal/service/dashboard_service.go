package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/observability"
	"github.com/fluxiabiz/fluxiabiz-api/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashboardTracer = otel.Tracer("service/dashboard")

// DashboardService builds the tenant overview.
type DashboardService struct {
	store             port.Store
	cache             port.Cache[*domain.DashboardSummary]
	lowStockThreshold int
	metrics           *observability.Metrics
	logger            *zap.Logger
	now               func() time.Time
}

// NewDashboardService creates the dashboard service. Summaries are cached
// per company and day for the cache's TTL.
func NewDashboardService(store port.Store, cache port.Cache[*domain.DashboardSummary], lowStockThreshold int, metrics *observability.Metrics, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		store:             store,
		cache:             cache,
		lowStockThreshold: lowStockThreshold,
		metrics:           metrics,
		logger:            logger,
		now:               time.Now,
	}
}

// Summary returns today's sales, open invoices and low-stock products.
func (s *DashboardService) Summary(ctx context.Context, tc *domain.TenantContext) (*domain.DashboardSummary, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Summary")
	defer span.End()

	now := s.now().UTC()
	day := now.Format(domain.DateLayout)
	cacheKey := fmt.Sprintf("dashboard:%s:%s", tc.TenantID, day)
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("snapshot")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("snapshot")

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("dashboard", time.Since(start))
	}()

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var (
		sales    []domain.Sale
		invoices []domain.Invoice
		products []domain.Product
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, err = s.store.ListSales(gCtx, tc.TenantID, domain.SalesQuery{Since: &startOfDay})
		if err != nil {
			return fmt.Errorf("sales fetch: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		invoices, err = s.store.ListInvoices(gCtx, tc.TenantID, domain.InvoiceSent)
		if err != nil {
			return fmt.Errorf("invoices fetch: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		products, err = s.store.ListProducts(gCtx, tc.TenantID)
		if err != nil {
			return fmt.Errorf("products fetch: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard: fetch failed", append(observability.TenantFields(tc), zap.Error(err))...)
		return nil, err
	}

	summary := &domain.DashboardSummary{
		CompanyID:    tc.TenantID,
		Date:         day,
		SalesCount:   len(sales),
		Revenue:      decimal.Zero,
		AmountDue:    decimal.Zero,
		ProductCount: len(products),
		LowStock:     []domain.Product{},
		GeneratedAt:  now,
	}
	for _, sale := range sales {
		summary.Revenue = summary.Revenue.Add(sale.TotalAmount)
	}
	for i := range invoices {
		summary.PendingInvoices++
		summary.AmountDue = summary.AmountDue.Add(invoices[i].BalanceDue())
	}
	for _, p := range products {
		if p.Stock <= s.lowStockThreshold {
			summary.LowStock = append(summary.LowStock, p)
		}
	}
	sort.SliceStable(summary.LowStock, func(i, j int) bool {
		return summary.LowStock[i].Stock < summary.LowStock[j].Stock
	})

	s.cache.Set(cacheKey, summary)
	return summary, nil
}

// Invalidate drops the cached summary of the tenant, e.g. after a checkout.
func (s *DashboardService) Invalidate(tc *domain.TenantContext) {
	day := s.now().UTC().Format(domain.DateLayout)
	s.cache.Delete(fmt.Sprintf("dashboard:%s:%s", tc.TenantID, day))
}
