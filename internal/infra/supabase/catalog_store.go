package supabase

import (
	"context"
	"net/url"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/resilience"
)

// ============================================================
// Products, clients & promotions via PostgREST
// ============================================================

// getOne selects the single row of table with the given id inside companyID.
func getOne[T any](ctx context.Context, c *Client, table, resource, companyID, id string) (*T, error) {
	var rows []T
	err := c.execute(ctx, "supabase/"+table, true, func() error {
		if err := c.selectRows(ctx, table, url.Values{
			"company_id": {eq(companyID)},
			"id":         {eq(id)},
			"limit":      {"1"},
		}, &rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: resource, ID: id})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

func listAll[T any](ctx context.Context, c *Client, table, companyID, order string) ([]T, error) {
	rows := []T{}
	err := c.execute(ctx, "supabase/"+table, true, func() error {
		return c.selectRows(ctx, table, url.Values{
			"company_id": {eq(companyID)},
			"order":      {order},
		}, &rows)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) ListProducts(ctx context.Context, companyID string) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProducts")
	defer span.End()
	return listAll[domain.Product](ctx, c, "products", companyID, "name.asc")
}

func (c *Client) GetProduct(ctx context.Context, companyID, productID string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProduct")
	defer span.End()
	return getOne[domain.Product](ctx, c, "products", "product", companyID, productID)
}

func (c *Client) CreateProduct(ctx context.Context, p *domain.Product) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProduct")
	defer span.End()

	return c.execute(ctx, "supabase/products", false, func() error {
		return c.insertRow(ctx, "products", p)
	})
}

func (c *Client) UpdateProduct(ctx context.Context, p *domain.Product) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProduct")
	defer span.End()

	return c.execute(ctx, "supabase/products", true, func() error {
		n, err := c.patchRows(ctx, "products", url.Values{
			"company_id": {eq(p.CompanyID)},
			"id":         {eq(p.ID)},
		}, map[string]any{
			"name":       p.Name,
			"sku":        p.SKU,
			"price":      p.Price,
			"min_price":  p.MinPrice,
			"max_price":  p.MaxPrice,
			"stock":      p.Stock,
			"updated_at": p.UpdatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "product", ID: p.ID})
		}
		return nil
	})
}

func (c *Client) ListCustomers(ctx context.Context, companyID string) ([]domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCustomers")
	defer span.End()
	return listAll[domain.Customer](ctx, c, "clients", companyID, "name.asc")
}

func (c *Client) GetCustomer(ctx context.Context, companyID, customerID string) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCustomer")
	defer span.End()
	return getOne[domain.Customer](ctx, c, "clients", "client", companyID, customerID)
}

func (c *Client) CreateCustomer(ctx context.Context, cu *domain.Customer) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCustomer")
	defer span.End()

	return c.execute(ctx, "supabase/clients", false, func() error {
		return c.insertRow(ctx, "clients", cu)
	})
}

func (c *Client) ListPromotions(ctx context.Context, companyID string) ([]domain.Promotion, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPromotions")
	defer span.End()
	return listAll[domain.Promotion](ctx, c, "promotions", companyID, "created_at.desc")
}

func (c *Client) GetPromotion(ctx context.Context, companyID, promotionID string) (*domain.Promotion, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetPromotion")
	defer span.End()
	return getOne[domain.Promotion](ctx, c, "promotions", "promotion", companyID, promotionID)
}

func (c *Client) CreatePromotion(ctx context.Context, p *domain.Promotion) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreatePromotion")
	defer span.End()

	return c.execute(ctx, "supabase/promotions", false, func() error {
		return c.insertRow(ctx, "promotions", p)
	})
}
