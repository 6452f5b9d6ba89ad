package sqlstore

import (
	"context"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
)

const (
	productColumns   = `id, company_id, name, sku, price, min_price, max_price, stock, created_at, updated_at`
	customerColumns  = `id, company_id, name, email, phone, discount_percent, created_at`
	promotionColumns = `id, company_id, name, discount_value, discount_type, is_active, usage_limit, usage_count, start_date, end_date, created_at`
)

// --- Products ---

func (s *Store) ListProducts(ctx context.Context, companyID string) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "SQL.ListProducts")
	defer span.End()

	rows := []domain.Product{}
	if err := s.selectAll(ctx, s.db, &rows,
		`SELECT `+productColumns+` FROM products WHERE company_id = ? ORDER BY name ASC`, companyID); err != nil {
		return nil, s.dbError(err)
	}
	return rows, nil
}

func (s *Store) GetProduct(ctx context.Context, companyID, productID string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "SQL.GetProduct")
	defer span.End()

	var p domain.Product
	if err := s.get(ctx, s.db, &p,
		`SELECT `+productColumns+` FROM products WHERE company_id = ? AND id = ?`, companyID, productID); err != nil {
		return nil, s.notFound(err, "product", productID)
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	ctx, span := tracer.Start(ctx, "SQL.CreateProduct")
	defer span.End()

	_, err := s.exec(ctx, s.db,
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CompanyID, p.Name, p.SKU, p.Price, p.MinPrice, p.MaxPrice, p.Stock,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	return s.dbError(err)
}

func (s *Store) UpdateProduct(ctx context.Context, p *domain.Product) error {
	ctx, span := tracer.Start(ctx, "SQL.UpdateProduct")
	defer span.End()

	res, err := s.exec(ctx, s.db,
		`UPDATE products SET name = ?, sku = ?, price = ?, min_price = ?, max_price = ?, stock = ?, updated_at = ?
		 WHERE company_id = ? AND id = ?`,
		p.Name, p.SKU, p.Price, p.MinPrice, p.MaxPrice, p.Stock, p.UpdatedAt.UTC(), p.CompanyID, p.ID)
	if err != nil {
		return s.dbError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "product", ID: p.ID}
	}
	return nil
}

// --- Clients ---

func (s *Store) ListCustomers(ctx context.Context, companyID string) ([]domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "SQL.ListCustomers")
	defer span.End()

	rows := []domain.Customer{}
	if err := s.selectAll(ctx, s.db, &rows,
		`SELECT `+customerColumns+` FROM clients WHERE company_id = ? ORDER BY name ASC`, companyID); err != nil {
		return nil, s.dbError(err)
	}
	return rows, nil
}

func (s *Store) GetCustomer(ctx context.Context, companyID, customerID string) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "SQL.GetCustomer")
	defer span.End()

	var c domain.Customer
	if err := s.get(ctx, s.db, &c,
		`SELECT `+customerColumns+` FROM clients WHERE company_id = ? AND id = ?`, companyID, customerID); err != nil {
		return nil, s.notFound(err, "client", customerID)
	}
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	ctx, span := tracer.Start(ctx, "SQL.CreateCustomer")
	defer span.End()

	_, err := s.exec(ctx, s.db,
		`INSERT INTO clients (`+customerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CompanyID, c.Name, c.Email, c.Phone, c.DiscountPercent, c.CreatedAt.UTC())
	return s.dbError(err)
}

// --- Promotions ---

func (s *Store) ListPromotions(ctx context.Context, companyID string) ([]domain.Promotion, error) {
	ctx, span := tracer.Start(ctx, "SQL.ListPromotions")
	defer span.End()

	rows := []domain.Promotion{}
	if err := s.selectAll(ctx, s.db, &rows,
		`SELECT `+promotionColumns+` FROM promotions WHERE company_id = ? ORDER BY created_at DESC`, companyID); err != nil {
		return nil, s.dbError(err)
	}
	return rows, nil
}

func (s *Store) GetPromotion(ctx context.Context, companyID, promotionID string) (*domain.Promotion, error) {
	ctx, span := tracer.Start(ctx, "SQL.GetPromotion")
	defer span.End()

	var p domain.Promotion
	if err := s.get(ctx, s.db, &p,
		`SELECT `+promotionColumns+` FROM promotions WHERE company_id = ? AND id = ?`, companyID, promotionID); err != nil {
		return nil, s.notFound(err, "promotion", promotionID)
	}
	return &p, nil
}

func (s *Store) CreatePromotion(ctx context.Context, p *domain.Promotion) error {
	ctx, span := tracer.Start(ctx, "SQL.CreatePromotion")
	defer span.End()

	_, err := s.exec(ctx, s.db,
		`INSERT INTO promotions (`+promotionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CompanyID, p.Name, p.DiscountValue, p.DiscountType, p.IsActive,
		p.UsageLimit, p.UsageCount, p.StartDate, p.EndDate, p.CreatedAt.UTC())
	return s.dbError(err)
}
