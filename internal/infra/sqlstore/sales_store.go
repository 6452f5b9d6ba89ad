package sqlstore

import (
	"context"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
)

const (
	saleColumns    = `id, company_id, sale_number, client_id, seller_id, promotion_id, subtotal, discount_amount, tax_amount, total_amount, payment_status, created_at`
	invoiceColumns = `id, company_id, sale_id, invoice_number, client_id, issue_date, due_date, subtotal, tax_amount, total_amount, paid_amount, status, notes, created_at`
	itemColumns    = `id, sale_id, invoice_id, product_id, quantity, unit_price, total_price`
)

// CommitCheckout writes the checkout in one transaction. Stock is only
// decremented while enough is left and promotion usage only while under its
// limit; either miss rolls back everything.
func (s *Store) CommitCheckout(ctx context.Context, rec *domain.CheckoutRecord) error {
	ctx, span := tracer.Start(ctx, "SQL.CommitCheckout")
	defer span.End()
	span.SetAttributes(
		attribute.String("company.id", rec.Sale.CompanyID),
		attribute.String("sale.number", rec.Sale.SaleNumber),
		attribute.Int("sale.items", len(rec.Items)),
	)

	sale, inv := rec.Sale, rec.Invoice
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.exec(ctx, tx,
			`INSERT INTO sales (`+saleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sale.ID, sale.CompanyID, sale.SaleNumber, sale.ClientID, sale.SellerID, sale.PromotionID,
			sale.Subtotal, sale.DiscountAmount, sale.TaxAmount, sale.TotalAmount, sale.PaymentStatus,
			sale.CreatedAt.UTC()); err != nil {
			return s.dbError(err)
		}

		if _, err := s.exec(ctx, tx,
			`INSERT INTO invoices (`+invoiceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, inv.CompanyID, inv.SaleID, inv.InvoiceNumber, inv.ClientID, inv.IssueDate, inv.DueDate,
			inv.Subtotal, inv.TaxAmount, inv.TotalAmount, inv.PaidAmount, inv.Status, inv.Notes,
			inv.CreatedAt.UTC()); err != nil {
			return s.dbError(err)
		}

		now := time.Now().UTC()
		for _, item := range rec.Items {
			if _, err := s.exec(ctx, tx,
				`INSERT INTO sale_items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				item.ID, item.SaleID, item.InvoiceID, item.ProductID, item.Quantity,
				item.UnitPrice, item.TotalPrice); err != nil {
				return s.dbError(err)
			}

			res, err := s.exec(ctx, tx,
				`UPDATE products SET stock = stock - ?, updated_at = ?
				 WHERE company_id = ? AND id = ? AND stock >= ?`,
				item.Quantity, now, sale.CompanyID, item.ProductID, item.Quantity)
			if err != nil {
				return s.dbError(err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return s.stockShortage(ctx, tx, sale.CompanyID, item)
			}
		}

		if sale.PromotionID != nil {
			res, err := s.exec(ctx, tx,
				`UPDATE promotions SET usage_count = usage_count + 1
				 WHERE company_id = ? AND id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)`,
				sale.CompanyID, *sale.PromotionID)
			if err != nil {
				return s.dbError(err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return &domain.ErrPromotionUnavailable{PromotionID: *sale.PromotionID, Reason: "usage limit reached"}
			}
		}
		return nil
	})
}

// stockShortage builds the error for a line whose conditional decrement missed.
func (s *Store) stockShortage(ctx context.Context, tx *sqlx.Tx, companyID string, item domain.SaleLineItem) error {
	var available int
	err := s.get(ctx, tx, &available,
		`SELECT stock FROM products WHERE company_id = ? AND id = ?`, companyID, item.ProductID)
	if err != nil {
		return s.notFound(err, "product", item.ProductID)
	}
	return &domain.ErrInsufficientStock{ProductID: item.ProductID, Available: available, Requested: item.Quantity}
}

func (s *Store) ListSales(ctx context.Context, companyID string, q domain.SalesQuery) ([]domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "SQL.ListSales")
	defer span.End()

	query := `SELECT ` + saleColumns + ` FROM sales WHERE company_id = ?`
	args := []any{companyID}
	if q.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, q.Since.UTC())
	}
	query += ` ORDER BY created_at DESC`
	if q.PageSize > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.PageSize, (page-1)*q.PageSize)
	}

	rows := []domain.Sale{}
	if err := s.selectAll(ctx, s.db, &rows, query, args...); err != nil {
		return nil, s.dbError(err)
	}
	return rows, nil
}

func (s *Store) GetSale(ctx context.Context, companyID, saleID string) (*domain.SaleDetail, error) {
	ctx, span := tracer.Start(ctx, "SQL.GetSale")
	defer span.End()

	detail := &domain.SaleDetail{Items: []domain.SaleLineItem{}}
	if err := s.get(ctx, s.db, &detail.Sale,
		`SELECT `+saleColumns+` FROM sales WHERE company_id = ? AND id = ?`, companyID, saleID); err != nil {
		return nil, s.notFound(err, "sale", saleID)
	}

	var invoices []domain.Invoice
	if err := s.selectAll(ctx, s.db, &invoices,
		`SELECT `+invoiceColumns+` FROM invoices WHERE company_id = ? AND sale_id = ?`, companyID, saleID); err != nil {
		return nil, s.dbError(err)
	}
	if len(invoices) > 0 {
		detail.Invoice = &invoices[0]
	}

	if err := s.selectAll(ctx, s.db, &detail.Items,
		`SELECT `+itemColumns+` FROM sale_items WHERE sale_id = ? ORDER BY id`, saleID); err != nil {
		return nil, s.dbError(err)
	}
	return detail, nil
}

func (s *Store) ListInvoices(ctx context.Context, companyID string, status domain.InvoiceStatus) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "SQL.ListInvoices")
	defer span.End()

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE company_id = ?`
	args := []any{companyID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows := []domain.Invoice{}
	if err := s.selectAll(ctx, s.db, &rows, query, args...); err != nil {
		return nil, s.dbError(err)
	}
	return rows, nil
}
