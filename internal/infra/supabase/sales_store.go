package supabase

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Sales, invoices & sale items
// ============================================================

// checkoutArgs is the argument object of the checkout_sale database function
// (deploy/supabase/checkout_sale.sql). The function runs in one transaction:
// inserts, conditional stock decrement and promotion usage bump.
type checkoutArgs struct {
	Sale    domain.Sale           `json:"p_sale"`
	Invoice domain.Invoice        `json:"p_invoice"`
	Items   []domain.SaleLineItem `json:"p_items"`
}

// CommitCheckout writes the whole checkout through one RPC. It is not
// retried: a timeout after the server committed must not write twice.
func (c *Client) CommitCheckout(ctx context.Context, rec *domain.CheckoutRecord) error {
	ctx, span := tracer.Start(ctx, "Supabase.CommitCheckout")
	defer span.End()
	span.SetAttributes(
		attribute.String("company.id", rec.Sale.CompanyID),
		attribute.String("sale.number", rec.Sale.SaleNumber),
		attribute.Int("sale.items", len(rec.Items)),
	)

	return c.execute(ctx, "supabase/checkout_sale", false, func() error {
		return c.rpc(ctx, "checkout_sale", checkoutArgs{
			Sale:    rec.Sale,
			Invoice: rec.Invoice,
			Items:   rec.Items,
		}, nil)
	})
}

func (c *Client) ListSales(ctx context.Context, companyID string, q domain.SalesQuery) ([]domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListSales")
	defer span.End()

	params := url.Values{
		"company_id": {eq(companyID)},
		"order":      {"created_at.desc"},
	}
	if q.Since != nil {
		params.Set("created_at", "gte."+q.Since.UTC().Format(time.RFC3339))
	}
	if q.PageSize > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		params.Set("limit", strconv.Itoa(q.PageSize))
		params.Set("offset", strconv.Itoa((page-1)*q.PageSize))
	}

	rows := []domain.Sale{}
	err := c.execute(ctx, "supabase/sales", true, func() error {
		return c.selectRows(ctx, "sales", params, &rows)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetSale(ctx context.Context, companyID, saleID string) (*domain.SaleDetail, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSale")
	defer span.End()

	sale, err := getOne[domain.Sale](ctx, c, "sales", "sale", companyID, saleID)
	if err != nil {
		return nil, err
	}

	detail := &domain.SaleDetail{Sale: *sale, Items: []domain.SaleLineItem{}}
	err = c.execute(ctx, "supabase/sales", true, func() error {
		var invoices []domain.Invoice
		if err := c.selectRows(ctx, "invoices", url.Values{
			"company_id": {eq(companyID)},
			"sale_id":    {eq(saleID)},
			"limit":      {"1"},
		}, &invoices); err != nil {
			return err
		}
		if len(invoices) > 0 {
			detail.Invoice = &invoices[0]
		}
		return c.selectRows(ctx, "sale_items", url.Values{"sale_id": {eq(saleID)}}, &detail.Items)
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (c *Client) ListInvoices(ctx context.Context, companyID string, status domain.InvoiceStatus) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListInvoices")
	defer span.End()

	params := url.Values{
		"company_id": {eq(companyID)},
		"order":      {"created_at.desc"},
	}
	if status != "" {
		params.Set("status", eq(string(status)))
	}

	rows := []domain.Invoice{}
	err := c.execute(ctx, "supabase/invoices", true, func() error {
		return c.selectRows(ctx, "invoices", params, &rows)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
