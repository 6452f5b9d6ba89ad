package supabase

import (
	"context"
	"net/url"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Companies & memberships via PostgREST
// ============================================================

func (c *Client) ListActiveMemberships(ctx context.Context, userID string) ([]domain.Membership, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListActiveMemberships")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var rows []domain.Membership
	err := c.execute(ctx, "supabase/company_members", true, func() error {
		return c.selectRows(ctx, "company_members", url.Values{
			"user_id":   {eq(userID)},
			"is_active": {"eq.true"},
			"order":     {"created_at.asc"},
		}, &rows)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) ListCompanyMembers(ctx context.Context, companyID string) ([]domain.Membership, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCompanyMembers")
	defer span.End()

	var rows []domain.Membership
	err := c.execute(ctx, "supabase/company_members", true, func() error {
		return c.selectRows(ctx, "company_members", url.Values{
			"company_id": {eq(companyID)},
			"order":      {"created_at.asc"},
		}, &rows)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetMembership(ctx context.Context, companyID, membershipID string) (*domain.Membership, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetMembership")
	defer span.End()

	var rows []domain.Membership
	err := c.execute(ctx, "supabase/company_members", true, func() error {
		if err := c.selectRows(ctx, "company_members", url.Values{
			"company_id": {eq(companyID)},
			"id":         {eq(membershipID)},
			"limit":      {"1"},
		}, &rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "membership", ID: membershipID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

func (c *Client) DeactivateMembership(ctx context.Context, companyID, membershipID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeactivateMembership")
	defer span.End()

	return c.execute(ctx, "supabase/company_members", true, func() error {
		n, err := c.patchRows(ctx, "company_members", url.Values{
			"company_id": {eq(companyID)},
			"id":         {eq(membershipID)},
		}, map[string]any{"is_active": false})
		if err != nil {
			return err
		}
		if n == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "membership", ID: membershipID})
		}
		return nil
	})
}

func (c *Client) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCompany")
	defer span.End()

	var rows []domain.Company
	err := c.execute(ctx, "supabase/companies", true, func() error {
		if err := c.selectRows(ctx, "companies", url.Values{"id": {eq(companyID)}, "limit": {"1"}}, &rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "company", ID: companyID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

func (c *Client) CreateCompany(ctx context.Context, company *domain.Company) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCompany")
	defer span.End()

	return c.execute(ctx, "supabase/companies", false, func() error {
		return c.insertRow(ctx, "companies", company)
	})
}

func (c *Client) DeleteCompany(ctx context.Context, companyID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCompany")
	defer span.End()

	return c.execute(ctx, "supabase/companies", true, func() error {
		return c.deleteRows(ctx, "companies", url.Values{"id": {eq(companyID)}})
	})
}

func (c *Client) CreateMembership(ctx context.Context, m *domain.Membership) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateMembership")
	defer span.End()

	return c.execute(ctx, "supabase/company_members", false, func() error {
		return c.insertRow(ctx, "company_members", m)
	})
}
