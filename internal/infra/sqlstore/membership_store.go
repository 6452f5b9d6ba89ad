package sqlstore

import (
	"context"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"

	"github.com/jmoiron/sqlx"
)

const membershipColumns = `id, company_id, user_id, role, is_active, created_at`

func (s *Store) ListActiveMemberships(ctx context.Context, userID string) ([]domain.Membership, error) {
	ctx, span := tracer.Start(ctx, "SQL.ListActiveMemberships")
	defer span.End()

	rows := []domain.Membership{}
	err := s.selectAll(ctx, s.db, &rows,
		`SELECT `+membershipColumns+` FROM company_members
		 WHERE user_id = ? AND is_active = ?
		 ORDER BY created_at ASC, id ASC`, userID, true)
	if err != nil {
		return nil, s.dbError(err)
	}
	return rows, nil
}

func (s *Store) ListCompanyMembers(ctx context.Context, companyID string) ([]domain.Membership, error) {
	ctx, span := tracer.Start(ctx, "SQL.ListCompanyMembers")
	defer span.End()

	rows := []domain.Membership{}
	err := s.selectAll(ctx, s.db, &rows,
		`SELECT `+membershipColumns+` FROM company_members
		 WHERE company_id = ? ORDER BY created_at ASC, id ASC`, companyID)
	if err != nil {
		return nil, s.dbError(err)
	}
	return rows, nil
}

func (s *Store) GetMembership(ctx context.Context, companyID, membershipID string) (*domain.Membership, error) {
	ctx, span := tracer.Start(ctx, "SQL.GetMembership")
	defer span.End()

	var m domain.Membership
	err := s.get(ctx, s.db, &m,
		`SELECT `+membershipColumns+` FROM company_members WHERE company_id = ? AND id = ?`,
		companyID, membershipID)
	if err != nil {
		return nil, s.notFound(err, "membership", membershipID)
	}
	return &m, nil
}

func (s *Store) DeactivateMembership(ctx context.Context, companyID, membershipID string) error {
	ctx, span := tracer.Start(ctx, "SQL.DeactivateMembership")
	defer span.End()

	res, err := s.exec(ctx, s.db,
		`UPDATE company_members SET is_active = ? WHERE company_id = ? AND id = ?`,
		false, companyID, membershipID)
	if err != nil {
		return s.dbError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "membership", ID: membershipID}
	}
	return nil
}

func (s *Store) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "SQL.GetCompany")
	defer span.End()

	var c domain.Company
	err := s.get(ctx, s.db, &c,
		`SELECT id, name, logo_url, banner_url, created_by, created_at FROM companies WHERE id = ?`, companyID)
	if err != nil {
		return nil, s.notFound(err, "company", companyID)
	}
	return &c, nil
}

func (s *Store) CreateCompany(ctx context.Context, c *domain.Company) error {
	ctx, span := tracer.Start(ctx, "SQL.CreateCompany")
	defer span.End()

	_, err := s.exec(ctx, s.db,
		`INSERT INTO companies (id, name, logo_url, banner_url, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.LogoURL, c.BannerURL, c.CreatedBy, c.CreatedAt.UTC())
	return s.dbError(err)
}

func (s *Store) DeleteCompany(ctx context.Context, companyID string) error {
	ctx, span := tracer.Start(ctx, "SQL.DeleteCompany")
	defer span.End()

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.exec(ctx, tx, `DELETE FROM company_members WHERE company_id = ?`, companyID); err != nil {
			return s.dbError(err)
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM companies WHERE id = ?`, companyID); err != nil {
			return s.dbError(err)
		}
		return nil
	})
}

func (s *Store) CreateMembership(ctx context.Context, m *domain.Membership) error {
	ctx, span := tracer.Start(ctx, "SQL.CreateMembership")
	defer span.End()

	_, err := s.exec(ctx, s.db,
		`INSERT INTO company_members (id, company_id, user_id, role, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.CompanyID, m.UserID, m.Role, m.IsActive, m.CreatedAt.UTC())
	return s.dbError(err)
}
