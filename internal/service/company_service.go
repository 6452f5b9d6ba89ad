package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var companyTracer = otel.Tracer("service/company")

// CompanyService handles onboarding, the team and the membership workflows.
type CompanyService struct {
	store     port.MembershipStore
	functions port.MembershipFunctions
	logger    *zap.Logger
	now       func() time.Time
}

// NewCompanyService creates the company service.
func NewCompanyService(store port.MembershipStore, functions port.MembershipFunctions, logger *zap.Logger) *CompanyService {
	return &CompanyService{store: store, functions: functions, logger: logger, now: time.Now}
}

// CreateCompany creates a company and makes the principal its active owner.
// If the owner membership cannot be written the company row is removed again.
func (s *CompanyService) CreateCompany(ctx context.Context, principal *domain.Principal, req *domain.CreateCompanyRequest) (*domain.Company, *domain.Membership, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.CreateCompany")
	defer span.End()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}

	now := s.now().UTC()
	company := &domain.Company{
		ID:        uuid.NewString(),
		Name:      name,
		LogoURL:   req.LogoURL,
		BannerURL: req.BannerURL,
		CreatedBy: principal.ID,
		CreatedAt: now,
	}
	if err := s.store.CreateCompany(ctx, company); err != nil {
		return nil, nil, fmt.Errorf("create company: %w", err)
	}

	owner := &domain.Membership{
		ID:        uuid.NewString(),
		CompanyID: company.ID,
		UserID:    principal.ID,
		Role:      domain.RoleOwner,
		IsActive:  true,
		CreatedAt: now,
	}
	if err := s.store.CreateMembership(ctx, owner); err != nil {
		if delErr := s.store.DeleteCompany(context.WithoutCancel(ctx), company.ID); delErr != nil {
			s.logger.Error("onboarding: compensation failed, orphan company left",
				zap.String("company_id", company.ID),
				zap.Error(delErr),
			)
		}
		return nil, nil, fmt.Errorf("create owner membership: %w", err)
	}

	s.logger.Info("company created",
		zap.String("company_id", company.ID),
		zap.String("user_id", principal.ID),
	)
	return company, owner, nil
}

// GetCompany returns the tenant's company.
func (s *CompanyService) GetCompany(ctx context.Context, tc *domain.TenantContext) (*domain.Company, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.GetCompany")
	defer span.End()
	return s.store.GetCompany(ctx, tc.TenantID)
}

// ListMembers returns every membership of the tenant, active or not.
func (s *CompanyService) ListMembers(ctx context.Context, tc *domain.TenantContext) ([]domain.Membership, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.ListMembers")
	defer span.End()
	return s.store.ListCompanyMembers(ctx, tc.TenantID)
}

// DeactivateMember marks a membership inactive. Only owners may do it, and
// the last active owner cannot be deactivated.
func (s *CompanyService) DeactivateMember(ctx context.Context, tc *domain.TenantContext, membershipID string) error {
	ctx, span := companyTracer.Start(ctx, "CompanyService.DeactivateMember")
	defer span.End()
	span.SetAttributes(attribute.String("membership.id", membershipID))

	if tc.Role != domain.RoleOwner {
		return &domain.ErrForbidden{Action: "deactivate member"}
	}

	target, err := s.store.GetMembership(ctx, tc.TenantID, membershipID)
	if err != nil {
		return err
	}
	if !target.IsActive {
		return nil
	}
	if target.Role == domain.RoleOwner {
		members, err := s.store.ListCompanyMembers(ctx, tc.TenantID)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}
		owners := 0
		for _, m := range members {
			if m.IsActive && m.Role == domain.RoleOwner {
				owners++
			}
		}
		if owners <= 1 {
			return &domain.ErrConflict{Message: "cannot deactivate the last owner"}
		}
	}

	if err := s.store.DeactivateMembership(ctx, tc.TenantID, membershipID); err != nil {
		return fmt.Errorf("deactivate membership: %w", err)
	}
	s.logger.Info("member deactivated",
		zap.String("company_id", tc.TenantID),
		zap.String("membership_id", membershipID),
		zap.String("by", tc.PrincipalID),
	)
	return nil
}

// ============================================================
// Invitation workflow (edge functions)
// ============================================================

// errNoFunctions is returned when the store has no edge functions (SQLite mode).
var errNoFunctions = &domain.ErrExternalService{Service: "membership-functions", Err: errors.New("not configured")}

func canManageTeam(role domain.Role) bool {
	return role == domain.RoleOwner || role == domain.RoleManager
}

// InviteMember invites an email address into the tenant.
func (s *CompanyService) InviteMember(ctx context.Context, tc *domain.TenantContext, principal *domain.Principal, req *domain.InviteMemberRequest) (*domain.FunctionResponse, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.InviteMember")
	defer span.End()

	if !canManageTeam(tc.Role) {
		return nil, &domain.ErrForbidden{Action: "invite member"}
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "required"}
	}
	if req.Role == "" {
		req.Role = domain.RoleEmployee
	}
	if !req.Role.Valid() {
		return nil, &domain.ErrValidation{Field: "role", Message: "must be owner, manager or employee"}
	}
	if req.Role == domain.RoleOwner && tc.Role != domain.RoleOwner {
		return nil, &domain.ErrForbidden{Action: "invite owner"}
	}
	req.CompanyID = tc.TenantID
	if s.functions == nil {
		return nil, errNoFunctions
	}
	return s.functions.InviteMember(ctx, principal.AccessToken, req)
}

// RequestMembership asks to join a company. No tenant is needed.
func (s *CompanyService) RequestMembership(ctx context.Context, principal *domain.Principal, req *domain.MembershipRequest) (*domain.FunctionResponse, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.RequestMembership")
	defer span.End()

	if req.CompanyID == "" {
		return nil, &domain.ErrValidation{Field: "company_id", Message: "required"}
	}
	if s.functions == nil {
		return nil, errNoFunctions
	}
	return s.functions.RequestMembership(ctx, principal.AccessToken, req)
}

// HandleMembershipRequest approves or rejects a pending request.
func (s *CompanyService) HandleMembershipRequest(ctx context.Context, tc *domain.TenantContext, principal *domain.Principal, req *domain.HandleMembershipRequest) (*domain.FunctionResponse, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.HandleMembershipRequest")
	defer span.End()

	if !canManageTeam(tc.Role) {
		return nil, &domain.ErrForbidden{Action: "handle membership request"}
	}
	if req.RequestID == "" {
		return nil, &domain.ErrValidation{Field: "request_id", Message: "required"}
	}
	switch req.Action {
	case "approve":
		if req.Role != "" && !req.Role.Valid() {
			return nil, &domain.ErrValidation{Field: "role", Message: "must be owner, manager or employee"}
		}
	case "reject":
	default:
		return nil, &domain.ErrValidation{Field: "action", Message: "must be approve or reject"}
	}
	if s.functions == nil {
		return nil, errNoFunctions
	}
	return s.functions.HandleMembershipRequest(ctx, principal.AccessToken, req)
}
