package service

import (
	"context"
	"errors"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/observability"
	"github.com/fluxiabiz/fluxiabiz-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var guardTracer = otel.Tracer("service/guard")

const (
	RedirectAuth       = "/auth"
	RedirectOnboarding = "/onboarding"
)

// TenantGuard decides which company a request acts for. Memberships are
// re-read on every call.
type TenantGuard struct {
	store   port.MembershipStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewTenantGuard creates the guard.
func NewTenantGuard(store port.MembershipStore, metrics *observability.Metrics, logger *zap.Logger) *TenantGuard {
	return &TenantGuard{store: store, metrics: metrics, logger: logger}
}

// Resolve maps a principal and an optional requested company id to an access state.
// The requested company wins when the principal holds an active membership in
// it; otherwise the first active membership is used.
func (g *TenantGuard) Resolve(ctx context.Context, principal *domain.Principal, requestedTenantID string) *domain.Access {
	ctx, span := guardTracer.Start(ctx, "TenantGuard.Resolve")
	defer span.End()

	access := g.resolve(ctx, principal, requestedTenantID)
	span.SetAttributes(attribute.String("access.state", string(access.State)))
	g.metrics.IncrAccess(access.State)
	return access
}

func (g *TenantGuard) resolve(ctx context.Context, principal *domain.Principal, requestedTenantID string) *domain.Access {
	if principal == nil || principal.ID == "" {
		return &domain.Access{State: domain.AccessUnauthenticated, Redirect: RedirectAuth}
	}

	memberships, err := g.store.ListActiveMemberships(ctx, principal.ID)
	if err != nil {
		g.logger.Error("tenant resolution: membership lookup failed",
			zap.String("user_id", principal.ID),
			zap.Error(err),
		)
		g.metrics.IncrExternalError("memberships")
		return &domain.Access{State: domain.AccessUnavailable}
	}

	active := memberships[:0:0]
	for _, m := range memberships {
		if m.IsActive {
			active = append(active, m)
		}
	}
	if len(active) == 0 {
		return &domain.Access{State: domain.AccessOnboarding, Redirect: RedirectOnboarding, Memberships: []domain.Membership{}}
	}

	chosen := active[0]
	if requestedTenantID != "" {
		for _, m := range active {
			if m.CompanyID == requestedTenantID {
				chosen = m
				break
			}
		}
	}

	return &domain.Access{
		State: domain.AccessAuthorized,
		Tenant: &domain.TenantContext{
			TenantID:     chosen.CompanyID,
			PrincipalID:  principal.ID,
			MembershipID: chosen.ID,
			Role:         chosen.Role,
		},
		Memberships: active,
	}
}

// Authorize turns an access outcome into an error for page, or nil when the
// tenant's role may view it.
func Authorize(access *domain.Access, page domain.Page) error {
	switch access.State {
	case domain.AccessUnauthenticated:
		return &domain.ErrUnauthorized{Message: "authentication required"}
	case domain.AccessOnboarding:
		return &domain.ErrOnboardingRequired{}
	case domain.AccessUnavailable:
		return &domain.ErrExternalService{Service: "memberships", Err: errMembershipsUnavailable}
	}
	if access.Tenant == nil {
		return &domain.ErrUnauthorized{Message: "no tenant"}
	}
	if !domain.CanView(access.Tenant.Role, page) {
		return &domain.ErrForbidden{Action: "view " + string(page)}
	}
	return nil
}

var errMembershipsUnavailable = errors.New("membership store unavailable")
