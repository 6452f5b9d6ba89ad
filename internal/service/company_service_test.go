package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/service"

	"go.uber.org/zap"
)

func TestCreateCompany_OwnerMembership(t *testing.T) {
	store := newFakeStore()
	svc := service.NewCompanyService(store, &mockFunctions{}, zap.NewNop())

	company, owner, err := svc.CreateCompany(context.Background(), &domain.Principal{ID: "u-1"}, &domain.CreateCompanyRequest{Name: "  Boutique Akwa "})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if company.Name != "Boutique Akwa" || company.CreatedBy != "u-1" {
		t.Errorf("unexpected company: %+v", company)
	}
	if owner.CompanyID != company.ID || owner.Role != domain.RoleOwner || !owner.IsActive {
		t.Errorf("unexpected owner membership: %+v", owner)
	}

	// The new company is immediately resolvable.
	guard, _ := newGuard(store)
	access := guard.Resolve(context.Background(), &domain.Principal{ID: "u-1"}, "")
	if access.State != domain.AccessAuthorized || access.Tenant.TenantID != company.ID {
		t.Errorf("expected access to the new company, got %+v", access)
	}
}

func TestCreateCompany_RemovesCompanyWhenMembershipFails(t *testing.T) {
	store := newFakeStore()
	store.createMembershipErr = errors.New("insert failed")
	svc := service.NewCompanyService(store, &mockFunctions{}, zap.NewNop())

	_, _, err := svc.CreateCompany(context.Background(), &domain.Principal{ID: "u-1"}, &domain.CreateCompanyRequest{Name: "Akwa"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.deletedCompanies) != 1 || len(store.companies) != 0 {
		t.Errorf("expected the company to be removed, deleted=%v left=%d", store.deletedCompanies, len(store.companies))
	}
}

func TestCreateCompany_NameRequired(t *testing.T) {
	svc := service.NewCompanyService(newFakeStore(), &mockFunctions{}, zap.NewNop())
	_, _, err := svc.CreateCompany(context.Background(), &domain.Principal{ID: "u-1"}, &domain.CreateCompanyRequest{Name: " "})
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeactivateMember(t *testing.T) {
	newStore := func() *fakeStore {
		store := newFakeStore()
		store.memberships = []domain.Membership{
			{ID: "m-1", CompanyID: "co-1", UserID: "u-1", Role: domain.RoleOwner, IsActive: true},
			{ID: "m-2", CompanyID: "co-1", UserID: "u-2", Role: domain.RoleEmployee, IsActive: true},
		}
		return store
	}
	owner := &domain.TenantContext{TenantID: "co-1", PrincipalID: "u-1", MembershipID: "m-1", Role: domain.RoleOwner}

	t.Run("owner deactivates employee", func(t *testing.T) {
		store := newStore()
		svc := service.NewCompanyService(store, &mockFunctions{}, zap.NewNop())
		if err := svc.DeactivateMember(context.Background(), owner, "m-2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if store.memberships[1].IsActive {
			t.Error("membership should be inactive")
		}
	})

	t.Run("last owner is kept", func(t *testing.T) {
		svc := service.NewCompanyService(newStore(), &mockFunctions{}, zap.NewNop())
		err := svc.DeactivateMember(context.Background(), owner, "m-1")
		var ce *domain.ErrConflict
		if !errors.As(err, &ce) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("employee may not deactivate", func(t *testing.T) {
		svc := service.NewCompanyService(newStore(), &mockFunctions{}, zap.NewNop())
		employee := &domain.TenantContext{TenantID: "co-1", PrincipalID: "u-2", Role: domain.RoleEmployee}
		err := svc.DeactivateMember(context.Background(), employee, "m-1")
		var fe *domain.ErrForbidden
		if !errors.As(err, &fe) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("other company membership is not found", func(t *testing.T) {
		store := newStore()
		store.memberships = append(store.memberships, domain.Membership{ID: "m-9", CompanyID: "co-9", UserID: "u-9", Role: domain.RoleEmployee, IsActive: true})
		svc := service.NewCompanyService(store, &mockFunctions{}, zap.NewNop())
		err := svc.DeactivateMember(context.Background(), owner, "m-9")
		var nf *domain.ErrNotFound
		if !errors.As(err, &nf) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestInviteMember(t *testing.T) {
	principal := &domain.Principal{ID: "u-1", AccessToken: "user-jwt"}

	t.Run("manager invites employee by default", func(t *testing.T) {
		fn := &mockFunctions{resp: &domain.FunctionResponse{Success: true, Message: "invited"}}
		svc := service.NewCompanyService(newFakeStore(), fn, zap.NewNop())
		tc := &domain.TenantContext{TenantID: "co-1", PrincipalID: "u-1", Role: domain.RoleManager}

		resp, err := svc.InviteMember(context.Background(), tc, principal, &domain.InviteMemberRequest{Email: "a@b.cm"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !resp.Success {
			t.Error("expected success")
		}
		if fn.lastToken != "user-jwt" {
			t.Errorf("expected the caller's token to be forwarded, got %q", fn.lastToken)
		}
		if fn.lastInvite.CompanyID != "co-1" || fn.lastInvite.Role != domain.RoleEmployee {
			t.Errorf("unexpected forwarded request: %+v", fn.lastInvite)
		}
	})

	t.Run("manager may not invite owner", func(t *testing.T) {
		svc := service.NewCompanyService(newFakeStore(), &mockFunctions{}, zap.NewNop())
		tc := &domain.TenantContext{TenantID: "co-1", Role: domain.RoleManager}
		_, err := svc.InviteMember(context.Background(), tc, principal, &domain.InviteMemberRequest{Email: "a@b.cm", Role: domain.RoleOwner})
		var fe *domain.ErrForbidden
		if !errors.As(err, &fe) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("employee may not invite", func(t *testing.T) {
		svc := service.NewCompanyService(newFakeStore(), &mockFunctions{}, zap.NewNop())
		tc := &domain.TenantContext{TenantID: "co-1", Role: domain.RoleEmployee}
		_, err := svc.InviteMember(context.Background(), tc, principal, &domain.InviteMemberRequest{Email: "a@b.cm"})
		var fe *domain.ErrForbidden
		if !errors.As(err, &fe) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})
}

func TestHandleMembershipRequest_Action(t *testing.T) {
	fn := &mockFunctions{resp: &domain.FunctionResponse{Success: true}}
	svc := service.NewCompanyService(newFakeStore(), fn, zap.NewNop())
	tc := &domain.TenantContext{TenantID: "co-1", Role: domain.RoleOwner}
	principal := &domain.Principal{ID: "u-1", AccessToken: "jwt"}

	_, err := svc.HandleMembershipRequest(context.Background(), tc, principal, &domain.HandleMembershipRequest{RequestID: "r-1", Action: "maybe"})
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := svc.HandleMembershipRequest(context.Background(), tc, principal, &domain.HandleMembershipRequest{RequestID: "r-1", Action: "approve", Role: domain.RoleManager}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if fn.lastHandle.Action != "approve" {
		t.Errorf("unexpected forwarded request: %+v", fn.lastHandle)
	}
}
