package handler

import (
	"net/http"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Onboarding — POST /v1/companies
// ============================================================

func createCompanyHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies")
		defer span.End()

		var req domain.CreateCompanyRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		company, owner, err := svc.CreateCompany(ctx, PrincipalFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"company":    company,
			"membership": owner,
		})
	}
}

func getCompanyHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company, err := svc.GetCompany(r.Context(), TenantFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, company)
	}
}

// ============================================================
// Team — /v1/team
// ============================================================

func listMembersHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members, err := svc.ListMembers(r.Context(), TenantFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if members == nil {
			members = []domain.Membership{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"members": members})
	}
}

func deactivateMemberHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "membershipId")
		if err := svc.DeactivateMember(r.Context(), TenantFromContext(r.Context()), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "member deactivated", ID: id})
	}
}

// ============================================================
// Invitation workflow (edge functions)
// ============================================================

func inviteMemberHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.InviteMemberRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		resp, err := svc.InviteMember(r.Context(), TenantFromContext(r.Context()), PrincipalFromContext(r.Context()), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func requestMembershipHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.MembershipRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		resp, err := svc.RequestMembership(r.Context(), PrincipalFromContext(r.Context()), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, resp)
	}
}

func handleMembershipRequestHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.HandleMembershipRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		req.RequestID = chi.URLParam(r, "requestId")
		resp, err := svc.HandleMembershipRequest(r.Context(), TenantFromContext(r.Context()), PrincipalFromContext(r.Context()), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
