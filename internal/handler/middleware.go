package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	tenantKey    contextKey = "tenant"
)

// CompanyHeader carries the company the client wants to act for.
const CompanyHeader = "X-Company-Id"

// JWTAuthMiddleware validates Bearer tokens and injects the Principal into context.
func JWTAuthMiddleware(verifier *service.TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("auth: missing token", zap.String("path", r.URL.Path))
				writeRedirectError(w, http.StatusUnauthorized, "authentication required", service.RedirectAuth)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeRedirectError(w, http.StatusUnauthorized, "invalid authorization header", service.RedirectAuth)
				return
			}

			principal, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeRedirectError(w, http.StatusUnauthorized, err.Error(), service.RedirectAuth)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestedCompany returns the company id the client asked for, if any.
func requestedCompany(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(CompanyHeader)); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get("company_id"))
}

// RequireTenant resolves the caller's company and checks that its role may
// open page. It must run after JWTAuthMiddleware.
func RequireTenant(guard *service.TenantGuard, page domain.Page, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access := guard.Resolve(r.Context(), PrincipalFromContext(r.Context()), requestedCompany(r))
			if err := service.Authorize(access, page); err != nil {
				handleServiceError(w, err, logger)
				return
			}
			ctx := context.WithValue(r.Context(), tenantKey, access.Tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the authenticated principal, or nil.
func PrincipalFromContext(ctx context.Context) *domain.Principal {
	p, _ := ctx.Value(principalKey).(*domain.Principal)
	return p
}

// TenantFromContext returns the resolved tenant scope, or nil.
func TenantFromContext(ctx context.Context) *domain.TenantContext {
	tc, _ := ctx.Value(tenantKey).(*domain.TenantContext)
	return tc
}
