package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/observability"
	"github.com/fluxiabiz/fluxiabiz-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// HealthCheck is a named dependency probe reported by /healthz.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Services bundles what the router serves. A nil Tokens or Guard leaves the
// /v1 API answering 503.
type Services struct {
	Tokens    *service.TokenVerifier
	Guard     *service.TenantGuard
	POS       *service.POSService
	Catalog   *service.CatalogService
	Company   *service.CompanyService
	Dashboard *service.DashboardService
	Assistant *service.Assistant

	Health             []HealthCheck
	CORSAllowedOrigins []string
	DevAuth            bool
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(s *Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", CompanyHeader, "Idempotency-Key"},
		ExposedHeaders:   []string{"Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(s.Health))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if s.Tokens == nil || s.Guard == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "api unavailable: store not configured")
			}))
			return
		}

		r.Get("/metrics/assistant", assistantMetricsHandler(metrics))

		if s.DevAuth {
			r.Post("/dev/token", devTokenHandler(s.Tokens, logger))
		}

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(s.Tokens, logger))
			page := func(p domain.Page) func(http.Handler) http.Handler {
				return RequireTenant(s.Guard, p, logger)
			}

			// Authenticated, no tenant required
			r.Get("/session", sessionHandler(s.Guard, logger))
			r.Post("/companies", createCompanyHandler(s.Company, logger))
			r.Post("/membership-requests", requestMembershipHandler(s.Company, logger))

			// Company
			r.With(page(domain.PageDashboard)).Get("/company", getCompanyHandler(s.Company, logger))
			r.With(page(domain.PageDashboard)).Get("/dashboard", dashboardHandler(s.Dashboard, logger))

			// Catalog
			r.Route("/products", func(r chi.Router) {
				r.Use(page(domain.PageProducts))
				r.Get("/", listProductsHandler(s.Catalog, logger))
				r.Post("/", createProductHandler(s.Catalog, logger))
				r.Get("/{productId}", getProductHandler(s.Catalog, logger))
				r.Put("/{productId}", updateProductHandler(s.Catalog, logger))
			})
			r.Route("/clients", func(r chi.Router) {
				r.Use(page(domain.PageClients))
				r.Get("/", listCustomersHandler(s.Catalog, logger))
				r.Post("/", createCustomerHandler(s.Catalog, logger))
			})
			r.Route("/promotions", func(r chi.Router) {
				r.Use(page(domain.PagePromotions))
				r.Get("/", listPromotionsHandler(s.Catalog, logger))
				r.Post("/", createPromotionHandler(s.Catalog, logger))
			})

			// Sales history
			r.With(page(domain.PageSales)).Get("/sales", listSalesHandler(s.Catalog, logger))
			r.With(page(domain.PageSales)).Get("/sales/{saleId}", getSaleHandler(s.Catalog, logger))
			r.With(page(domain.PageInvoices)).Get("/invoices", listInvoicesHandler(s.Catalog, logger))

			// Point of sale
			r.Route("/pos", func(r chi.Router) {
				r.Use(page(domain.PageSales))
				r.Get("/cart", getCartHandler(s.POS))
				r.Delete("/cart", clearCartHandler(s.POS))
				r.Post("/cart/lines", addLineHandler(s.POS, logger))
				r.Put("/cart/lines/{productId}/quantity", setQuantityHandler(s.POS, logger))
				r.Put("/cart/lines/{productId}/price", setUnitPriceHandler(s.POS, logger))
				r.Put("/cart/customer", setCustomerHandler(s.POS, logger))
				r.Put("/cart/promotion", setPromotionHandler(s.POS, logger))
				r.Put("/cart/adjustments", setAdjustmentsHandler(s.POS, logger))
				r.Post("/checkout", checkoutHandler(s.POS, s.Dashboard, logger))
			})

			// Team
			r.Route("/team", func(r chi.Router) {
				r.Use(page(domain.PageTeam))
				r.Get("/members", listMembersHandler(s.Company, logger))
				r.Post("/members/{membershipId}/deactivate", deactivateMemberHandler(s.Company, logger))
				r.Post("/invitations", inviteMemberHandler(s.Company, logger))
				r.Post("/requests/{requestId}", handleMembershipRequestHandler(s.Company, logger))
			})

			// Assistant
			r.With(page(domain.PageAssistant)).Post("/assistant", assistantHandler(s.Assistant, logger))
		})
	})

	return r
}

// ============================================================
// Health
// ============================================================

func healthzHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "fluxia-api", Status: "healthy", LastChecked: now},
		}
		overall := "healthy"
		for _, c := range checks {
			start := time.Now()
			err := c.Ping(ctx)
			sh := domain.ServiceHealth{
				Name:        c.Name,
				Status:      "healthy",
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			}
			if err != nil {
				sh.Status = "degraded"
				sh.Error = err.Error()
				overall = "degraded"
			}
			services = append(services, sh)
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func assistantMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.AssistantSnapshot())
	}
}

// ============================================================
// Session & dev tokens
// ============================================================

// sessionHandler reports where the client should navigate: the resolved
// company and role, or the page to redirect to.
func sessionHandler(guard *service.TenantGuard, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/session")
		defer span.End()

		access := guard.Resolve(ctx, PrincipalFromContext(ctx), requestedCompany(r))
		if access.State == domain.AccessUnavailable {
			handleServiceError(w, service.Authorize(access, domain.PageDashboard), logger)
			return
		}
		writeJSON(w, http.StatusOK, access)
	}
}

func devTokenHandler(tokens *service.TokenVerifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
			Email  string `json:"email"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		token, expires, err := tokens.SignDevToken(req.UserID, req.Email)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		logger.Info("dev token issued", zap.String("user_id", req.UserID))
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_at":   expires.UTC().Format(time.RFC3339),
		})
	}
}
