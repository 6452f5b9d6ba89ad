package handler

import (
	"net/http"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Products — /v1/products
// ============================================================

func listProductsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListProducts(r.Context(), TenantFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if products == nil {
			products = []domain.Product{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	}
}

func getProductHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetProduct(r.Context(), TenantFromContext(r.Context()), chi.URLParam(r, "productId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func createProductHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.ProductInput
		if !decodeJSON(w, r, &in) {
			return
		}
		p, err := svc.CreateProduct(r.Context(), TenantFromContext(r.Context()), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func updateProductHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.ProductInput
		if !decodeJSON(w, r, &in) {
			return
		}
		p, err := svc.UpdateProduct(r.Context(), TenantFromContext(r.Context()), chi.URLParam(r, "productId"), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// ============================================================
// Clients — /v1/clients
// ============================================================

func listCustomersHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customers, err := svc.ListCustomers(r.Context(), TenantFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if customers == nil {
			customers = []domain.Customer{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"clients": customers})
	}
}

func createCustomerHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.CustomerInput
		if !decodeJSON(w, r, &in) {
			return
		}
		c, err := svc.CreateCustomer(r.Context(), TenantFromContext(r.Context()), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// ============================================================
// Promotions — /v1/promotions
// ============================================================

func listPromotionsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promotions, err := svc.ListPromotions(r.Context(), TenantFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if promotions == nil {
			promotions = []domain.Promotion{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"promotions": promotions})
	}
}

func createPromotionHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.PromotionInput
		if !decodeJSON(w, r, &in) {
			return
		}
		p, err := svc.CreatePromotion(r.Context(), TenantFromContext(r.Context()), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

// ============================================================
// Sales & invoices
// ============================================================

// listSalesHandler supports ?since=YYYY-MM-DD plus page/page_size.
func listSalesHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, pageSize := parsePagination(r)
		q := domain.SalesQuery{Page: page, PageSize: pageSize}
		if v := r.URL.Query().Get("since"); v != "" {
			since, err := time.Parse(domain.DateLayout, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
				return
			}
			q.Since = &since
		}

		sales, err := svc.ListSales(r.Context(), TenantFromContext(r.Context()), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if sales == nil {
			sales = []domain.Sale{}
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Sale]{
			Data:     sales,
			Page:     page,
			PageSize: pageSize,
			HasMore:  len(sales) == pageSize,
		})
	}
}

func getSaleHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := svc.GetSale(r.Context(), TenantFromContext(r.Context()), chi.URLParam(r, "saleId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func listInvoicesHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := domain.InvoiceStatus(r.URL.Query().Get("status"))
		invoices, err := svc.ListInvoices(r.Context(), TenantFromContext(r.Context()), status)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if invoices == nil {
			invoices = []domain.Invoice{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
	}
}
