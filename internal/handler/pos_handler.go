package handler

import (
	"net/http"
	"strings"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Point of sale — /v1/pos
// ============================================================

func getCartHandler(pos *service.POSService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, pos.GetCart(r.Context(), TenantFromContext(r.Context())))
	}
}

func clearCartHandler(pos *service.POSService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, pos.ClearCart(r.Context(), TenantFromContext(r.Context())))
	}
}

func addLineHandler(pos *service.POSService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProductID string `json:"product_id"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.ProductID == "" {
			writeError(w, http.StatusBadRequest, "product_id is required")
			return
		}
		view, err := pos.AddLine(r.Context(), TenantFromContext(r.Context()), req.ProductID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func setQuantityHandler(pos *service.POSService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Quantity *int `json:"quantity"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Quantity == nil {
			writeError(w, http.StatusBadRequest, "quantity is required")
			return
		}
		view, err := pos.SetQuantity(r.Context(), TenantFromContext(r.Context()), chi.URLParam(r, "productId"), *req.Quantity)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func setUnitPriceHandler(pos *service.POSService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UnitPrice *decimal.Decimal `json:"unit_price"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.UnitPrice == nil {
			writeError(w, http.StatusBadRequest, "unit_price is required")
			return
		}
		view, err := pos.SetUnitPrice(r.Context(), TenantFromContext(r.Context()), chi.URLParam(r, "productId"), *req.UnitPrice)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func setCustomerHandler(pos *service.POSService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ClientID string `json:"client_id"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		view, err := pos.SetCustomer(r.Context(), TenantFromContext(r.Context()), req.ClientID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func setPromotionHandler(pos *service.POSService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PromotionID string `json:"promotion_id"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		view, err := pos.SetPromotion(r.Context(), TenantFromContext(r.Context()), req.PromotionID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func setAdjustmentsHandler(pos *service.POSService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CustomDiscountPercent *decimal.Decimal `json:"custom_discount_percent"`
			TaxPercent            *decimal.Decimal `json:"tax_percent"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		view, err := pos.SetAdjustments(r.Context(), TenantFromContext(r.Context()), req.CustomDiscountPercent, req.TaxPercent)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// checkoutHandler commits the cart. An Idempotency-Key header makes retries safe.
func checkoutHandler(pos *service.POSService, dashboard *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/pos/checkout")
		defer span.End()

		tc := TenantFromContext(ctx)
		var req domain.CheckoutRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		span.SetAttributes(attribute.Bool("idempotent", key != ""))

		result, err := pos.Checkout(ctx, tc, &req, key)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if result.Replayed {
			w.Header().Set("Idempotent-Replayed", "true")
			writeJSON(w, http.StatusOK, result.Receipt)
			return
		}

		if dashboard != nil {
			dashboard.Invalidate(tc)
		}
		writeJSON(w, http.StatusCreated, result.Receipt)
	}
}
