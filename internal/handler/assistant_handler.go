package handler

import (
	"net/http"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/service"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Dashboard — GET /v1/dashboard
// ============================================================

func dashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context(), TenantFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// ============================================================
// AI assistant — POST /v1/assistant
// ============================================================

func assistantHandler(svc *service.Assistant, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/assistant")
		defer span.End()

		tc := TenantFromContext(ctx)
		span.SetAttributes(attribute.String("company.id", tc.TenantID))

		var req domain.AssistantRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, err := svc.Ask(ctx, tc, req.Message)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		convID := req.ConversationID
		if convID == "" {
			convID = uuid.New().String()
		}

		tokens := result.Answer.TokensUsed
		writeJSON(w, http.StatusOK, domain.AssistantResponse{
			ConversationID: convID,
			Message: &domain.AssistantMessage{
				ID:        uuid.New().String(),
				Role:      "assistant",
				Content:   result.Answer.Answer,
				Timestamp: result.ProcessedAt.Format(time.RFC3339),
				Sources:   result.Answer.Sources,
				Tokens:    &tokens,
			},
		})
	}
}
