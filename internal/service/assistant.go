package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/observability"
	"github.com/fluxiabiz/fluxiabiz-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/assistant")

// snapshotter provides the tenant overview handed to the agent.
type snapshotter interface {
	Summary(ctx context.Context, tc *domain.TenantContext) (*domain.DashboardSummary, error)
}

// Assistant answers business questions by sending the tenant snapshot and
// the question to the AI agent.
type Assistant struct {
	dashboard   snapshotter
	agentClient port.AgentCaller
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewAssistant creates the assistant service with all dependencies injected.
func NewAssistant(
	dashboard snapshotter,
	agent port.AgentCaller,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Assistant {
	return &Assistant{
		dashboard:   dashboard,
		agentClient: agent,
		metrics:     metrics,
		logger:      logger,
	}
}

// Ask builds the tenant snapshot, then calls the AI agent.
func (a *Assistant) Ask(ctx context.Context, tc *domain.TenantContext, message string) (*domain.AssistantResult, error) {
	// Bail out early if the caller already cancelled.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "Assistant.Ask")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", tc.TenantID))

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, &domain.ErrValidation{Field: "message", Message: "required"}
	}

	start := time.Now()
	defer func() {
		a.metrics.RecordRequestDuration("assistant", time.Since(start))
	}()

	// --- Step 1: tenant snapshot (cached by the dashboard) ---
	snapshot, err := a.dashboard.Summary(ctx, tc)
	if err != nil {
		a.metrics.IncrAssistant("error")
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	// --- Step 2: call the agent ---
	agentStart := time.Now()
	agentResp, err := a.agentClient.Call(ctx, &domain.AgentRequest{
		CompanyID: tc.TenantID,
		UserID:    tc.PrincipalID,
		Role:      tc.Role,
		Snapshot:  snapshot,
		Query:     message,
	})
	a.metrics.RecordRequestDuration("agent", time.Since(agentStart))
	if err != nil {
		a.logger.Error("agent call failed",
			append(observability.TenantFields(tc), zap.Error(err))...,
		)
		a.metrics.IncrExternalError("agent")
		a.metrics.IncrAssistant("error")
		return nil, fmt.Errorf("agent call: %w", err)
	}

	// --- Step 3: record token metrics ---
	a.metrics.RecordTokens(agentResp.TokensUsed.PromptTokens, agentResp.TokensUsed.CompletionTokens)
	a.metrics.IncrAssistant("success")

	return &domain.AssistantResult{
		CompanyID:   tc.TenantID,
		Snapshot:    snapshot,
		Answer:      agentResp,
		ProcessedAt: time.Now(),
	}, nil
}
