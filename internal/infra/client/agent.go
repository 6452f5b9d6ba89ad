// Package client holds HTTP clients for downstream services.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// AgentClient calls the AI agent service.
type AgentClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewAgentClient creates a new AgentClient.
func NewAgentClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *AgentClient {
	return &AgentClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         cb,
		cfg:        cfg,
	}
}

// Call invokes the agent with the tenant snapshot and returns its answer.
func (c *AgentClient) Call(ctx context.Context, req *domain.AgentRequest) (*domain.AgentResponse, error) {
	ctx, span := tracer.Start(ctx, "AgentClient.Call")
	defer span.End()
	span.SetAttributes(
		attribute.String("company.id", req.CompanyID),
		attribute.String("user.role", string(req.Role)),
	)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode agent request: %w", err)
	}

	var agentResp domain.AgentResponse
	_, err = c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/v1/agent/invoke", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return resilience.Permanent(err)
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusOK:
			case resp.StatusCode >= 400 && resp.StatusCode < 500:
				return resilience.Permanent(fmt.Errorf("agent API returned status %d", resp.StatusCode))
			default:
				return fmt.Errorf("agent API returned status %d", resp.StatusCode)
			}

			if err := json.NewDecoder(resp.Body).Decode(&agentResp); err != nil {
				return resilience.Permanent(fmt.Errorf("decode agent response: %w", err))
			}
			return nil
		})
	})
	if resilience.IsBreakerOpen(err) {
		return nil, &domain.ErrCircuitOpen{Service: "agent"}
	}
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "agent", Err: err}
	}
	return &agentResp, nil
}
