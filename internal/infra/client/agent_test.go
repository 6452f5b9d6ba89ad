package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/client"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/resilience"
)

func TestAgentClient_Call(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/agent/invoke" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req domain.AgentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.CompanyID != "c1" || req.Query != "how are sales?" {
			t.Errorf("unexpected request %+v", req)
		}
		_ = json.NewEncoder(w).Encode(domain.AgentResponse{
			Answer:     "Sales are up",
			TokensUsed: domain.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		})
	}))
	defer srv.Close()

	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}
	c := client.NewAgentClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("agent-test"), cfg)

	resp, err := c.Call(context.Background(), &domain.AgentRequest{CompanyID: "c1", Query: "how are sales?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "Sales are up" || resp.TokensUsed.TotalTokens != 15 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestAgentClient_ClientErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond}
	c := client.NewAgentClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("agent-test"), cfg)

	_, err := c.Call(context.Background(), &domain.AgentRequest{CompanyID: "c1"})
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
