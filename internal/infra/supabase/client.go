// Package supabase provides the hosted backend adapter: PostgREST for
// tables and RPCs, and edge functions for the membership workflows.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	bulkhead       *resilience.Bulkhead
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client. Table access uses the service role
// key; edge functions are called with the caller's own access token.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		bulkhead:       resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:            cfg,
		logger:         logger,
	}
}

// apiError is a non-2xx answer. PostgREST fills Code/Message/Details/Hint.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("supabase returned status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase returned status %d", e.Status)
}

// doRequest executes one HTTP request against path (relative to the project
// URL) and returns the response body. 4xx answers come back Permanent so
// neither the retry loop nor the breaker treats them as outages.
func (c *Client) doRequest(ctx context.Context, method, path, bearer string, payload any, prefer string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, resilience.Permanent(fmt.Errorf("encode %s body: %w", path, err))
		}
		reader = bytes.NewReader(raw)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, resilience.Permanent(err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, resilience.Permanent(apiErr)
		}
		return nil, apiErr
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return body, nil
}

// execute runs fn behind the bulkhead and circuit breaker, optionally with
// retries. Domain errors returned by fn pass through untouched; transport
// and API failures become ErrExternalService or ErrCircuitOpen.
func (c *Client) execute(ctx context.Context, service string, retry bool, fn func() error) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrTimeout{Operation: service}
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		if !retry {
			return nil, fn()
		}
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
	if err == nil {
		return nil
	}
	if resilience.IsBreakerOpen(err) {
		return &domain.ErrCircuitOpen{Service: service}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ErrTimeout{Operation: service}
	}
	if isDomainError(err) {
		return unwrapPermanent(err)
	}
	return &domain.ErrExternalService{Service: service, Err: err}
}

func unwrapPermanent(err error) error {
	if resilience.IsPermanent(err) {
		if inner := errors.Unwrap(err); inner != nil {
			return inner
		}
	}
	return err
}

func isDomainError(err error) bool {
	var (
		notFound  *domain.ErrNotFound
		stock     *domain.ErrInsufficientStock
		promo     *domain.ErrPromotionUnavailable
		valid     *domain.ErrValidation
		forbidden *domain.ErrForbidden
		conflict  *domain.ErrConflict
		unauth    *domain.ErrUnauthorized
	)
	return errors.As(err, &notFound) || errors.As(err, &stock) || errors.As(err, &promo) ||
		errors.As(err, &valid) || errors.As(err, &forbidden) || errors.As(err, &conflict) ||
		errors.As(err, &unauth)
}

// Ping checks that PostgREST answers with the service key.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	_, err := c.doRequest(ctx, http.MethodGet, "rest/v1/companies?select=id&limit=1", c.serviceRoleKey, nil, "")
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase", Err: unwrapPermanent(err)}
	}
	return nil
}
