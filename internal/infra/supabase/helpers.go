package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/resilience"
)

// PostgREST helpers. Every helper returns domain errors wrapped Permanent so
// execute can pass them through.

func restPath(table string, params url.Values) string {
	if len(params) == 0 {
		return "rest/v1/" + table
	}
	return "rest/v1/" + table + "?" + params.Encode()
}

func eq(v string) string { return "eq." + v }

func (c *Client) selectRows(ctx context.Context, table string, params url.Values, out any) error {
	body, err := c.doRequest(ctx, http.MethodGet, restPath(table, params), c.serviceRoleKey, nil, "")
	if err != nil {
		return translate(err)
	}
	if len(body) == 0 {
		body = []byte("[]")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resilience.Permanent(fmt.Errorf("decode %s: %w", table, err))
	}
	return nil
}

func (c *Client) insertRow(ctx context.Context, table string, row any) error {
	_, err := c.doRequest(ctx, http.MethodPost, restPath(table, nil), c.serviceRoleKey, row, "return=minimal")
	return translate(err)
}

// patchRows applies data to the rows matching params and returns how many changed.
func (c *Client) patchRows(ctx context.Context, table string, params url.Values, data map[string]any) (int, error) {
	params.Set("select", "id")
	body, err := c.doRequest(ctx, http.MethodPatch, restPath(table, params), c.serviceRoleKey, data, "return=representation")
	if err != nil {
		return 0, translate(err)
	}
	var rows []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, resilience.Permanent(fmt.Errorf("decode %s patch: %w", table, err))
	}
	return len(rows), nil
}

func (c *Client) deleteRows(ctx context.Context, table string, params url.Values) error {
	_, err := c.doRequest(ctx, http.MethodDelete, restPath(table, params), c.serviceRoleKey, nil, "return=minimal")
	return translate(err)
}

func (c *Client) rpc(ctx context.Context, function string, args any, out any) error {
	body, err := c.doRequest(ctx, http.MethodPost, "rest/v1/rpc/"+function, c.serviceRoleKey, args, "")
	if err != nil {
		return translate(err)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resilience.Permanent(fmt.Errorf("decode rpc %s: %w", function, err))
	}
	return nil
}

// translate maps PostgREST error payloads to domain errors.
// Database functions raise "insufficient_stock:<product_id>" and
// "promotion_unavailable:<promotion_id>".
func translate(err error) error {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case strings.HasPrefix(apiErr.Message, "insufficient_stock:"):
		id := strings.TrimPrefix(apiErr.Message, "insufficient_stock:")
		return resilience.Permanent(&domain.ErrInsufficientStock{ProductID: id})
	case strings.HasPrefix(apiErr.Message, "promotion_unavailable:"):
		id := strings.TrimPrefix(apiErr.Message, "promotion_unavailable:")
		return resilience.Permanent(&domain.ErrPromotionUnavailable{PromotionID: id, Reason: "usage limit reached"})
	case apiErr.Status == http.StatusConflict || apiErr.Code == "23505":
		return resilience.Permanent(&domain.ErrConflict{Message: "resource already exists"})
	}
	return err
}
