package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/resilience"
)

// ============================================================
// Edge functions (membership workflows)
// ============================================================

// Functions calls the invitation and membership-request edge functions.
// Calls carry the caller's access token so the functions authorize the
// principal themselves.
type Functions struct {
	client *Client
}

// NewFunctions returns the edge function caller sharing client's transport and breaker.
func NewFunctions(client *Client) *Functions {
	return &Functions{client: client}
}

func (f *Functions) InviteMember(ctx context.Context, accessToken string, req *domain.InviteMemberRequest) (*domain.FunctionResponse, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InviteMember")
	defer span.End()
	return f.invoke(ctx, "invite_member", accessToken, req)
}

func (f *Functions) RequestMembership(ctx context.Context, accessToken string, req *domain.MembershipRequest) (*domain.FunctionResponse, error) {
	ctx, span := tracer.Start(ctx, "Supabase.RequestMembership")
	defer span.End()
	return f.invoke(ctx, "request_membership", accessToken, req)
}

func (f *Functions) HandleMembershipRequest(ctx context.Context, accessToken string, req *domain.HandleMembershipRequest) (*domain.FunctionResponse, error) {
	ctx, span := tracer.Start(ctx, "Supabase.HandleMembershipRequest")
	defer span.End()
	return f.invoke(ctx, "handle_membership_request", accessToken, req)
}

func (f *Functions) invoke(ctx context.Context, name, accessToken string, payload any) (*domain.FunctionResponse, error) {
	if accessToken == "" {
		return nil, &domain.ErrUnauthorized{Message: "missing access token"}
	}

	var out domain.FunctionResponse
	err := f.client.execute(ctx, "supabase/functions/"+name, false, func() error {
		body, err := f.client.doRequest(ctx, http.MethodPost, "functions/v1/"+name, accessToken, payload, "")
		if err != nil {
			return functionError(err)
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return resilience.Permanent(fmt.Errorf("decode %s response: %w", name, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &domain.ErrValidation{Field: name, Message: out.Message}
	}
	return &out, nil
}

// functionError maps the status of a failed function call to a domain error.
// Functions answer {"success":false,"message":"..."}; apiError picks up the message.
func functionError(err error) error {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := apiErr.Message
	if msg == "" {
		msg = http.StatusText(apiErr.Status)
	}
	switch apiErr.Status {
	case http.StatusUnauthorized:
		return resilience.Permanent(&domain.ErrUnauthorized{Message: msg})
	case http.StatusForbidden:
		return resilience.Permanent(&domain.ErrForbidden{Action: msg})
	case http.StatusNotFound:
		return resilience.Permanent(&domain.ErrNotFound{Resource: "membership request", ID: msg})
	case http.StatusConflict:
		return resilience.Permanent(&domain.ErrConflict{Message: msg})
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return resilience.Permanent(&domain.ErrValidation{Field: "request", Message: msg})
	}
	return err
}
