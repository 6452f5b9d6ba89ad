package domain

import "time"

// Principal is an authenticated user identity issued by the hosted auth service.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`

	// AccessToken is the raw bearer token, forwarded to edge functions.
	AccessToken string `json:"-"`
}

// Company is the tenant that owns all business data.
type Company struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	LogoURL   string    `json:"logo_url" db:"logo_url"`
	BannerURL string    `json:"banner_url" db:"banner_url"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Role is a principal's role inside a company.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Membership binds a principal to a company with a role.
type Membership struct {
	ID        string    `json:"id" db:"id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TenantContext is the resolved company scope threaded through every tenant operation.
type TenantContext struct {
	TenantID     string `json:"company_id"`
	PrincipalID  string `json:"user_id"`
	MembershipID string `json:"membership_id"`
	Role         Role   `json:"role"`
}

// AccessState is the terminal state of a tenant resolution.
type AccessState string

const (
	AccessUnauthenticated AccessState = "unauthenticated"
	AccessOnboarding      AccessState = "onboarding"
	AccessAuthorized      AccessState = "authorized"
	// AccessUnavailable means the membership store could not be read.
	AccessUnavailable AccessState = "unavailable"
)

// Access is the outcome of resolving the current tenant for a principal.
type Access struct {
	State       AccessState    `json:"state"`
	Redirect    string         `json:"redirect,omitempty"`
	Tenant      *TenantContext `json:"tenant,omitempty"`
	Memberships []Membership   `json:"memberships,omitempty"`
}

// Page identifies a protected area of the application.
type Page string

const (
	PageDashboard  Page = "dashboard"
	PageProducts   Page = "products"
	PageClients    Page = "clients"
	PagePromotions Page = "promotions"
	PageSales      Page = "sales"
	PageInvoices   Page = "invoices"
	PageAssistant  Page = "assistant"
	PageTeam       Page = "team"
	PageReports    Page = "reports"
	PageSettings   Page = "settings"
)

var pageRoles = map[Page][]Role{
	PageTeam:     {RoleOwner, RoleManager},
	PageReports:  {RoleOwner, RoleManager},
	PageSettings: {RoleOwner},
}

// CanView reports whether role may open page. Pages without an entry are open to every member.
func CanView(role Role, page Page) bool {
	if !role.Valid() {
		return false
	}
	allowed, ok := pageRoles[page]
	if !ok {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// CreateCompanyRequest is the onboarding payload.
type CreateCompanyRequest struct {
	Name      string `json:"name"`
	LogoURL   string `json:"logo_url"`
	BannerURL string `json:"banner_url"`
}

// InviteMemberRequest is forwarded to the invite_member edge function.
type InviteMemberRequest struct {
	CompanyID string `json:"company_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// MembershipRequest is forwarded to the request_membership edge function.
type MembershipRequest struct {
	CompanyID string `json:"company_id"`
	Message   string `json:"message,omitempty"`
}

// HandleMembershipRequest is forwarded to the handle_membership_request edge function.
type HandleMembershipRequest struct {
	RequestID string `json:"request_id"`
	Action    string `json:"action"` // approve | reject
	Role      Role   `json:"role,omitempty"`
}

// FunctionResponse is the envelope every membership edge function returns.
type FunctionResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}
