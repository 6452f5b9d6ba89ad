// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// MembershipStore reads and writes companies and their memberships.
type MembershipStore interface {
	// ListActiveMemberships returns the principal's active memberships in insertion order.
	ListActiveMemberships(ctx context.Context, userID string) ([]domain.Membership, error)
	ListCompanyMembers(ctx context.Context, companyID string) ([]domain.Membership, error)
	GetMembership(ctx context.Context, companyID, membershipID string) (*domain.Membership, error)
	DeactivateMembership(ctx context.Context, companyID, membershipID string) error

	GetCompany(ctx context.Context, companyID string) (*domain.Company, error)
	CreateCompany(ctx context.Context, company *domain.Company) error
	DeleteCompany(ctx context.Context, companyID string) error
	CreateMembership(ctx context.Context, m *domain.Membership) error
}

// CatalogStore handles products, customers and promotions of a company.
type CatalogStore interface {
	ListProducts(ctx context.Context, companyID string) ([]domain.Product, error)
	GetProduct(ctx context.Context, companyID, productID string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error

	ListCustomers(ctx context.Context, companyID string) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, companyID, customerID string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) error

	ListPromotions(ctx context.Context, companyID string) ([]domain.Promotion, error)
	GetPromotion(ctx context.Context, companyID, promotionID string) (*domain.Promotion, error)
	CreatePromotion(ctx context.Context, p *domain.Promotion) error
}

// SalesStore persists checkouts and serves sales history.
type SalesStore interface {
	// CommitCheckout writes the sale, its invoice and items, decrements stock
	// with a floor at zero and bumps promotion usage, all or nothing.
	// A short product yields *domain.ErrInsufficientStock.
	CommitCheckout(ctx context.Context, rec *domain.CheckoutRecord) error

	ListSales(ctx context.Context, companyID string, q domain.SalesQuery) ([]domain.Sale, error)
	GetSale(ctx context.Context, companyID, saleID string) (*domain.SaleDetail, error)
	ListInvoices(ctx context.Context, companyID string, status domain.InvoiceStatus) ([]domain.Invoice, error)
}

// Store groups every persistence port. Implemented by the Supabase and SQL adapters.
type Store interface {
	MembershipStore
	CatalogStore
	SalesStore
	Ping(ctx context.Context) error
}

// IdempotencyStore guards operations that must run at most once per key.
type IdempotencyStore interface {
	// Acquire claims key; false means another request already holds or finished it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Complete stores the result of a finished operation under key.
	Complete(ctx context.Context, key string, result []byte, ttl time.Duration) error
	// Result returns the stored result, if the operation finished.
	Result(ctx context.Context, key string) ([]byte, bool, error)
	// Release drops a claim so the operation can be retried.
	Release(ctx context.Context, key string) error
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// AgentCaller invokes the AI agent service.
type AgentCaller interface {
	Call(ctx context.Context, req *domain.AgentRequest) (*domain.AgentResponse, error)
}

// MembershipFunctions calls the hosted invitation/membership workflow functions.
type MembershipFunctions interface {
	InviteMember(ctx context.Context, accessToken string, req *domain.InviteMemberRequest) (*domain.FunctionResponse, error)
	RequestMembership(ctx context.Context, accessToken string, req *domain.MembershipRequest) (*domain.FunctionResponse, error)
	HandleMembershipRequest(ctx context.Context, accessToken string, req *domain.HandleMembershipRequest) (*domain.FunctionResponse, error)
}
