package service_test

import (
	"context"
	"sort"
	"sync"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
)

// --- In-memory store ---

type fakeStore struct {
	mu sync.Mutex

	companies   map[string]domain.Company
	memberships []domain.Membership
	products    map[string]domain.Product
	customers   map[string]domain.Customer
	promotions  map[string]domain.Promotion
	sales       []domain.Sale
	invoices    []domain.Invoice
	items       []domain.SaleLineItem

	membershipsErr      error
	createMembershipErr error
	commitErr           error
	listSalesErr        error

	deletedCompanies []string
	commits          int
	productReads     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		companies:  map[string]domain.Company{},
		products:   map[string]domain.Product{},
		customers:  map[string]domain.Customer{},
		promotions: map[string]domain.Promotion{},
	}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) ListActiveMemberships(_ context.Context, userID string) ([]domain.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.membershipsErr != nil {
		return nil, f.membershipsErr
	}
	var out []domain.Membership
	for _, m := range f.memberships {
		if m.UserID == userID && m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCompanyMembers(_ context.Context, companyID string) ([]domain.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Membership
	for _, m := range f.memberships {
		if m.CompanyID == companyID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) GetMembership(_ context.Context, companyID, membershipID string) (*domain.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.memberships {
		if m.CompanyID == companyID && m.ID == membershipID {
			return &m, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "membership", ID: membershipID}
}

func (f *fakeStore) DeactivateMembership(_ context.Context, companyID, membershipID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.memberships {
		if f.memberships[i].CompanyID == companyID && f.memberships[i].ID == membershipID {
			f.memberships[i].IsActive = false
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "membership", ID: membershipID}
}

func (f *fakeStore) GetCompany(_ context.Context, companyID string) (*domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companies[companyID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "company", ID: companyID}
	}
	return &c, nil
}

func (f *fakeStore) CreateCompany(_ context.Context, c *domain.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.companies[c.ID] = *c
	return nil
}

func (f *fakeStore) DeleteCompany(_ context.Context, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.companies, companyID)
	f.deletedCompanies = append(f.deletedCompanies, companyID)
	return nil
}

func (f *fakeStore) CreateMembership(_ context.Context, m *domain.Membership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createMembershipErr != nil {
		return f.createMembershipErr
	}
	f.memberships = append(f.memberships, *m)
	return nil
}

func (f *fakeStore) ListProducts(_ context.Context, companyID string) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Product
	for _, p := range f.products {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetProduct(_ context.Context, companyID, productID string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productReads++
	p, ok := f.products[productID]
	if !ok || p.CompanyID != companyID {
		return nil, &domain.ErrNotFound{Resource: "product", ID: productID}
	}
	return &p, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return &domain.ErrNotFound{Resource: "product", ID: p.ID}
	}
	f.products[p.ID] = *p
	return nil
}

func (f *fakeStore) ListCustomers(_ context.Context, companyID string) ([]domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Customer
	for _, c := range f.customers {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetCustomer(_ context.Context, companyID, customerID string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[customerID]
	if !ok || c.CompanyID != companyID {
		return nil, &domain.ErrNotFound{Resource: "client", ID: customerID}
	}
	return &c, nil
}

func (f *fakeStore) CreateCustomer(_ context.Context, c *domain.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers[c.ID] = *c
	return nil
}

func (f *fakeStore) ListPromotions(_ context.Context, companyID string) ([]domain.Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Promotion
	for _, p := range f.promotions {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetPromotion(_ context.Context, companyID, promotionID string) (*domain.Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.promotions[promotionID]
	if !ok || p.CompanyID != companyID {
		return nil, &domain.ErrNotFound{Resource: "promotion", ID: promotionID}
	}
	return &p, nil
}

func (f *fakeStore) CreatePromotion(_ context.Context, p *domain.Promotion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.promotions[p.ID] = *p
	return nil
}

// CommitCheckout applies the record all or nothing, like the real adapters.
func (f *fakeStore) CommitCheckout(_ context.Context, rec *domain.CheckoutRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}

	stock := map[string]int{}
	for _, it := range rec.Items {
		p, ok := f.products[it.ProductID]
		if !ok {
			return &domain.ErrNotFound{Resource: "product", ID: it.ProductID}
		}
		if _, seen := stock[it.ProductID]; !seen {
			stock[it.ProductID] = p.Stock
		}
		if stock[it.ProductID] < it.Quantity {
			return &domain.ErrInsufficientStock{ProductID: it.ProductID, Available: stock[it.ProductID], Requested: it.Quantity}
		}
		stock[it.ProductID] -= it.Quantity
	}
	if rec.Sale.PromotionID != nil {
		p := f.promotions[*rec.Sale.PromotionID]
		if p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit {
			return &domain.ErrPromotionUnavailable{PromotionID: p.ID, Reason: "usage limit reached"}
		}
		p.UsageCount++
		f.promotions[p.ID] = p
	}

	for id, s := range stock {
		p := f.products[id]
		p.Stock = s
		f.products[id] = p
	}
	f.sales = append(f.sales, rec.Sale)
	f.invoices = append(f.invoices, rec.Invoice)
	f.items = append(f.items, rec.Items...)
	f.commits++
	return nil
}

func (f *fakeStore) ListSales(_ context.Context, companyID string, q domain.SalesQuery) ([]domain.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listSalesErr != nil {
		return nil, f.listSalesErr
	}
	var out []domain.Sale
	for _, s := range f.sales {
		if s.CompanyID != companyID {
			continue
		}
		if q.Since != nil && s.CreatedAt.Before(*q.Since) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) GetSale(_ context.Context, companyID, saleID string) (*domain.SaleDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sales {
		if s.CompanyID == companyID && s.ID == saleID {
			d := &domain.SaleDetail{Sale: s}
			for i := range f.invoices {
				if f.invoices[i].SaleID == saleID {
					inv := f.invoices[i]
					d.Invoice = &inv
				}
			}
			for _, it := range f.items {
				if it.SaleID == saleID {
					d.Items = append(d.Items, it)
				}
			}
			return d, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "sale", ID: saleID}
}

func (f *fakeStore) ListInvoices(_ context.Context, companyID string, status domain.InvoiceStatus) ([]domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Invoice
	for _, inv := range f.invoices {
		if inv.CompanyID == companyID && (status == "" || inv.Status == status) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeStore) product(id string) domain.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id]
}

func (f *fakeStore) promotion(id string) domain.Promotion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.promotions[id]
}

// --- Collaborators ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, _ string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type mockFunctions struct {
	lastToken  string
	lastInvite *domain.InviteMemberRequest
	lastHandle *domain.HandleMembershipRequest
	resp       *domain.FunctionResponse
	err        error
}

func (m *mockFunctions) InviteMember(_ context.Context, token string, req *domain.InviteMemberRequest) (*domain.FunctionResponse, error) {
	m.lastToken, m.lastInvite = token, req
	return m.resp, m.err
}

func (m *mockFunctions) RequestMembership(_ context.Context, token string, _ *domain.MembershipRequest) (*domain.FunctionResponse, error) {
	m.lastToken = token
	return m.resp, m.err
}

func (m *mockFunctions) HandleMembershipRequest(_ context.Context, token string, req *domain.HandleMembershipRequest) (*domain.FunctionResponse, error) {
	m.lastToken, m.lastHandle = token, req
	return m.resp, m.err
}

type mockAgentClient struct {
	response *domain.AgentResponse
	err      error
	last     *domain.AgentRequest
}

func (m *mockAgentClient) Call(_ context.Context, req *domain.AgentRequest) (*domain.AgentResponse, error) {
	m.last = req
	return m.response, m.err
}
