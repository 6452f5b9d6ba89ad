package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/observability"
	"github.com/fluxiabiz/fluxiabiz-api/internal/port"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var posTracer = otel.Tracer("service/pos")

const (
	saleNumberPrefix    = "VNT"
	invoiceNumberPrefix = "FAC"
)

// POSConfig holds the point-of-sale settings.
type POSConfig struct {
	DefaultTaxPercent decimal.Decimal
	IdempotencyTTL    time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// POSService runs the cart session and checkout of the point of sale.
type POSService struct {
	catalog   port.CatalogStore
	sales     port.SalesStore
	companies port.MembershipStore
	idem      port.IdempotencyStore
	events    port.EventPublisher
	carts     port.Cache[*domain.Cart]
	cfg       POSConfig
	metrics   *observability.Metrics
	logger    *zap.Logger

	locksMu sync.Mutex
	locks   map[string]*cartLock
}

// cartLock is held while a cart operation runs; refs counts holders and waiters.
type cartLock struct {
	mu   sync.Mutex
	refs int
}

// NewPOSService creates the point-of-sale service.
func NewPOSService(
	store port.Store,
	idem port.IdempotencyStore,
	events port.EventPublisher,
	carts port.Cache[*domain.Cart],
	cfg POSConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *POSService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	return &POSService{
		catalog:   store,
		sales:     store,
		companies: store,
		idem:      idem,
		events:    events,
		carts:     carts,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
		locks:     make(map[string]*cartLock),
	}
}

func cartKey(tc *domain.TenantContext) string {
	return tc.TenantID + ":" + tc.PrincipalID
}

// lockCart serializes operations on one seller's cart. The entry is dropped
// once no operation holds or waits on it.
func (s *POSService) lockCart(key string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &cartLock{}
		s.locks[key] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.locksMu.Unlock()
	}
}

// heldLocks reports how many carts currently have a lock entry.
func (s *POSService) heldLocks() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

// loadCart returns the seller's cart, creating an empty one. Callers hold the cart lock.
func (s *POSService) loadCart(tc *domain.TenantContext) *domain.Cart {
	key := cartKey(tc)
	if c, ok := s.carts.Get(key); ok {
		return c
	}
	c := domain.NewCart(tc.TenantID, tc.PrincipalID, s.cfg.DefaultTaxPercent)
	s.carts.Set(key, c)
	return c
}

// view copies the cart so callers can encode it after the lock is released.
func view(c *domain.Cart) *domain.CartView {
	cp := *c
	cp.Lines = append([]domain.CartLine(nil), c.Lines...)
	return &domain.CartView{Cart: &cp, Totals: cp.Totals()}
}

// mutate runs fn on the seller's cart under its lock and stores the result.
func (s *POSService) mutate(tc *domain.TenantContext, fn func(c *domain.Cart) error) (*domain.CartView, error) {
	key := cartKey(tc)
	unlock := s.lockCart(key)
	defer unlock()

	c := s.loadCart(tc)
	if err := fn(c); err != nil {
		return nil, err
	}
	s.carts.Set(key, c)
	return view(c), nil
}

// GetCart returns the current cart with totals.
func (s *POSService) GetCart(_ context.Context, tc *domain.TenantContext) *domain.CartView {
	v, _ := s.mutate(tc, func(*domain.Cart) error { return nil })
	return v
}

// AddLine adds one unit of a product, reading its current price and stock.
func (s *POSService) AddLine(ctx context.Context, tc *domain.TenantContext, productID string) (*domain.CartView, error) {
	ctx, span := posTracer.Start(ctx, "POSService.AddLine")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	product, err := s.catalog.GetProduct(ctx, tc.TenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("add line: %w", err)
	}
	return s.mutate(tc, func(c *domain.Cart) error {
		return c.AddLine(*product)
	})
}

// SetQuantity sets a line's quantity; zero or less removes the line.
func (s *POSService) SetQuantity(ctx context.Context, tc *domain.TenantContext, productID string, quantity int) (*domain.CartView, error) {
	ctx, span := posTracer.Start(ctx, "POSService.SetQuantity")
	defer span.End()

	var fresh *domain.Product
	if quantity > 0 {
		p, err := s.catalog.GetProduct(ctx, tc.TenantID, productID)
		if err != nil {
			return nil, fmt.Errorf("set quantity: %w", err)
		}
		fresh = p
	}
	return s.mutate(tc, func(c *domain.Cart) error {
		if line, ok := c.Line(productID); ok && fresh != nil {
			line.Product = *fresh
		}
		return c.SetQuantity(productID, quantity)
	})
}

// SetUnitPrice overrides a line's unit price within the product's band.
func (s *POSService) SetUnitPrice(_ context.Context, tc *domain.TenantContext, productID string, price decimal.Decimal) (*domain.CartView, error) {
	return s.mutate(tc, func(c *domain.Cart) error {
		return c.SetUnitPrice(productID, price)
	})
}

// SetCustomer selects the sale's client; an empty id clears it.
func (s *POSService) SetCustomer(ctx context.Context, tc *domain.TenantContext, customerID string) (*domain.CartView, error) {
	ctx, span := posTracer.Start(ctx, "POSService.SetCustomer")
	defer span.End()

	var customer *domain.Customer
	if customerID != "" {
		cu, err := s.catalog.GetCustomer(ctx, tc.TenantID, customerID)
		if err != nil {
			return nil, fmt.Errorf("set customer: %w", err)
		}
		customer = cu
	}
	return s.mutate(tc, func(c *domain.Cart) error {
		c.SetCustomer(customer)
		return nil
	})
}

// SetPromotion selects a promotion; an empty id clears it. Inactive, expired
// or used-up promotions are rejected.
func (s *POSService) SetPromotion(ctx context.Context, tc *domain.TenantContext, promotionID string) (*domain.CartView, error) {
	ctx, span := posTracer.Start(ctx, "POSService.SetPromotion")
	defer span.End()

	var promotion *domain.Promotion
	if promotionID != "" {
		p, err := s.catalog.GetPromotion(ctx, tc.TenantID, promotionID)
		if err != nil {
			return nil, fmt.Errorf("set promotion: %w", err)
		}
		if err := p.Applicable(s.cfg.Now()); err != nil {
			return nil, err
		}
		promotion = p
	}
	return s.mutate(tc, func(c *domain.Cart) error {
		c.SetPromotion(promotion)
		return nil
	})
}

// SetAdjustments sets the custom discount and tax percentages. A nil value
// keeps the cart's current one.
func (s *POSService) SetAdjustments(_ context.Context, tc *domain.TenantContext, customDiscountPercent, taxPercent *decimal.Decimal) (*domain.CartView, error) {
	return s.mutate(tc, func(c *domain.Cart) error {
		discount, tax := c.CustomDiscountPercent, c.TaxPercent
		if customDiscountPercent != nil {
			discount = *customDiscountPercent
		}
		if taxPercent != nil {
			tax = *taxPercent
		}
		return c.SetAdjustments(discount, tax)
	})
}

// ClearCart empties the cart, keeping the tax rate.
func (s *POSService) ClearCart(_ context.Context, tc *domain.TenantContext) *domain.CartView {
	v, _ := s.mutate(tc, func(c *domain.Cart) error {
		c.Reset()
		return nil
	})
	return v
}

// ============================================================
// Checkout
// ============================================================

// Checkout turns the cart into a sale, an invoice and its line items in one
// atomic write, then clears the cart and returns the receipt. With a
// non-empty idempotencyKey a repeated call returns the first receipt.
func (s *POSService) Checkout(ctx context.Context, tc *domain.TenantContext, req *domain.CheckoutRequest, idempotencyKey string) (*domain.CheckoutResult, error) {
	ctx, span := posTracer.Start(ctx, "POSService.Checkout")
	defer span.End()
	span.SetAttributes(
		attribute.String("company.id", tc.TenantID),
		attribute.String("payment.mode", string(req.PaymentMode)),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("checkout", time.Since(start))
	}()

	if req.PaymentMode != domain.PaymentFull && req.PaymentMode != domain.PaymentPartial {
		s.metrics.IncrCheckoutFailure("validation")
		return nil, &domain.ErrValidation{Field: "payment_mode", Message: "must be full or partial"}
	}

	idemKey := ""
	if idempotencyKey != "" {
		idemKey = "checkout:" + cartKey(tc) + ":" + idempotencyKey
		if res, replayed, err := s.replay(ctx, idemKey); err != nil || replayed {
			return res, err
		}
		ok, err := s.idem.Acquire(ctx, idemKey, s.cfg.IdempotencyTTL)
		if err != nil {
			return nil, &domain.ErrExternalService{Service: "idempotency", Err: err}
		}
		if !ok {
			s.metrics.IncrCheckoutFailure("duplicate")
			return nil, &domain.ErrDuplicate{Key: idempotencyKey}
		}
	}

	receipt, err := s.checkout(ctx, tc, req)
	if err != nil {
		if idemKey != "" {
			if relErr := s.idem.Release(context.WithoutCancel(ctx), idemKey); relErr != nil {
				s.logger.Warn("checkout: failed to release idempotency key", zap.String("key", idemKey), zap.Error(relErr))
			}
		}
		s.metrics.IncrCheckoutFailure(failureReason(err))
		return nil, err
	}

	if idemKey != "" {
		if raw, mErr := json.Marshal(receipt); mErr == nil {
			if cErr := s.idem.Complete(context.WithoutCancel(ctx), idemKey, raw, s.cfg.IdempotencyTTL); cErr != nil {
				s.logger.Warn("checkout: failed to store idempotent result", zap.String("key", idemKey), zap.Error(cErr))
			}
		}
	}

	return &domain.CheckoutResult{Receipt: receipt}, nil
}

func (s *POSService) replay(ctx context.Context, key string) (*domain.CheckoutResult, bool, error) {
	raw, done, err := s.idem.Result(ctx, key)
	if err != nil {
		return nil, false, &domain.ErrExternalService{Service: "idempotency", Err: err}
	}
	if !done {
		return nil, false, nil
	}
	var receipt domain.Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, false, fmt.Errorf("decode stored receipt: %w", err)
	}
	return &domain.CheckoutResult{Receipt: &receipt, Replayed: true}, true, nil
}

// checkoutInputs is the fresh state read before committing.
type checkoutInputs struct {
	company   *domain.Company
	products  []*domain.Product
	customer  *domain.Customer
	promotion *domain.Promotion
}

func (s *POSService) checkout(ctx context.Context, tc *domain.TenantContext, req *domain.CheckoutRequest) (*domain.Receipt, error) {
	key := cartKey(tc)
	unlock := s.lockCart(key)
	defer unlock()

	cart := s.loadCart(tc)
	if cart.IsEmpty() {
		return nil, &domain.ErrValidation{Field: "cart", Message: "cart is empty"}
	}

	in, err := s.preload(ctx, tc, cart)
	if err != nil {
		return nil, err
	}

	// Price and stock checks run against the fresh rows.
	for i := range cart.Lines {
		line := &cart.Lines[i]
		line.Product = *in.products[i]
		if line.Quantity > line.Product.Stock {
			return nil, &domain.ErrInsufficientStock{ProductID: line.Product.ID, Available: line.Product.Stock, Requested: line.Quantity}
		}
		if !line.Product.PriceAllowed(line.UnitPrice) {
			return nil, &domain.ErrValidation{Field: "unit_price", Message: "price of " + line.Product.Name + " is outside its allowed band"}
		}
	}
	if cart.Customer != nil {
		cart.Customer = in.customer
	}
	if cart.Promotion != nil {
		if err := in.promotion.Applicable(s.cfg.Now()); err != nil {
			cart.Promotion = nil
			s.carts.Set(key, cart)
			return nil, err
		}
		cart.Promotion = in.promotion
	}

	totals := cart.Totals()
	paid := totals.GrandTotal
	if req.PaymentMode == domain.PaymentPartial {
		if req.PartialAmount == nil {
			return nil, &domain.ErrValidation{Field: "partial_amount", Message: "required for partial payment"}
		}
		paid = req.PartialAmount.Round(domain.MoneyPlaces)
		if !paid.IsPositive() || !paid.LessThan(totals.GrandTotal) {
			return nil, &domain.ErrValidation{Field: "partial_amount", Message: "must be greater than 0 and less than the grand total " + totals.GrandTotal.StringFixed(domain.MoneyPlaces)}
		}
	}

	rec := s.buildRecord(tc, cart, totals, req, paid)
	if err := s.sales.CommitCheckout(ctx, rec); err != nil {
		s.logger.Warn("checkout: commit failed",
			append(observability.TenantFields(tc), zap.String("sale_number", rec.Sale.SaleNumber), zap.Error(err))...,
		)
		return nil, fmt.Errorf("commit checkout: %w", err)
	}

	receipt := buildReceipt(in.company, cart, totals, rec, req.PaymentMode)
	s.metrics.RecordCheckout(req.PaymentMode, rec.Sale.PaymentStatus, rec.Sale.TotalAmount)
	s.logger.Info("checkout committed",
		append(observability.TenantFields(tc),
			zap.String("sale_id", rec.Sale.ID),
			zap.String("sale_number", rec.Sale.SaleNumber),
			zap.String("total", rec.Sale.TotalAmount.StringFixed(domain.MoneyPlaces)),
			zap.String("payment_mode", string(req.PaymentMode)),
		)...,
	)

	s.publishSaleCompleted(ctx, rec)

	cart.Reset()
	s.carts.Set(key, cart)
	return receipt, nil
}

// preload reads the company and fresh copies of every cart reference concurrently.
func (s *POSService) preload(ctx context.Context, tc *domain.TenantContext, cart *domain.Cart) (*checkoutInputs, error) {
	in := &checkoutInputs{products: make([]*domain.Product, len(cart.Lines))}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := s.companies.GetCompany(gCtx, tc.TenantID)
		if err != nil {
			return fmt.Errorf("load company: %w", err)
		}
		in.company = c
		return nil
	})
	for i, line := range cart.Lines {
		i, line := i, line
		g.Go(func() error {
			p, err := s.catalog.GetProduct(gCtx, tc.TenantID, line.Product.ID)
			if err != nil {
				return fmt.Errorf("load product %s: %w", line.Product.ID, err)
			}
			in.products[i] = p
			return nil
		})
	}
	if cart.Customer != nil {
		customerID := cart.Customer.ID
		g.Go(func() error {
			cu, err := s.catalog.GetCustomer(gCtx, tc.TenantID, customerID)
			if err != nil {
				return fmt.Errorf("load client: %w", err)
			}
			in.customer = cu
			return nil
		})
	}
	if cart.Promotion != nil {
		promotionID := cart.Promotion.ID
		g.Go(func() error {
			p, err := s.catalog.GetPromotion(gCtx, tc.TenantID, promotionID)
			if err != nil {
				return fmt.Errorf("load promotion: %w", err)
			}
			in.promotion = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

func documentNumber(prefix string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102"), suffix)
}

func (s *POSService) buildRecord(tc *domain.TenantContext, cart *domain.Cart, totals domain.Totals, req *domain.CheckoutRequest, paid decimal.Decimal) *domain.CheckoutRecord {
	now := s.cfg.Now().UTC()
	today := now.Format(domain.DateLayout)

	saleStatus, invoiceStatus, due := domain.SaleCompleted, domain.InvoicePaid, today
	if req.PaymentMode == domain.PaymentPartial {
		saleStatus, invoiceStatus = domain.SalePending, domain.InvoiceSent
		due = now.Add(domain.PartialPaymentTerm).Format(domain.DateLayout)
	}

	var clientID, promotionID *string
	if cart.Customer != nil {
		id := cart.Customer.ID
		clientID = &id
	}
	if cart.Promotion != nil {
		id := cart.Promotion.ID
		promotionID = &id
	}

	sale := domain.Sale{
		ID:             uuid.NewString(),
		CompanyID:      tc.TenantID,
		SaleNumber:     documentNumber(saleNumberPrefix, now),
		ClientID:       clientID,
		SellerID:       tc.PrincipalID,
		PromotionID:    promotionID,
		Subtotal:       totals.Subtotal,
		DiscountAmount: totals.TotalDiscount,
		TaxAmount:      totals.TaxAmount,
		TotalAmount:    totals.GrandTotal,
		PaymentStatus:  saleStatus,
		CreatedAt:      now,
	}
	invoice := domain.Invoice{
		ID:            uuid.NewString(),
		CompanyID:     tc.TenantID,
		SaleID:        sale.ID,
		InvoiceNumber: documentNumber(invoiceNumberPrefix, now),
		ClientID:      clientID,
		IssueDate:     today,
		DueDate:       due,
		Subtotal:      totals.Subtotal,
		TaxAmount:     totals.TaxAmount,
		TotalAmount:   totals.GrandTotal,
		PaidAmount:    paid,
		Status:        invoiceStatus,
		Notes:         req.Notes,
		CreatedAt:     now,
	}

	items := make([]domain.SaleLineItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, domain.SaleLineItem{
			ID:         uuid.NewString(),
			SaleID:     sale.ID,
			InvoiceID:  invoice.ID,
			ProductID:  l.Product.ID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			TotalPrice: l.LineTotal().Round(domain.MoneyPlaces),
		})
	}
	return &domain.CheckoutRecord{Sale: sale, Invoice: invoice, Items: items}
}

func buildReceipt(company *domain.Company, cart *domain.Cart, totals domain.Totals, rec *domain.CheckoutRecord, mode domain.PaymentMode) *domain.Receipt {
	lines := make([]domain.ReceiptLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, domain.ReceiptLine{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			SKU:       l.Product.SKU,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.LineTotal().Round(domain.MoneyPlaces),
		})
	}
	return &domain.Receipt{
		Company:       company,
		SellerID:      rec.Sale.SellerID,
		Customer:      cart.Customer,
		Promotion:     cart.Promotion,
		SaleID:        rec.Sale.ID,
		SaleNumber:    rec.Sale.SaleNumber,
		InvoiceID:     rec.Invoice.ID,
		InvoiceNumber: rec.Invoice.InvoiceNumber,
		IssueDate:     rec.Invoice.IssueDate,
		DueDate:       rec.Invoice.DueDate,
		Lines:         lines,
		Totals:        totals,
		PaymentMode:   mode,
		PaidAmount:    rec.Invoice.PaidAmount,
		BalanceDue:    rec.Invoice.BalanceDue(),
		InvoiceStatus: rec.Invoice.Status,
		SaleStatus:    rec.Sale.PaymentStatus,
		IssuedAt:      rec.Sale.CreatedAt,
	}
}

// publishSaleCompleted emits the sale event. Failures are logged only: the
// sale is already committed.
func (s *POSService) publishSaleCompleted(ctx context.Context, rec *domain.CheckoutRecord) {
	event := domain.SaleCompletedEvent{
		EventID:     uuid.NewString(),
		EventType:   domain.EventTypeSaleCompleted,
		CompanyID:   rec.Sale.CompanyID,
		SaleID:      rec.Sale.ID,
		SaleNumber:  rec.Sale.SaleNumber,
		InvoiceID:   rec.Invoice.ID,
		SellerID:    rec.Sale.SellerID,
		TotalAmount: rec.Sale.TotalAmount,
		PaidAmount:  rec.Invoice.PaidAmount,
		Status:      rec.Sale.PaymentStatus,
		Items:       rec.Items,
		OccurredAt:  rec.Sale.CreatedAt,
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.events.Publish(pubCtx, rec.Sale.CompanyID, event); err != nil {
		s.metrics.IncrExternalError("events")
		s.logger.Warn("checkout: failed to publish sale event",
			zap.String("sale_id", rec.Sale.ID),
			zap.Error(err),
		)
	}
}

func failureReason(err error) string {
	var (
		stock *domain.ErrInsufficientStock
		promo *domain.ErrPromotionUnavailable
		valid *domain.ErrValidation
		nf    *domain.ErrNotFound
	)
	switch {
	case errors.As(err, &stock):
		return "insufficient_stock"
	case errors.As(err, &promo):
		return "promotion_unavailable"
	case errors.As(err, &valid):
		return "validation"
	case errors.As(err, &nf):
		return "not_found"
	}
	return "store"
}
