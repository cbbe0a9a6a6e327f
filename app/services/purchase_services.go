package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/pkg/apperror"
	"github.com/shashiranjanraj/billdesk/pkg/logger"
	"github.com/shashiranjanraj/billdesk/pkg/metrics"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
	"github.com/shashiranjanraj/billdesk/pkg/validate"
)

// Pricing sources for purchase lines.
const (
	PricingRequest = "request"
	PricingCatalog = "catalog"
)

const defaultLineWriters = 8

// LineInput is one requested purchase line. UnitPrice is required when
// pricing comes from the request and ignored otherwise.
type LineInput struct {
	ItemID    string           `json:"itemId"    validate:"required"`
	Qty       int              `json:"qty"       validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unitPrice" validate:"nullable,gte=0"`
}

// CreatePurchaseInput is the body of POST /api/purchases. An empty TenantID
// means the caller's tenant.
type CreatePurchaseInput struct {
	TenantID string      `json:"tenantId"`
	BuyerID  string      `json:"buyerId" validate:"required"`
	Lines    []LineInput `json:"lines"   validate:"required,dive"`
}

type PurchaseService struct {
	store    repositories.Store
	notifier *Notifier
	pricing  string
	writers  int
	now      func() time.Time
}

type PurchaseOption func(*PurchaseService)

// WithPricing selects PricingRequest or PricingCatalog.
func WithPricing(source string) PurchaseOption {
	return func(s *PurchaseService) {
		if source == PricingCatalog {
			s.pricing = PricingCatalog
		}
	}
}

func WithNotifier(n *Notifier) PurchaseOption {
	return func(s *PurchaseService) { s.notifier = n }
}

// WithLineWriters bounds the number of concurrent line inserts.
func WithLineWriters(n int) PurchaseOption {
	return func(s *PurchaseService) {
		if n > 0 {
			s.writers = n
		}
	}
}

func WithPurchaseClock(now func() time.Time) PurchaseOption {
	return func(s *PurchaseService) { s.now = now }
}

func NewPurchaseService(store repositories.Store, opts ...PurchaseOption) *PurchaseService {
	s := &PurchaseService{
		store:   store,
		pricing: PricingRequest,
		writers: defaultLineWriters,
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create writes the header and its lines. If any line write fails the
// partial purchase is removed again and the caller gets an Internal error.
func (s *PurchaseService) Create(ctx context.Context, scope Scope, in CreatePurchaseInput) (*models.Purchase, error) {
	errs := validate.Struct(&in)
	if s.pricing == PricingRequest {
		for i, l := range in.Lines {
			key := fmt.Sprintf("lines[%d].unitPrice", i)
			if _, seen := errs[key]; !seen && l.UnitPrice == nil {
				errs[key] = fmt.Sprintf("The %s field is required.", key)
			}
		}
	}
	if len(errs) > 0 {
		return nil, apperror.Invalid(errs)
	}

	tenantID, err := scope.tenantFor(in.TenantID)
	if err != nil {
		return nil, err
	}

	tenant, err := s.store.Tenants().FindByID(ctx, tenantID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.InvalidField("tenantId", "The selected tenantId is invalid.")
		}
		return nil, apperror.Wrap(err, "Unable to create purchase")
	}

	buyer, err := s.store.Accounts().FindByID(ctx, in.BuyerID)
	if err != nil && !isNotFound(err) {
		return nil, apperror.Wrap(err, "Unable to create purchase")
	}
	// Only customers of the purchasing tenant can buy.
	if buyer == nil || buyer.TenantID != tenant.ID || buyer.Role != rbac.RoleCustomer {
		return nil, apperror.InvalidField("buyerId", "The selected buyerId is invalid.")
	}

	lines, err := s.price(ctx, tenant.ID, in.Lines)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}

	now := s.now().UTC()
	p := &models.Purchase{
		TenantID:    tenant.ID,
		BuyerID:     buyer.ID,
		PurchasedAt: now,
		TotalAmount: total,
		CreatedAt:   now,
	}
	if err := s.store.Purchases().Insert(ctx, p); err != nil {
		return nil, apperror.Wrap(err, "Unable to create purchase")
	}

	if err := s.writeLines(ctx, p.ID, lines, now); err != nil {
		s.compensate(ctx, p.ID, err)
		return nil, apperror.Wrap(err, "Unable to create purchase")
	}

	metrics.PurchasesCreated.Inc()
	logger.WithCtx(ctx).Info("purchase created",
		"purchase_id", p.ID,
		"tenant_id", p.TenantID,
		"lines", len(lines),
		"total", total.String(),
	)

	p.Lines = lines
	p.Tenant = tenant.Ref()
	p.Buyer = buyer.Ref()

	if s.notifier != nil {
		s.notifier.Enqueue(&models.Notification{
			TenantID:   tenant.ID,
			CustomerID: buyer.ID,
			Kind:       models.NotificationInstant,
			Message:    fmt.Sprintf("Thank you for shopping at %s. Your total is %s.", tenant.Name, total.StringFixed(2)),
		})
	}
	return p, nil
}

// price turns the requested lines into unsaved line rows.
func (s *PurchaseService) price(ctx context.Context, tenantID string, in []LineInput) ([]*models.PurchaseLine, error) {
	out := make([]*models.PurchaseLine, len(in))
	errs := map[string]string{}

	for i, l := range in {
		var unit decimal.Decimal
		if s.pricing == PricingCatalog {
			item, err := s.store.Items().FindByID(ctx, l.ItemID)
			if err != nil && !isNotFound(err) {
				return nil, apperror.Wrap(err, "Unable to create purchase")
			}
			if item == nil || item.TenantID != tenantID {
				key := fmt.Sprintf("lines[%d].itemId", i)
				errs[key] = fmt.Sprintf("The selected %s is invalid.", key)
				continue
			}
			unit = item.UnitPrice
		} else {
			unit = *l.UnitPrice
		}

		out[i] = &models.PurchaseLine{
			ItemID:    l.ItemID,
			Quantity:  l.Qty,
			UnitPrice: unit,
			Amount:    unit.Mul(decimal.NewFromInt(int64(l.Qty))),
		}
	}

	if len(errs) > 0 {
		return nil, apperror.Invalid(errs)
	}
	return out, nil
}

// writeLines inserts lines concurrently. Order of insertion is not kept.
func (s *PurchaseService) writeLines(ctx context.Context, purchaseID string, lines []*models.PurchaseLine, at time.Time) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.writers)

	for _, l := range lines {
		l.PurchaseID = purchaseID
		l.CreatedAt = at
		g.Go(func() error {
			if err := s.store.Lines().Insert(gctx, l); err != nil {
				return fmt.Errorf("insert line for item %s: %w", l.ItemID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// compensate removes whatever a failed create left behind. It runs even if
// the request context is already cancelled.
func (s *PurchaseService) compensate(ctx context.Context, purchaseID string, cause error) {
	log := logger.WithCtx(ctx)
	cctx := context.WithoutCancel(ctx)

	removed, lerr := s.store.Lines().DeleteByPurchase(cctx, purchaseID)
	herr := s.store.Purchases().Delete(cctx, purchaseID)
	if herr != nil && isNotFound(herr) {
		herr = nil
	}

	if lerr != nil || herr != nil {
		metrics.PurchasesCompensated.WithLabelValues("residue").Inc()
		log.Error("purchase compensation incomplete",
			"purchase_id", purchaseID,
			"cause", cause,
			"lines_error", lerr,
			"header_error", herr,
		)
		return
	}

	metrics.PurchasesCompensated.WithLabelValues("clean").Inc()
	log.Warn("purchase rolled back",
		"purchase_id", purchaseID,
		"lines_removed", removed,
		"cause", cause,
	)
}

// Read returns a purchase with its lines. A failed line lookup degrades to
// an empty line set.
func (s *PurchaseService) Read(ctx context.Context, scope Scope, id string) (*models.Purchase, error) {
	p, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	lines, err := s.store.Lines().ListByPurchase(ctx, p.ID)
	if err != nil {
		logger.WithCtx(ctx).Warn("purchase lines unavailable", "purchase_id", p.ID, "error", err)
		lines = []*models.PurchaseLine{}
	}
	p.Lines = lines

	s.resolve(ctx, []*models.Purchase{p})
	return p, nil
}

// Delete removes the lines and then the header. It returns how many lines
// were removed.
func (s *PurchaseService) Delete(ctx context.Context, scope Scope, id string) (int64, error) {
	p, err := s.find(ctx, scope, id)
	if err != nil {
		return 0, err
	}

	removed, err := s.store.Lines().DeleteByPurchase(ctx, p.ID)
	if err != nil {
		return 0, apperror.Wrap(err, "Unable to delete purchase")
	}
	if err := s.store.Purchases().Delete(ctx, p.ID); err != nil {
		return removed, storeErr(err, "Purchase", "Unable to delete purchase")
	}

	logger.WithCtx(ctx).Info("purchase deleted", "purchase_id", p.ID, "lines_removed", removed)
	return removed, nil
}

// List returns every purchase visible in scope, newest first.
func (s *PurchaseService) List(ctx context.Context, scope Scope) ([]*models.Purchase, error) {
	tenantID, ok := scope.tenantFilter()
	if !ok {
		return []*models.Purchase{}, nil
	}
	return s.list(ctx, repositories.PurchaseFilter{TenantID: tenantID})
}

// ListByTenant returns a tenant's purchases, newest first.
func (s *PurchaseService) ListByTenant(ctx context.Context, scope Scope, tenantID string) ([]*models.Purchase, error) {
	if !scope.Allows(tenantID) {
		return nil, apperror.New(apperror.Forbidden, "You cannot view another tenant's purchases")
	}
	return s.list(ctx, repositories.PurchaseFilter{TenantID: tenantID})
}

// ListByBuyer returns a buyer's purchases within scope, newest first.
func (s *PurchaseService) ListByBuyer(ctx context.Context, scope Scope, buyerID string) ([]*models.Purchase, error) {
	tenantID, ok := scope.tenantFilter()
	if !ok {
		return []*models.Purchase{}, nil
	}
	return s.list(ctx, repositories.PurchaseFilter{TenantID: tenantID, BuyerID: buyerID})
}

func (s *PurchaseService) list(ctx context.Context, f repositories.PurchaseFilter) ([]*models.Purchase, error) {
	rows, err := s.store.Purchases().List(ctx, f)
	if err != nil {
		return nil, apperror.Wrap(err, "Unable to load purchases")
	}
	if rows == nil {
		rows = []*models.Purchase{}
	}
	s.resolve(ctx, rows)
	return rows, nil
}

// find loads a header; purchases outside scope are reported as missing.
func (s *PurchaseService) find(ctx context.Context, scope Scope, id string) (*models.Purchase, error) {
	p, err := s.store.Purchases().FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Purchase", "Unable to load purchase")
	}
	if !scope.Allows(p.TenantID) {
		return nil, apperror.NotFoundf("Purchase not found")
	}
	return p, nil
}

// resolve attaches tenant and buyer display refs. Lookups that fail leave
// the ref empty.
func (s *PurchaseService) resolve(ctx context.Context, ps []*models.Purchase) {
	tenants := map[string]*models.PartyRef{}
	buyers := map[string]*models.PartyRef{}
	log := logger.WithCtx(ctx)

	for _, p := range ps {
		ref, seen := tenants[p.TenantID]
		if !seen {
			t, err := s.store.Tenants().FindByID(ctx, p.TenantID)
			if err == nil {
				ref = t.Ref()
			} else if !isNotFound(err) {
				log.Warn("tenant lookup failed", "tenant_id", p.TenantID, "error", err)
			}
			tenants[p.TenantID] = ref
		}
		p.Tenant = ref

		ref, seen = buyers[p.BuyerID]
		if !seen {
			a, err := s.store.Accounts().FindByID(ctx, p.BuyerID)
			if err == nil {
				ref = a.Ref()
			} else if !isNotFound(err) {
				log.Warn("buyer lookup failed", "buyer_id", p.BuyerID, "error", err)
			}
			buyers[p.BuyerID] = ref
		}
		p.Buyer = ref
	}
}
