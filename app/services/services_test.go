package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/app/repositories/memstore"
	"github.com/shashiranjanraj/billdesk/app/services"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
)

var errBoom = errors.New("boom")

type fixture struct {
	store  *memstore.Store
	tenant *models.Tenant
	admin  *models.Account
	buyer  *models.Account
	scope  services.Scope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()

	tn := &models.Tenant{Name: "Corner Shop", OwnerName: "Asha", Phone: "9000000001", Email: "shop@example.com"}
	require.NoError(t, s.Tenants().Create(ctx, tn))

	admin := &models.Account{TenantID: tn.ID, Name: "Asha", Email: "asha@example.com", Phone: "9000000001", Role: rbac.RoleAdmin}
	require.NoError(t, s.Accounts().Create(ctx, admin))

	buyer := &models.Account{TenantID: tn.ID, Name: "Ravi", Phone: "9000000002", Role: rbac.RoleCustomer, RFIDCardID: "CARD-1"}
	require.NoError(t, s.Accounts().Create(ctx, buyer))

	return &fixture{
		store:  s,
		tenant: tn,
		admin:  admin,
		buyer:  buyer,
		scope:  services.Scope{AccountID: admin.ID, TenantID: tn.ID},
	}
}

// otherTenant creates a second tenant with its own customer.
func (f *fixture) otherTenant(t *testing.T) (*models.Tenant, *models.Account) {
	t.Helper()
	ctx := context.Background()
	tn := &models.Tenant{Name: "Other Shop", OwnerName: "Mira", Phone: "9000000099"}
	require.NoError(t, f.store.Tenants().Create(ctx, tn))
	c := &models.Account{TenantID: tn.ID, Name: "Kiran", Phone: "9000000098", Role: rbac.RoleCustomer, RFIDCardID: "CARD-99"}
	require.NoError(t, f.store.Accounts().Create(ctx, c))
	return tn, c
}

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// stepClock returns a clock that advances one minute per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Minute)
		return cur
	}
}

// ── failure injection ───────────────────────────────────────────────────────

// flakyLines fails the failOn-th Insert and, when listErr is set, every
// ListByPurchase.
type flakyLines struct {
	repositories.Lines
	failOn      int32
	inserts     atomic.Int32
	listErr     error
	deleteCalls atomic.Int32
}

func (f *flakyLines) Insert(ctx context.Context, l *models.PurchaseLine) error {
	if f.inserts.Add(1) == f.failOn {
		return errBoom
	}
	return f.Lines.Insert(ctx, l)
}

func (f *flakyLines) ListByPurchase(ctx context.Context, id string) ([]*models.PurchaseLine, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Lines.ListByPurchase(ctx, id)
}

func (f *flakyLines) DeleteByPurchase(ctx context.Context, id string) (int64, error) {
	f.deleteCalls.Add(1)
	return f.Lines.DeleteByPurchase(ctx, id)
}

// flakyAccounts fails every Create.
type flakyAccounts struct {
	repositories.Accounts
}

func (flakyAccounts) Create(context.Context, *models.Account) error { return errBoom }

// patchedStore overrides selected repositories of an underlying Store.
type patchedStore struct {
	repositories.Store
	lines    repositories.Lines
	accounts repositories.Accounts
}

func (p patchedStore) Lines() repositories.Lines {
	if p.lines != nil {
		return p.lines
	}
	return p.Store.Lines()
}

func (p patchedStore) Accounts() repositories.Accounts {
	if p.accounts != nil {
		return p.accounts
	}
	return p.Store.Accounts()
}
