// Package memstore is an in-process Store used for local development and
// tests. Data is lost on restart.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
)

// table is a mutex-guarded map of copies. Callers never share pointers with
// the stored rows.
type table[T any] struct {
	mu   sync.RWMutex
	rows map[string]T
}

func newTable[T any]() *table[T] { return &table[T]{rows: map[string]T{}} }

func (t *table[T]) put(id string, v T) {
	t.mu.Lock()
	t.rows[id] = v
	t.mu.Unlock()
}

func (t *table[T]) get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) del(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

func (t *table[T]) filter(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []T
	for _, v := range t.rows {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

type Store struct {
	accounts      *accounts
	tenants       *tenants
	items         *items
	purchases     *purchases
	lines         *lines
	notifications *notifications
}

var _ repositories.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts:      &accounts{newTable[models.Account]()},
		tenants:       &tenants{newTable[models.Tenant]()},
		items:         &items{newTable[models.Item]()},
		purchases:     &purchases{newTable[models.Purchase]()},
		lines:         &lines{newTable[models.PurchaseLine]()},
		notifications: &notifications{newTable[models.Notification]()},
	}
}

func (s *Store) Accounts() repositories.Accounts           { return s.accounts }
func (s *Store) Tenants() repositories.Tenants             { return s.tenants }
func (s *Store) Items() repositories.Items                 { return s.items }
func (s *Store) Purchases() repositories.Purchases         { return s.purchases }
func (s *Store) Lines() repositories.Lines                 { return s.lines }
func (s *Store) Notifications() repositories.Notifications { return s.notifications }
func (s *Store) Migrate(context.Context) error             { return nil }
func (s *Store) Close(context.Context) error               { return nil }
func (s *Store) Driver() string                            { return "memory" }

// ── accounts ────────────────────────────────────────────────────────────────

type accounts struct{ t *table[models.Account] }

func (r *accounts) Create(_ context.Context, a *models.Account) error {
	a.ID = uuid.NewString()
	r.t.put(a.ID, *a)
	return nil
}

func (r *accounts) FindByID(_ context.Context, id string) (*models.Account, error) {
	a, ok := r.t.get(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &a, nil
}

func (r *accounts) FindByLogin(_ context.Context, login string) ([]*models.Account, error) {
	rows := r.t.filter(func(a models.Account) bool {
		return login != "" && (a.Email == login || a.Phone == login)
	})
	return ptrs(rows), nil
}

func (r *accounts) FindByRFID(_ context.Context, card string) (*models.Account, error) {
	rows := r.t.filter(func(a models.Account) bool {
		return card != "" && a.Role == rbac.RoleCustomer && a.RFIDCardID == card
	})
	if len(rows) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &rows[0], nil
}

func (r *accounts) List(_ context.Context, f repositories.AccountFilter) ([]*models.Account, error) {
	rows := r.t.filter(func(a models.Account) bool {
		if f.TenantID != "" && a.TenantID != f.TenantID {
			return false
		}
		if len(f.Roles) > 0 && !hasRole(f.Roles, a.Role) {
			return false
		}
		if f.Search != "" && !contains(a.Name, f.Search) && !contains(a.Email, f.Search) && !contains(a.Phone, f.Search) {
			return false
		}
		return true
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return ptrs(rows), nil
}

func hasRole(roles []rbac.Role, r rbac.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

func (r *accounts) Update(_ context.Context, a *models.Account) error {
	if _, ok := r.t.get(a.ID); !ok {
		return repositories.ErrNotFound
	}
	r.t.put(a.ID, *a)
	return nil
}

func (r *accounts) Delete(_ context.Context, id string) error {
	if !r.t.del(id) {
		return repositories.ErrNotFound
	}
	return nil
}

// ── tenants ─────────────────────────────────────────────────────────────────

type tenants struct{ t *table[models.Tenant] }

func (r *tenants) Create(_ context.Context, t *models.Tenant) error {
	t.ID = uuid.NewString()
	r.t.put(t.ID, *t)
	return nil
}

func (r *tenants) FindByID(_ context.Context, id string) (*models.Tenant, error) {
	t, ok := r.t.get(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (r *tenants) FindByNamePhone(_ context.Context, name, phone string) (*models.Tenant, error) {
	rows := r.t.filter(func(t models.Tenant) bool { return t.Name == name && t.Phone == phone })
	if len(rows) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &rows[0], nil
}

func (r *tenants) List(_ context.Context, search string, p repositories.Page) ([]*models.Tenant, int64, error) {
	rows := r.t.filter(func(t models.Tenant) bool {
		return search == "" || contains(t.Name, search) || contains(t.OwnerName, search)
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })

	total := int64(len(rows))
	start := p.Offset()
	if start > len(rows) {
		start = len(rows)
	}
	end := len(rows)
	if p.Limit > 0 && start+p.Limit < end {
		end = start + p.Limit
	}
	return ptrs(rows[start:end]), total, nil
}

func (r *tenants) Update(_ context.Context, t *models.Tenant) error {
	if _, ok := r.t.get(t.ID); !ok {
		return repositories.ErrNotFound
	}
	r.t.put(t.ID, *t)
	return nil
}

func (r *tenants) Delete(_ context.Context, id string) error {
	if !r.t.del(id) {
		return repositories.ErrNotFound
	}
	return nil
}

// ── items ───────────────────────────────────────────────────────────────────

type items struct{ t *table[models.Item] }

func (r *items) Create(_ context.Context, it *models.Item) error {
	it.ID = uuid.NewString()
	r.t.put(it.ID, *it)
	return nil
}

func (r *items) FindByID(_ context.Context, id string) (*models.Item, error) {
	it, ok := r.t.get(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &it, nil
}

func (r *items) List(_ context.Context, tenantID, search string) ([]*models.Item, error) {
	rows := r.t.filter(func(it models.Item) bool {
		return (tenantID == "" || it.TenantID == tenantID) && (search == "" || contains(it.Name, search))
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return ptrs(rows), nil
}

func (r *items) Update(_ context.Context, it *models.Item) error {
	if _, ok := r.t.get(it.ID); !ok {
		return repositories.ErrNotFound
	}
	r.t.put(it.ID, *it)
	return nil
}

func (r *items) Delete(_ context.Context, id string) error {
	if !r.t.del(id) {
		return repositories.ErrNotFound
	}
	return nil
}

// ── purchases ───────────────────────────────────────────────────────────────

type purchases struct{ t *table[models.Purchase] }

func (r *purchases) Insert(_ context.Context, p *models.Purchase) error {
	p.ID = uuid.NewString()
	r.t.put(p.ID, stripPurchase(*p))
	return nil
}

// stripPurchase drops the resolved, never-stored fields.
func stripPurchase(p models.Purchase) models.Purchase {
	p.Tenant, p.Buyer, p.Lines = nil, nil, nil
	return p
}

func (r *purchases) FindByID(_ context.Context, id string) (*models.Purchase, error) {
	p, ok := r.t.get(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (r *purchases) List(_ context.Context, f repositories.PurchaseFilter) ([]*models.Purchase, error) {
	rows := r.t.filter(func(p models.Purchase) bool {
		return (f.TenantID == "" || p.TenantID == f.TenantID) && (f.BuyerID == "" || p.BuyerID == f.BuyerID)
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].PurchasedAt.After(rows[j].PurchasedAt) })
	return ptrs(rows), nil
}

func (r *purchases) Delete(_ context.Context, id string) error {
	if !r.t.del(id) {
		return repositories.ErrNotFound
	}
	return nil
}

// ── lines ───────────────────────────────────────────────────────────────────

type lines struct{ t *table[models.PurchaseLine] }

func (r *lines) Insert(_ context.Context, l *models.PurchaseLine) error {
	l.ID = uuid.NewString()
	r.t.put(l.ID, *l)
	return nil
}

func (r *lines) ListByPurchase(_ context.Context, purchaseID string) ([]*models.PurchaseLine, error) {
	rows := r.t.filter(func(l models.PurchaseLine) bool { return l.PurchaseID == purchaseID })
	return ptrs(rows), nil
}

func (r *lines) DeleteByPurchase(_ context.Context, purchaseID string) (int64, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	var n int64
	for id, l := range r.t.rows {
		if l.PurchaseID == purchaseID {
			delete(r.t.rows, id)
			n++
		}
	}
	return n, nil
}

// ── notifications ───────────────────────────────────────────────────────────

type notifications struct{ t *table[models.Notification] }

func (r *notifications) Insert(_ context.Context, n *models.Notification) error {
	n.ID = uuid.NewString()
	r.t.put(n.ID, *n)
	return nil
}

func (r *notifications) ListByCustomer(_ context.Context, customerID string) ([]*models.Notification, error) {
	rows := r.t.filter(func(n models.Notification) bool { return n.CustomerID == customerID })
	sort.Slice(rows, func(i, j int) bool { return rows[i].SentAt.After(rows[j].SentAt) })
	return ptrs(rows), nil
}

func ptrs[T any](rows []T) []*T {
	out := make([]*T, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}
