// Package repositories declares the storage contracts the services are
// written against. Adapters live in the mongostore, sqlstore and memstore
// subpackages and are interchangeable.
//
// Adapters assign IDs on insert, return ErrNotFound for misses by id and
// never interpret business rules.
package repositories

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
)

var (
	ErrNotFound  = errors.New("repositories: not found")
	ErrDuplicate = errors.New("repositories: duplicate")
)

// Page selects a window of a listing. Limit <= 0 means no limit.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// AccountFilter narrows Accounts.List. Zero fields match everything.
type AccountFilter struct {
	TenantID string
	Roles    []rbac.Role
	// Search is a case-insensitive substring over name, email and phone.
	Search string
}

type Accounts interface {
	Create(ctx context.Context, a *models.Account) error
	FindByID(ctx context.Context, id string) (*models.Account, error)
	// FindByLogin returns every account whose email or phone equals login.
	FindByLogin(ctx context.Context, login string) ([]*models.Account, error)
	FindByRFID(ctx context.Context, card string) (*models.Account, error)
	List(ctx context.Context, f AccountFilter) ([]*models.Account, error)
	Update(ctx context.Context, a *models.Account) error
	Delete(ctx context.Context, id string) error
}

type Tenants interface {
	Create(ctx context.Context, t *models.Tenant) error
	FindByID(ctx context.Context, id string) (*models.Tenant, error)
	FindByNamePhone(ctx context.Context, name, phone string) (*models.Tenant, error)
	// List returns a newest-first page and the total number of matches.
	List(ctx context.Context, search string, p Page) ([]*models.Tenant, int64, error)
	Update(ctx context.Context, t *models.Tenant) error
	Delete(ctx context.Context, id string) error
}

type Items interface {
	Create(ctx context.Context, it *models.Item) error
	FindByID(ctx context.Context, id string) (*models.Item, error)
	// List returns a tenant's items ordered by name.
	List(ctx context.Context, tenantID, search string) ([]*models.Item, error)
	Update(ctx context.Context, it *models.Item) error
	Delete(ctx context.Context, id string) error
}

// PurchaseFilter narrows Purchases.List. Results are newest first by
// PurchasedAt.
type PurchaseFilter struct {
	TenantID string
	BuyerID  string
}

type Purchases interface {
	Insert(ctx context.Context, p *models.Purchase) error
	FindByID(ctx context.Context, id string) (*models.Purchase, error)
	List(ctx context.Context, f PurchaseFilter) ([]*models.Purchase, error)
	Delete(ctx context.Context, id string) error
}

type Lines interface {
	Insert(ctx context.Context, l *models.PurchaseLine) error
	ListByPurchase(ctx context.Context, purchaseID string) ([]*models.PurchaseLine, error)
	// DeleteByPurchase removes every line of a purchase and reports how many.
	DeleteByPurchase(ctx context.Context, purchaseID string) (int64, error)
}

type Notifications interface {
	Insert(ctx context.Context, n *models.Notification) error
	// ListByCustomer returns newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]*models.Notification, error)
}

// Store bundles the repositories of one backend.
type Store interface {
	Accounts() Accounts
	Tenants() Tenants
	Items() Items
	Purchases() Purchases
	Lines() Lines
	Notifications() Notifications

	// Migrate creates tables or indexes. Idempotent.
	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
	Driver() string
}
