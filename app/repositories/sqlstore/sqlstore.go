// Package sqlstore is the relational Store adapter built on gorm. It runs on
// any dialect pkg/database can open: sqlite, postgres, mysql, sqlserver.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/pkg/metrics"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
)

type Store struct {
	db *gorm.DB
}

var _ repositories.Store = (*Store)(nil)

func New(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Accounts() repositories.Accounts           { return &accounts{s.db} }
func (s *Store) Tenants() repositories.Tenants             { return &tenants{s.db} }
func (s *Store) Items() repositories.Items                 { return &items{s.db} }
func (s *Store) Purchases() repositories.Purchases         { return &purchases{s.db} }
func (s *Store) Lines() repositories.Lines                 { return &lines{s.db} }
func (s *Store) Notifications() repositories.Notifications { return &notifications{s.db} }
func (s *Store) Driver() string                            { return "sql" }

// Migrate creates or alters the tables.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.Tenant{},
		&models.Account{},
		&models.Item{},
		&models.Purchase{},
		&models.PurchaseLine{},
		&models.Notification{},
	)
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ── helpers ─────────────────────────────────────────────────────────────────

func observe(op string) func() {
	start := time.Now()
	return func() { metrics.ObserveStore("sql", op, start) }
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repositories.ErrDuplicate
	default:
		return err
	}
}

func like(search string) string {
	return "%" + strings.ToLower(search) + "%"
}

func findByID[T any](ctx context.Context, db *gorm.DB, id string) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// save replaces an existing row; a missing row is ErrNotFound rather than an
// insert.
func save[T any](ctx context.Context, db *gorm.DB, id string, row *T) error {
	var n int64
	if err := db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return repositories.ErrNotFound
	}
	return translate(db.WithContext(ctx).Save(row).Error)
}

func deleteByID[T any](ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// ── accounts ────────────────────────────────────────────────────────────────

type accounts struct{ db *gorm.DB }

func (r *accounts) Create(ctx context.Context, a *models.Account) error {
	defer observe("accounts.create")()
	a.ID = uuid.NewString()
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

func (r *accounts) FindByID(ctx context.Context, id string) (*models.Account, error) {
	defer observe("accounts.find")()
	return findByID[models.Account](ctx, r.db, id)
}

func (r *accounts) FindByLogin(ctx context.Context, login string) ([]*models.Account, error) {
	defer observe("accounts.find_login")()
	var rows []*models.Account
	if login == "" {
		return rows, nil
	}
	err := r.db.WithContext(ctx).Where("(email = ? OR phone_number = ?)", login, login).Find(&rows).Error
	return rows, err
}

func (r *accounts) FindByRFID(ctx context.Context, card string) (*models.Account, error) {
	defer observe("accounts.find_rfid")()
	var row models.Account
	err := r.db.WithContext(ctx).
		Where("rfid_card_id = ? AND role = ?", card, rbac.RoleCustomer).
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *accounts) List(ctx context.Context, f repositories.AccountFilter) ([]*models.Account, error) {
	defer observe("accounts.list")()
	q := r.db.WithContext(ctx).Model(&models.Account{})
	if f.TenantID != "" {
		q = q.Where("tenant_id = ?", f.TenantID)
	}
	if len(f.Roles) > 0 {
		q = q.Where("role IN ?", f.Roles)
	}
	if f.Search != "" {
		s := like(f.Search)
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone_number LIKE ?)", s, s, s)
	}

	var rows []*models.Account
	err := q.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *accounts) Update(ctx context.Context, a *models.Account) error {
	defer observe("accounts.update")()
	return save(ctx, r.db, a.ID, a)
}

func (r *accounts) Delete(ctx context.Context, id string) error {
	defer observe("accounts.delete")()
	return deleteByID[models.Account](ctx, r.db, id)
}

// ── tenants ─────────────────────────────────────────────────────────────────

type tenants struct{ db *gorm.DB }

func (r *tenants) Create(ctx context.Context, t *models.Tenant) error {
	defer observe("tenants.create")()
	t.ID = uuid.NewString()
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

func (r *tenants) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	defer observe("tenants.find")()
	return findByID[models.Tenant](ctx, r.db, id)
}

func (r *tenants) FindByNamePhone(ctx context.Context, name, phone string) (*models.Tenant, error) {
	defer observe("tenants.find_name_phone")()
	var row models.Tenant
	if err := r.db.WithContext(ctx).Where("name = ? AND phone_number = ?", name, phone).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *tenants) List(ctx context.Context, search string, p repositories.Page) ([]*models.Tenant, int64, error) {
	defer observe("tenants.list")()
	filter := func(db *gorm.DB) *gorm.DB {
		if search == "" {
			return db
		}
		s := like(search)
		return db.Where("(LOWER(name) LIKE ? OR LOWER(owner_name) LIKE ?)", s, s)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Tenant{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tenants: %w", err)
	}

	q := r.db.WithContext(ctx).Scopes(filter).Order("created_at DESC")
	if p.Limit > 0 {
		q = q.Offset(p.Offset()).Limit(p.Limit)
	}

	var rows []*models.Tenant
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *tenants) Update(ctx context.Context, t *models.Tenant) error {
	defer observe("tenants.update")()
	return save(ctx, r.db, t.ID, t)
}

func (r *tenants) Delete(ctx context.Context, id string) error {
	defer observe("tenants.delete")()
	return deleteByID[models.Tenant](ctx, r.db, id)
}

// ── items ───────────────────────────────────────────────────────────────────

type items struct{ db *gorm.DB }

func (r *items) Create(ctx context.Context, it *models.Item) error {
	defer observe("items.create")()
	it.ID = uuid.NewString()
	return translate(r.db.WithContext(ctx).Create(it).Error)
}

func (r *items) FindByID(ctx context.Context, id string) (*models.Item, error) {
	defer observe("items.find")()
	return findByID[models.Item](ctx, r.db, id)
}

func (r *items) List(ctx context.Context, tenantID, search string) ([]*models.Item, error) {
	defer observe("items.list")()
	q := r.db.WithContext(ctx).Model(&models.Item{})
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if search != "" {
		q = q.Where("LOWER(name) LIKE ?", like(search))
	}

	var rows []*models.Item
	err := q.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *items) Update(ctx context.Context, it *models.Item) error {
	defer observe("items.update")()
	return save(ctx, r.db, it.ID, it)
}

func (r *items) Delete(ctx context.Context, id string) error {
	defer observe("items.delete")()
	return deleteByID[models.Item](ctx, r.db, id)
}

// ── purchases ───────────────────────────────────────────────────────────────

type purchases struct{ db *gorm.DB }

func (r *purchases) Insert(ctx context.Context, p *models.Purchase) error {
	defer observe("purchases.insert")()
	p.ID = uuid.NewString()
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *purchases) FindByID(ctx context.Context, id string) (*models.Purchase, error) {
	defer observe("purchases.find")()
	return findByID[models.Purchase](ctx, r.db, id)
}

func (r *purchases) List(ctx context.Context, f repositories.PurchaseFilter) ([]*models.Purchase, error) {
	defer observe("purchases.list")()
	q := r.db.WithContext(ctx).Model(&models.Purchase{})
	if f.TenantID != "" {
		q = q.Where("tenant_id = ?", f.TenantID)
	}
	if f.BuyerID != "" {
		q = q.Where("buyer_id = ?", f.BuyerID)
	}

	var rows []*models.Purchase
	err := q.Order("purchased_at DESC").Find(&rows).Error
	return rows, err
}

func (r *purchases) Delete(ctx context.Context, id string) error {
	defer observe("purchases.delete")()
	return deleteByID[models.Purchase](ctx, r.db, id)
}

// ── lines ───────────────────────────────────────────────────────────────────

type lines struct{ db *gorm.DB }

func (r *lines) Insert(ctx context.Context, l *models.PurchaseLine) error {
	defer observe("lines.insert")()
	l.ID = uuid.NewString()
	return translate(r.db.WithContext(ctx).Create(l).Error)
}

func (r *lines) ListByPurchase(ctx context.Context, purchaseID string) ([]*models.PurchaseLine, error) {
	defer observe("lines.list")()
	var rows []*models.PurchaseLine
	err := r.db.WithContext(ctx).Where("purchase_id = ?", purchaseID).Find(&rows).Error
	return rows, err
}

func (r *lines) DeleteByPurchase(ctx context.Context, purchaseID string) (int64, error) {
	defer observe("lines.delete")()
	res := r.db.WithContext(ctx).Where("purchase_id = ?", purchaseID).Delete(&models.PurchaseLine{})
	return res.RowsAffected, res.Error
}

// ── notifications ───────────────────────────────────────────────────────────

type notifications struct{ db *gorm.DB }

func (r *notifications) Insert(ctx context.Context, n *models.Notification) error {
	defer observe("notifications.insert")()
	n.ID = uuid.NewString()
	return translate(r.db.WithContext(ctx).Create(n).Error)
}

func (r *notifications) ListByCustomer(ctx context.Context, customerID string) ([]*models.Notification, error) {
	defer observe("notifications.list")()
	var rows []*models.Notification
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("sent_at DESC").Find(&rows).Error
	return rows, err
}
