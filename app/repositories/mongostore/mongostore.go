// Package mongostore is the document-store adapter. Documents keep the field
// names of the JSON API; _id holds the hex form of a fresh ObjectID so ids
// stay opaque strings across adapters.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/pkg/metrics"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
)

const (
	colTenants       = "tenants"
	colAccounts      = "accounts"
	colItems         = "items"
	colPurchases     = "purchases"
	colLines         = "purchase_lines"
	colNotifications = "notifications"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ repositories.Store = (*Store)(nil)

// New uses db from client. The client must have been built with
// database.Registry so decimals encode as Decimal128.
func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

func (s *Store) Accounts() repositories.Accounts   { return &accounts{s.db.Collection(colAccounts)} }
func (s *Store) Tenants() repositories.Tenants     { return &tenants{s.db.Collection(colTenants)} }
func (s *Store) Items() repositories.Items         { return &items{s.db.Collection(colItems)} }
func (s *Store) Purchases() repositories.Purchases { return &purchases{s.db.Collection(colPurchases)} }
func (s *Store) Lines() repositories.Lines         { return &lines{s.db.Collection(colLines)} }
func (s *Store) Notifications() repositories.Notifications {
	return &notifications{s.db.Collection(colNotifications)}
}
func (s *Store) Driver() string { return "mongo" }

func (s *Store) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

// Migrate creates the secondary indexes. Uniqueness is enforced by the
// services, not here.
func (s *Store) Migrate(ctx context.Context) error {
	idx := map[string][]mongo.IndexModel{
		colAccounts: {
			{Keys: bson.D{{Key: "tenantId", Value: 1}}},
			{Keys: bson.D{{Key: "role", Value: 1}}},
			{Keys: bson.D{{Key: "email", Value: 1}}},
			{Keys: bson.D{{Key: "phoneNumber", Value: 1}}},
			{Keys: bson.D{{Key: "rfidCardId", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		colTenants: {
			{Keys: bson.D{{Key: "name", Value: 1}, {Key: "phoneNumber", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		colItems:     {{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "name", Value: 1}}}},
		colPurchases: {{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "purchasedAt", Value: -1}}}, {Keys: bson.D{{Key: "buyerId", Value: 1}, {Key: "purchasedAt", Value: -1}}}},
		colLines:     {{Keys: bson.D{{Key: "purchaseId", Value: 1}}}, {Keys: bson.D{{Key: "itemId", Value: 1}}}},
		colNotifications: {
			{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "sentAt", Value: -1}}},
			{Keys: bson.D{{Key: "tenantId", Value: 1}}},
		},
	}

	for col, ms := range idx {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, ms); err != nil {
			return fmt.Errorf("mongostore: create indexes on %s: %w", col, err)
		}
	}
	return nil
}

// ── helpers ─────────────────────────────────────────────────────────────────

func newID() string { return primitive.NewObjectID().Hex() }

func observe(op string) func() {
	start := time.Now()
	return func() { metrics.ObserveStore("mongo", op, start) }
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repositories.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repositories.ErrDuplicate
	default:
		return err
	}
}

// ci builds a case-insensitive substring match.
func ci(search string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
}

func insert(ctx context.Context, c *mongo.Collection, doc interface{}) error {
	_, err := c.InsertOne(ctx, doc)
	return translate(err)
}

func findOne[T any](ctx context.Context, c *mongo.Collection, filter interface{}) (*T, error) {
	var out T
	if err := c.FindOne(ctx, filter).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []*T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func replace(ctx context.Context, c *mongo.Collection, id string, doc interface{}) error {
	res, err := c.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func deleteOne(ctx context.Context, c *mongo.Collection, id string) error {
	res, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// ── accounts ────────────────────────────────────────────────────────────────

type accounts struct{ c *mongo.Collection }

func (r *accounts) Create(ctx context.Context, a *models.Account) error {
	defer observe("accounts.create")()
	a.ID = newID()
	return insert(ctx, r.c, a)
}

func (r *accounts) FindByID(ctx context.Context, id string) (*models.Account, error) {
	defer observe("accounts.find")()
	return findOne[models.Account](ctx, r.c, bson.M{"_id": id})
}

func (r *accounts) FindByLogin(ctx context.Context, login string) ([]*models.Account, error) {
	defer observe("accounts.find_login")()
	if login == "" {
		return []*models.Account{}, nil
	}
	return findAll[models.Account](ctx, r.c, bson.M{"$or": bson.A{
		bson.M{"email": login},
		bson.M{"phoneNumber": login},
	}})
}

func (r *accounts) FindByRFID(ctx context.Context, card string) (*models.Account, error) {
	defer observe("accounts.find_rfid")()
	return findOne[models.Account](ctx, r.c, bson.M{"rfidCardId": card, "role": rbac.RoleCustomer})
}

func (r *accounts) List(ctx context.Context, f repositories.AccountFilter) ([]*models.Account, error) {
	defer observe("accounts.list")()
	filter := bson.M{}
	if f.TenantID != "" {
		filter["tenantId"] = f.TenantID
	}
	if len(f.Roles) > 0 {
		filter["role"] = bson.M{"$in": f.Roles}
	}
	if f.Search != "" {
		re := ci(f.Search)
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"email": re}, bson.M{"phoneNumber": re}}
	}
	return findAll[models.Account](ctx, r.c, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *accounts) Update(ctx context.Context, a *models.Account) error {
	defer observe("accounts.update")()
	return replace(ctx, r.c, a.ID, a)
}

func (r *accounts) Delete(ctx context.Context, id string) error {
	defer observe("accounts.delete")()
	return deleteOne(ctx, r.c, id)
}

// ── tenants ─────────────────────────────────────────────────────────────────

type tenants struct{ c *mongo.Collection }

func (r *tenants) Create(ctx context.Context, t *models.Tenant) error {
	defer observe("tenants.create")()
	t.ID = newID()
	return insert(ctx, r.c, t)
}

func (r *tenants) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	defer observe("tenants.find")()
	return findOne[models.Tenant](ctx, r.c, bson.M{"_id": id})
}

func (r *tenants) FindByNamePhone(ctx context.Context, name, phone string) (*models.Tenant, error) {
	defer observe("tenants.find_name_phone")()
	return findOne[models.Tenant](ctx, r.c, bson.M{"name": name, "phoneNumber": phone})
}

func (r *tenants) List(ctx context.Context, search string, p repositories.Page) ([]*models.Tenant, int64, error) {
	defer observe("tenants.list")()
	filter := bson.M{}
	if search != "" {
		re := ci(search)
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"ownerName": re}}
	}

	total, err := r.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count tenants: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if p.Limit > 0 {
		opts.SetSkip(int64(p.Offset())).SetLimit(int64(p.Limit))
	}
	rows, err := findAll[models.Tenant](ctx, r.c, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *tenants) Update(ctx context.Context, t *models.Tenant) error {
	defer observe("tenants.update")()
	return replace(ctx, r.c, t.ID, t)
}

func (r *tenants) Delete(ctx context.Context, id string) error {
	defer observe("tenants.delete")()
	return deleteOne(ctx, r.c, id)
}

// ── items ───────────────────────────────────────────────────────────────────

type items struct{ c *mongo.Collection }

func (r *items) Create(ctx context.Context, it *models.Item) error {
	defer observe("items.create")()
	it.ID = newID()
	return insert(ctx, r.c, it)
}

func (r *items) FindByID(ctx context.Context, id string) (*models.Item, error) {
	defer observe("items.find")()
	return findOne[models.Item](ctx, r.c, bson.M{"_id": id})
}

func (r *items) List(ctx context.Context, tenantID, search string) ([]*models.Item, error) {
	defer observe("items.list")()
	filter := bson.M{}
	if tenantID != "" {
		filter["tenantId"] = tenantID
	}
	if search != "" {
		filter["name"] = ci(search)
	}
	return findAll[models.Item](ctx, r.c, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *items) Update(ctx context.Context, it *models.Item) error {
	defer observe("items.update")()
	return replace(ctx, r.c, it.ID, it)
}

func (r *items) Delete(ctx context.Context, id string) error {
	defer observe("items.delete")()
	return deleteOne(ctx, r.c, id)
}

// ── purchases ───────────────────────────────────────────────────────────────

type purchases struct{ c *mongo.Collection }

func (r *purchases) Insert(ctx context.Context, p *models.Purchase) error {
	defer observe("purchases.insert")()
	p.ID = newID()
	return insert(ctx, r.c, p)
}

func (r *purchases) FindByID(ctx context.Context, id string) (*models.Purchase, error) {
	defer observe("purchases.find")()
	return findOne[models.Purchase](ctx, r.c, bson.M{"_id": id})
}

func (r *purchases) List(ctx context.Context, f repositories.PurchaseFilter) ([]*models.Purchase, error) {
	defer observe("purchases.list")()
	filter := bson.M{}
	if f.TenantID != "" {
		filter["tenantId"] = f.TenantID
	}
	if f.BuyerID != "" {
		filter["buyerId"] = f.BuyerID
	}
	return findAll[models.Purchase](ctx, r.c, filter, options.Find().SetSort(bson.D{{Key: "purchasedAt", Value: -1}}))
}

func (r *purchases) Delete(ctx context.Context, id string) error {
	defer observe("purchases.delete")()
	return deleteOne(ctx, r.c, id)
}

// ── lines ───────────────────────────────────────────────────────────────────

type lines struct{ c *mongo.Collection }

func (r *lines) Insert(ctx context.Context, l *models.PurchaseLine) error {
	defer observe("lines.insert")()
	l.ID = newID()
	return insert(ctx, r.c, l)
}

func (r *lines) ListByPurchase(ctx context.Context, purchaseID string) ([]*models.PurchaseLine, error) {
	defer observe("lines.list")()
	return findAll[models.PurchaseLine](ctx, r.c, bson.M{"purchaseId": purchaseID})
}

func (r *lines) DeleteByPurchase(ctx context.Context, purchaseID string) (int64, error) {
	defer observe("lines.delete")()
	res, err := r.c.DeleteMany(ctx, bson.M{"purchaseId": purchaseID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ── notifications ───────────────────────────────────────────────────────────

type notifications struct{ c *mongo.Collection }

func (r *notifications) Insert(ctx context.Context, n *models.Notification) error {
	defer observe("notifications.insert")()
	n.ID = newID()
	return insert(ctx, r.c, n)
}

func (r *notifications) ListByCustomer(ctx context.Context, customerID string) ([]*models.Notification, error) {
	defer observe("notifications.list")()
	return findAll[models.Notification](ctx, r.c, bson.M{"customerId": customerID},
		options.Find().SetSort(bson.D{{Key: "sentAt", Value: -1}}))
}
