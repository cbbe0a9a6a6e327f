// Package repotest is the behavioural contract every repositories.Store
// adapter must pass. Adapter tests call Run with a constructor:
//
//	func TestContract(t *testing.T) {
//	    repotest.Run(t, func(t *testing.T) repositories.Store { return memstore.New() })
//	}
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
)

// Factory returns an empty, migrated store.
type Factory func(t *testing.T) repositories.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("Accounts", func(t *testing.T) { accounts(t, newStore(t)) })
	t.Run("Tenants", func(t *testing.T) { tenants(t, newStore(t)) })
	t.Run("Items", func(t *testing.T) { items(t, newStore(t)) })
	t.Run("PurchasesAndLines", func(t *testing.T) { purchases(t, newStore(t)) })
	t.Run("Notifications", func(t *testing.T) { notifications(t, newStore(t)) })
}

func stamp(offset time.Duration) time.Time {
	return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Add(offset)
}

func accounts(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	r := s.Accounts()

	admin := &models.Account{TenantID: "t1", Name: "Ravi", Email: "ravi@shop.in", Phone: "9000000001",
		PasswordHash: "hash", Role: rbac.RoleAdmin, CreatedAt: stamp(0), UpdatedAt: stamp(0)}
	customer := &models.Account{TenantID: "t1", Name: "Meena", Phone: "9000000001",
		Role: rbac.RoleCustomer, RFIDCardID: "CARD-1", CreatedAt: stamp(0), UpdatedAt: stamp(0)}
	require.NoError(t, r.Create(ctx, admin))
	require.NoError(t, r.Create(ctx, customer))
	require.NotEmpty(t, admin.ID)
	require.NotEqual(t, admin.ID, customer.ID)

	got, err := r.FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "ravi@shop.in", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, rbac.RoleAdmin, got.Role)

	byPhone, err := r.FindByLogin(ctx, "9000000001")
	require.NoError(t, err)
	assert.Len(t, byPhone, 2)

	byEmail, err := r.FindByLogin(ctx, "ravi@shop.in")
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, admin.ID, byEmail[0].ID)

	none, err := r.FindByLogin(ctx, "nobody@shop.in")
	require.NoError(t, err)
	assert.Empty(t, none)

	card, err := r.FindByRFID(ctx, "CARD-1")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, card.ID)
	_, err = r.FindByRFID(ctx, "CARD-X")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	list, err := r.List(ctx, repositories.AccountFilter{TenantID: "t1", Roles: []rbac.Role{rbac.RoleCustomer}, Search: "MEE"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, customer.ID, list[0].ID)

	got.Name = "Ravi K"
	require.NoError(t, r.Update(ctx, got))
	again, err := r.FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi K", again.Name)

	require.NoError(t, r.Delete(ctx, admin.ID))
	_, err = r.FindByID(ctx, admin.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, admin.ID), repositories.ErrNotFound)
	assert.ErrorIs(t, r.Update(ctx, &models.Account{ID: admin.ID, Name: "x", Role: rbac.RoleStaff}), repositories.ErrNotFound)
}

func tenants(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	r := s.Tenants()

	names := []string{"Alpha Dairy", "Beta Mart", "Gamma Dairy"}
	ids := make([]string, len(names))
	for i, n := range names {
		tn := &models.Tenant{Name: n, OwnerName: "Owner " + n, Phone: "80000000" + string(rune('0'+i)),
			CreatedAt: stamp(time.Duration(i) * time.Hour), UpdatedAt: stamp(0)}
		require.NoError(t, r.Create(ctx, tn))
		ids[i] = tn.ID
	}

	dup, err := r.FindByNamePhone(ctx, "Beta Mart", "800000001")
	require.NoError(t, err)
	assert.Equal(t, ids[1], dup.ID)
	_, err = r.FindByNamePhone(ctx, "Beta Mart", "1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	page, total, err := r.List(ctx, "dairy", repositories.Page{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, "Gamma Dairy", page[0].Name, "newest first")

	page, _, err = r.List(ctx, "dairy", repositories.Page{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Alpha Dairy", page[0].Name)

	all, total, err := r.List(ctx, "", repositories.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	require.NoError(t, r.Delete(ctx, ids[0]))
	_, err = r.FindByID(ctx, ids[0])
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func items(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	r := s.Items()

	milk := &models.Item{TenantID: "t1", Name: "Milk", UnitPrice: decimal.RequireFromString("52.50"), Unit: "L",
		CreatedAt: stamp(0), UpdatedAt: stamp(0)}
	bread := &models.Item{TenantID: "t1", Name: "Bread", UnitPrice: decimal.NewFromInt(40), Unit: "unit",
		CreatedAt: stamp(0), UpdatedAt: stamp(0)}
	other := &models.Item{TenantID: "t2", Name: "Milk", UnitPrice: decimal.NewFromInt(50), Unit: "L",
		CreatedAt: stamp(0), UpdatedAt: stamp(0)}
	for _, it := range []*models.Item{milk, bread, other} {
		require.NoError(t, r.Create(ctx, it))
	}

	got, err := r.FindByID(ctx, milk.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("52.5").Equal(got.UnitPrice), "price %s", got.UnitPrice)

	list, err := r.List(ctx, "t1", "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bread", list[0].Name)

	list, err = r.List(ctx, "t1", "mil")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, milk.ID, list[0].ID)

	got.UnitPrice = decimal.NewFromInt(55)
	require.NoError(t, r.Update(ctx, got))
	got, err = r.FindByID(ctx, milk.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(55).Equal(got.UnitPrice))

	require.NoError(t, r.Delete(ctx, bread.ID))
	assert.ErrorIs(t, r.Delete(ctx, bread.ID), repositories.ErrNotFound)
}

func purchases(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	pr, lr := s.Purchases(), s.Lines()

	older := &models.Purchase{TenantID: "t1", BuyerID: "b1", PurchasedAt: stamp(0), TotalAmount: decimal.NewFromInt(130), CreatedAt: stamp(0)}
	newer := &models.Purchase{TenantID: "t1", BuyerID: "b2", PurchasedAt: stamp(time.Hour), TotalAmount: decimal.NewFromInt(10), CreatedAt: stamp(time.Hour)}
	foreign := &models.Purchase{TenantID: "t2", BuyerID: "b1", PurchasedAt: stamp(2 * time.Hour), TotalAmount: decimal.Zero, CreatedAt: stamp(0)}
	for _, p := range []*models.Purchase{older, newer, foreign} {
		require.NoError(t, pr.Insert(ctx, p))
	}

	for _, l := range []*models.PurchaseLine{
		{PurchaseID: older.ID, ItemID: "a", Quantity: 2, UnitPrice: decimal.NewFromInt(50), Amount: decimal.NewFromInt(100), CreatedAt: stamp(0)},
		{PurchaseID: older.ID, ItemID: "b", Quantity: 1, UnitPrice: decimal.NewFromInt(30), Amount: decimal.NewFromInt(30), CreatedAt: stamp(0)},
		{PurchaseID: newer.ID, ItemID: "a", Quantity: 1, UnitPrice: decimal.NewFromInt(10), Amount: decimal.NewFromInt(10), CreatedAt: stamp(0)},
	} {
		require.NoError(t, lr.Insert(ctx, l))
		require.NotEmpty(t, l.ID)
	}

	got, err := pr.FindByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "b1", got.BuyerID)
	assert.True(t, decimal.NewFromInt(130).Equal(got.TotalAmount))
	assert.True(t, got.PurchasedAt.Equal(stamp(0)), "purchasedAt %s", got.PurchasedAt)

	byTenant, err := pr.List(ctx, repositories.PurchaseFilter{TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, byTenant, 2)
	assert.Equal(t, newer.ID, byTenant[0].ID, "reverse chronological")

	byBuyer, err := pr.List(ctx, repositories.PurchaseFilter{BuyerID: "b1"})
	require.NoError(t, err)
	require.Len(t, byBuyer, 2)
	assert.Equal(t, foreign.ID, byBuyer[0].ID)

	all, err := pr.List(ctx, repositories.PurchaseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ls, err := lr.ListByPurchase(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, ls, 2)
	sum := decimal.Zero
	for _, l := range ls {
		sum = sum.Add(l.Amount)
	}
	assert.True(t, decimal.NewFromInt(130).Equal(sum))

	n, err := lr.DeleteByPurchase(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, pr.Delete(ctx, older.ID))

	_, err = pr.FindByID(ctx, older.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	ls, err = lr.ListByPurchase(ctx, older.ID)
	require.NoError(t, err)
	assert.Empty(t, ls)
	assert.ErrorIs(t, pr.Delete(ctx, older.ID), repositories.ErrNotFound)

	ls, err = lr.ListByPurchase(ctx, newer.ID)
	require.NoError(t, err)
	assert.Len(t, ls, 1, "other purchases keep their lines")
}

func notifications(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	r := s.Notifications()

	for i, msg := range []string{"first", "second"} {
		require.NoError(t, r.Insert(ctx, &models.Notification{
			TenantID: "t1", CustomerID: "c1", Kind: models.NotificationInstant,
			Message: msg, SentAt: stamp(time.Duration(i) * time.Minute), Status: models.NotificationSent,
		}))
	}
	require.NoError(t, r.Insert(ctx, &models.Notification{
		TenantID: "t1", CustomerID: "c2", Kind: models.NotificationInstant,
		Message: "other", SentAt: stamp(0), Status: models.NotificationSent,
	}))

	got, err := r.ListByCustomer(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Message)
}
