package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/app/services"
	"github.com/shashiranjanraj/billdesk/pkg/apperror"
	"github.com/shashiranjanraj/billdesk/pkg/metrics"
	"github.com/shashiranjanraj/billdesk/pkg/workerpool"
)

func twoLines(f *fixture) services.CreatePurchaseInput {
	return services.CreatePurchaseInput{
		BuyerID: f.buyer.ID,
		Lines: []services.LineInput{
			{ItemID: "item-a", Qty: 2, UnitPrice: price(50)},
			{ItemID: "item-b", Qty: 1, UnitPrice: price(30)},
		},
	}
}

func TestCreatePurchase_TotalEqualsSumOfLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := services.NewPurchaseService(f.store)

	p, err := svc.Create(ctx, f.scope, twoLines(f))
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(130).Equal(p.TotalAmount), "total %s", p.TotalAmount)
	assert.Equal(t, f.tenant.ID, p.TenantID)
	require.NotNil(t, p.Tenant)
	assert.Equal(t, "Corner Shop", p.Tenant.Name)
	require.NotNil(t, p.Buyer)
	assert.Equal(t, f.buyer.ID, p.Buyer.ID)

	stored, err := f.store.Lines().ListByPurchase(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	sum := decimal.Zero
	for _, l := range stored {
		sum = sum.Add(l.Amount)
		assert.True(t, l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Equal(l.Amount))
	}
	assert.True(t, decimal.NewFromInt(130).Equal(sum))
}

func TestCreatePurchase_InvalidInputWritesNothing(t *testing.T) {
	cases := []struct {
		name   string
		edit   func(f *fixture, in *services.CreatePurchaseInput)
		fields []string
	}{
		{"empty lines", func(_ *fixture, in *services.CreatePurchaseInput) { in.Lines = nil }, []string{"lines"}},
		{"zero qty", func(_ *fixture, in *services.CreatePurchaseInput) { in.Lines[1].Qty = 0 }, []string{"lines[1].qty"}},
		{"negative qty", func(_ *fixture, in *services.CreatePurchaseInput) { in.Lines[0].Qty = -3 }, []string{"lines[0].qty"}},
		{"missing item", func(_ *fixture, in *services.CreatePurchaseInput) { in.Lines[0].ItemID = "" }, []string{"lines[0].itemId"}},
		{"missing price", func(_ *fixture, in *services.CreatePurchaseInput) { in.Lines[1].UnitPrice = nil }, []string{"lines[1].unitPrice"}},
		{"negative price", func(_ *fixture, in *services.CreatePurchaseInput) { in.Lines[0].UnitPrice = price(-1) }, []string{"lines[0].unitPrice"}},
		{"zero qty and missing price", func(_ *fixture, in *services.CreatePurchaseInput) {
			in.Lines[0].Qty = 0
			in.Lines[0].UnitPrice = nil
		}, []string{"lines[0].qty", "lines[0].unitPrice"}},
		{"missing buyer", func(_ *fixture, in *services.CreatePurchaseInput) { in.BuyerID = "" }, []string{"buyerId"}},
		{"unknown buyer", func(_ *fixture, in *services.CreatePurchaseInput) { in.BuyerID = "nobody" }, []string{"buyerId"}},
		{"admin as buyer", func(f *fixture, in *services.CreatePurchaseInput) { in.BuyerID = f.admin.ID }, []string{"buyerId"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			svc := services.NewPurchaseService(f.store)

			in := twoLines(f)
			tc.edit(f, &in)

			_, err := svc.Create(ctx, f.scope, in)
			require.Error(t, err)
			assert.Equal(t, apperror.Validation, apperror.KindOf(err))
			fields := apperror.From(err).Fields
			for _, field := range tc.fields {
				assert.Contains(t, fields, field)
			}
			assert.Len(t, fields, len(tc.fields))

			all, err := f.store.Purchases().List(ctx, repositories.PurchaseFilter{})
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestCreatePurchase_TenantBinding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other, otherBuyer := f.otherTenant(t)
	svc := services.NewPurchaseService(f.store)

	in := twoLines(f)
	in.TenantID = other.ID
	_, err := svc.Create(ctx, f.scope, in)
	assert.Equal(t, apperror.Forbidden, apperror.KindOf(err))

	in = twoLines(f)
	in.BuyerID = otherBuyer.ID
	_, err = svc.Create(ctx, f.scope, in)
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
	assert.Contains(t, apperror.From(err).Fields, "buyerId")
}

func TestCreatePurchase_CompensatesWhenALineFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lines := &flakyLines{Lines: f.store.Lines(), failOn: 2}
	svc := services.NewPurchaseService(patchedStore{Store: f.store, lines: lines}, services.WithLineWriters(1))

	before := testutil.ToFloat64(metrics.PurchasesCompensated.WithLabelValues("clean"))

	in := twoLines(f)
	in.Lines = append(in.Lines, services.LineInput{ItemID: "item-c", Qty: 4, UnitPrice: price(5)})
	_, err := svc.Create(ctx, f.scope, in)
	require.Error(t, err)
	assert.Equal(t, apperror.Internal, apperror.KindOf(err))
	assert.ErrorIs(t, err, errBoom)

	headers, err := f.store.Purchases().List(ctx, repositories.PurchaseFilter{})
	require.NoError(t, err)
	assert.Empty(t, headers, "header must be removed")
	assert.Equal(t, int32(1), lines.deleteCalls.Load())

	after := testutil.ToFloat64(metrics.PurchasesCompensated.WithLabelValues("clean"))
	assert.Equal(t, before+1, after)
}

func TestCreatePurchase_CatalogPricing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := services.NewPurchaseService(f.store, services.WithPricing(services.PricingCatalog))

	milk := &models.Item{TenantID: f.tenant.ID, Name: "Milk", UnitPrice: decimal.RequireFromString("42.50"), Unit: "l"}
	require.NoError(t, f.store.Items().Create(ctx, milk))

	p, err := svc.Create(ctx, f.scope, services.CreatePurchaseInput{
		BuyerID: f.buyer.ID,
		Lines:   []services.LineInput{{ItemID: milk.ID, Qty: 2, UnitPrice: price(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "85", p.TotalAmount.String())

	_, err = svc.Create(ctx, f.scope, services.CreatePurchaseInput{
		BuyerID: f.buyer.ID,
		Lines:   []services.LineInput{{ItemID: "missing", Qty: 1}},
	})
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
	assert.Contains(t, apperror.From(err).Fields, "lines[0].itemId")
}

func TestReadPurchase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := services.NewPurchaseService(f.store)

	p, err := svc.Create(ctx, f.scope, twoLines(f))
	require.NoError(t, err)

	got, err := svc.Read(ctx, f.scope, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)
	assert.Equal(t, "Ravi", got.Buyer.Name)

	_, err = svc.Read(ctx, f.scope, "does-not-exist")
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))

	other, _ := f.otherTenant(t)
	_, err = svc.Read(ctx, services.Scope{TenantID: other.ID}, p.ID)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func TestReadPurchase_LineFailureDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := services.NewPurchaseService(f.store).Create(ctx, f.scope, twoLines(f))
	require.NoError(t, err)

	broken := &flakyLines{Lines: f.store.Lines(), listErr: errBoom}
	svc := services.NewPurchaseService(patchedStore{Store: f.store, lines: broken})

	got, err := svc.Read(ctx, f.scope, p.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Lines)
	assert.Empty(t, got.Lines)
	assert.True(t, decimal.NewFromInt(130).Equal(got.TotalAmount))
}

func TestDeletePurchase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lines := &flakyLines{Lines: f.store.Lines()}
	svc := services.NewPurchaseService(patchedStore{Store: f.store, lines: lines})

	p, err := svc.Create(ctx, f.scope, twoLines(f))
	require.NoError(t, err)

	removed, err := svc.Delete(ctx, f.scope, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := f.store.Lines().ListByPurchase(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	_, err = svc.Read(ctx, f.scope, p.ID)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))

	calls := lines.deleteCalls.Load()
	_, err = svc.Delete(ctx, f.scope, p.ID)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
	assert.Equal(t, calls, lines.deleteCalls.Load(), "lines must not be touched for a missing header")
}

func TestListPurchases_NewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other, otherBuyer := f.otherTenant(t)

	clock := stepClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	svc := services.NewPurchaseService(f.store, services.WithPurchaseClock(clock))

	first, err := svc.Create(ctx, f.scope, twoLines(f))
	require.NoError(t, err)
	second, err := svc.Create(ctx, f.scope, twoLines(f))
	require.NoError(t, err)

	otherScope := services.Scope{TenantID: other.ID}
	_, err = svc.Create(ctx, otherScope, services.CreatePurchaseInput{
		BuyerID: otherBuyer.ID,
		Lines:   []services.LineInput{{ItemID: "x", Qty: 1, UnitPrice: price(1)}},
	})
	require.NoError(t, err)

	list, err := svc.ListByTenant(ctx, f.scope, f.tenant.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, "Corner Shop", list[0].Tenant.Name)

	byBuyer, err := svc.ListByBuyer(ctx, f.scope, f.buyer.ID)
	require.NoError(t, err)
	assert.Len(t, byBuyer, 2)

	mine, err := svc.List(ctx, f.scope)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	everything, err := svc.List(ctx, services.Scope{All: true})
	require.NoError(t, err)
	assert.Len(t, everything, 3)

	_, err = svc.ListByTenant(ctx, f.scope, other.ID)
	assert.Equal(t, apperror.Forbidden, apperror.KindOf(err))

	none, err := svc.List(ctx, services.Scope{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreatePurchase_NotifiesBuyer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pool := workerpool.New("notify-test", 1)
	svc := services.NewPurchaseService(f.store, services.WithNotifier(services.NewNotifier(f.store.Notifications(), pool)))

	_, err := svc.Create(ctx, f.scope, twoLines(f))
	require.NoError(t, err)
	pool.Shutdown()

	notes, err := f.store.Notifications().ListByCustomer(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationInstant, notes[0].Kind)
	assert.Equal(t, models.NotificationSent, notes[0].Status)
	assert.Contains(t, notes[0].Message, "130.00")
}
