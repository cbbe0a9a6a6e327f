package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/pkg/apperror"
	"github.com/shashiranjanraj/billdesk/pkg/validate"
)

type ItemInput struct {
	TenantID  string           `json:"tenantId"`
	Name      string           `json:"name"      validate:"required,max=255"`
	UnitPrice *decimal.Decimal `json:"unitPrice" validate:"required,gte=0"`
	Unit      string           `json:"unit"      validate:"nullable,max=32"`
}

type ItemUpdate struct {
	Name      *string          `json:"name"      validate:"nullable,min=1,max=255"`
	UnitPrice *decimal.Decimal `json:"unitPrice" validate:"nullable,gte=0"`
	Unit      *string          `json:"unit"      validate:"nullable,min=1,max=32"`
}

// CatalogService manages a tenant's items.
type CatalogService struct {
	items repositories.Items
	now   func() time.Time
}

func NewCatalogService(store repositories.Store) *CatalogService {
	return &CatalogService{items: store.Items(), now: time.Now}
}

func (s *CatalogService) Create(ctx context.Context, scope Scope, in ItemInput) (*models.Item, error) {
	if errs := validate.Struct(&in); len(errs) > 0 {
		return nil, apperror.Invalid(errs)
	}
	tenantID, err := scope.tenantFor(in.TenantID)
	if err != nil {
		return nil, err
	}

	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = models.DefaultUnit
	}

	now := s.now().UTC()
	it := &models.Item{
		TenantID:  tenantID,
		Name:      strings.TrimSpace(in.Name),
		UnitPrice: *in.UnitPrice,
		Unit:      unit,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.items.Create(ctx, it); err != nil {
		return nil, storeErr(err, "Item", "Unable to create item")
	}
	return it, nil
}

func (s *CatalogService) List(ctx context.Context, scope Scope, search string) ([]*models.Item, error) {
	tenantID, ok := scope.tenantFilter()
	if !ok {
		return []*models.Item{}, nil
	}
	rows, err := s.items.List(ctx, tenantID, search)
	if err != nil {
		return nil, apperror.Wrap(err, "Unable to load items")
	}
	if rows == nil {
		rows = []*models.Item{}
	}
	return rows, nil
}

func (s *CatalogService) Get(ctx context.Context, scope Scope, id string) (*models.Item, error) {
	it, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Item", "Unable to load item")
	}
	if !scope.Allows(it.TenantID) {
		return nil, apperror.NotFoundf("Item not found")
	}
	return it, nil
}

func (s *CatalogService) Update(ctx context.Context, scope Scope, id string, in ItemUpdate) (*models.Item, error) {
	if errs := validate.Struct(&in); len(errs) > 0 {
		return nil, apperror.Invalid(errs)
	}
	it, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		it.Name = strings.TrimSpace(*in.Name)
	}
	if in.UnitPrice != nil {
		it.UnitPrice = *in.UnitPrice
	}
	if in.Unit != nil {
		it.Unit = strings.TrimSpace(*in.Unit)
	}
	it.UpdatedAt = s.now().UTC()

	if err := s.items.Update(ctx, it); err != nil {
		return nil, storeErr(err, "Item", "Unable to update item")
	}
	return it, nil
}

func (s *CatalogService) Delete(ctx context.Context, scope Scope, id string) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return storeErr(err, "Item", "Unable to delete item")
	}
	return nil
}
