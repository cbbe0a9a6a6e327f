package services

import (
	"context"
	"strings"
	"time"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/pkg/apperror"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
	"github.com/shashiranjanraj/billdesk/pkg/validate"
)

type CustomerInput struct {
	TenantID   string `json:"tenantId"`
	Name       string `json:"name"        validate:"required,max=255"`
	Phone      string `json:"phoneNumber" validate:"required,max=32"`
	RFIDCardID string `json:"rfidCardId"  validate:"required,max=64"`
	Email      string `json:"email"       validate:"nullable,email"`
}

type CustomerUpdate struct {
	Name       *string `json:"name"        validate:"nullable,min=1,max=255"`
	Phone      *string `json:"phoneNumber" validate:"nullable,min=1,max=32"`
	RFIDCardID *string `json:"rfidCardId"  validate:"nullable,min=1,max=64"`
	Email      *string `json:"email"       validate:"nullable,email"`
}

// CustomerService manages customer accounts. Customers never sign in; the
// checkout identifies them by RFID card.
type CustomerService struct {
	accounts      repositories.Accounts
	notifications repositories.Notifications
	now           func() time.Time
}

func NewCustomerService(store repositories.Store) *CustomerService {
	return &CustomerService{
		accounts:      store.Accounts(),
		notifications: store.Notifications(),
		now:           time.Now,
	}
}

func (s *CustomerService) Create(ctx context.Context, scope Scope, in CustomerInput) (*models.Account, error) {
	if errs := validate.Struct(&in); len(errs) > 0 {
		return nil, apperror.Invalid(errs)
	}
	tenantID, err := scope.tenantFor(in.TenantID)
	if err != nil {
		return nil, err
	}

	card := strings.TrimSpace(in.RFIDCardID)
	if err := s.ensureCardFree(ctx, "", card); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &models.Account{
		TenantID:   tenantID,
		Name:       strings.TrimSpace(in.Name),
		Phone:      strings.TrimSpace(in.Phone),
		Email:      strings.TrimSpace(in.Email),
		Role:       rbac.RoleCustomer,
		RFIDCardID: card,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.accounts.Create(ctx, c); err != nil {
		return nil, storeErr(err, "Customer", "Unable to create customer")
	}
	return c, nil
}

// List returns the customers in scope whose name, email or phone contains
// search.
func (s *CustomerService) List(ctx context.Context, scope Scope, search string) ([]*models.Account, error) {
	tenantID, ok := scope.tenantFilter()
	if !ok {
		return []*models.Account{}, nil
	}
	rows, err := s.accounts.List(ctx, repositories.AccountFilter{
		TenantID: tenantID,
		Roles:    []rbac.Role{rbac.RoleCustomer},
		Search:   search,
	})
	if err != nil {
		return nil, apperror.Wrap(err, "Unable to load customers")
	}
	if rows == nil {
		rows = []*models.Account{}
	}
	return rows, nil
}

func (s *CustomerService) Get(ctx context.Context, scope Scope, id string) (*models.Account, error) {
	c, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Customer", "Unable to load customer")
	}
	if c.Role != rbac.RoleCustomer || !scope.Allows(c.TenantID) {
		return nil, apperror.NotFoundf("Customer not found")
	}
	return c, nil
}

// FindByRFID identifies a customer at checkout.
func (s *CustomerService) FindByRFID(ctx context.Context, scope Scope, card string) (*models.Account, error) {
	c, err := s.accounts.FindByRFID(ctx, strings.TrimSpace(card))
	if err != nil {
		return nil, storeErr(err, "Customer", "Unable to load customer")
	}
	if !scope.Allows(c.TenantID) {
		return nil, apperror.NotFoundf("Customer not found")
	}
	return c, nil
}

func (s *CustomerService) Update(ctx context.Context, scope Scope, id string, in CustomerUpdate) (*models.Account, error) {
	if errs := validate.Struct(&in); len(errs) > 0 {
		return nil, apperror.Invalid(errs)
	}
	c, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if in.RFIDCardID != nil {
		card := strings.TrimSpace(*in.RFIDCardID)
		if card != c.RFIDCardID {
			if err := s.ensureCardFree(ctx, c.ID, card); err != nil {
				return nil, err
			}
		}
		c.RFIDCardID = card
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	c.UpdatedAt = s.now().UTC()

	if err := s.accounts.Update(ctx, c); err != nil {
		return nil, storeErr(err, "Customer", "Unable to update customer")
	}
	return c, nil
}

func (s *CustomerService) Delete(ctx context.Context, scope Scope, id string) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return storeErr(err, "Customer", "Unable to delete customer")
	}
	return nil
}

// Notifications returns what was sent to a customer, newest first.
func (s *CustomerService) Notifications(ctx context.Context, scope Scope, id string) ([]*models.Notification, error) {
	c, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.notifications.ListByCustomer(ctx, c.ID)
	if err != nil {
		return nil, apperror.Wrap(err, "Unable to load notifications")
	}
	if rows == nil {
		rows = []*models.Notification{}
	}
	return rows, nil
}

func (s *CustomerService) ensureCardFree(ctx context.Context, selfID, card string) error {
	existing, err := s.accounts.FindByRFID(ctx, card)
	switch {
	case isNotFound(err):
		return nil
	case err != nil:
		return apperror.Wrap(err, "Unable to save customer")
	case existing.ID != selfID:
		return apperror.New(apperror.Conflict, "RFID card is already assigned to another customer")
	}
	return nil
}
