package services

import (
	"context"
	"strings"
	"time"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/pkg/apperror"
	"github.com/shashiranjanraj/billdesk/pkg/auth"
	"github.com/shashiranjanraj/billdesk/pkg/logger"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
	"github.com/shashiranjanraj/billdesk/pkg/validate"
)

const msgTenantConflict = "A tenant with this name and phone number already exists"

// TenantInput creates a tenant. With AdminPassword set, an admin account
// for the owner is provisioned as well and Email becomes its login.
type TenantInput struct {
	Name          string `json:"name"          validate:"required,max=255"`
	OwnerName     string `json:"ownerName"     validate:"required,max=255"`
	Phone         string `json:"phoneNumber"   validate:"required,max=32"`
	Email         string `json:"email"         validate:"nullable,email"`
	AdminPassword string `json:"adminPassword" validate:"nullable,min=8"`
}

// TenantUpdate is a partial update; nil fields are left as they are.
type TenantUpdate struct {
	Name      *string `json:"name"        validate:"nullable,min=1,max=255"`
	OwnerName *string `json:"ownerName"   validate:"nullable,min=1,max=255"`
	Phone     *string `json:"phoneNumber" validate:"nullable,min=1,max=32"`
	Email     *string `json:"email"       validate:"nullable,email"`
}

type TenantService struct {
	tenants  repositories.Tenants
	accounts repositories.Accounts
	now      func() time.Time
}

func NewTenantService(store repositories.Store) *TenantService {
	return &TenantService{tenants: store.Tenants(), accounts: store.Accounts(), now: time.Now}
}

func (s *TenantService) Create(ctx context.Context, in TenantInput) (*models.Tenant, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)

	errs := validate.Struct(&in)
	if in.AdminPassword != "" && in.Email == "" {
		errs["email"] = "The email field is required when adminPassword is present."
	}
	if len(errs) > 0 {
		return nil, apperror.Invalid(errs)
	}

	if err := s.ensureUnique(ctx, "", in.Name, in.Phone); err != nil {
		return nil, err
	}
	if in.AdminPassword != "" {
		if err := ensureLoginFree(ctx, s.accounts, "", in.Email, in.Phone); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	t := &models.Tenant{
		Name:      in.Name,
		OwnerName: strings.TrimSpace(in.OwnerName),
		Phone:     in.Phone,
		Email:     in.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tenants.Create(ctx, t); err != nil {
		return nil, storeErr(err, "Tenant", "Unable to create tenant")
	}

	if in.AdminPassword != "" {
		if err := s.provisionAdmin(ctx, t, in.AdminPassword); err != nil {
			if derr := s.tenants.Delete(context.WithoutCancel(ctx), t.ID); derr != nil {
				logger.WithCtx(ctx).Error("tenant rollback failed", "tenant_id", t.ID, "error", derr)
			}
			return nil, apperror.Wrap(err, "Unable to create tenant")
		}
	}

	logger.WithCtx(ctx).Info("tenant created", "tenant_id", t.ID, "with_admin", in.AdminPassword != "")
	return t, nil
}

func (s *TenantService) provisionAdmin(ctx context.Context, t *models.Tenant, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	return s.accounts.Create(ctx, &models.Account{
		TenantID:     t.ID,
		Name:         t.OwnerName,
		Email:        t.Email,
		Phone:        t.Phone,
		PasswordHash: hash,
		Role:         rbac.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// List returns a newest-first page of tenants matching search.
func (s *TenantService) List(ctx context.Context, search string, page, limit int) ([]*models.Tenant, int64, error) {
	rows, total, err := s.tenants.List(ctx, search, repositories.Page{Page: page, Limit: limit})
	if err != nil {
		return nil, 0, apperror.Wrap(err, "Unable to load tenants")
	}
	if rows == nil {
		rows = []*models.Tenant{}
	}
	return rows, total, nil
}

func (s *TenantService) Get(ctx context.Context, id string) (*models.Tenant, error) {
	t, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Tenant", "Unable to load tenant")
	}
	return t, nil
}

func (s *TenantService) Update(ctx context.Context, id string, in TenantUpdate) (*models.Tenant, error) {
	if errs := validate.Struct(&in); len(errs) > 0 {
		return nil, apperror.Invalid(errs)
	}

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name, phone := t.Name, t.Phone
	if in.Name != nil {
		t.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		t.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.OwnerName != nil {
		t.OwnerName = strings.TrimSpace(*in.OwnerName)
	}
	if in.Email != nil {
		t.Email = strings.TrimSpace(*in.Email)
	}

	if t.Name != name || t.Phone != phone {
		if err := s.ensureUnique(ctx, t.ID, t.Name, t.Phone); err != nil {
			return nil, err
		}
	}

	t.UpdatedAt = s.now().UTC()
	if err := s.tenants.Update(ctx, t); err != nil {
		return nil, storeErr(err, "Tenant", "Unable to update tenant")
	}
	return t, nil
}

// Delete removes the tenant only. Its accounts, items and purchases are
// left in place.
func (s *TenantService) Delete(ctx context.Context, id string) error {
	if err := s.tenants.Delete(ctx, id); err != nil {
		return storeErr(err, "Tenant", "Unable to delete tenant")
	}
	logger.WithCtx(ctx).Info("tenant deleted", "tenant_id", id)
	return nil
}

func (s *TenantService) ensureUnique(ctx context.Context, selfID, name, phone string) error {
	existing, err := s.tenants.FindByNamePhone(ctx, name, phone)
	switch {
	case isNotFound(err):
		return nil
	case err != nil:
		return apperror.Wrap(err, "Unable to save tenant")
	case existing.ID != selfID:
		return apperror.New(apperror.Conflict, msgTenantConflict)
	}
	return nil
}

// ensureLoginFree rejects email or phone values already used as a login by
// another non-customer account.
func ensureLoginFree(ctx context.Context, accounts repositories.Accounts, selfID string, logins ...string) error {
	for _, login := range logins {
		if login == "" {
			continue
		}
		matches, err := accounts.FindByLogin(ctx, login)
		if err != nil {
			return apperror.Wrap(err, "Unable to save account")
		}
		for _, m := range matches {
			if m.ID != selfID && m.Role.Interactive() {
				return apperror.New(apperror.Conflict, "Login "+login+" is already in use")
			}
		}
	}
	return nil
}
