package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/app/repositories/memstore"
	"github.com/shashiranjanraj/billdesk/app/services"
	"github.com/shashiranjanraj/billdesk/pkg/apperror"
	"github.com/shashiranjanraj/billdesk/pkg/auth"
	"github.com/shashiranjanraj/billdesk/pkg/cache"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
)

const testSecret = "test-secret"

type authFixture struct {
	store  *memstore.Store
	svc    *services.AuthService
	tenant *models.Tenant
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	s := memstore.New()
	tn := &models.Tenant{Name: "Corner Shop", OwnerName: "Asha", Phone: "9000000001"}
	require.NoError(t, s.Tenants().Create(context.Background(), tn))
	return &authFixture{
		store:  s,
		svc:    services.NewAuthService(s, auth.NewSigner(testSecret), cache.NewMemory()),
		tenant: tn,
	}
}

func (f *authFixture) account(t *testing.T, role rbac.Role, email, phone, password string) *models.Account {
	t.Helper()
	a := &models.Account{Name: "User " + email, Email: email, Phone: phone, Role: role}
	if role != rbac.RoleSuperAdmin {
		a.TenantID = f.tenant.ID
	}
	if password != "" {
		hash, err := auth.HashPassword(password)
		require.NoError(t, err)
		a.PasswordHash = hash
	}
	require.NoError(t, f.store.Accounts().Create(context.Background(), a))
	return a
}

func TestAuthenticate_RoleMapping(t *testing.T) {
	f := newAuthFixture(t)
	cases := []struct {
		role rbac.Role
		want rbac.ViewRole
	}{
		{rbac.RoleSuperAdmin, rbac.ViewSuperAdmin},
		{rbac.RoleAdmin, rbac.ViewAdmin},
		{rbac.RoleStaff, rbac.ViewStaff},
		{rbac.Role("cashier"), rbac.ViewStaff},
	}

	for i, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			email := string(tc.role) + "@example.com"
			a := f.account(t, tc.role, email, fmt.Sprintf("800000000%d", i), "s3cret-pass")

			sess, err := f.svc.Authenticate(context.Background(), services.LoginInput{LoginID: email, Password: "s3cret-pass"})
			require.NoError(t, err)

			claims, err := auth.NewSigner(testSecret).Verify(sess.Token)
			require.NoError(t, err)
			assert.Equal(t, a.ID, claims.AccountID())
			assert.Equal(t, tc.want, sess.User.Role)
			assert.Equal(t, email, sess.User.Username)
			assert.Equal(t, a.Name, sess.User.OwnerName)
			assert.WithinDuration(t, time.Now().Add(auth.SessionTTL), sess.ExpiresAt, 5*time.Second)
		})
	}
}

func TestAuthenticate_ByPhoneAndUsernameAlias(t *testing.T) {
	f := newAuthFixture(t)
	a := f.account(t, rbac.RoleAdmin, "admin@example.com", "9876543210", "s3cret-pass")

	sess, err := f.svc.Authenticate(context.Background(), services.LoginInput{Username: "9876543210", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, a.ID, sess.User.ID)
	assert.Equal(t, "Corner Shop", sess.User.TenantName)
	assert.Equal(t, f.tenant.ID, sess.Claims.TenantID)
}

func TestAuthenticate_FailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.account(t, rbac.RoleStaff, "staff@example.com", "7000000001", "right-pass")
	f.account(t, rbac.RoleCustomer, "", "7000000002", "")

	attempts := map[string]services.LoginInput{
		"unknown login":  {LoginID: "ghost@example.com", Password: "whatever"},
		"customer only":  {LoginID: "7000000002", Password: "whatever"},
		"wrong password": {LoginID: "staff@example.com", Password: "wrong-pass"},
	}

	var messages []string
	for name, in := range attempts {
		_, err := f.svc.Authenticate(context.Background(), in)
		require.Error(t, err, name)
		assert.Equal(t, apperror.InvalidCredentials, apperror.KindOf(err), name)
		messages = append(messages, apperror.From(err).Message)
	}
	for _, m := range messages {
		assert.Equal(t, services.MsgInvalidCredentials, m)
	}
}

func TestAuthenticate_MissingFields(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Authenticate(context.Background(), services.LoginInput{})
	require.Error(t, err)
	e := apperror.From(err)
	assert.Equal(t, apperror.Validation, e.Kind)
	assert.Contains(t, e.Fields, "loginId")
	assert.Contains(t, e.Fields, "password")
}

func TestVerifyToken_ExpiresAfterTTL(t *testing.T) {
	f := newAuthFixture(t)
	f.account(t, rbac.RoleStaff, "staff@example.com", "7000000001", "right-pass")

	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc := f.svc.WithClock(func() time.Time { return now })
	ctx := context.Background()

	sess, err := svc.Authenticate(ctx, services.LoginInput{LoginID: "staff@example.com", Password: "right-pass"})
	require.NoError(t, err)

	now = now.Add(auth.SessionTTL - time.Second)
	_, err = svc.VerifyToken(ctx, sess.Token)
	require.NoError(t, err, "token must be valid until expiry")

	now = now.Add(2 * time.Second)
	_, err = svc.VerifyToken(ctx, sess.Token)
	assert.Equal(t, apperror.SessionExpired, apperror.KindOf(err))

	_, err = svc.VerifyToken(ctx, "not-a-token")
	assert.Equal(t, apperror.SessionInvalid, apperror.KindOf(err))

	forged, _, err := auth.NewSigner("other-secret").Issue("x", "admin", "")
	require.NoError(t, err)
	_, err = svc.VerifyToken(ctx, forged)
	assert.Equal(t, apperror.SessionInvalid, apperror.KindOf(err))
}

func TestLogout_RevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	f.account(t, rbac.RoleAdmin, "admin@example.com", "7000000001", "right-pass")
	ctx := context.Background()

	sess, err := f.svc.Authenticate(ctx, services.LoginInput{LoginID: "admin@example.com", Password: "right-pass"})
	require.NoError(t, err)

	_, err = f.svc.VerifyToken(ctx, sess.Token)
	require.NoError(t, err)

	f.svc.Logout(ctx, sess.Token)
	_, err = f.svc.VerifyToken(ctx, sess.Token)
	assert.Equal(t, apperror.SessionInvalid, apperror.KindOf(err))

	assert.NotPanics(t, func() {
		f.svc.Logout(ctx, sess.Token)
		f.svc.Logout(ctx, "")
		f.svc.Logout(ctx, "garbage")
	})
}

func TestValidateSession_DeletedAccount(t *testing.T) {
	f := newAuthFixture(t)
	a := f.account(t, rbac.RoleAdmin, "admin@example.com", "7000000001", "right-pass")
	ctx := context.Background()

	sess, err := f.svc.Authenticate(ctx, services.LoginInput{LoginID: "admin@example.com", Password: "right-pass"})
	require.NoError(t, err)

	got, err := f.svc.ValidateSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	require.NoError(t, f.store.Accounts().Delete(ctx, a.ID))
	_, err = f.svc.ValidateSession(ctx, sess.Token)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))

	_, err = f.svc.Me(ctx, sess.Claims)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func TestSession_ReadsStoredAccount(t *testing.T) {
	f := newAuthFixture(t)
	a := f.account(t, rbac.RoleAdmin, "admin@example.com", "7000000001", "right-pass")
	ctx := context.Background()

	sess, err := f.svc.Authenticate(ctx, services.LoginInput{LoginID: "admin@example.com", Password: "right-pass"})
	require.NoError(t, err)

	claims, err := f.svc.Session(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, string(rbac.RoleAdmin), claims.Role)
	assert.Equal(t, f.tenant.ID, claims.TenantID)

	a.Role = rbac.RoleStaff
	require.NoError(t, f.store.Accounts().Update(ctx, a))
	claims, err = f.svc.Session(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, string(rbac.RoleStaff), claims.Role)
	assert.Equal(t, string(rbac.RoleAdmin), sess.Claims.Role)

	a.Role = rbac.RoleCustomer
	require.NoError(t, f.store.Accounts().Update(ctx, a))
	_, err = f.svc.Session(ctx, sess.Token)
	assert.Equal(t, apperror.SessionInvalid, apperror.KindOf(err))

	require.NoError(t, f.store.Accounts().Delete(ctx, a.ID))
	_, err = f.svc.Session(ctx, sess.Token)
	assert.Equal(t, apperror.SessionInvalid, apperror.KindOf(err))
}

func TestAccess(t *testing.T) {
	f := newAuthFixture(t)

	got := f.svc.Access(&auth.Claims{Role: string(rbac.RoleAdmin)})
	assert.Equal(t, rbac.ViewAdmin, got.Role)
	assert.Equal(t, []rbac.Resource{rbac.CatalogManagement, rbac.CustomerManagement, rbac.OrderCapture}, got.Resources)

	got = f.svc.Access(&auth.Claims{Role: string(rbac.RoleCustomer)})
	assert.Equal(t, rbac.ViewStaff, got.Role)
	assert.Equal(t, []rbac.Resource{rbac.OrderCapture}, got.Resources)
}

func TestCreateSuperAdmin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	a, err := f.svc.CreateSuperAdmin(ctx, services.SuperAdminInput{Name: "Root", Email: "root@example.com", Password: "long-enough"})
	require.NoError(t, err)
	assert.Empty(t, a.TenantID)

	sess, err := f.svc.Authenticate(ctx, services.LoginInput{LoginID: "root@example.com", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, rbac.ViewSuperAdmin, sess.User.Role)
	assert.Empty(t, sess.User.TenantName)

	_, err = f.svc.CreateSuperAdmin(ctx, services.SuperAdminInput{Name: "Again", Email: "root@example.com", Password: "long-enough"})
	assert.Equal(t, apperror.Conflict, apperror.KindOf(err))

	_, err = f.svc.CreateSuperAdmin(ctx, services.SuperAdminInput{Name: "Short", Email: "short@example.com", Password: "x"})
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
}
