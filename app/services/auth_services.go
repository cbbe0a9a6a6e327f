package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/pkg/apperror"
	"github.com/shashiranjanraj/billdesk/pkg/auth"
	"github.com/shashiranjanraj/billdesk/pkg/cache"
	"github.com/shashiranjanraj/billdesk/pkg/logger"
	"github.com/shashiranjanraj/billdesk/pkg/metrics"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
	"github.com/shashiranjanraj/billdesk/pkg/validate"
)

// MsgInvalidCredentials is returned for every failed login, whatever the cause.
const MsgInvalidCredentials = "Invalid username or password"

// LoginInput is the login body. Username is accepted as an alias of LoginID.
type LoginInput struct {
	LoginID  string `json:"loginId"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserView is the role-normalised user record returned by login and /me.
type UserView struct {
	ID          string        `json:"id"`
	Username    string        `json:"username"`
	OwnerName   string        `json:"ownerName"`
	Email       string        `json:"email"`
	PhoneNumber string        `json:"phoneNumber"`
	Role        rbac.ViewRole `json:"role"`
	TenantID    string        `json:"tenantId,omitempty"`
	TenantName  string        `json:"tenantName,omitempty"`
}

// Session is the result of a successful login. Token goes into the session
// cookie and is not part of the JSON body.
type Session struct {
	Token     string       `json:"-"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserView     `json:"user"`
	Claims    *auth.Claims `json:"-"`
}

// Access lists the areas the caller may open.
type Access struct {
	Role      rbac.ViewRole   `json:"role"`
	Resources []rbac.Resource `json:"resources"`
}

type AuthService struct {
	accounts repositories.Accounts
	tenants  repositories.Tenants
	signer   *auth.Signer
	revoked  cache.Store
	now      func() time.Time
}

func NewAuthService(store repositories.Store, signer *auth.Signer, revoked cache.Store) *AuthService {
	return &AuthService{
		accounts: store.Accounts(),
		tenants:  store.Tenants(),
		signer:   signer,
		revoked:  revoked,
		now:      time.Now,
	}
}

// WithClock makes the service and its signer read time from now.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	cp := *s
	cp.now = now
	cp.signer = s.signer.WithClock(now)
	return &cp
}

func revokedKey(jti string) string { return "revoked:" + jti }

var (
	dummyOnce sync.Once
	dummyHash string
)

// burnCompare spends one bcrypt comparison so unknown logins take as long
// as wrong passwords.
func burnCompare(password string) {
	dummyOnce.Do(func() { dummyHash, _ = auth.HashPassword("billdesk-dummy-credential") })
	auth.CheckPassword(dummyHash, password)
}

// Authenticate checks the credentials and issues a session.
func (s *AuthService) Authenticate(ctx context.Context, in LoginInput) (*Session, error) {
	login := strings.TrimSpace(in.LoginID)
	if login == "" {
		login = strings.TrimSpace(in.Username)
	}

	errs := map[string]string{}
	if login == "" {
		errs["loginId"] = "The loginId field is required."
	}
	if in.Password == "" {
		errs["password"] = "The password field is required."
	}
	if len(errs) > 0 {
		return nil, apperror.Invalid(errs)
	}

	matches, err := s.accounts.FindByLogin(ctx, login)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, apperror.Wrap(err, "Unable to sign in")
	}

	var acct *models.Account
	for _, m := range matches {
		if m.Role.Interactive() {
			acct = m
			break
		}
	}

	if acct == nil || acct.PasswordHash == "" {
		burnCompare(in.Password)
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, apperror.New(apperror.InvalidCredentials, MsgInvalidCredentials)
	}
	if !auth.CheckPassword(acct.PasswordHash, in.Password) {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, apperror.New(apperror.InvalidCredentials, MsgInvalidCredentials)
	}

	token, claims, err := s.signer.Issue(acct.ID, string(acct.Role), acct.TenantID)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, apperror.Wrap(err, "Unable to sign in")
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	logger.WithCtx(ctx).Info("login", "account_id", acct.ID, "role", acct.Role)

	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      s.view(ctx, acct),
		Claims:    claims,
	}, nil
}

// VerifyToken checks signature, expiry and revocation. It reads only the
// revocation list.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperror.New(apperror.SessionExpired, "Session expired")
		}
		return nil, apperror.New(apperror.SessionInvalid, "Invalid session")
	}
	if claims.ID != "" && s.revoked.Has(ctx, revokedKey(claims.ID)) {
		return nil, apperror.New(apperror.SessionInvalid, "Invalid session")
	}
	return claims, nil
}

// ValidateSession verifies token and resolves its account.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*models.Account, error) {
	_, acct, err := s.resolve(ctx, token)
	return acct, err
}

// Session gates privileged routes. It validates token against the store and
// returns claims carrying the stored account's role and tenant, so deletion
// or a role change applies from the next request. A missing or credential-less
// account is an invalid session.
func (s *AuthService) Session(ctx context.Context, token string) (*auth.Claims, error) {
	claims, acct, err := s.resolve(ctx, token)
	if err != nil {
		if apperror.KindOf(err) == apperror.NotFound {
			return nil, apperror.New(apperror.SessionInvalid, "Invalid session")
		}
		return nil, err
	}
	if !acct.Role.Interactive() {
		return nil, apperror.New(apperror.SessionInvalid, "Invalid session")
	}

	live := *claims
	live.Role = string(acct.Role)
	live.TenantID = acct.TenantID
	return &live, nil
}

func (s *AuthService) resolve(ctx context.Context, token string) (*auth.Claims, *models.Account, error) {
	claims, err := s.VerifyToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	acct, err := s.account(ctx, claims.AccountID())
	if err != nil {
		return nil, nil, err
	}
	return claims, acct, nil
}

// Me returns the user record of the session's account.
func (s *AuthService) Me(ctx context.Context, claims *auth.Claims) (*UserView, error) {
	acct, err := s.account(ctx, claims.AccountID())
	if err != nil {
		return nil, err
	}
	v := s.view(ctx, acct)
	return &v, nil
}

// Logout revokes token until it would have expired. Invalid or empty tokens
// are ignored; it never fails.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	claims, err := s.signer.Verify(token)
	if err != nil || claims.ID == "" {
		return
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.revoked.Set(ctx, revokedKey(claims.ID), true, ttl); err != nil {
		logger.WithCtx(ctx).Warn("session revocation failed", "jti", claims.ID, "error", err)
		return
	}
	logger.WithCtx(ctx).Info("logout", "account_id", claims.Subject)
}

// Access returns the resources the caller's role may see.
func (s *AuthService) Access(claims *auth.Claims) Access {
	role := rbac.Role(claims.Role).View()
	return Access{Role: role, Resources: rbac.Visible(role)}
}

func (s *AuthService) account(ctx context.Context, id string) (*models.Account, error) {
	acct, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Account", "Unable to load account")
	}
	return acct, nil
}

func (s *AuthService) view(ctx context.Context, a *models.Account) UserView {
	v := UserView{
		ID:          a.ID,
		Username:    a.Email,
		OwnerName:   a.Name,
		Email:       a.Email,
		PhoneNumber: a.Phone,
		Role:        a.Role.View(),
		TenantID:    a.TenantID,
	}
	if a.TenantID == "" {
		return v
	}

	t, err := s.tenants.FindByID(ctx, a.TenantID)
	switch {
	case err == nil:
		v.TenantName = t.Name
	case !isNotFound(err):
		logger.WithCtx(ctx).Warn("tenant lookup failed", "tenant_id", a.TenantID, "error", err)
	}
	return v
}

// SuperAdminInput bootstraps the first super-admin from the CLI.
type SuperAdminInput struct {
	Name     string `json:"name"        validate:"required,max=255"`
	Email    string `json:"email"       validate:"required,email"`
	Phone    string `json:"phoneNumber" validate:"nullable,max=32"`
	Password string `json:"password"    validate:"required,min=8"`
}

// CreateSuperAdmin adds a super-admin account. The email must not be in use
// as a login.
func (s *AuthService) CreateSuperAdmin(ctx context.Context, in SuperAdminInput) (*models.Account, error) {
	in.Email = strings.TrimSpace(in.Email)
	if errs := validate.Struct(&in); len(errs) > 0 {
		return nil, apperror.Invalid(errs)
	}
	if err := ensureLoginFree(ctx, s.accounts, "", in.Email, in.Phone); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Wrap(err, "Unable to create account")
	}

	now := s.now().UTC()
	a := &models.Account{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         rbac.RoleSuperAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, storeErr(err, "Account", "Unable to create account")
	}
	return a, nil
}
