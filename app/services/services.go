// Package services holds the business rules. Services are written against
// repositories.Store and return *apperror.Error values; storage failures
// never reach callers unclassified.
package services

import (
	"errors"

	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/pkg/apperror"
	"github.com/shashiranjanraj/billdesk/pkg/auth"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
)

// Scope is the tenant binding of the caller.
type Scope struct {
	AccountID string
	TenantID  string
	// All lifts tenant filtering. Only super-admins get it.
	All bool
}

// ScopeFor derives the scope from verified session claims.
func ScopeFor(c *auth.Claims) Scope {
	return Scope{
		AccountID: c.Subject,
		TenantID:  c.TenantID,
		All:       rbac.Role(c.Role) == rbac.RoleSuperAdmin,
	}
}

// Allows reports whether rows of tenantID are visible in s.
func (s Scope) Allows(tenantID string) bool {
	return s.All || (s.TenantID != "" && s.TenantID == tenantID)
}

// tenantFilter returns the tenant id to filter listings by ("" for all).
// ok is false for a bound scope without a tenant, which sees nothing.
func (s Scope) tenantFilter() (string, bool) {
	if s.All {
		return "", true
	}
	return s.TenantID, s.TenantID != ""
}

// tenantFor picks the tenant a new row belongs to: the caller's own, or the
// requested one for unrestricted callers.
func (s Scope) tenantFor(requested string) (string, error) {
	switch {
	case s.All && requested != "":
		return requested, nil
	case s.All:
		return "", apperror.InvalidField("tenantId", "The tenantId field is required.")
	case s.TenantID == "":
		return "", apperror.New(apperror.Forbidden, "Your account is not bound to a tenant")
	case requested != "" && requested != s.TenantID:
		return "", apperror.New(apperror.Forbidden, "You cannot act on behalf of another tenant")
	default:
		return s.TenantID, nil
	}
}

// storeErr maps repository sentinels onto the error taxonomy. msg is what
// clients see for anything unexpected.
func storeErr(err error, what, msg string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperror.NotFoundf("%s not found", what)
	case errors.Is(err, repositories.ErrDuplicate):
		return apperror.New(apperror.Conflict, what+" already exists")
	default:
		return apperror.Wrap(err, msg)
	}
}

func isNotFound(err error) bool { return errors.Is(err, repositories.ErrNotFound) }
