package middleware

import (
	"context"
	"net/http"

	"github.com/shashiranjanraj/billdesk/pkg/apperror"
	"github.com/shashiranjanraj/billdesk/pkg/auth"
	"github.com/shashiranjanraj/billdesk/pkg/logger"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
	"github.com/shashiranjanraj/billdesk/pkg/response"
)

// SessionFunc turns a raw session token into the caller's claims. Role and
// tenant checks downstream trust what it returns.
type SessionFunc func(ctx context.Context, token string) (*auth.Claims, error)

// Authenticate rejects requests without a valid session with 401 and stores
// the resolved claims in the request context.
func Authenticate(resolve SessionFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			if token == "" {
				response.Fail(w, apperror.New(apperror.SessionInvalid, "Authentication required"))
				return
			}

			claims, err := resolve(r.Context(), token)
			if err != nil {
				response.Fail(w, apperror.From(err))
				return
			}

			ctx := auth.WithClaims(r.Context(), claims)
			ctx = logger.InjectLogger(ctx, logger.WithCtx(ctx).With("account_id", claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require admits callers whose role can access any of resources. It must run
// after Authenticate.
func Require(resources ...rbac.Resource) func(http.Handler) http.Handler {
	return rbac.Require(roleFromRequest, deny, resources...)
}

func roleFromRequest(r *http.Request) (rbac.ViewRole, bool) {
	c, ok := auth.FromCtx(r.Context())
	if !ok {
		return "", false
	}
	return rbac.Role(c.Role).View(), true
}

func deny(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromCtx(r.Context()); !ok {
		response.Fail(w, apperror.New(apperror.SessionInvalid, "Authentication required"))
		return
	}
	response.Forbidden(w)
}
