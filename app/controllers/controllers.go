// Package controllers holds the HTTP handlers. Each handler binds input,
// calls one service method and writes the envelope.
package controllers

import (
	"github.com/shashiranjanraj/billdesk/app/services"
	"github.com/shashiranjanraj/billdesk/pkg/apperror"
	"github.com/shashiranjanraj/billdesk/pkg/ctx"
)

var errNoSession = apperror.New(apperror.SessionInvalid, "Authentication required")

// scope returns the caller's tenant scope. ok is false when the request
// carries no verified session; a 401 has been written then.
func scope(c *ctx.Context) (services.Scope, bool) {
	claims, ok := c.Claims()
	if !ok {
		c.Fail(errNoSession)
		return services.Scope{}, false
	}
	return services.ScopeFor(claims), true
}
