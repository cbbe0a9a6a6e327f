// Package ctx provides the request context passed to API handlers.
//
//	func (pc *PurchaseController) Show(c *ctx.Context) {
//	    p, err := pc.svc.Read(c.Context(), pc.scope(c), c.Param("id"))
//	    if err != nil {
//	        c.Fail(err)
//	        return
//	    }
//	    c.Success(p)
//	}
//
//	router.Get("/purchases/{id}", "purchases.show", ctx.Wrap(pc.Show))
package ctx

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/billdesk/pkg/apperror"
	"github.com/shashiranjanraj/billdesk/pkg/auth"
	"github.com/shashiranjanraj/billdesk/pkg/bind"
	"github.com/shashiranjanraj/billdesk/pkg/logger"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
	"github.com/shashiranjanraj/billdesk/pkg/response"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap adapts h to http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

type Context struct {
	W http.ResponseWriter
	R *http.Request
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request ──────────────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string { return chi.URLParam(c.R, key) }

func (c *Context) Query(key string) string {
	return strings.TrimSpace(c.R.URL.Query().Get(key))
}

// QueryInt parses a positive integer query value, falling back to def.
func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (c *Context) Context() context.Context { return c.R.Context() }

// ClientIP returns the first X-Forwarded-For hop or the remote address.
func (c *Context) ClientIP() string {
	if fwd := c.R.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	ip := c.R.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Claims returns the caller's verified session claims.
func (c *Context) Claims() (*auth.Claims, bool) { return auth.FromCtx(c.R.Context()) }

// ViewRole returns the caller's view tier, or "" when unauthenticated.
func (c *Context) ViewRole() rbac.ViewRole {
	if cl, ok := c.Claims(); ok {
		return rbac.Role(cl.Role).View()
	}
	return ""
}

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes and validates the body into dest. On failure it writes a
// 400 and returns false.
//
//	var in services.CreatePurchaseInput
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.W, c.R, dest)
	if err != nil {
		response.Error(c.W, http.StatusBadRequest, err.Error())
		return false
	}
	if len(errs) > 0 {
		response.ValidationError(c.W, errs)
		return false
	}
	return true
}

// ─── Response ─────────────────────────────────────────────────────────────────

func (c *Context) Success(data any)                 { response.Success(c.W, data) }
func (c *Context) Created(data any)                 { response.Created(c.W, data) }
func (c *Context) Message(msg string, data any)     { response.Message(c.W, msg, data) }
func (c *Context) Error(status int, message string) { response.Error(c.W, status, message) }

func (c *Context) Paginated(data any, page, limit int, total int64) {
	response.Paginated(c.W, data, response.NewPagination(page, limit, total))
}

// Fail classifies err and writes it. Internal causes are logged with the
// request's logger and replaced by a generic message.
func (c *Context) Fail(err error) {
	e := apperror.From(err)
	if e.Kind == apperror.Internal {
		logger.WithCtx(c.Context()).Error("request failed",
			"method", c.R.Method,
			"path", c.R.URL.Path,
			"error", err,
		)
	}
	response.Fail(c.W, e)
}

// SetCookie writes cookie on the response.
func (c *Context) SetCookie(cookie *http.Cookie) { http.SetCookie(c.W, cookie) }
