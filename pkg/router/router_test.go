package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupPrefixAndMiddlewareOrder(t *testing.T) {
	r := New()

	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, req)
			})
		}
	}

	api := r.Group("/api", tag("api"))
	purchases := api.Group("purchases/", tag("purchases"))
	purchases.Get("/{id}", "purchases.show", func(w http.ResponseWriter, req *http.Request) {
		order = append(order, "handler:"+chi.URLParam(req, "id"))
		w.WriteHeader(http.StatusOK)
	}, tag("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/purchases/p1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"api", "purchases", "route", "handler:p1"}, order)
}

func TestNamedURL(t *testing.T) {
	r := New()
	r.Group("/api").Delete("/purchases/{id}", "purchases.destroy", func(http.ResponseWriter, *http.Request) {})

	url, err := r.URL("purchases.destroy", map[string]string{"id": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "/api/purchases/abc", url)

	_, err = r.URL("purchases.destroy", nil)
	assert.Error(t, err)

	_, err = r.URL("nope", nil)
	assert.Error(t, err)
}

func TestRoutesSorted(t *testing.T) {
	r := New()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.Post("/b", "b.store", noop)
	r.Get("/b", "b.index", noop)
	r.Get("/a", "", noop)

	assert.Equal(t, []RouteInfo{
		{Method: http.MethodGet, Path: "/a"},
		{Method: http.MethodGet, Path: "/b", Name: "b.index"},
		{Method: http.MethodPost, Path: "/b", Name: "b.store"},
	}, r.Routes())
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/", joinPath("", "/"))
	assert.Equal(t, "/api/items", joinPath("/api/", "/items/"))
}
