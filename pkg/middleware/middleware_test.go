package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/billdesk/pkg/apperror"
	"github.com/shashiranjanraj/billdesk/pkg/auth"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
)

type stubVerifier struct {
	claims *auth.Claims
	err    error
	seen   string
}

func (s *stubVerifier) resolve(_ context.Context, token string) (*auth.Claims, error) {
	s.seen = token
	return s.claims, s.err
}

func okHandler(t *testing.T, wantRole string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := auth.FromCtx(r.Context())
		assert.True(t, ok)
		assert.Equal(t, wantRole, c.Role)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticateCookie(t *testing.T) {
	v := &stubVerifier{claims: &auth.Claims{Role: "admin"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "tok"})

	rec := httptest.NewRecorder()
	Authenticate(v.resolve)(okHandler(t, "admin")).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "tok", v.seen)
}

func TestAuthenticateBearer(t *testing.T) {
	v := &stubVerifier{claims: &auth.Claims{Role: "staff"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")

	rec := httptest.NewRecorder()
	Authenticate(v.resolve)(okHandler(t, "staff")).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "abc", v.seen)
}

func TestAuthenticateMissingAndExpired(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { t.Fatal("next must not run") })

	rec := httptest.NewRecorder()
	Authenticate((&stubVerifier{}).resolve)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	v := &stubVerifier{err: apperror.New(apperror.SessionExpired, "Session expired")}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer old")
	rec = httptest.NewRecorder()
	Authenticate(v.resolve)(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Session expired")
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require(rbac.TenantManagement)(ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	staff := req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{Role: "staff"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, staff)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	super := req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{Role: "super_admin"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, super)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSEchoesAllowedOrigin(t *testing.T) {
	h := CORS(DefaultCORSOptions([]string{"http://localhost:4200"}))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:4200", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"))

	now = now.Add(time.Minute + time.Second)
	assert.True(t, l.Allow("1.1.1.1"))
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
