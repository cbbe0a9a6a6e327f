// Package testkit drives an http.Handler from tests and decodes the response
// envelope.
//
//	c := testkit.New(t, handler)
//	res := c.Post("/api/auth/login", map[string]string{"loginId": "a@b.c", "password": "..."})
//	res.AssertStatus(http.StatusOK)
//	session := res.Cookie(auth.SessionCookie)
//
// Table-driven cases go through Run:
//
//	testkit.Run(t, handler, []testkit.Scenario{
//	    {Name: "no session", Method: "GET", Path: "/api/auth/me", ExpectedCode: 401},
//	})
package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/billdesk/pkg/response"
)

// Client sends requests straight to a handler. Cookies set with Use are
// attached to every request.
type Client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
	header  http.Header
}

func New(t *testing.T, handler http.Handler) *Client {
	return &Client{t: t, handler: handler, header: http.Header{}}
}

// Use returns a copy of c that sends cookies with every request.
func (c *Client) Use(cookies ...*http.Cookie) *Client {
	cp := *c
	cp.cookies = append(append([]*http.Cookie(nil), c.cookies...), cookies...)
	cp.header = c.header.Clone()
	return &cp
}

// WithHeader returns a copy of c that sends key: value with every request.
func (c *Client) WithHeader(key, value string) *Client {
	cp := c.Use()
	cp.header.Set(key, value)
	return cp
}

func (c *Client) Get(path string) *Response            { return c.Do(http.MethodGet, path, nil) }
func (c *Client) Delete(path string) *Response         { return c.Do(http.MethodDelete, path, nil) }
func (c *Client) Post(path string, body any) *Response { return c.Do(http.MethodPost, path, body) }
func (c *Client) Put(path string, body any) *Response  { return c.Do(http.MethodPut, path, body) }

// Do encodes body as JSON unless it is nil, a string or []byte, which are
// sent as is.
func (c *Client) Do(method, path string, body any) *Response {
	c.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		var buf bytes.Buffer
		require.NoError(c.t, json.NewEncoder(&buf).Encode(b))
		reader = &buf
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return newResponse(c.t, rec)
}

// Response is a recorded reply. Envelope is zero when the body is not JSON.
type Response struct {
	t        *testing.T
	Code     int
	Header   http.Header
	Body     []byte
	Envelope response.Envelope
	cookies  []*http.Cookie
}

func newResponse(t *testing.T, rec *httptest.ResponseRecorder) *Response {
	res := &Response{
		t:       t,
		Code:    rec.Code,
		Header:  rec.Header(),
		Body:    rec.Body.Bytes(),
		cookies: rec.Result().Cookies(),
	}
	_ = json.Unmarshal(res.Body, &res.Envelope)
	return res
}

// Cookie returns the named Set-Cookie of the response, or nil.
func (r *Response) Cookie(name string) *http.Cookie {
	for _, c := range r.cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Decode unmarshals the envelope's data into dest.
func (r *Response) Decode(dest any) {
	r.t.Helper()
	require.NotEmpty(r.t, r.Envelope.Data, "response has no data: %s", r.Body)
	require.NoError(r.t, json.Unmarshal(r.Envelope.Data, dest))
}

func (r *Response) AssertStatus(code int) *Response {
	r.t.Helper()
	assert.Equal(r.t, code, r.Code, "body: %s", r.Body)
	return r
}

// RequireStatus stops the test on a status mismatch.
func (r *Response) RequireStatus(code int) *Response {
	r.t.Helper()
	require.Equal(r.t, code, r.Code, "body: %s", r.Body)
	return r
}

// AssertData compares the envelope's data with expected JSON, ignoring key
// order and whitespace.
func (r *Response) AssertData(expected string) *Response {
	r.t.Helper()
	AssertJSON(r.t, expected, r.Envelope.Data)
	return r
}

// AssertJSON deep-compares two JSON documents after normalising both.
func AssertJSON(t *testing.T, expected string, actual []byte) {
	t.Helper()

	var exp, act any
	require.NoError(t, json.Unmarshal([]byte(expected), &exp), "expected is not valid JSON")
	if !assert.NoError(t, json.Unmarshal(actual, &act), "actual is not valid JSON: %s", actual) {
		return
	}
	assert.Equal(t, exp, act)
}

// Scenario is one request and the outcome it must produce.
type Scenario struct {
	Name         string
	Method       string
	Path         string
	Body         any
	Cookies      []*http.Cookie
	ExpectedCode int
	// ExpectedMessage is compared with the envelope message when set.
	ExpectedMessage string
}

// Run executes each scenario as a subtest.
func Run(t *testing.T, handler http.Handler, scenarios []Scenario) {
	t.Helper()
	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			res := New(t, handler).Use(s.Cookies...).Do(s.Method, s.Path, s.Body)
			res.AssertStatus(s.ExpectedCode)
			if s.ExpectedMessage != "" {
				assert.Equal(t, s.ExpectedMessage, res.Envelope.Message)
			}
			assert.Equal(t, s.ExpectedCode < http.StatusBadRequest, res.Envelope.Success, "envelope success flag")
		})
	}
}
