package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/billdesk/app/services"
	"github.com/shashiranjanraj/billdesk/pkg/auth"
	"github.com/shashiranjanraj/billdesk/pkg/ctx"
)

type AuthController struct {
	service *services.AuthService
	secure  bool
}

// NewAuthController builds the session endpoints. secure sets the Secure
// attribute of the session cookie.
func NewAuthController(service *services.AuthService, secure bool) *AuthController {
	return &AuthController{service: service, secure: secure}
}

// Login POST /api/auth/login
func (ac *AuthController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}

	sess, err := ac.service.Authenticate(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}

	c.SetCookie(ac.cookie(sess.Token, int(auth.SessionTTL.Seconds())))
	c.Success(sess)
}

// Logout POST /api/auth/logout
func (ac *AuthController) Logout(c *ctx.Context) {
	ac.service.Logout(c.Context(), auth.TokenFromRequest(c.R))
	c.SetCookie(ac.cookie("", -1))
	c.Message("Logged out", nil)
}

// Me GET /api/auth/me
func (ac *AuthController) Me(c *ctx.Context) {
	claims, ok := c.Claims()
	if !ok {
		c.Fail(errNoSession)
		return
	}
	user, err := ac.service.Me(c.Context(), claims)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

// Access GET /api/auth/access
func (ac *AuthController) Access(c *ctx.Context) {
	claims, ok := c.Claims()
	if !ok {
		c.Fail(errNoSession)
		return
	}
	c.Success(ac.service.Access(claims))
}

func (ac *AuthController) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   ac.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
