// Package routes maps the /api surface onto the controllers.
package routes

import (
	"time"

	"github.com/shashiranjanraj/billdesk/app/controllers"
	"github.com/shashiranjanraj/billdesk/app/services"
	"github.com/shashiranjanraj/billdesk/pkg/ctx"
	"github.com/shashiranjanraj/billdesk/pkg/middleware"
	"github.com/shashiranjanraj/billdesk/pkg/rbac"
	"github.com/shashiranjanraj/billdesk/pkg/router"
)

// Services is everything the API needs to serve requests.
type Services struct {
	Auth      *services.AuthService
	Tenants   *services.TenantService
	Catalog   *services.CatalogService
	Customers *services.CustomerService
	Purchases *services.PurchaseService

	CookieSecure bool
	// LoginLimit caps login attempts per client IP per minute. <= 0 disables it.
	LoginLimit int
}

func RegisterAPI(r *router.Router, s Services) {
	authController := controllers.NewAuthController(s.Auth, s.CookieSecure)
	tenantController := controllers.NewTenantController(s.Tenants)
	itemController := controllers.NewItemController(s.Catalog)
	customerController := controllers.NewCustomerController(s.Customers)
	purchaseController := controllers.NewPurchaseController(s.Purchases)

	api := r.Group("/api")

	var loginMW []router.Middleware
	if s.LoginLimit > 0 {
		loginMW = append(loginMW, middleware.RateLimit(s.LoginLimit, time.Minute))
	}
	api.Post("/auth/login", "auth.login", ctx.Wrap(authController.Login), loginMW...)
	api.Post("/auth/logout", "auth.logout", ctx.Wrap(authController.Logout))

	// /auth/me resolves the account itself and answers 404 once it is gone.
	api.Get("/auth/me", "auth.me", ctx.Wrap(authController.Me), middleware.Authenticate(s.Auth.VerifyToken))

	protected := api.Group("", middleware.Authenticate(s.Auth.Session))
	protected.Get("/auth/access", "auth.access", ctx.Wrap(authController.Access))

	tenants := protected.Group("/tenants", middleware.Require(rbac.TenantManagement))
	tenants.Post("", "tenants.store", ctx.Wrap(tenantController.Store))
	tenants.Get("", "tenants.index", ctx.Wrap(tenantController.Index))
	tenants.Get("/{id}", "tenants.show", ctx.Wrap(tenantController.Show))
	tenants.Put("/{id}", "tenants.update", ctx.Wrap(tenantController.Update))
	tenants.Delete("/{id}", "tenants.destroy", ctx.Wrap(tenantController.Destroy))

	readItems := middleware.Require(rbac.CatalogManagement, rbac.OrderCapture)
	writeItems := middleware.Require(rbac.CatalogManagement)
	items := protected.Group("/items")
	items.Post("", "items.store", ctx.Wrap(itemController.Store), writeItems)
	items.Get("", "items.index", ctx.Wrap(itemController.Index), readItems)
	items.Get("/{id}", "items.show", ctx.Wrap(itemController.Show), readItems)
	items.Put("/{id}", "items.update", ctx.Wrap(itemController.Update), writeItems)
	items.Delete("/{id}", "items.destroy", ctx.Wrap(itemController.Destroy), writeItems)

	// Card lookup happens at the till, so it is gated by order capture.
	protected.Get("/customers/rfid/{card}", "customers.rfid",
		ctx.Wrap(customerController.ByCard), middleware.Require(rbac.OrderCapture))

	customers := protected.Group("/customers", middleware.Require(rbac.CustomerManagement))
	customers.Post("", "customers.store", ctx.Wrap(customerController.Store))
	customers.Get("", "customers.index", ctx.Wrap(customerController.Index))
	customers.Get("/{id}", "customers.show", ctx.Wrap(customerController.Show))
	customers.Put("/{id}", "customers.update", ctx.Wrap(customerController.Update))
	customers.Delete("/{id}", "customers.destroy", ctx.Wrap(customerController.Destroy))
	customers.Get("/{id}/notifications", "customers.notifications", ctx.Wrap(customerController.Notifications))

	purchases := protected.Group("/purchases", middleware.Require(rbac.OrderCapture))
	purchases.Post("", "purchases.store", ctx.Wrap(purchaseController.Store))
	purchases.Get("", "purchases.index", ctx.Wrap(purchaseController.Index))
	purchases.Get("/tenant/{id}", "purchases.by_tenant", ctx.Wrap(purchaseController.ByTenant))
	purchases.Get("/customer/{id}", "purchases.by_customer", ctx.Wrap(purchaseController.ByCustomer))
	purchases.Get("/{id}", "purchases.show", ctx.Wrap(purchaseController.Show))
	purchases.Delete("/{id}", "purchases.destroy", ctx.Wrap(purchaseController.Destroy))
}
