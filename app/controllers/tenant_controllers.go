package controllers

import (
	"github.com/shashiranjanraj/billdesk/app/services"
	"github.com/shashiranjanraj/billdesk/pkg/ctx"
)

const defaultPageSize = 20

type TenantController struct {
	service *services.TenantService
}

func NewTenantController(service *services.TenantService) *TenantController {
	return &TenantController{service: service}
}

// Store POST /api/tenants
func (tc *TenantController) Store(c *ctx.Context) {
	var in services.TenantInput
	if !c.BindJSON(&in) {
		return
	}
	t, err := tc.service.Create(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(t)
}

// Index GET /api/tenants?search=&page=&limit=
func (tc *TenantController) Index(c *ctx.Context) {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", defaultPageSize)

	rows, total, err := tc.service.List(c.Context(), c.Query("search"), page, limit)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(rows, page, limit, total)
}

// Show GET /api/tenants/{id}
func (tc *TenantController) Show(c *ctx.Context) {
	t, err := tc.service.Get(c.Context(), c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(t)
}

// Update PUT /api/tenants/{id}
func (tc *TenantController) Update(c *ctx.Context) {
	var in services.TenantUpdate
	if !c.BindJSON(&in) {
		return
	}
	t, err := tc.service.Update(c.Context(), c.Param("id"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(t)
}

// Destroy DELETE /api/tenants/{id}
func (tc *TenantController) Destroy(c *ctx.Context) {
	if err := tc.service.Delete(c.Context(), c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Tenant deleted", nil)
}
