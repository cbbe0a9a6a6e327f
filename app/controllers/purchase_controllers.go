package controllers

import (
	"github.com/shashiranjanraj/billdesk/app/services"
	"github.com/shashiranjanraj/billdesk/pkg/ctx"
)

type PurchaseController struct {
	service *services.PurchaseService
}

func NewPurchaseController(service *services.PurchaseService) *PurchaseController {
	return &PurchaseController{service: service}
}

// Store POST /api/purchases
func (pc *PurchaseController) Store(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in services.CreatePurchaseInput
	if !c.BindJSON(&in) {
		return
	}

	p, err := pc.service.Create(c.Context(), sc, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(p)
}

// Index GET /api/purchases
func (pc *PurchaseController) Index(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	rows, err := pc.service.List(c.Context(), sc)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rows)
}

// Show GET /api/purchases/{id}
func (pc *PurchaseController) Show(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	p, err := pc.service.Read(c.Context(), sc, c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

// Destroy DELETE /api/purchases/{id}
func (pc *PurchaseController) Destroy(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	removed, err := pc.service.Delete(c.Context(), sc, c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Message("Purchase deleted", map[string]int64{"linesRemoved": removed})
}

// ByTenant GET /api/purchases/tenant/{id}
func (pc *PurchaseController) ByTenant(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	rows, err := pc.service.ListByTenant(c.Context(), sc, c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rows)
}

// ByCustomer GET /api/purchases/customer/{id}
func (pc *PurchaseController) ByCustomer(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	rows, err := pc.service.ListByBuyer(c.Context(), sc, c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rows)
}
