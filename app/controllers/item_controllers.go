package controllers

import (
	"github.com/shashiranjanraj/billdesk/app/services"
	"github.com/shashiranjanraj/billdesk/pkg/ctx"
)

type ItemController struct {
	service *services.CatalogService
}

func NewItemController(service *services.CatalogService) *ItemController {
	return &ItemController{service: service}
}

// Store POST /api/items
func (ic *ItemController) Store(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in services.ItemInput
	if !c.BindJSON(&in) {
		return
	}
	it, err := ic.service.Create(c.Context(), sc, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(it)
}

// Index GET /api/items?search=
func (ic *ItemController) Index(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	rows, err := ic.service.List(c.Context(), sc, c.Query("search"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rows)
}

// Show GET /api/items/{id}
func (ic *ItemController) Show(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	it, err := ic.service.Get(c.Context(), sc, c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(it)
}

// Update PUT /api/items/{id}
func (ic *ItemController) Update(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in services.ItemUpdate
	if !c.BindJSON(&in) {
		return
	}
	it, err := ic.service.Update(c.Context(), sc, c.Param("id"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(it)
}

// Destroy DELETE /api/items/{id}
func (ic *ItemController) Destroy(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	if err := ic.service.Delete(c.Context(), sc, c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Item deleted", nil)
}
