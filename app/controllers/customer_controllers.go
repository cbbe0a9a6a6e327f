package controllers

import (
	"github.com/shashiranjanraj/billdesk/app/services"
	"github.com/shashiranjanraj/billdesk/pkg/ctx"
)

type CustomerController struct {
	service *services.CustomerService
}

func NewCustomerController(service *services.CustomerService) *CustomerController {
	return &CustomerController{service: service}
}

// Store POST /api/customers
func (cc *CustomerController) Store(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in services.CustomerInput
	if !c.BindJSON(&in) {
		return
	}
	cust, err := cc.service.Create(c.Context(), sc, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(cust)
}

// Index GET /api/customers?search=
func (cc *CustomerController) Index(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	rows, err := cc.service.List(c.Context(), sc, c.Query("search"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rows)
}

// Show GET /api/customers/{id}
func (cc *CustomerController) Show(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	cust, err := cc.service.Get(c.Context(), sc, c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cust)
}

// ByCard GET /api/customers/rfid/{card}
func (cc *CustomerController) ByCard(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	cust, err := cc.service.FindByRFID(c.Context(), sc, c.Param("card"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cust)
}

// Update PUT /api/customers/{id}
func (cc *CustomerController) Update(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	var in services.CustomerUpdate
	if !c.BindJSON(&in) {
		return
	}
	cust, err := cc.service.Update(c.Context(), sc, c.Param("id"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cust)
}

// Destroy DELETE /api/customers/{id}
func (cc *CustomerController) Destroy(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	if err := cc.service.Delete(c.Context(), sc, c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Customer deleted", nil)
}

// Notifications GET /api/customers/{id}/notifications
func (cc *CustomerController) Notifications(c *ctx.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	rows, err := cc.service.Notifications(c.Context(), sc, c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rows)
}
