package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	customerapp "github.com/installments/backend/internal/application/customer"
	"github.com/installments/backend/internal/domain/shared"
)

// CustomerService is what CustomerHandler needs from the customer application service
type CustomerService interface {
	Create(ctx context.Context, req customerapp.CreateCustomerRequest) (*customerapp.CustomerResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*customerapp.CustomerDetailResponse, error)
	List(ctx context.Context, f customerapp.CustomerListFilter) (*shared.Paginated[customerapp.CustomerResponse], error)
	Update(ctx context.Context, id uuid.UUID, req customerapp.UpdateCustomerRequest) (*customerapp.CustomerResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CustomerHandler serves /customers
type CustomerHandler struct {
	BaseHandler
	service CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(service CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// List handles GET /customers
func (h *CustomerHandler) List(c *gin.Context) {
	var filter customerapp.CustomerListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(&h.BaseHandler, c, page)
}

// Get handles GET /customers/:id; the response includes the customer's contracts
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	customer, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Create handles POST /customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req customerapp.CreateCustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	customer, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// Update handles PUT /customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req customerapp.UpdateCustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	customer, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Delete handles DELETE /customers/:id. Customers with contracts are refused.
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
