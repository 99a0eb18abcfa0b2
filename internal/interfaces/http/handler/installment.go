package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	contractapp "github.com/installments/backend/internal/application/contract"
	"github.com/installments/backend/internal/domain/shared"
)

// InstallmentService is what InstallmentHandler needs from the installment application service
type InstallmentService interface {
	List(ctx context.Context, f contractapp.InstallmentListFilter) (*shared.Paginated[contractapp.InstallmentResponse], error)
	Get(ctx context.Context, id uuid.UUID) (*contractapp.InstallmentResponse, error)
	Update(ctx context.Context, id uuid.UUID, req contractapp.UpdateInstallmentRequest) (*contractapp.InstallmentResponse, error)
	Pay(ctx context.Context, id uuid.UUID, req contractapp.PayInstallmentRequest) (*contractapp.PaymentResponse, error)
	Overdue(ctx context.Context) ([]contractapp.InstallmentResponse, error)
	Upcoming(ctx context.Context) ([]contractapp.InstallmentResponse, error)
}

// InstallmentHandler serves /installments
type InstallmentHandler struct {
	BaseHandler
	service InstallmentService
}

// NewInstallmentHandler creates a new InstallmentHandler
func NewInstallmentHandler(service InstallmentService) *InstallmentHandler {
	return &InstallmentHandler{service: service}
}

// List handles GET /installments
func (h *InstallmentHandler) List(c *gin.Context) {
	var filter contractapp.InstallmentListFilter
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

// Get handles GET /installments/:id
func (h *InstallmentHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update handles PUT /installments/:id
func (h *InstallmentHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req contractapp.UpdateInstallmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Pay handles POST /installments/:id/pay. An empty body pays in full.
func (h *InstallmentHandler) Pay(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req contractapp.PayInstallmentRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Pay(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Overdue handles GET /installments/overdue
func (h *InstallmentHandler) Overdue(c *gin.Context) {
	items, err := h.service.Overdue(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Upcoming handles GET /installments/upcoming
func (h *InstallmentHandler) Upcoming(c *gin.Context) {
	items, err := h.service.Upcoming(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}
