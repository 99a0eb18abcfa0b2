package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	contractapp "github.com/installments/backend/internal/application/contract"
	"github.com/installments/backend/internal/domain/shared"
)

// ContractService is what ContractHandler needs from the contract application service
type ContractService interface {
	Create(ctx context.Context, req contractapp.CreateContractRequest) (*contractapp.ContractDetailResponse, error)
	List(ctx context.Context, f contractapp.ContractListFilter) (*shared.Paginated[contractapp.ContractResponse], error)
	Get(ctx context.Context, id uuid.UUID) (*contractapp.ContractDetailResponse, error)
	Summary(ctx context.Context, id uuid.UUID) (*contractapp.ContractSummaryResponse, error)
	Update(ctx context.Context, id uuid.UUID, req contractapp.UpdateContractRequest) (*contractapp.ContractResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) (*contractapp.ContractResponse, error)
	Regenerate(ctx context.Context, id uuid.UUID, req contractapp.RegenerateScheduleRequest) (*contractapp.RegenerateScheduleResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContractHandler serves /contracts
type ContractHandler struct {
	BaseHandler
	service ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(service ContractService) *ContractHandler {
	return &ContractHandler{service: service}
}

// List handles GET /contracts
func (h *ContractHandler) List(c *gin.Context) {
	var filter contractapp.ContractListFilter
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

// Get handles GET /contracts/:id
func (h *ContractHandler) Get(c *gin.Context) {
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

// Summary handles GET /contracts/:id/summary
func (h *ContractHandler) Summary(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := h.service.Summary(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Create handles POST /contracts. The schedule is generated in the same transaction.
func (h *ContractHandler) Create(c *gin.Context) {
	var req contractapp.CreateContractRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update handles PUT /contracts/:id. Term fields in the body are ignored.
func (h *ContractHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req contractapp.UpdateContractRequest
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

// Cancel handles POST /contracts/:id/cancel
func (h *ContractHandler) Cancel(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Regenerate handles POST /contracts/:id/regenerate
func (h *ContractHandler) Regenerate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req contractapp.RegenerateScheduleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Regenerate(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete handles DELETE /contracts/:id; installments go with it
func (h *ContractHandler) Delete(c *gin.Context) {
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
