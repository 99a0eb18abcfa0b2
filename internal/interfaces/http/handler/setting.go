package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	settingapp "github.com/installments/backend/internal/application/setting"
)

// SettingService is what SettingHandler needs from the settings application service
type SettingService interface {
	GetAll(ctx context.Context) (*settingapp.SettingsResponse, error)
	Get(ctx context.Context, key string) (*settingapp.SettingResponse, error)
	Update(ctx context.Context, req settingapp.UpdateSettingsRequest) (*settingapp.SettingsResponse, error)
	Reset(ctx context.Context) (*settingapp.SettingsResponse, error)
}

// SettingHandler serves /settings
type SettingHandler struct {
	BaseHandler
	service SettingService
}

// NewSettingHandler creates a new SettingHandler
func NewSettingHandler(service SettingService) *SettingHandler {
	return &SettingHandler{service: service}
}

// GetAll handles GET /settings
func (h *SettingHandler) GetAll(c *gin.Context) {
	resp, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get handles GET /settings/:key
func (h *SettingHandler) Get(c *gin.Context) {
	resp, err := h.service.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update handles PUT /settings. Only the keys present in the body change.
func (h *SettingHandler) Update(c *gin.Context) {
	var req settingapp.UpdateSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reset handles POST /settings/reset
func (h *SettingHandler) Reset(c *gin.Context) {
	resp, err := h.service.Reset(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
