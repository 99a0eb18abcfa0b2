package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	notificationapp "github.com/installments/backend/internal/application/notification"
	"github.com/installments/backend/internal/domain/shared"
)

// NotificationService is what NotificationHandler needs from the notification application service
type NotificationService interface {
	List(ctx context.Context, f notificationapp.NotificationListFilter) (*shared.Paginated[notificationapp.NotificationResponse], error)
	Get(ctx context.Context, id uuid.UUID) (*notificationapp.NotificationResponse, error)
	Send(ctx context.Context, req notificationapp.SendNotificationRequest) (*notificationapp.NotificationResponse, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*notificationapp.NotificationResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SendReminders(ctx context.Context, req notificationapp.NoticeRequest) (*notificationapp.BatchResult, error)
	SendOverdueNotices(ctx context.Context, req notificationapp.NoticeRequest) (*notificationapp.BatchResult, error)
}

// NotificationHandler serves /notifications
type NotificationHandler struct {
	BaseHandler
	service NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List handles GET /notifications
func (h *NotificationHandler) List(c *gin.Context) {
	var filter notificationapp.NotificationListFilter
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

// Get handles GET /notifications/:id
func (h *NotificationHandler) Get(c *gin.Context) {
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

// Send handles POST /notifications. Delivery failures are recorded on the
// returned notification, not reported as errors.
func (h *NotificationHandler) Send(c *gin.Context) {
	var req notificationapp.SendNotificationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Send(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// MarkRead handles PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := h.service.MarkRead(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete handles DELETE /notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
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

// SendReminders handles POST /notifications/reminders
func (h *NotificationHandler) SendReminders(c *gin.Context) {
	h.sendBatch(c, h.service.SendReminders)
}

// SendOverdue handles POST /notifications/overdue
func (h *NotificationHandler) SendOverdue(c *gin.Context) {
	h.sendBatch(c, h.service.SendOverdueNotices)
}

func (h *NotificationHandler) sendBatch(c *gin.Context, send func(context.Context, notificationapp.NoticeRequest) (*notificationapp.BatchResult, error)) {
	var req notificationapp.NoticeRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	result, err := send(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
