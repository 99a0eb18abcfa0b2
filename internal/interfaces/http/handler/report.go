package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	reportapp "github.com/installments/backend/internal/application/report"
	"github.com/installments/backend/internal/domain/report"
	"github.com/installments/backend/internal/interfaces/http/dto"
)

// ReportService is what ReportHandler needs to build reports
type ReportService interface {
	Dashboard(ctx context.Context) (*report.DashboardSummary, error)
	Installments(ctx context.Context, q reportapp.InstallmentReportQuery) (*report.InstallmentReport, error)
	Customers(ctx context.Context) (*reportapp.CustomersReport, error)
	Overdue(ctx context.Context, customerID string) (*report.OverdueReport, error)
	Monthly(ctx context.Context, year int) (*report.MonthlyReport, error)
}

// ExportService is what ReportHandler needs to produce CSV exports
type ExportService interface {
	Render(ctx context.Context, req reportapp.ExportRequest) (*reportapp.ExportFile, error)
	Archive(ctx context.Context, req reportapp.ExportRequest) (*reportapp.ArchiveResponse, error)
}

// ReportHandler serves /reports and /exports
type ReportHandler struct {
	BaseHandler
	reports ReportService
	exports ExportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports ReportService, exports ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Dashboard handles GET /reports/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	resp, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Installments handles GET /reports/installments
func (h *ReportHandler) Installments(c *gin.Context) {
	var q reportapp.InstallmentReportQuery
	if !h.bindQuery(c, &q) {
		return
	}
	resp, err := h.reports.Installments(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Customers handles GET /reports/customers
func (h *ReportHandler) Customers(c *gin.Context) {
	resp, err := h.reports.Customers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Overdue handles GET /reports/overdue?customer_id=
func (h *ReportHandler) Overdue(c *gin.Context) {
	resp, err := h.reports.Overdue(c.Request.Context(), c.Query("customer_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Monthly handles GET /reports/monthly?year=. A missing year means the current one.
func (h *ReportHandler) Monthly(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, dto.ErrCodeInvalidInput, "Invalid year: "+raw)
			return
		}
		year = parsed
	}
	resp, err := h.reports.Monthly(c.Request.Context(), year)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Export handles GET /exports/:kind and streams the CSV as an attachment
func (h *ReportHandler) Export(c *gin.Context) {
	req, ok := h.exportRequest(c)
	if !ok {
		return
	}
	file, err := h.exports.Render(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Header("X-Export-Rows", strconv.Itoa(file.Rows))
	c.Data(http.StatusOK, file.ContentType+"; charset=utf-8", file.Data)
}

// Archive handles POST /exports/:kind/archive and returns a presigned download link
func (h *ReportHandler) Archive(c *gin.Context) {
	req, ok := h.exportRequest(c)
	if !ok {
		return
	}
	resp, err := h.exports.Archive(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

func (h *ReportHandler) exportRequest(c *gin.Context) (reportapp.ExportRequest, bool) {
	var req reportapp.ExportRequest
	if !h.bindQuery(c, &req) {
		return req, false
	}
	req.Kind = reportapp.ExportKind(c.Param("kind"))
	if !req.Kind.IsValid() {
		h.BadRequest(c, "INVALID_EXPORT", "Unknown export: "+c.Param("kind"))
		return req, false
	}
	return req, true
}
