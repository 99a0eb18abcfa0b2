package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/customer"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	csvContentType       = "text/csv"
	dateLayout           = "2006-01-02"
	defaultPresignExpiry = 15 * time.Minute
)

// ExportKind names an exportable data set
type ExportKind string

const (
	ExportInstallments ExportKind = "installments"
	ExportCustomers    ExportKind = "customers"
	ExportOverdue      ExportKind = "overdue"
)

// IsValid checks if the export kind is known
func (k ExportKind) IsValid() bool {
	switch k {
	case ExportInstallments, ExportCustomers, ExportOverdue:
		return true
	}
	return false
}

// ObjectStorage stores export archives and hands out download links
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// InstallmentSource lists installments
type InstallmentSource interface {
	FindAll(ctx context.Context, filter contract.InstallmentFilter) ([]contract.Installment, int64, error)
}

// ContractSource resolves contracts by id
type ContractSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error)
}

// CustomerSource lists customers
type CustomerSource interface {
	FindAll(ctx context.Context, filter shared.Filter) ([]customer.Customer, int64, error)
}

// ExportRequest selects the rows of an export
type ExportRequest struct {
	Kind       ExportKind `form:"-"`
	Status     []string   `form:"status"`
	CustomerID string     `form:"customer_id" binding:"omitempty,uuid"`
	DueFrom    *time.Time `form:"due_from" time_format:"2006-01-02"`
	DueTo      *time.Time `form:"due_to" time_format:"2006-01-02"`
}

// ExportFile is a rendered CSV document
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ArchiveResponse points at an archived export
type ArchiveResponse struct {
	Key         string    `json:"key"`
	Filename    string    `json:"filename"`
	Rows        int       `json:"rows"`
	Size        int       `json:"size"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ExportConfig controls where archives go
type ExportConfig struct {
	KeyPrefix     string
	PresignExpiry time.Duration
}

// ExportService renders CSV exports and archives them to object storage
type ExportService struct {
	reports      *ReportService
	installments InstallmentSource
	contracts    ContractSource
	customers    CustomerSource
	storage      ObjectStorage
	config       ExportConfig
	logger       *zap.Logger
}

// NewExportService creates a new ExportService. A nil storage disables archiving.
func NewExportService(
	reports *ReportService,
	installments InstallmentSource,
	contracts ContractSource,
	customers CustomerSource,
	storage ObjectStorage,
	config ExportConfig,
	logger *zap.Logger,
) *ExportService {
	if config.PresignExpiry <= 0 {
		config.PresignExpiry = defaultPresignExpiry
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reports:      reports,
		installments: installments,
		contracts:    contracts,
		customers:    customers,
		storage:      storage,
		config:       config,
		logger:       logger.Named("export_service"),
	}
}

// Render builds the CSV for req
func (s *ExportService) Render(ctx context.Context, req ExportRequest) (file *ExportFile, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ExportService", "Render",
		attribute.String("export.kind", string(req.Kind)))
	defer func() { telemetry.EndSpan(span, err) }()

	var (
		header []string
		rows   [][]string
	)
	switch req.Kind {
	case ExportInstallments:
		header = []string{"contract_number", "installment_number", "amount", "due_date", "status", "paid_amount", "paid_date", "payment_method", "notes"}
		rows, err = s.installmentRows(ctx, req)
	case ExportCustomers:
		header = []string{"id", "name", "phone", "email", "national_id", "address", "created_at"}
		rows, err = s.customerRows(ctx)
	case ExportOverdue:
		header = []string{"customer_name", "customer_phone", "contract_number", "installment_number", "amount", "due_date", "days_overdue"}
		rows, err = s.overdueRows(ctx, req.CustomerID)
	default:
		return nil, shared.NewDomainError("INVALID_EXPORT", fmt.Sprintf("Unknown export: %s", req.Kind))
	}
	if err != nil {
		return nil, err
	}

	data, err := encodeCSV(header, rows)
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-%s.csv", req.Kind, s.reports.clock.Now().Format("20060102-150405")),
		ContentType: csvContentType,
		Data:        data,
		Rows:        len(rows),
	}, nil
}

// Archive renders the export, uploads it and returns a presigned download URL
func (s *ExportService) Archive(ctx context.Context, req ExportRequest) (*ArchiveResponse, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError("STORAGE_UNAVAILABLE", "Export archiving is not configured")
	}
	file, err := s.Render(ctx, req)
	if err != nil {
		return nil, err
	}

	key := s.config.KeyPrefix + file.Filename
	if err := s.storage.Upload(ctx, key, file.Data, file.ContentType); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, s.config.PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}

	s.logger.Info("export archived",
		zap.String("key", key),
		zap.Int("rows", file.Rows),
		zap.Int("bytes", len(file.Data)),
	)
	return &ArchiveResponse{
		Key:         key,
		Filename:    file.Filename,
		Rows:        file.Rows,
		Size:        len(file.Data),
		DownloadURL: url,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *ExportService) installmentRows(ctx context.Context, req ExportRequest) ([][]string, error) {
	filter := contract.InstallmentFilter{DueFrom: req.DueFrom, DueTo: req.DueTo}
	for _, v := range req.Status {
		st := contract.InstallmentStatus(v)
		if !st.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid installment status: %s", v))
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	customerID, err := parseID("customer_id", req.CustomerID)
	if err != nil {
		return nil, err
	}
	filter.CustomerID = customerID
	filter.OrderBy = "due_date"
	filter.OrderDir = "asc"

	if err := s.reports.sweep(ctx); err != nil {
		return nil, err
	}
	installments, _, err := s.installments.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}

	numbers := make(map[uuid.UUID]string)
	rows := make([][]string, 0, len(installments))
	for i := range installments {
		inst := &installments[i]
		number, ok := numbers[inst.ContractID]
		if !ok {
			c, err := s.contracts.FindByID(ctx, inst.ContractID)
			if err != nil {
				return nil, fmt.Errorf("load contract %s: %w", inst.ContractID, err)
			}
			number = c.ContractNumber
			numbers[inst.ContractID] = number
		}
		paidDate := ""
		if inst.PaidDate != nil {
			paidDate = inst.PaidDate.Format(dateLayout)
		}
		rows = append(rows, []string{
			number,
			strconv.Itoa(inst.InstallmentNumber),
			inst.Amount.StringFixed(2),
			inst.DueDate.Format(dateLayout),
			inst.Status.String(),
			inst.PaidAmount.StringFixed(2),
			paidDate,
			inst.PaymentMethod.String(),
			inst.Notes,
		})
	}
	return rows, nil
}

func (s *ExportService) customerRows(ctx context.Context) ([][]string, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = 0
	filter.OrderBy = "name"
	filter.OrderDir = "asc"
	customers, _, err := s.customers.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	rows := make([][]string, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []string{
			c.ID.String(), c.Name, c.Phone, c.Email, c.NationalID, c.Address, c.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows, nil
}

func (s *ExportService) overdueRows(ctx context.Context, customerID string) ([][]string, error) {
	items, err := s.reports.overdueItems(ctx, customerID)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.CustomerName,
			it.CustomerPhone,
			it.ContractNumber,
			strconv.Itoa(it.InstallmentNumber),
			it.Amount.StringFixed(2),
			it.DueDate.Format(dateLayout),
			strconv.Itoa(it.DaysOverdue),
		})
	}
	return rows, nil
}

func encodeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
