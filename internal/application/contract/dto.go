package contract

import (
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/shopspring/decimal"
)

// ===================== Contract DTOs =====================

// CreateContractRequest represents a request to create a contract and its schedule
type CreateContractRequest struct {
	CustomerID           uuid.UUID       `json:"customer_id" binding:"required"`
	TotalAmount          decimal.Decimal `json:"total_amount" binding:"required"`
	DownPayment          decimal.Decimal `json:"down_payment"`
	NumberOfInstallments int             `json:"number_of_installments" binding:"required,min=1,max=600"`
	StartDate            time.Time       `json:"start_date" binding:"required"`
	Description          string          `json:"description" binding:"max=2000"`
}

// UpdateContractRequest carries the generic contract edit. Term fields are
// accepted on the wire but dropped; use RegenerateScheduleRequest instead.
type UpdateContractRequest struct {
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	Status      *string          `json:"status" binding:"omitempty,oneof=active completed cancelled"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	DownPayment *decimal.Decimal `json:"down_payment,omitempty"`
	Count       *int             `json:"number_of_installments,omitempty"`
	StartDate   *time.Time       `json:"start_date,omitempty"`
}

// RegenerateScheduleRequest changes the amount terms and rebuilds the unpaid tail
type RegenerateScheduleRequest struct {
	TotalAmount          *decimal.Decimal `json:"total_amount"`
	DownPayment          *decimal.Decimal `json:"down_payment"`
	NumberOfInstallments *int             `json:"number_of_installments" binding:"omitempty,min=1,max=600"`
}

// ContractListFilter represents the query of the contract listing
type ContractListFilter struct {
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search     string     `form:"search"`
	Status     string     `form:"status" binding:"omitempty,oneof=active completed cancelled"`
	CustomerID string     `form:"customer_id" binding:"omitempty,uuid"`
}

// ContractResponse represents a contract in API responses
type ContractResponse struct {
	ID                   uuid.UUID       `json:"id"`
	ContractNumber       string          `json:"contract_number"`
	CustomerID           uuid.UUID       `json:"customer_id"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	DownPayment          decimal.Decimal `json:"down_payment"`
	RemainingAmount      decimal.Decimal `json:"remaining_amount"`
	NumberOfInstallments int             `json:"number_of_installments"`
	InstallmentAmount    decimal.Decimal `json:"installment_amount"`
	StartDate            time.Time       `json:"start_date"`
	Status               string          `json:"status"`
	Description          string          `json:"description,omitempty"`
	Version              int             `json:"version"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ContractDetailResponse is a contract with its installments
type ContractDetailResponse struct {
	ContractResponse
	Installments []InstallmentResponse `json:"installments"`
}

// ContractSummary aggregates a contract's installments
type ContractSummary struct {
	TotalInstallments int             `json:"total_installments"`
	Paid              int             `json:"paid"`
	Unpaid            int             `json:"unpaid"`
	Overdue           int             `json:"overdue"`
	Partial           int             `json:"partial"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalRemaining    decimal.Decimal `json:"total_remaining"`
}

// ContractSummaryResponse is the contract summary view
type ContractSummaryResponse struct {
	Contract     ContractResponse      `json:"contract"`
	Installments []InstallmentResponse `json:"installments"`
	Summary      ContractSummary       `json:"summary"`
}

// RegenerateScheduleResponse reports what a regeneration did
type RegenerateScheduleResponse struct {
	Contract     ContractResponse      `json:"contract"`
	Removed      int                   `json:"removed"`
	Created      int                   `json:"created"`
	TotalPaid    decimal.Decimal       `json:"total_paid"`
	Installments []InstallmentResponse `json:"installments"`
}

// ToContractResponse converts a domain contract to a response
func ToContractResponse(c *contract.Contract) ContractResponse {
	return ContractResponse{
		ID:                   c.ID,
		ContractNumber:       c.ContractNumber,
		CustomerID:           c.CustomerID,
		TotalAmount:          c.TotalAmount,
		DownPayment:          c.DownPayment,
		RemainingAmount:      c.RemainingAmount(),
		NumberOfInstallments: c.NumberOfInstallments,
		InstallmentAmount:    c.InstallmentAmount(),
		StartDate:            c.StartDate,
		Status:               c.Status.String(),
		Description:          c.Description,
		Version:              c.Version,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

// ToContractResponses converts a slice of contracts
func ToContractResponses(contracts []contract.Contract) []ContractResponse {
	responses := make([]ContractResponse, len(contracts))
	for i := range contracts {
		responses[i] = ToContractResponse(&contracts[i])
	}
	return responses
}

// Summarize counts installments by status and sums what was paid and what is left
func Summarize(installments []contract.Installment) ContractSummary {
	s := ContractSummary{
		TotalInstallments: len(installments),
		TotalPaid:         decimal.Zero,
		TotalRemaining:    decimal.Zero,
	}
	for i := range installments {
		inst := &installments[i]
		s.TotalPaid = s.TotalPaid.Add(inst.PaidAmount)
		switch inst.Status {
		case contract.InstallmentStatusPaid:
			s.Paid++
			continue
		case contract.InstallmentStatusUnpaid:
			s.Unpaid++
		case contract.InstallmentStatusOverdue:
			s.Overdue++
		case contract.InstallmentStatusPartial:
			s.Partial++
		}
		s.TotalRemaining = s.TotalRemaining.Add(inst.Amount)
	}
	return s
}

// ===================== Installment DTOs =====================

// PayInstallmentRequest records a payment. Amount defaults to the full installment amount.
type PayInstallmentRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod string           `json:"payment_method" binding:"omitempty,payment_method"`
	Notes         *string          `json:"notes" binding:"omitempty,max=2000"`
}

// UpdateInstallmentRequest edits the mutable installment fields
type UpdateInstallmentRequest struct {
	DueDate       *time.Time `json:"due_date"`
	Notes         *string    `json:"notes" binding:"omitempty,max=2000"`
	PaymentMethod *string    `json:"payment_method" binding:"omitempty,payment_method"`
}

// InstallmentListFilter represents the query of the installment listing
type InstallmentListFilter struct {
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status     []string   `form:"status"`
	ContractID string     `form:"contract_id" binding:"omitempty,uuid"`
	CustomerID string     `form:"customer_id" binding:"omitempty,uuid"`
	DueFrom    *time.Time `form:"due_from" time_format:"2006-01-02"`
	DueTo      *time.Time `form:"due_to" time_format:"2006-01-02"`
}

// InstallmentResponse represents an installment in API responses
type InstallmentResponse struct {
	ID                uuid.UUID       `json:"id"`
	ContractID        uuid.UUID       `json:"contract_id"`
	InstallmentNumber int             `json:"installment_number"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           time.Time       `json:"due_date"`
	Status            string          `json:"status"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	PaidDate          *time.Time      `json:"paid_date,omitempty"`
	PaymentMethod     string          `json:"payment_method,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	DaysOverdue       int             `json:"days_overdue,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// PaymentResponse is the result of a payment
type PaymentResponse struct {
	Installment    InstallmentResponse `json:"installment"`
	ContractStatus string              `json:"contract_status"`
}

// ToInstallmentResponse converts a domain installment; now drives days overdue
func ToInstallmentResponse(inst *contract.Installment, now time.Time) InstallmentResponse {
	resp := InstallmentResponse{
		ID:                inst.ID,
		ContractID:        inst.ContractID,
		InstallmentNumber: inst.InstallmentNumber,
		Amount:            inst.Amount,
		DueDate:           inst.DueDate,
		Status:            inst.Status.String(),
		PaidAmount:        inst.PaidAmount,
		PaidDate:          inst.PaidDate,
		PaymentMethod:     inst.PaymentMethod.String(),
		Notes:             inst.Notes,
		CreatedAt:         inst.CreatedAt,
		UpdatedAt:         inst.UpdatedAt,
	}
	if !inst.IsPaid() {
		resp.DaysOverdue = inst.DaysOverdue(now)
	}
	return resp
}

// ToInstallmentResponses converts a slice of installments
func ToInstallmentResponses(installments []contract.Installment, now time.Time) []InstallmentResponse {
	responses := make([]InstallmentResponse, len(installments))
	for i := range installments {
		responses[i] = ToInstallmentResponse(&installments[i], now)
	}
	return responses
}
