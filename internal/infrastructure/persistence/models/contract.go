package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/shopspring/decimal"
)

// ContractModel is the persistence model for the Contract aggregate root.
// Remaining and per-installment amounts are derived and never stored.
type ContractModel struct {
	AggregateModel
	ContractNumber       string                  `gorm:"type:varchar(20);not null;uniqueIndex:idx_contracts_number"`
	CustomerID           uuid.UUID               `gorm:"type:uuid;not null;index"`
	TotalAmount          decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	DownPayment          decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	NumberOfInstallments int                     `gorm:"not null"`
	StartDate            time.Time               `gorm:"not null"`
	Status               contract.ContractStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	Description          string                  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract.
func (m *ContractModel) ToDomain() *contract.Contract {
	c := &contract.Contract{
		ContractNumber:       m.ContractNumber,
		CustomerID:           m.CustomerID,
		TotalAmount:          m.TotalAmount,
		DownPayment:          m.DownPayment,
		NumberOfInstallments: m.NumberOfInstallments,
		StartDate:            m.StartDate,
		Status:               m.Status,
		Description:          m.Description,
	}
	c.BaseAggregateRoot = m.aggregate()
	return c
}

// FromDomain populates the persistence model from a domain Contract.
func (m *ContractModel) FromDomain(c *contract.Contract) {
	m.setAggregate(c.BaseAggregateRoot)
	m.ContractNumber = c.ContractNumber
	m.CustomerID = c.CustomerID
	m.TotalAmount = c.TotalAmount
	m.DownPayment = c.DownPayment
	m.NumberOfInstallments = c.NumberOfInstallments
	m.StartDate = c.StartDate
	m.Status = c.Status
	m.Description = c.Description
}

// ContractModelFromDomain creates a new persistence model from a domain Contract.
func ContractModelFromDomain(c *contract.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}

// InstallmentModel is the persistence model for the Installment entity.
type InstallmentModel struct {
	BaseModel
	ContractID        uuid.UUID                  `gorm:"type:uuid;not null;uniqueIndex:idx_installments_contract_number,priority:1"`
	InstallmentNumber int                        `gorm:"not null;uniqueIndex:idx_installments_contract_number,priority:2"`
	Amount            decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	DueDate           time.Time                  `gorm:"not null;index"`
	Status            contract.InstallmentStatus `gorm:"type:varchar(20);not null;default:'unpaid';index"`
	PaidAmount        decimal.Decimal            `gorm:"type:decimal(18,2);not null;default:0"`
	PaidDate          *time.Time                 `gorm:"index"`
	PaymentMethod     contract.PaymentMethod     `gorm:"type:varchar(20)"`
	Notes             string                     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InstallmentModel) TableName() string {
	return "installments"
}

// ToDomain converts the persistence model to a domain Installment.
func (m *InstallmentModel) ToDomain() *contract.Installment {
	return &contract.Installment{
		BaseEntity:        m.entity(),
		ContractID:        m.ContractID,
		InstallmentNumber: m.InstallmentNumber,
		Amount:            m.Amount,
		DueDate:           m.DueDate,
		Status:            m.Status,
		PaidAmount:        m.PaidAmount,
		PaidDate:          m.PaidDate,
		PaymentMethod:     m.PaymentMethod,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Installment.
func (m *InstallmentModel) FromDomain(i *contract.Installment) {
	m.setEntity(i.BaseEntity)
	m.ContractID = i.ContractID
	m.InstallmentNumber = i.InstallmentNumber
	m.Amount = i.Amount
	m.DueDate = i.DueDate
	m.Status = i.Status
	m.PaidAmount = i.PaidAmount
	m.PaidDate = i.PaidDate
	m.PaymentMethod = i.PaymentMethod
	m.Notes = i.Notes
}

// InstallmentModelFromDomain creates a new persistence model from a domain Installment.
func InstallmentModelFromDomain(i *contract.Installment) *InstallmentModel {
	m := &InstallmentModel{}
	m.FromDomain(i)
	return m
}
