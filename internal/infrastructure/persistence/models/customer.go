package models

import "github.com/installments/backend/internal/domain/customer"

// CustomerModel is the persistence model for the Customer domain entity.
// Email and national ID are stored as NULL when absent so the unique
// indexes only apply to present values.
type CustomerModel struct {
	AggregateModel
	Name       string  `gorm:"type:varchar(200);not null;index"`
	Phone      string  `gorm:"type:varchar(50);not null;index"`
	Email      *string `gorm:"type:varchar(200);uniqueIndex:idx_customers_email"`
	NationalID *string `gorm:"type:varchar(50);uniqueIndex:idx_customers_national_id"`
	Address    string  `gorm:"type:varchar(500)"`
	Notes      string  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *customer.Customer {
	c := &customer.Customer{
		Name:       m.Name,
		Phone:      m.Phone,
		Email:      derefString(m.Email),
		NationalID: derefString(m.NationalID),
		Address:    m.Address,
		Notes:      m.Notes,
	}
	c.BaseAggregateRoot = m.aggregate()
	return c
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *customer.Customer) {
	m.setAggregate(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Phone = c.Phone
	m.Email = nullableString(c.Email)
	m.NationalID = nullableString(c.NationalID)
	m.Address = c.Address
	m.Notes = c.Notes
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

