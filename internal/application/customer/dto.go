package customer

import (
	"time"

	"github.com/google/uuid"
	contractapp "github.com/installments/backend/internal/application/contract"
	"github.com/installments/backend/internal/domain/customer"
)

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=200"`
	Phone      string `json:"phone" binding:"required,max=50"`
	Email      string `json:"email" binding:"omitempty,email,max=200"`
	NationalID string `json:"national_id" binding:"max=50"`
	Address    string `json:"address" binding:"max=500"`
	Notes      string `json:"notes" binding:"max=2000"`
}

// UpdateCustomerRequest represents a partial customer update; nil fields keep their value
type UpdateCustomerRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=200"`
	Phone      *string `json:"phone" binding:"omitempty,max=50"`
	Email      *string `json:"email" binding:"omitempty,max=200"`
	NationalID *string `json:"national_id" binding:"omitempty,max=50"`
	Address    *string `json:"address" binding:"omitempty,max=500"`
	Notes      *string `json:"notes" binding:"omitempty,max=2000"`
}

// CustomerListFilter represents the query of the customer listing
type CustomerListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email,omitempty"`
	NationalID string    `json:"national_id,omitempty"`
	Address    string    `json:"address,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CustomerDetailResponse is a customer with the contracts they hold
type CustomerDetailResponse struct {
	CustomerResponse
	Contracts []contractapp.ContractResponse `json:"contracts"`
}

// ToCustomerResponse converts a domain customer to a response
func ToCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:         c.ID,
		Name:       c.Name,
		Phone:      c.Phone,
		Email:      c.Email,
		NationalID: c.NationalID,
		Address:    c.Address,
		Notes:      c.Notes,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// ToCustomerResponses converts a slice of customers
func ToCustomerResponses(customers []customer.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = ToCustomerResponse(&customers[i])
	}
	return responses
}

// apply lays the non-nil fields of the request over p
func (r UpdateCustomerRequest) apply(p customer.Profile) customer.Profile {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
	if r.Email != nil {
		p.Email = *r.Email
	}
	if r.NationalID != nil {
		p.NationalID = *r.NationalID
	}
	if r.Address != nil {
		p.Address = *r.Address
	}
	if r.Notes != nil {
		p.Notes = *r.Notes
	}
	return p
}
