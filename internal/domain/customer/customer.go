package customer

import (
	"regexp"
	"strings"
	"time"

	"github.com/installments/backend/internal/domain/shared"
)

var (
	phonePattern = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Customer is a person who enters installment contracts
type Customer struct {
	shared.BaseAggregateRoot
	Name       string
	Phone      string
	Email      string
	NationalID string
	Address    string
	Notes      string
}

var _ shared.AggregateRoot = (*Customer)(nil)

// Profile holds the editable customer fields
type Profile struct {
	Name       string
	Phone      string
	Email      string
	NationalID string
	Address    string
	Notes      string
}

// NewCustomer creates a new customer
func NewCustomer(p Profile, now time.Time) (*Customer, error) {
	p = p.normalized()
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		Name:              p.Name,
		Phone:             p.Phone,
		Email:             p.Email,
		NationalID:        p.NationalID,
		Address:           p.Address,
		Notes:             p.Notes,
	}, nil
}

// Update replaces the customer's profile
func (c *Customer) Update(p Profile, now time.Time) error {
	p = p.normalized()
	if err := p.validate(); err != nil {
		return err
	}
	c.Name = p.Name
	c.Phone = p.Phone
	c.Email = p.Email
	c.NationalID = p.NationalID
	c.Address = p.Address
	c.Notes = p.Notes
	c.MarkChanged(now)
	return nil
}

// Profile returns the customer's current profile
func (c *Customer) Profile() Profile {
	return Profile{
		Name:       c.Name,
		Phone:      c.Phone,
		Email:      c.Email,
		NationalID: c.NationalID,
		Address:    c.Address,
		Notes:      c.Notes,
	}
}

// HasEmail reports whether the customer can be reached by email
func (c *Customer) HasEmail() bool {
	return c.Email != ""
}

// HasPhone reports whether the customer can be reached by phone
func (c *Customer) HasPhone() bool {
	return c.Phone != ""
}

func (p Profile) normalized() Profile {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.NationalID = strings.TrimSpace(p.NationalID)
	return p
}

func (p Profile) validate() error {
	if p.Name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name is required")
	}
	if len(p.Name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	if p.Phone == "" {
		return shared.NewDomainError("INVALID_PHONE", "Phone is required")
	}
	if len(p.Phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	if !phonePattern.MatchString(p.Phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	if p.Email != "" {
		if len(p.Email) > 200 {
			return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
		}
		if !emailPattern.MatchString(p.Email) {
			return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
		}
	}
	if len(p.Address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}
	return nil
}
