package customer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	contractapp "github.com/installments/backend/internal/application/contract"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/customer"
	"github.com/installments/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrHasContracts is returned when deleting a customer that still holds contracts
var ErrHasContracts = shared.NewDomainError("CUSTOMER_HAS_CONTRACTS", "Customer still has contracts")

// ContractReader reads the contracts a customer holds
type ContractReader interface {
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]contract.Contract, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
}

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo customer.Repository
	contracts    ContractReader
	clock        shared.Clock
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo customer.Repository, contracts ContractReader, clock shared.Clock, logger *zap.Logger) *CustomerService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customerRepo: customerRepo,
		contracts:    contracts,
		clock:        clock,
		logger:       logger.Named("customer_service"),
	}
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	c, err := customer.NewCustomer(customer.Profile{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		NationalID: req.NationalID,
		Address:    req.Address,
		Notes:      req.Notes,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.checkUnique(ctx, c.Email, c.NationalID, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("customer created", zap.String("customer_id", c.ID.String()))
	response := ToCustomerResponse(c)
	return &response, nil
}

// GetByID retrieves a customer with their contracts
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerDetailResponse, error) {
	c, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	contracts, err := s.contracts.FindByCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CustomerDetailResponse{
		CustomerResponse: ToCustomerResponse(c),
		Contracts:        contractapp.ToContractResponses(contracts),
	}, nil
}

// List lists customers; search matches name, phone, email and national ID
func (s *CustomerService) List(ctx context.Context, f CustomerListFilter) (*shared.Paginated[CustomerResponse], error) {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	filter.Search = strings.TrimSpace(f.Search)

	customers, total, err := s.customerRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToCustomerResponses(customers), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update updates a customer's profile
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	c, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Update(req.apply(c.Profile()), s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, c.Email, c.NationalID, c.ID); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	response := ToCustomerResponse(c)
	return &response, nil
}

// Delete deletes a customer. Customers holding contracts cannot be deleted.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.customerRepo.FindByID(ctx, id); err != nil {
		return err
	}
	count, err := s.contracts.CountByCustomer(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError(ErrHasContracts.Code,
			fmt.Sprintf("Customer has %d contract(s); delete them first", count))
	}
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("customer deleted", zap.String("customer_id", id.String()))
	return nil
}

// checkUnique rejects an email or national ID already used by another customer
func (s *CustomerService) checkUnique(ctx context.Context, email, nationalID string, excludeID uuid.UUID) error {
	if email != "" {
		exists, err := s.customerRepo.ExistsByEmail(ctx, email, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("ALREADY_EXISTS", "Customer with this email already exists")
		}
	}
	if nationalID != "" {
		exists, err := s.customerRepo.ExistsByNationalID(ctx, nationalID, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("ALREADY_EXISTS", "Customer with this national ID already exists")
		}
	}
	return nil
}
