package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"customerhub/internal/auth"
	"customerhub/internal/cache"
	apperrors "customerhub/internal/errors"
	"customerhub/internal/model"
	"customerhub/internal/repository"
)

// CustomerPatch carries an admin update. Empty Email or Password leaves the field unchanged;
// Role is always normalized, so an empty Role demotes to CUSTOMER.
type CustomerPatch struct {
	Email    string
	Password string
	Role     string
}

// CustomerService exposes customer administration.
type CustomerService interface {
	GetAllCustomers(ctx context.Context, offset, size int) (*model.CustomerList, error)
	GetCustomerByEmail(ctx context.Context, email string) (*model.CustomerView, error)
	UpdateCustomer(ctx context.Context, email string, patch CustomerPatch) (*model.CustomerView, error)
	DeleteCustomer(ctx context.Context, email string) (*model.CustomerView, error)
}

type customerService struct {
	customers repository.CustomerRepository
	hasher    auth.PasswordHasher
	cache     *cache.Client
	logger    *slog.Logger
}

// NewCustomerService builds a CustomerService. cache may be nil.
func NewCustomerService(customers repository.CustomerRepository, hasher auth.PasswordHasher, cache *cache.Client, logger *slog.Logger) CustomerService {
	return &customerService{customers: customers, hasher: hasher, cache: cache, logger: logger}
}

// GetAllCustomers returns one page and the total count. The two reads are independent,
// so count may disagree with the page under concurrent writes.
func (s *customerService) GetAllCustomers(ctx context.Context, offset, size int) (*model.CustomerList, error) {
	if offset < 0 || size < 0 {
		return nil, apperrors.InvalidInput("offset and size must not be negative")
	}

	customers, err := s.customers.ListPage(ctx, offset, size)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	count, err := s.customers.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	views := make([]model.CustomerView, 0, len(customers))
	for i := range customers {
		views = append(views, customers[i].View())
	}
	return &model.CustomerList{Count: count, Customers: views}, nil
}

func (s *customerService) GetCustomerByEmail(ctx context.Context, email string) (*model.CustomerView, error) {
	customer, err := s.find(ctx, email)
	if err != nil {
		return nil, err
	}
	view := customer.View()
	return &view, nil
}

// UpdateCustomer applies patch to the customer identified by email.
func (s *customerService) UpdateCustomer(ctx context.Context, email string, patch CustomerPatch) (*model.CustomerView, error) {
	customer, err := s.find(ctx, email)
	if err != nil {
		return nil, err
	}

	if patch.Email != "" {
		customer.Email = patch.Email
	}
	if patch.Password != "" {
		hashed, err := s.hasher.Hash(patch.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		customer.Password = hashed
	}
	customer.Role = model.NormalizeRole(patch.Role)

	if err := s.customers.Update(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.Conflict(msgEmailExists)
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}
	s.cache.Delete(ctx, cache.CustomerInfoKey(customer.ID))

	s.logger.InfoContext(ctx, "customer updated",
		slog.String("customer_id", customer.ID.String()),
		slog.String("role", string(customer.Role)),
	)

	view := customer.View()
	return &view, nil
}

// DeleteCustomer removes the customer and returns what was removed.
func (s *customerService) DeleteCustomer(ctx context.Context, email string) (*model.CustomerView, error) {
	customer, err := s.find(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.customers.Delete(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(msgCustomerNotFound)
		}
		return nil, fmt.Errorf("delete customer: %w", err)
	}
	s.cache.Delete(ctx, cache.CustomerInfoKey(customer.ID))

	s.logger.InfoContext(ctx, "customer deleted", slog.String("customer_id", customer.ID.String()))

	view := customer.View()
	return &view, nil
}

func (s *customerService) find(ctx context.Context, email string) (*model.Customer, error) {
	customer, err := s.customers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(msgCustomerNotFound)
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return customer, nil
}
