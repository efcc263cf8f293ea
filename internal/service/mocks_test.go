package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"customerhub/internal/auth"
	"customerhub/internal/config"
	"customerhub/internal/model"
)

// MockCustomerRepository is a mock implementation of CustomerRepository.
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *model.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *model.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, customer *model.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByEmail(ctx context.Context, email string) (*model.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) ListPage(ctx context.Context, offset, size int) ([]model.Customer, error) {
	args := m.Called(ctx, offset, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Customer), args.Error(1)
}

var (
	testHasher = auth.NewBcryptHasher(bcrypt.MinCost)

	testTokenConfig = config.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
)

func mustHash(password string) string {
	hashed, err := testHasher.Hash(password)
	if err != nil {
		panic(err)
	}
	return hashed
}

// customerFixture returns a stored customer with password "pw".
func customerFixture(active string, role model.Role) *model.Customer {
	return &model.Customer{
		ID:        uuid.New(),
		Email:     "a@b.com",
		Password:  mustHash("pw"),
		Role:      role,
		Active:    active,
		CreatedAt: time.Date(2023, 6, 7, 18, 19, 40, 0, time.UTC),
	}
}
