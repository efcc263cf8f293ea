package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"customerhub/internal/model"
)

var (
	// ErrNotFound is returned when no customer matches the lookup.
	ErrNotFound = errors.New("customer not found")
	// ErrDuplicateEmail is returned when a write violates the unique email index.
	ErrDuplicateEmail = errors.New("email already exists")
)

const mysqlDuplicateEntry = 1062

// CustomerRepository defines customer persistence operations.
type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	FindByEmail(ctx context.Context, email string) (*model.Customer, error)
	Count(ctx context.Context) (int64, error)
	ListPage(ctx context.Context, offset, size int) ([]model.Customer, error)
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository builds a GORM-backed repository.
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Create inserts a customer. Uniqueness of email is left to the database index.
func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return translate(r.db.WithContext(ctx).Create(customer).Error)
}

// Update writes every mutable column of an existing customer, zero values included.
func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	return translate(r.db.WithContext(ctx).Model(customer).Select("*").Omit("id", "created_at").Updates(customer).Error)
}

// Delete removes a customer permanently.
func (r *customerRepository) Delete(ctx context.Context, customer *model.Customer) error {
	res := r.db.WithContext(ctx).Delete(&model.Customer{}, "id = ?", customer.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}

func (r *customerRepository) FindByEmail(ctx context.Context, email string) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&customer).Error; err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}

func (r *customerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Customer{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListPage returns at most size customers after skipping offset, oldest first.
func (r *customerRepository) ListPage(ctx context.Context, offset, size int) ([]model.Customer, error) {
	customers := make([]model.Customer, 0, size)
	err := r.db.WithContext(ctx).
		Order("created_at ASC").Order("id ASC").
		Offset(offset).Limit(size).
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return ErrDuplicateEmail
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateEmail
	}
	return err
}
