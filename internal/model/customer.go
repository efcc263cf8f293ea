package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the access level of a customer.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// ActiveTrue marks an activated account. Any other value of Customer.Active is the
// pending activation code.
const ActiveTrue = "TRUE"

// NormalizeRole honors only the exact string "ADMIN"; every other value becomes CUSTOMER.
func NormalizeRole(role string) Role {
	if Role(role) == RoleAdmin {
		return RoleAdmin
	}
	return RoleCustomer
}

// Customer is a registered account.
type Customer struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password  string    `json:"-" gorm:"size:255;not null"` // bcrypt hash
	Role      Role      `json:"role" gorm:"size:16;not null;default:'CUSTOMER'"`
	Active    string    `json:"-" gorm:"size:8;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns the UUID and default role before insert.
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Role == "" {
		c.Role = RoleCustomer
	}
	return nil
}

// IsActive reports whether the account has been activated.
func (c *Customer) IsActive() bool {
	return c.Active == ActiveTrue
}

// CustomerView is the public representation of a customer.
type CustomerView struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

// CustomerInfoView is what a customer sees about themselves.
type CustomerInfoView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	Activated bool      `json:"activated"`
}

// CustomerList is one page of customers plus the total number of customers.
type CustomerList struct {
	Count     int64          `json:"count"`
	Customers []CustomerView `json:"customers"`
}

// View returns the public representation.
func (c *Customer) View() CustomerView {
	return CustomerView{ID: c.ID, Email: c.Email, Role: c.Role}
}

// InfoView returns the self-service representation.
func (c *Customer) InfoView() CustomerInfoView {
	return CustomerInfoView{
		ID:        c.ID,
		Email:     c.Email,
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
		Activated: c.IsActive(),
	}
}
