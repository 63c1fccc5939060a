package domain

import (
	"errors"
	"time"
)

var (
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrCustomerNameEmpty    = errors.New("customer name is required")
	ErrCustomerNameTooLong  = errors.New("customer name must be 200 characters or less")
	ErrCustomerPhoneTooLong = errors.New("customer phone must be 30 characters or less")
)

type Customer struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	CNIC      *string   `json:"cnic,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Customer) Validate() error {
	if c.Name == "" {
		return ErrCustomerNameEmpty
	}
	if len(c.Name) > MaxNameLength {
		return ErrCustomerNameTooLong
	}
	if c.Phone != nil && len(*c.Phone) > 30 {
		return ErrCustomerPhoneTooLong
	}
	return nil
}

type CustomerRepository interface {
	Create(customer *Customer) (*Customer, error)
	GetByID(id int32) (*Customer, error)
	List(page, limit int) ([]*Customer, int64, error)
	Search(query string, page, limit int) ([]*Customer, int64, error)
	Update(customer *Customer) (*Customer, error)
	Delete(id int32) error
}
