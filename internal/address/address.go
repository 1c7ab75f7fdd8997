package address

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("address not found")
	ErrInvalid  = errors.New("addressDesc or addressName required")
)

// Address is a shipping address in a user's address book.
type Address struct {
	AddressID   int       `json:"addressId"`
	UserID      int       `json:"userId"`
	AddressName string    `json:"addressName"`
	AddressDesc string    `json:"addressDesc"`
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Label renders the address as the single line stored on an order.
func (a Address) Label() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{a.AddressName, a.AddressDesc, a.Phone} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
