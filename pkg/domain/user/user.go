package user

import (
	"strings"
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
)

// User is an account holder.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created"`
}

// NewUser creates a User with the current timestamp.
func NewUser(name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Errorf(domain.InvalidRequest, "name cannot be empty")
	}
	return &User{
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}, nil
}
