package dto

import "time"

// UserView is the read model of an account holder.
type UserView struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}
