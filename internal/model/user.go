package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role of a user.
type Role string

const (
	RoleBuyer   Role = "buyer"
	RoleArtisan Role = "artisan"
	RoleAdmin   Role = "admin"
)

func (r Role) Validate() error {
	switch r {
	case RoleBuyer, RoleArtisan, RoleAdmin:
		return nil
	default:
		return fmt.Errorf("unknown role: %s", r)
	}
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
