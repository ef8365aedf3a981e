package domain

import "time"

type Role string

const (
	RoleUser       Role = "ROLE_USER"
	RoleInstructor Role = "ROLE_INSTRUCTOR"
	RoleAdmin      Role = "ROLE_ADMIN"
)

type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Cart         *Cart     `json:"cart,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
