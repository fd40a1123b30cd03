package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
)

func (r Role) IsValid() bool {
	return r == RolePassenger || r == RoleDriver
}

type User struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name" validate:"required,min=2,max=50"`
	LastName  string    `json:"last_name" validate:"required,min=2,max=50"`
	Roles     []Role    `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUser(firstName, lastName string) *User {
	return &User{
		ID:        uuid.New(),
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: time.Now().UTC(),
	}
}

func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ConflictingRole returns a role the user holds that rules out taking role.
// Passenger and driver are mutually exclusive.
func (u *User) ConflictingRole(role Role) (Role, bool) {
	for _, held := range u.Roles {
		if held != role {
			return held, true
		}
	}
	return "", false
}

func (u *User) Is(other *User) bool {
	return u != nil && other != nil && u.ID == other.ID
}

func (u *User) Clone() *User {
	c := *u
	c.Roles = append([]Role(nil), u.Roles...)
	return &c
}
