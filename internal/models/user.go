package models

import (
	"time"
)

// UserStatus is the account state shown in the roster.
type UserStatus string

const (
	StatusActive   UserStatus = "Active"
	StatusInactive UserStatus = "Inactive"
)

// StatusAll is the status filter value that disables status filtering.
const StatusAll = "All"

// User is a roster record. ID and CreatedAt never change after creation.
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Status    UserStatus `json:"status"`
	Avatar    string     `json:"avatar"`
	CreatedAt time.Time  `json:"createdAt"`
}

// UserInput holds the fields accepted when adding a user.
// ID and CreatedAt are assigned by the store.
type UserInput struct {
	Name   string     `json:"name" validate:"required,min=2"`
	Email  string     `json:"email" validate:"required,email"`
	Status UserStatus `json:"status" validate:"required,oneof=Active Inactive"`
	Avatar string     `json:"avatar" validate:"omitempty,url"`
}

// UserPatch holds a partial update. Nil fields are left unchanged.
type UserPatch struct {
	Name   *string     `json:"name,omitempty" validate:"omitnil,min=2"`
	Email  *string     `json:"email,omitempty" validate:"omitnil,email"`
	Status *UserStatus `json:"status,omitempty" validate:"omitnil,oneof=Active Inactive"`
	Avatar *string     `json:"avatar,omitempty"`
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	return u
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Status == nil && p.Avatar == nil
}
