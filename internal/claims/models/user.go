package models

import (
	id "escena/pkg/domain"
)

type Role string

const (
	RoleUser        Role = "user"
	RoleBand        Role = "band"
	RoleVenue       Role = "venue"
	RoleFestival    Role = "festival"
	RoleAssociation Role = "association"
	RoleOrganizer   Role = "organizer"
	RolePromoter    Role = "promoter"
	RoleAdmin       Role = "admin"
)

// User is the slice of the account this workflow reads and mutates.
type User struct {
	ID    id.UserID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  Role      `json:"role"`
}
