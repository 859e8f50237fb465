package domain

import "time"

type UserRole string

const (
	RolePatient      UserRole = "patient"
	RoleDoctor       UserRole = "doctor"
	RoleReceptionist UserRole = "receptionist"
	RoleAdmin        UserRole = "admin"
)

// User is the identity handed to the engine by the session provider. The
// engine trusts the authenticated id and role; it performs no authentication
// of its own.
type User struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" validate:"required,email" gorm:"type:varchar(255);uniqueIndex"`
	Role      UserRole  `json:"role" gorm:"type:varchar(20);not null"`
	Name      string    `json:"name" gorm:"type:varchar(255)"`
	Phone     string    `json:"phone,omitempty" gorm:"type:varchar(32)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
