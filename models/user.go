package models

import "time"

// Role is the userStatus flag stored on every user.
type Role int

const (
	RoleOrdinary   Role = 1
	RolePrivileged Role = 2
)

func (r Role) Valid() bool {
	return r == RoleOrdinary || r == RolePrivileged
}

func (r Role) String() string {
	switch r {
	case RoleOrdinary:
		return "ordinary"
	case RolePrivileged:
		return "privileged"
	default:
		return "unknown"
	}
}

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"not null" json:"-"` // bcrypt hash, see auth.PasswordHasher
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	UserStatus Role      `gorm:"not null;default:1" json:"userStatus"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
