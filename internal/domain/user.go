package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:150;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"-" gorm:"size:20;not null;default:'user'"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Identity is the authenticated caller as seen by the services.
type Identity struct {
	UserID   int64
	Username string
	Role     UserRole
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID > 0
}

func (i Identity) IsAdmin() bool {
	return i.IsAuthenticated() && i.Role == RoleAdmin
}
