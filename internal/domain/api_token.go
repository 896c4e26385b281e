package domain

import "time"

// APIToken is an opaque API key. Only the peppered SHA-256 of the key is stored.
type APIToken struct {
	ID         int64      `json:"id" gorm:"primaryKey"`
	UserID     int64      `json:"user_id" gorm:"index;not null"`
	User       *User      `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	TokenHash  string     `json:"-" gorm:"size:64;uniqueIndex;not null"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at" gorm:"index"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

func (APIToken) TableName() string { return "api_tokens" }

func (t *APIToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
