package models

import "time"

// PasswordReset is a single-use recovery token. Consumption stamps UsedAt so
// a replayed token is rejected even before it expires.
type PasswordReset struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Token     string     `gorm:"size:255;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`

	User User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Used reports whether the token was already consumed.
func (p *PasswordReset) Used() bool {
	return p.UsedAt != nil
}

// Expired reports whether the token is past its expiry.
func (p *PasswordReset) Expired() bool {
	return time.Now().After(p.ExpiresAt)
}
