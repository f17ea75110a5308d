package models

import "time"

// SessionToken is a live session token, keyed by its jti. A bearer token is
// only honoured while its row exists.
type SessionToken struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    uint      `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}
