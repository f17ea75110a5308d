package models

import "time"

// Session is a row of the database-backed session store.
type Session struct {
	Token  string    `gorm:"primaryKey;size:43"`
	Data   []byte    `gorm:"not null"`
	Expiry time.Time `gorm:"not null;index"`
}
