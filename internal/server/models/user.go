package models

import "time"

// User is an account. Email is unique and compared byte-for-byte.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         *string
	CreatedAt    time.Time
}
