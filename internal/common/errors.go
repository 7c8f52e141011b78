// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is / errors.As to match them.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Account errors.
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Expense errors.
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidRange    = errors.New("start_date cannot be after end_date")
	ErrInvalidPeriod   = errors.New("invalid period")

	// Token verification errors. These never reach API clients as-is;
	// identity resolution collapses them into ErrorUnauthorized.
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
)

// InvalidCategoryError reports a category value outside the fixed set.
// It matches ErrInvalidCategory with errors.Is.
type InvalidCategoryError struct {
	Value string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("Invalid category: %s", e.Value)
}

func (e *InvalidCategoryError) Unwrap() error { return ErrInvalidCategory }
