// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single ledger entry. UserID is fixed at creation.
type Expense struct {
	ID     int64
	UserID int64
	// Amount is signed; no currency is attached.
	Amount   decimal.Decimal
	Category Category
	// Date is the calendar day the expense occurred, at UTC midnight.
	Date        time.Time
	Description *string
	CreatedAt   time.Time
}

// DateRange bounds Expense.Date inclusively. A nil side is open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}
