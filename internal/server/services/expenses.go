// Package services holds the server's business operations: accounts, token
// based identity resolution and owner-scoped expense access.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/dbx"
	"github.com/dmitrijs2005/expensekeeper/internal/logging"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/expensekeeper/internal/timex"
	"github.com/shopspring/decimal"
)

// Named list periods, as days back from today.
const (
	PeriodPastWeek    = "past_week"
	PeriodPastMonth   = "past_month"
	PeriodPastQuarter = "past_3_months"
)

// amountScale matches the NUMERIC(12,2) column.
const amountScale = 2

var periodDays = map[string]int{
	PeriodPastWeek:    7,
	PeriodPastMonth:   30,
	PeriodPastQuarter: 90,
}

// maxAmount is the first magnitude that does not fit NUMERIC(12,2).
var maxAmount = decimal.New(1, 10)

// maxAmountBits bounds the coefficient of an incoming amount (about 30
// significant digits).
const maxAmountBits = 100

// ListFilter selects which expenses List returns. A non-empty Period wins
// over Start/End.
type ListFilter struct {
	Period string
	Start  *time.Time
	End    *time.Time
}

// ExpenseInput carries the mutable fields of an expense.
type ExpenseInput struct {
	Amount      decimal.Decimal
	Category    string
	Date        time.Time
	Description *string
}

type ExpenseService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
	log         logging.Logger
}

type ExpenseServiceOption func(*ExpenseService)

// WithExpenseClock sets the clock used to anchor named periods.
func WithExpenseClock(now func() time.Time) ExpenseServiceOption {
	return func(s *ExpenseService) { s.now = now }
}

func WithExpenseLogger(l logging.Logger) ExpenseServiceOption {
	return func(s *ExpenseService) { s.log = l }
}

func NewExpenseService(db *sql.DB, m repomanager.RepositoryManager, opts ...ExpenseServiceOption) *ExpenseService {
	s := &ExpenseService{
		db:          db,
		repomanager: m,
		now:         time.Now,
		log:         logging.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns u's expenses in the range described by f, newest first.
func (s *ExpenseService) List(ctx context.Context, u *models.User, f ListFilter) ([]*models.Expense, error) {
	rng, err := s.resolveRange(f)
	if err != nil {
		return nil, err
	}

	items, err := s.repomanager.Expenses(s.db).ListByOwner(ctx, u.ID, rng)
	if err != nil {
		return nil, s.internal(ctx, "list expenses failed", err)
	}
	return items, nil
}

// Create stores a new expense owned by u.
func (s *ExpenseService) Create(ctx context.Context, u *models.User, in ExpenseInput) (*models.Expense, error) {
	e, err := buildExpense(u, in)
	if err != nil {
		return nil, err
	}

	created, err := s.repomanager.Expenses(s.db).Create(ctx, e)
	if err != nil {
		return nil, s.internal(ctx, "create expense failed", err)
	}

	s.log.Info(ctx, "expense created", "user_id", u.ID, "expense_id", created.ID)
	return created, nil
}

// Update replaces the mutable fields of expense id. An expense that does not
// exist or is owned by someone else is common.ErrorNotFound, checked before
// the input is validated.
func (s *ExpenseService) Update(ctx context.Context, u *models.User, id int64, in ExpenseInput) (*models.Expense, error) {
	var updated *models.Expense

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Expenses(tx)

		if _, err := repo.GetByID(ctx, id, u.ID); err != nil {
			return err
		}

		e, err := buildExpense(u, in)
		if err != nil {
			return err
		}
		e.ID = id

		updated, err = repo.Update(ctx, e)
		return err
	})
	if err != nil {
		return nil, s.passOrInternal(ctx, "update expense failed", err)
	}

	return updated, nil
}

// Delete removes expense id if u owns it, and is common.ErrorNotFound
// otherwise (including a repeated delete).
func (s *ExpenseService) Delete(ctx context.Context, u *models.User, id int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Expenses(tx)

		if _, err := repo.GetByID(ctx, id, u.ID); err != nil {
			return err
		}
		return repo.Delete(ctx, id, u.ID)
	})
	if err != nil {
		return s.passOrInternal(ctx, "delete expense failed", err)
	}

	s.log.Info(ctx, "expense deleted", "user_id", u.ID, "expense_id", id)
	return nil
}

func (s *ExpenseService) resolveRange(f ListFilter) (models.DateRange, error) {
	if f.Period != "" {
		days, ok := periodDays[f.Period]
		if !ok {
			return models.DateRange{}, fmt.Errorf("%w: %q", common.ErrInvalidPeriod, f.Period)
		}
		today := timex.Date(s.now().UTC())
		start := today.AddDate(0, 0, -days)
		return models.DateRange{Start: &start, End: &today}, nil
	}

	rng := models.DateRange{}
	if f.Start != nil {
		start := timex.Date(*f.Start)
		rng.Start = &start
	}
	if f.End != nil {
		end := timex.Date(*f.End)
		rng.End = &end
	}
	if rng.Start != nil && rng.End != nil && rng.Start.After(*rng.End) {
		return models.DateRange{}, common.ErrInvalidRange
	}
	return rng, nil
}

func buildExpense(u *models.User, in ExpenseInput) (*models.Expense, error) {
	category, err := models.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}

	amount, err := normalizeAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	return &models.Expense{
		UserID:      u.ID,
		Amount:      amount,
		Category:    category,
		Date:        timex.Date(in.Date),
		Description: in.Description,
	}, nil
}

// normalizeAmount rounds d to amountScale places and rejects values outside
// NUMERIC(12,2). The magnitude is checked from the coefficient size and the
// exponent before Round or Cmp run, since both rescale to a power of ten as
// large as the exponent.
func normalizeAmount(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if d.Coefficient().BitLen() > maxAmountBits {
		return decimal.Zero, fmt.Errorf("%w: amount has too many digits", common.ErrorValidation)
	}

	// |d| lies in [10^(m-1), 10^m).
	m := d.NumDigits() + int(d.Exponent())
	switch {
	case m > 10:
		return decimal.Zero, fmt.Errorf("%w: amount out of range", common.ErrorValidation)
	case m < -amountScale:
		return decimal.Zero, nil
	}

	amount := d.Round(amountScale)
	if amount.Abs().GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, fmt.Errorf("%w: amount out of range", common.ErrorValidation)
	}
	return amount, nil
}

// passOrInternal lets domain errors through and turns anything else into
// common.ErrorInternal after logging it.
func (s *ExpenseService) passOrInternal(ctx context.Context, msg string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrInvalidCategory),
		errors.Is(err, common.ErrorValidation):
		return err
	}
	return s.internal(ctx, msg, err)
}

func (s *ExpenseService) internal(ctx context.Context, msg string, err error) error {
	s.log.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}
