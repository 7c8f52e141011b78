// Package expenses provides the PostgreSQL-backed expense store.
package expenses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/dbx"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/dmitrijs2005/expensekeeper/internal/timex"
)

const selectColumns = `id, user_id, amount, category, date, description, created_at`

// PostgresRepository implements expense storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts e and fills in its ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	query := `
		INSERT INTO expenses (user_id, amount, category, date, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	e.Date = timex.Date(e.Date)
	err := r.db.QueryRowContext(ctx, query,
		e.UserID, e.Amount, string(e.Category), e.Date, nullString(e.Description),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// GetByID returns the expense with id owned by ownerID, or
// common.ErrorNotFound. Inside a transaction the row is locked until commit.
func (r *PostgresRepository) GetByID(ctx context.Context, id, ownerID int64) (*models.Expense, error) {
	query := `SELECT ` + selectColumns + ` FROM expenses
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`
	e, err := scanExpense(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// ListByOwner returns ownerID's expenses whose date falls inside rng
// (inclusive, open on a nil side), newest date first and, within a date,
// highest id first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64, rng models.DateRange) ([]*models.Expense, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + selectColumns + ` FROM expenses WHERE user_id = $1`)
	args := []any{ownerID}

	if rng.Start != nil {
		args = append(args, timex.Date(*rng.Start))
		fmt.Fprintf(&b, ` AND date >= $%d`, len(args))
	}
	if rng.End != nil {
		args = append(args, timex.Date(*rng.End))
		fmt.Fprintf(&b, ` AND date <= $%d`, len(args))
	}
	b.WriteString(` ORDER BY date DESC, id DESC`)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select expenses: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update replaces amount, category, date and description of e.ID, provided
// the row belongs to e.UserID. Owner and creation time never change.
func (r *PostgresRepository) Update(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	query := `
		UPDATE expenses
		SET amount = $1, category = $2, date = $3, description = $4
		WHERE id = $5 AND user_id = $6
		RETURNING created_at
	`
	e.Date = timex.Date(e.Date)
	err := r.db.QueryRowContext(ctx, query,
		e.Amount, string(e.Category), e.Date, nullString(e.Description), e.ID, e.UserID,
	).Scan(&e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// Delete removes id if it belongs to ownerID. Zero affected rows is
// common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID int64) error {
	query := `DELETE FROM expenses WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (*models.Expense, error) {
	var (
		e           models.Expense
		category    string
		description sql.NullString
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Amount, &category, &e.Date, &description, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Category = models.Category(category)
	e.Date = timex.Date(e.Date)
	if description.Valid {
		e.Description = &description.String
	}
	return &e, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
