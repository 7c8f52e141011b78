package expenses

import (
	"context"

	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
)

// Repository stores expenses. Every read and write other than Create is
// scoped by owner: a row owned by someone else behaves as if it did not exist.
type Repository interface {
	Create(ctx context.Context, e *models.Expense) (*models.Expense, error)
	GetByID(ctx context.Context, id, ownerID int64) (*models.Expense, error)
	ListByOwner(ctx context.Context, ownerID int64, r models.DateRange) ([]*models.Expense, error)
	Update(ctx context.Context, e *models.Expense) (*models.Expense, error)
	Delete(ctx context.Context, id, ownerID int64) error
}
