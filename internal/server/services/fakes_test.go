package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/dbx"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/expenses"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// --- in-memory repositories ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	nextID int64

	// getErr, when set, is returned by every lookup.
	getErr error
	// createErr, when set, is returned by Create.
	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[int64]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrDuplicateEmail
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeExpensesRepo struct {
	mu     sync.Mutex
	byID   map[int64]*models.Expense
	nextID int64

	err error
}

func newFakeExpensesRepo() *fakeExpensesRepo {
	return &fakeExpensesRepo{byID: map[int64]*models.Expense{}}
}

func (f *fakeExpensesRepo) Create(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	e.ID = f.nextID
	e.CreatedAt = time.Now()
	cp := *e
	f.byID[e.ID] = &cp
	return e, nil
}

func (f *fakeExpensesRepo) GetByID(ctx context.Context, id, ownerID int64) (*models.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.byID[id]
	if !ok || e.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExpensesRepo) ListByOwner(ctx context.Context, ownerID int64, r models.DateRange) ([]*models.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Expense, 0)
	for _, e := range f.byID {
		if e.UserID != ownerID {
			continue
		}
		if r.Start != nil && e.Date.Before(*r.Start) {
			continue
		}
		if r.End != nil && e.Date.After(*r.End) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeExpensesRepo) Update(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	cur, ok := f.byID[e.ID]
	if !ok || cur.UserID != e.UserID {
		return nil, common.ErrorNotFound
	}
	e.CreatedAt = cur.CreatedAt
	cp := *e
	f.byID[e.ID] = &cp
	return e, nil
}

func (f *fakeExpensesRepo) Delete(ctx context.Context, id, ownerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	e, ok := f.byID[id]
	if !ok || e.UserID != ownerID {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	e *fakeExpensesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), e: newFakeExpensesRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return m.u }
func (m *fakeRepoManager) Expenses(db dbx.DBTX) expenses.Repository     { return m.e }
