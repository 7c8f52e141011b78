package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"flag"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/dbx"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/expenses"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	byEmail map[string]*models.User
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	if _, ok := m.byEmail[u.Email]; ok {
		return nil, common.ErrDuplicateEmail
	}
	u.ID = int64(len(m.byEmail) + 1)
	u.CreatedAt = time.Now()
	m.byEmail[u.Email] = u
	return u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetUserByID(context.Context, int64) (*models.User, error) {
	return nil, common.ErrorNotFound
}

type memManager struct {
	users      *memUsers
	migrateErr error
}

func (m *memManager) RunMigrations(context.Context, *sql.DB) error { return m.migrateErr }
func (m *memManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *memManager) Expenses(dbx.DBTX) expenses.Repository        { return nil }

// withFakes swaps the database seams for the duration of the test.
func withFakes(t *testing.T, mgr *memManager) {
	t.Helper()

	origOpen, origRM, origEnv := openDB, newRepoManager, lookupEnv
	t.Cleanup(func() { openDB, newRepoManager, lookupEnv = origOpen, origRM, origEnv })

	lookupEnv = func(string) (string, bool) { return "", false }

	openDB = func(context.Context, string) (*sql.DB, error) {
		db, mock, err := sqlmock.New()
		if err != nil {
			return nil, err
		}
		mock.ExpectClose()
		return db, nil
	}
	newRepoManager = func() repomanager.RepositoryManager { return mgr }
}

func newManager() *memManager {
	return &memManager{users: &memUsers{byEmail: map[string]*models.User{}}}
}

func TestRun_Success(t *testing.T) {
	mgr := newManager()
	withFakes(t, mgr)

	stdout, stderr, stdin := new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)

	args := []string{"-email", "a@x.com", "-password", "secret", "-name", "Alice", "-cost", "4"}
	require.NoError(t, run(args, stdin, stdout, stderr))

	assert.Contains(t, stdout.String(), "User a@x.com created successfully")
	u := mgr.users.byEmail["a@x.com"]
	require.NotNil(t, u)
	require.NotNil(t, u.Name)
	assert.Equal(t, "Alice", *u.Name)
	assert.NotEqual(t, "secret", u.PasswordHash)
}

func TestRun_DefaultsFollowServerEnv(t *testing.T) {
	mgr := newManager()
	withFakes(t, mgr)

	env := map[string]string{
		"POSTGRES_USER":     "app",
		"POSTGRES_PASSWORD": "pw",
		"POSTGRES_HOST":     "pg",
		"POSTGRES_DB":       "ledger",
		"BCRYPT_COST":       "5",
	}
	lookupEnv = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	var gotDSN string
	open := openDB
	openDB = func(ctx context.Context, dsn string) (*sql.DB, error) {
		gotDSN = dsn
		return open(ctx, dsn)
	}

	args := []string{"-email", "b@x.com", "-password", "secret"}
	require.NoError(t, run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)))

	assert.Equal(t, "postgres://app:pw@pg:5432/ledger?sslmode=disable", gotDSN)
	u := mgr.users.byEmail["b@x.com"]
	require.NotNil(t, u)
	cost, err := bcrypt.Cost([]byte(u.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)
}

func TestRun_BadEnv(t *testing.T) {
	withFakes(t, newManager())
	lookupEnv = func(k string) (string, bool) {
		if k == "BCRYPT_COST" {
			return "lots", true
		}
		return "", false
	}

	err := run([]string{"-email", "c@x.com", "-password", "secret"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BCRYPT_COST")
}

func TestRun_DuplicateUser(t *testing.T) {
	withFakes(t, newManager())

	stdout, stderr, stdin := new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)
	args := []string{"-email", "a@x.com", "-password", "secret", "-cost", "4"}

	require.NoError(t, run(args, stdin, stdout, stderr), "first run should succeed")

	err := run(args, stdin, stdout, stderr)
	require.Error(t, err, "expected error on duplicate user")
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_MissingEmailFlag(t *testing.T) {
	stdout, stderr, stdin := new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)

	err := run([]string{"-password", "secret"}, stdin, stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags: email")
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestRun_InteractivePassword(t *testing.T) {
	mgr := newManager()
	withFakes(t, mgr)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	stdin := bytes.NewBufferString("interactive_secret\n")

	require.NoError(t, run([]string{"-email", "b@x.com", "-cost", "4"}, stdin, stdout, stderr))
	assert.Contains(t, stdout.String(), "Password: ")
	assert.Contains(t, stdout.String(), "User b@x.com created successfully")
}

func TestRun_EmptyPassword(t *testing.T) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	stdin := bytes.NewBufferString("\n")

	err := run([]string{"-email", "c@x.com"}, stdin, stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password cannot be empty")
}

func TestRun_MigrationError(t *testing.T) {
	mgr := newManager()
	mgr.migrateErr = errors.New("boom")
	withFakes(t, mgr)

	stdout, stderr, stdin := new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)
	err := run([]string{"-email", "d@x.com", "-password", "x", "-cost", "4"}, stdin, stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to migrate database")
}

func TestRun_Help(t *testing.T) {
	stdout, stderr, stdin := new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)
	err := run([]string{"-h"}, stdin, stdout, stderr)
	assert.ErrorIs(t, err, flag.ErrHelp)
}
