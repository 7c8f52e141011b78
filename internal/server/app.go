// Package server wires configuration, storage, services and the HTTP
// transport together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/expensekeeper/internal/logging"
	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/dmitrijs2005/expensekeeper/internal/server/config"
	"github.com/dmitrijs2005/expensekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/expensekeeper/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	userService    *services.UserService
	expenseService *services.ExpenseService
	identity       *services.IdentityResolver
}

// NewApp opens the database, brings the schema up to date and builds the
// services. The caller owns the returned App and must call Run or Close.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout, repomanager.NewPostgresRepositoryManager(), openDB)
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newApp(ctx context.Context, c *config.Config, logOut io.Writer, rm repomanager.RepositoryManager,
	open func(context.Context, string) (*sql.DB, error)) (*App, error) {

	logger := logging.NewJSON(logOut, c.LogLevel)

	tokens, err := auth.NewTokenService(c)
	if err != nil {
		return nil, fmt.Errorf("token service init error: %w", err)
	}
	hasher := auth.NewPasswordHasher(c.BcryptCost)

	db, err := open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	return &App{
		config:         c,
		logger:         logger,
		db:             db,
		userService:    services.NewUserService(db, rm, hasher, tokens, logger.With("module", "users")),
		expenseService: services.NewExpenseService(db, rm, services.WithExpenseLogger(logger.With("module", "expenses"))),
		identity:       services.NewIdentityResolver(tokens, db, rm, logger.With("module", "identity")),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger,
		app.userService, app.expenseService, app.identity, app.config.ShutdownTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run serves requests until ctx is cancelled or a termination signal
// arrives, then shuts the server down and closes the database.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(ctx, "App stopped")
	return errors.Join(runErr, app.Close())
}

func (app *App) Close() error {
	return app.db.Close()
}
