// Package httpapi exposes the account and expense operations over HTTP
// using fiber.
package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/logging"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/dmitrijs2005/expensekeeper/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// UserService is implemented by *services.UserService.
type UserService interface {
	Register(ctx context.Context, email, password string, name *string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// ExpenseService is implemented by *services.ExpenseService.
type ExpenseService interface {
	List(ctx context.Context, u *models.User, f services.ListFilter) ([]*models.Expense, error)
	Create(ctx context.Context, u *models.User, in services.ExpenseInput) (*models.Expense, error)
	Update(ctx context.Context, u *models.User, id int64, in services.ExpenseInput) (*models.Expense, error)
	Delete(ctx context.Context, u *models.User, id int64) error
}

// IdentityResolver is implemented by *services.IdentityResolver.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

type HTTPServer struct {
	address         string
	app             *fiber.App
	users           UserService
	expenses        ExpenseService
	identity        IdentityResolver
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewHTTPServer(a string, l logging.Logger, us UserService, es ExpenseService, ir IdentityResolver, shutdownTimeout time.Duration) *HTTPServer {
	s := &HTTPServer{
		address:         a,
		logger:          l.With("module", "http_server"),
		users:           us,
		expenses:        es,
		identity:        ir,
		shutdownTimeout: shutdownTimeout,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "expensekeeper",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(s.requestLogger)
	s.app.Use(recover.New())

	s.registerRoutes()

	return s
}

func (s *HTTPServer) registerRoutes() {
	s.app.Get("/ping", s.Ping)

	authGroup := s.app.Group("/auth")
	authGroup.Post("/signup", s.Signup)
	authGroup.Post("/login", s.Login)

	expenses := s.app.Group("/expenses", s.requireUser)
	expenses.Get("/", s.ListExpenses)
	expenses.Post("/", s.CreateExpense)
	expenses.Put("/:id", s.UpdateExpense)
	expenses.Delete("/:id", s.DeleteExpense)
}

// Run serves until ctx is cancelled, then shuts down gracefully, waiting at
// most the configured shutdown timeout for in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- s.app.Listen(s.address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.app.ShutdownWithContext(shutdownCtx)
}
