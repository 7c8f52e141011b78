package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/logging"
	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/repomanager"
)

// PasswordHasher is the subset of auth.PasswordHasher used for accounts.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	DummyVerify(plaintext string)
}

// TokenIssuer is the subset of auth.TokenService used at login.
type TokenIssuer interface {
	Issue(userID int64, ttl time.Duration) (*auth.IssuedToken, error)
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer, log logging.Logger) *UserService {
	if log == nil {
		log = logging.Nop{}
	}
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		log:         log,
	}
}

// Register creates an account. An existing email, whether found up front or
// rejected by the store's unique index, yields common.ErrDuplicateEmail.
func (s *UserService) Register(ctx context.Context, email, password string, name *string) (*models.User, error) {

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateEmail
	case !errors.Is(err, common.ErrorNotFound):
		s.log.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		s.log.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	user, err := repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: digest,
		Name:         name,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrDuplicateEmail
		}
		s.log.Error(ctx, "user insert failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks the credentials and issues an access token with the default
// validity. Unknown email and wrong password are indistinguishable to the
// caller, including in response time.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.DummyVerify(password)
			return nil, common.ErrInvalidCredentials
		}
		s.log.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, 0)
	if err != nil {
		s.log.Error(ctx, "token issue failed", "error", err)
		return nil, common.ErrorInternal
	}

	return &LoginResult{
		AccessToken: token.Token,
		TokenType:   common.TokenTypeBearer,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}
