package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/dbx"
	"github.com/dmitrijs2005/expensekeeper/internal/logging"
	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/repomanager"
)

// TokenVerifier is the subset of auth.TokenService used to authenticate requests.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// IdentityResolver turns a bearer token into the user it was issued to.
type IdentityResolver struct {
	tokens      TokenVerifier
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewIdentityResolver(tokens TokenVerifier, db dbx.DBTX, m repomanager.RepositoryManager, log logging.Logger) *IdentityResolver {
	if log == nil {
		log = logging.Nop{}
	}
	return &IdentityResolver{tokens: tokens, db: db, repomanager: m, log: log}
}

// Resolve returns the user named by token. Every token problem (bad
// signature, expiry, malformed or missing subject, deleted user) is reported
// as common.ErrorUnauthorized; the cause only goes to the log. A failing
// store is common.ErrorInternal.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	claims, err := r.tokens.Verify(token)
	if err != nil {
		r.log.Warn(ctx, "token rejected", "reason", err.Error())
		return nil, common.ErrorUnauthorized
	}

	userID, err := claims.UserID()
	if err != nil {
		r.log.Warn(ctx, "token rejected", "reason", "bad subject")
		return nil, common.ErrorUnauthorized
	}

	user, err := r.repomanager.Users(r.db).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			r.log.Warn(ctx, "token rejected", "reason", "unknown user", "user_id", userID)
			return nil, common.ErrorUnauthorized
		}
		r.log.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	return user, nil
}
