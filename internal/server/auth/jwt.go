// Package auth implements credential hashing and signed access tokens.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/server/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the fixed claim set of an access token: the user id as the
// subject plus expiry and issue instants.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject as a user identifier.
func (c *Claims) UserID() (int64, error) {
	if c.Subject == "" {
		return 0, errors.New("missing subject")
	}
	return strconv.ParseInt(c.Subject, 10, 64)
}

// IssuedToken is a signed token together with its expiry instant.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenService issues and verifies HMAC-signed JWTs. All fields are set at
// construction and never change, so one instance is shared by all requests.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	defaultTTL time.Duration
	now        func() time.Time
}

type TokenServiceOption func(*TokenService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) TokenServiceOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService builds a TokenService from the signing secret, algorithm and
// default validity in cfg. Only HMAC algorithms are accepted.
func NewTokenService(cfg *config.Config, opts ...TokenServiceOption) (*TokenService, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("empty signing secret")
	}

	method, ok := jwt.GetSigningMethod(cfg.SigningAlgorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.SigningAlgorithm)
	}

	s := &TokenService{
		secret:     []byte(cfg.SecretKey),
		method:     method,
		defaultTTL: cfg.AccessTokenValidityDuration,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DefaultTTL is the validity used when Issue is called with ttl == 0.
func (s *TokenService) DefaultTTL() time.Duration {
	return s.defaultTTL
}

// Issue signs a token for userID valid for ttl (the default when ttl is 0).
// Expiry has one-second precision, as in the JWT numeric date.
func (s *TokenService) Issue(userID int64, ttl time.Duration) (*IssuedToken, error) {
	if ttl == 0 {
		ttl = s.defaultTTL
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &IssuedToken{Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks the signature, then the expiry, and only then returns the
// claims. Errors are common.ErrTokenMalformed, common.ErrTokenInvalidSignature
// or common.ErrTokenExpired. A token is expired from its exp instant onwards.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, classify(err)
	}

	if !token.Valid {
		return nil, common.ErrTokenInvalidSignature
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return common.ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return common.ErrTokenInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	default:
		// missing exp, bad claim types and the like
		return common.ErrTokenMalformed
	}
}
