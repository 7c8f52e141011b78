package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/logging"
	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/dmitrijs2005/expensekeeper/internal/server/config"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, rm *fakeRepoManager, email string) *models.User {
	t.Helper()
	u, err := rm.u.Create(context.Background(), &models.User{Email: email, PasswordHash: "digest"})
	require.NoError(t, err)
	return u
}

func TestResolve_Success(t *testing.T) {
	rm := newFakeRepoManager()
	u := seedUser(t, rm, "a@x.com")
	ts := newTokenService(t)

	tok, err := ts.Issue(u.ID, 0)
	require.NoError(t, err)

	r := NewIdentityResolver(ts, nil, rm, nil)
	got, err := r.Resolve(context.Background(), tok.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "a@x.com", got.Email)
}

func TestResolve_UniformUnauthorized(t *testing.T) {
	rm := newFakeRepoManager()
	u := seedUser(t, rm, "a@x.com")
	ts := newTokenService(t)

	other, err := auth.NewTokenService(&config.Config{
		SecretKey:                   "another-secret",
		SigningAlgorithm:            "HS256",
		AccessTokenValidityDuration: time.Hour,
	})
	require.NoError(t, err)

	expired, err := ts.Issue(u.ID, -time.Minute)
	require.NoError(t, err)
	forged, err := other.Issue(u.ID, time.Hour)
	require.NoError(t, err)
	ghost, err := ts.Issue(u.ID+100, time.Hour)
	require.NoError(t, err)

	r := NewIdentityResolver(ts, nil, rm, nil)

	cases := map[string]string{
		"empty":        "",
		"malformed":    "not.a.jwt",
		"garbage":      "abc",
		"expired":      expired.Token,
		"wrong secret": forged.Token,
		"unknown user": ghost.Token,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), token)
			assert.ErrorIs(t, err, common.ErrorUnauthorized)
			assert.Equal(t, common.ErrorUnauthorized.Error(), err.Error())
		})
	}
}

type claimsVerifier struct {
	claims *auth.Claims
}

func (v claimsVerifier) Verify(string) (*auth.Claims, error) { return v.claims, nil }

func TestResolve_NonNumericSubject(t *testing.T) {
	rm := newFakeRepoManager()
	seedUser(t, rm, "a@x.com")

	c := &auth.Claims{}
	c.Subject = "a@x.com"

	r := NewIdentityResolver(claimsVerifier{claims: c}, nil, rm, nil)
	_, err := r.Resolve(context.Background(), "whatever")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestResolve_StoreFailureIsInternal(t *testing.T) {
	rm := newFakeRepoManager()
	u := seedUser(t, rm, "a@x.com")
	ts := newTokenService(t)
	tok, err := ts.Issue(u.ID, 0)
	require.NoError(t, err)

	rm.u.getErr = errors.New("db down")

	r := NewIdentityResolver(ts, nil, rm, nil)
	_, err = r.Resolve(context.Background(), tok.Token)
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestResolve_DoesNotLogToken(t *testing.T) {
	rm := newFakeRepoManager()
	u := seedUser(t, rm, "a@x.com")
	ts := newTokenService(t)
	tok, err := ts.Issue(u.ID, -time.Minute)
	require.NoError(t, err)

	var buf bytes.Buffer
	r := NewIdentityResolver(ts, nil, rm, logging.NewJSON(&buf, "debug"))

	_, err = r.Resolve(context.Background(), tok.Token)
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	assert.Contains(t, buf.String(), "token rejected")
	assert.NotContains(t, buf.String(), tok.Token)
	assert.NotContains(t, buf.String(), "test-secret")
}
