package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fernandovmc/ai-workspaces/internal/model"
	"github.com/fernandovmc/ai-workspaces/internal/store"
)

func newAuthService(t *testing.T, ttl time.Duration) *AuthService {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	auth := NewAuthService(st, "test-secret", ttl, nil)
	auth.cost = bcrypt.MinCost
	return auth
}

func TestRegisterLoginVerify(t *testing.T) {
	auth := newAuthService(t, time.Hour)
	ctx := context.Background()
	creds := model.Credentials{Email: "Ana@Example.com", Password: "secret123"}

	reg, err := auth.Register(ctx, creds)
	require.NoError(t, err)
	require.NotEmpty(t, reg.AccessToken)

	id, err := auth.Verify(reg.AccessToken)
	require.NoError(t, err)

	me, err := auth.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", me.Email)

	login, err := auth.Login(ctx, model.Credentials{Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)
	loginID, err := auth.Verify(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, loginID)
}

func TestRegisterValidation(t *testing.T) {
	auth := newAuthService(t, time.Hour)
	ctx := context.Background()

	_, err := auth.Register(ctx, model.Credentials{Email: "not-an-email", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = auth.Register(ctx, model.Credentials{Email: "a@example.com", Password: "123"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = auth.Register(ctx, model.Credentials{Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)
	_, err = auth.Register(ctx, model.Credentials{Email: "A@example.com", Password: "secret456"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginFailures(t *testing.T) {
	auth := newAuthService(t, time.Hour)
	ctx := context.Background()
	_, err := auth.Register(ctx, model.Credentials{Email: "b@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = auth.Login(ctx, model.Credentials{Email: "b@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, model.Credentials{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	auth := newAuthService(t, time.Hour)
	ctx := context.Background()

	_, err := auth.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	tok, err := auth.Register(ctx, model.Credentials{Email: "c@example.com", Password: "secret123"})
	require.NoError(t, err)

	other := newAuthService(t, time.Hour)
	other.secret = []byte("another-secret")
	_, err = other.Verify(tok.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := newAuthService(t, time.Hour)
	expired.ttl = -time.Minute
	old, err := expired.Register(ctx, model.Credentials{Email: "d@example.com", Password: "secret123"})
	require.NoError(t, err)
	_, err = expired.Verify(old.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
