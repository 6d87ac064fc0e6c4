package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/codevault/pkg/configs"
	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/service"
)

func TestSignupAndLogin(t *testing.T) {
	ctx, st := newContext(t)
	svc := service.NewAuthService(ctx, service.WithAuthConfig(fastAuth))

	sess, err := svc.Signup(ctx, "  Alice@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sess.ID, service.UserIDPrefix))
	assert.Equal(t, "alice@example.com", sess.Email)

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NotEqual(t, "correct horse", users[0].Credential)

	got, err := svc.Login(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	_, err = svc.Login(ctx, "alice@example.com", "wrong password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "bob@example.com", "correct horse")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestSignupDuplicateEmail(t *testing.T) {
	ctx, st := newContext(t)
	svc := service.NewAuthService(ctx, service.WithAuthConfig(fastAuth))

	_, err := svc.Signup(ctx, "alice@example.com", "password-1")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "ALICE@example.com", "password-2")
	assert.ErrorIs(t, err, service.ErrEmailExists)

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestSignupValidation(t *testing.T) {
	ctx, _ := newContext(t)
	svc := service.NewAuthService(ctx, service.WithAuthConfig(fastAuth))

	_, err := svc.Signup(ctx, "not-an-email", "long enough")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.Signup(ctx, "a@example.com", "short")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.Signup(ctx, "a@example.com", strings.Repeat("x", 73))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestFederatedLogin(t *testing.T) {
	ctx, st := newContext(t)
	svc := service.NewAuthService(ctx, service.WithAuthConfig(fastAuth))

	first, err := svc.FederatedLogin(ctx, "GitHub", "42", "alice@example.com")
	require.NoError(t, err)

	again, err := svc.FederatedLogin(ctx, "github", "42", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, model.FederatedCredentialPrefix+"github", users[0].Credential)
	assert.True(t, users[0].IsFederated())

	// 第三方账户不能用密码登录，同 email 仍可注册密码账户
	_, err = svc.Login(ctx, "alice@example.com", "federated:github")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	pw, err := svc.Signup(ctx, "alice@example.com", "a real password")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, pw.ID)

	_, err = svc.FederatedLogin(ctx, "", "42", "x@example.com")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := service.NewTokenIssuer(fastAuth)
	sess := model.Session{ID: "usr_1", Email: "a@example.com"}

	tok, err := issuer.Issue(sess)
	require.NoError(t, err)

	got, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, sess, got)
	assert.Equal(t, configs.DefaultAuthTokenTTL, issuer.TTL())

	other := service.NewTokenIssuer(configs.AuthConfig{TokenSecret: "other-secret"})
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = issuer.Parse(tok + "x")
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	issuer := service.NewTokenIssuer(fastAuth)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, service.Claims{
		Email: "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "usr_1",
			Issuer:    configs.AppName,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	tok, err := expired.SignedString([]byte(fastAuth.TokenSecret))
	require.NoError(t, err)

	_, err = issuer.Parse(tok)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenWithoutSecretIsStable(t *testing.T) {
	a := service.NewTokenIssuer(configs.AuthConfig{})
	b := service.NewTokenIssuer(configs.AuthConfig{})

	tok, err := a.Issue(model.Session{ID: "usr_1"})
	require.NoError(t, err)

	_, err = b.Parse(tok)
	assert.NoError(t, err)
}

func TestAuthStoreFailure(t *testing.T) {
	ms := &mockStore{}
	ms.On("ListUsers", mock.Anything).Return(nil, assert.AnError)

	svc := service.NewAuthService(context.Background(),
		service.WithStore(ms), service.WithAuthConfig(fastAuth), service.WithStoreTimeout(0))

	_, err := svc.Login(context.Background(), "a@example.com", "password")
	assert.ErrorIs(t, err, service.ErrStoreUnavailable)
}
