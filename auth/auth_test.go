package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v4"
	"github.com/knoxite/admin"
	"github.com/knoxite/admin/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthenticator(t *testing.T) {
	hash, err := auth.HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	a := auth.NewAuthenticator("admin", hash)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{name: "valid", username: "admin", password: "correct horse"},
		{name: "wrong password", username: "admin", password: "battery staple", wantErr: true},
		{name: "wrong user", username: "root", password: "correct horse", wantErr: true},
		{name: "empty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Authenticate(context.Background(), tt.username, tt.password)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			assert.Equal(t, admin.EForbidden, admin.ErrorCode(err))
		})
	}
}

func TestHashPassword_Short(t *testing.T) {
	_, err := auth.HashPassword("short", bcrypt.MinCost)
	assert.Equal(t, admin.EInvalid, admin.ErrorCode(err))
}

func newIssuer(ttl time.Duration) (*auth.TokenIssuer, *clock.Mock) {
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	issuer := auth.NewTokenIssuer([]byte("secret"), ttl)
	issuer.Clock = mock
	return issuer, mock
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ctx := context.Background()
	issuer, mock := newIssuer(time.Hour)

	cred, err := issuer.Issue(ctx, "admin")
	require.NoError(t, err)
	require.False(t, cred.Empty())

	claims, err := issuer.Verify(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.ExpiresAt.Equal(mock.Now().Add(time.Hour)))

	other, err := issuer.Issue(ctx, "admin")
	require.NoError(t, err)
	otherClaims, err := issuer.Verify(ctx, other)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, otherClaims.ID)
}

func TestTokenIssuer_Expired(t *testing.T) {
	ctx := context.Background()
	issuer, mock := newIssuer(time.Hour)

	cred, err := issuer.Issue(ctx, "admin")
	require.NoError(t, err)

	mock.Add(time.Hour + time.Second)
	_, err = issuer.Verify(ctx, cred)
	assert.Equal(t, admin.EUnauthorized, admin.ErrorCode(err))
}

func TestTokenIssuer_Rejects(t *testing.T) {
	ctx := context.Background()
	issuer, mock := newIssuer(time.Hour)

	forged, err := auth.NewTokenIssuer([]byte("other secret"), time.Hour).Issue(ctx, "admin")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    auth.Issuer,
		ExpiresAt: jwt.NewNumericDate(mock.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(mock.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, cred := range map[string]admin.Credential{
		"garbage":      "not-a-token",
		"other secret": forged,
		"alg none":     admin.Credential(noneAlg),
		"wrong issuer": admin.Credential(wrongIssuer),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Verify(ctx, cred)
			assert.Equal(t, admin.EUnauthorized, admin.ErrorCode(err))
		})
	}
}
