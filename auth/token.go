package auth

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/knoxite/admin"
)

// DefaultTokenTTL is how long an issued operator token stays valid.
const DefaultTokenTTL = 12 * time.Hour

// Issuer is the iss claim of every token.
const Issuer = "knoxite-admin"

// ErrInvalidToken is returned for tokens that are malformed, forged or expired.
var ErrInvalidToken = &admin.Error{
	Code: admin.EUnauthorized,
	Msg:  "token is invalid or expired",
}

// TokenIssuer signs operator tokens with HMAC-SHA256.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration

	// Clock is the source of issue and expiry times. It defaults to the
	// realtime clock but a mock clock can be used for testing.
	Clock clock.Clock
}

var _ admin.TokenService = (*TokenIssuer)(nil)

// NewTokenIssuer returns an issuer signing with secret. A ttl of zero selects
// DefaultTokenTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{
		secret: secret,
		ttl:    ttl,
		Clock:  clock.New(),
	}
}

// Issue signs a token for subject.
func (t *TokenIssuer) Issue(ctx context.Context, subject string) (admin.Credential, error) {
	now := t.Clock.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    Issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", &admin.Error{
			Code: admin.EInternal,
			Op:   "auth." + admin.OpIssueToken,
			Err:  err,
		}
	}
	return admin.Credential(signed), nil
}

// Verify checks the signature and the time claims of cred.
func (t *TokenIssuer) Verify(ctx context.Context, cred admin.Credential) (*admin.Claims, error) {
	op := "auth." + admin.OpVerifyToken

	// Time claims are checked against Clock below rather than the
	// package-level jwt.TimeFunc.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims jwt.RegisteredClaims
	_, err := parser.ParseWithClaims(cred.Token(), &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, &admin.Error{
			Code: ErrInvalidToken.Code,
			Op:   op,
			Msg:  ErrInvalidToken.Msg,
			Err:  err,
		}
	}

	now := t.Clock.Now()
	switch {
	case !claims.VerifyExpiresAt(now, true),
		!claims.VerifyNotBefore(now, false),
		!claims.VerifyIssuer(Issuer, true),
		claims.Subject == "":
		return nil, &admin.Error{Op: op, Err: ErrInvalidToken}
	}

	return &admin.Claims{
		Subject:   claims.Subject,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
