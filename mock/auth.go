package mock

import (
	"context"

	"github.com/knoxite/admin"
)

var (
	_ admin.LoginService  = (*LoginService)(nil)
	_ admin.Authenticator = (*Authenticator)(nil)
	_ admin.TokenService  = (*TokenService)(nil)
)

// LoginService is a mock implementation of admin.LoginService.
type LoginService struct {
	LoginFn func(context.Context, string, string) (admin.Credential, error)
}

// Login calls LoginFn.
func (s *LoginService) Login(ctx context.Context, username, password string) (admin.Credential, error) {
	return s.LoginFn(ctx, username, password)
}

// Authenticator is a mock implementation of admin.Authenticator.
type Authenticator struct {
	AuthenticateFn func(context.Context, string, string) error
}

// Authenticate calls AuthenticateFn.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) error {
	return a.AuthenticateFn(ctx, username, password)
}

// TokenService is a mock implementation of admin.TokenService.
type TokenService struct {
	IssueFn  func(context.Context, string) (admin.Credential, error)
	VerifyFn func(context.Context, admin.Credential) (*admin.Claims, error)
}

// NewTokenService returns a TokenService that issues "token-<subject>" and
// accepts exactly the tokens it issued.
func NewTokenService() *TokenService {
	return &TokenService{
		IssueFn: func(_ context.Context, subject string) (admin.Credential, error) {
			return admin.Credential("token-" + subject), nil
		},
		VerifyFn: func(_ context.Context, cred admin.Credential) (*admin.Claims, error) {
			const prefix = "token-"
			tok := cred.Token()
			if len(tok) <= len(prefix) || tok[:len(prefix)] != prefix {
				return nil, &admin.Error{Code: admin.EUnauthorized, Msg: "token is invalid or expired"}
			}
			return &admin.Claims{Subject: tok[len(prefix):]}, nil
		},
	}
}

// Issue calls IssueFn.
func (s *TokenService) Issue(ctx context.Context, subject string) (admin.Credential, error) {
	return s.IssueFn(ctx, subject)
}

// Verify calls VerifyFn.
func (s *TokenService) Verify(ctx context.Context, cred admin.Credential) (*admin.Claims, error) {
	return s.VerifyFn(ctx, cred)
}
