package admin

import (
	"context"
	"time"
)

// Ops for login and token errors.
const (
	OpLogin       = "Login"
	OpIssueToken  = "IssueToken"
	OpVerifyToken = "VerifyToken"
)

// Credential is the opaque bearer secret issued to an authenticated operator.
// Its String form is redacted so it never lands in logs.
type Credential string

// String implements fmt.Stringer.
func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return "[redacted]"
}

// Token returns the raw secret for the Authorization header.
func (c Credential) Token() string { return string(c) }

// Empty reports whether no credential is held.
func (c Credential) Empty() bool { return c == "" }

// LoginService exchanges operator credentials for a bearer token.
type LoginService interface {
	Login(ctx context.Context, username, password string) (Credential, error)
}

// Authenticator verifies operator credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) error
}

// Claims describe a verified bearer token.
type Claims struct {
	Subject   string
	ID        string
	ExpiresAt time.Time
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	Issue(ctx context.Context, subject string) (Credential, error)
	Verify(ctx context.Context, cred Credential) (*Claims, error)
}
