package mock

import (
	"github.com/knoxite/admin"
)

var _ admin.TokenGenerator = TokenGenerator{}

// NewTokenGenerator is a simple way to create immutable token generator.
func NewTokenGenerator(s string, err error) TokenGenerator {
	return TokenGenerator{
		TokenFn: func() (string, error) {
			return s, err
		},
	}
}

// TokenGenerator is mock implementation of admin.TokenGenerator.
type TokenGenerator struct {
	TokenFn func() (string, error)
}

// Token generates a new token from a mock function.
func (g TokenGenerator) Token() (string, error) {
	return g.TokenFn()
}
