// Package rand generates client auth codes.
package rand

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/knoxite/admin"
)

// DefaultTokenSize is the number of random bytes in a client auth code.
const DefaultTokenSize = 32

var _ admin.TokenGenerator = (*TokenGenerator)(nil)

// TokenGenerator implements admin.TokenGenerator with hex encoded random bytes.
type TokenGenerator struct {
	size   int
	reader io.Reader
}

// NewTokenGenerator creates an instance of a TokenGenerator reading size
// random bytes per token.
func NewTokenGenerator(size int) *TokenGenerator {
	if size <= 0 {
		size = DefaultTokenSize
	}
	return &TokenGenerator{
		size:   size,
		reader: rand.Reader,
	}
}

// Token returns a new hex encoded token.
func (t *TokenGenerator) Token() (string, error) {
	b := make([]byte, t.size)
	if _, err := io.ReadFull(t.reader, b); err != nil {
		return "", &admin.Error{
			Code: admin.EInternal,
			Op:   "rand.Token",
			Msg:  "unable to generate auth code",
			Err:  err,
		}
	}
	return hex.EncodeToString(b), nil
}
