package admin

import (
	"github.com/knoxite/admin/kit/platform/errors"
)

// Error and its codes are re-exported so callers of the root package can
// inspect failures without importing the platform package.
type Error = errors.Error

const (
	EInternal            = errors.EInternal
	ENotFound            = errors.ENotFound
	EConflict            = errors.EConflict
	EInvalid             = errors.EInvalid
	EUnprocessableEntity = errors.EUnprocessableEntity
	EEmptyValue          = errors.EEmptyValue
	EUnavailable         = errors.EUnavailable
	EForbidden           = errors.EForbidden
	ETooManyRequests     = errors.ETooManyRequests
	EUnauthorized        = errors.EUnauthorized
	EMethodNotAllowed    = errors.EMethodNotAllowed
)

// ErrorCode returns the code of the root error.
func ErrorCode(err error) string { return errors.ErrorCode(err) }

// ErrorMessage returns the operator-facing message of err.
func ErrorMessage(err error) string { return errors.ErrorMessage(err) }

var (
	// ErrNoSpace is returned when a quota does not fit in the remaining capacity.
	ErrNoSpace = &Error{
		Code: EUnprocessableEntity,
		Msg:  "client storage space used up",
	}

	// ErrQuotaBelowUsage is returned when a quota would drop below the space a
	// client already uses.
	ErrQuotaBelowUsage = &Error{
		Code: EUnprocessableEntity,
		Msg:  "quota is below the space already used by the client",
	}

	// ErrInvalidBody is returned when a request body could not be decoded.
	ErrInvalidBody = &Error{
		Code: EInvalid,
		Msg:  "invalid body params",
	}

	// ErrInvalidURL is returned for malformed paths and identifiers.
	ErrInvalidURL = &Error{
		Code: EInvalid,
		Msg:  "invalid url",
	}

	// ErrNoAuth is returned when a protected request carries no credential.
	ErrNoAuth = &Error{
		Code: EUnauthorized,
		Msg:  "no authorization was given",
	}

	// ErrClientNotFound is returned when no client matches an identifier.
	ErrClientNotFound = &Error{
		Code: ENotFound,
		Msg:  "client not found",
	}
)
