package logger

import (
	"github.com/google/uuid"
)

// newLogID returns a short identifier tying together the lines of one
// process run.
func newLogID() string {
	id := uuid.New()
	return id.String()[:8]
}
