package httpc

import (
	"io"
	"net/url"
)

// BodyFn provides a writer to which a value will be written to
// that will make it's way into the HTTP request.
type BodyFn func(w io.WriteCloser) (header string, headerVal string, err error)

// BodyEmpty returns a empty body.
func BodyEmpty(io.WriteCloser) (string, string, error) {
	return "", "", nil
}

// BodyForm URL encodes the values provided for the HTTP request. Sets the
// Content-Type to application/x-www-form-urlencoded.
func BodyForm(vals url.Values) BodyFn {
	return func(w io.WriteCloser) (string, string, error) {
		if _, err := io.WriteString(w, vals.Encode()); err != nil {
			return "", "", err
		}
		return headerContentType, "application/x-www-form-urlencoded", w.Close()
	}
}
