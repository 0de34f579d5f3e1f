package http_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/knoxite/admin/http"
	"github.com/knoxite/admin/kit/platform/errors"
	kithttp "github.com/knoxite/admin/kit/transport/http"
	"github.com/stretchr/testify/assert"
)

func TestCheckError(t *testing.T) {
	for _, tt := range []struct {
		name       string
		write      func(w *httptest.ResponseRecorder)
		want       error
		wantStatus int
	}{
		{
			name: "platform error",
			write: func(w *httptest.ResponseRecorder) {
				err := &errors.Error{
					Msg:  "client storage space used up",
					Code: errors.EUnprocessableEntity,
				}
				kithttp.ErrorHandler(0).HandleHTTPError(context.Background(), err, w)
			},
			want: &errors.Error{
				Msg:  "client storage space used up",
				Code: errors.EUnprocessableEntity,
			},
			wantStatus: 422,
		},
		{
			name: "text error",
			write: func(w *httptest.ResponseRecorder) {
				w.Header().Set("Content-Type", "text/plain")
				w.WriteHeader(500)
				_, _ = io.WriteString(w, "upstream timeout\n")
			},
			want: &errors.Error{
				Code: errors.EInternal,
				Err:  stderrors.New("upstream timeout"),
			},
			wantStatus: 500,
		},
		{
			name: "error with bad json",
			write: func(w *httptest.ResponseRecorder) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(500)
				_, _ = io.WriteString(w, "upstream timeout\n")
			},
			want: &errors.Error{
				Code: errors.EInternal,
				Msg:  `attempted to unmarshal error as JSON but failed: "invalid character 'u' looking for beginning of value"`,
				Err:  stderrors.New("upstream timeout"),
			},
			wantStatus: 500,
		},
		{
			name: "error with no content-type (encoded as json - with code)",
			write: func(w *httptest.ResponseRecorder) {
				w.WriteHeader(500)
				_, _ = io.WriteString(w, `{"error": "service unavailable", "code": "unavailable"}`)
			},
			want: &errors.Error{
				Code: errors.EUnavailable,
				Err:  stderrors.New("service unavailable"),
			},
			wantStatus: 500,
		},
		{
			name: "forbidden without body",
			write: func(w *httptest.ResponseRecorder) {
				w.WriteHeader(403)
			},
			want: &errors.Error{
				Code: errors.EForbidden,
				Msg:  "Forbidden",
			},
			wantStatus: 403,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			resp := w.Result()
			cmpopt := cmp.Transformer("error", func(e error) string {
				if e, ok := e.(*errors.Error); ok {
					out, _ := json.Marshal(e)
					return string(out)
				}
				return e.Error()
			})
			got := http.CheckError(resp)
			if want := tt.want; !cmp.Equal(want, got, cmpopt) {
				t.Fatalf("unexpected error -want/+got:\n%s", cmp.Diff(want, got, cmpopt))
			}
			assert.Equal(t, tt.wantStatus, errors.ErrorStatus(got))
			assert.False(t, errors.IsNetworkFailure(got))
		})
	}
}

func TestCheckError_Success(t *testing.T) {
	w := httptest.NewRecorder()
	w.WriteHeader(204)
	assert.NoError(t, http.CheckError(w.Result()))
}

func TestCheckError_RetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set("Retry-After", "3")
	kithttp.ErrorHandler(0).HandleHTTPError(context.Background(), &errors.Error{
		Code: errors.ETooManyRequests,
		Msg:  "too many login attempts",
	}, w)

	err := http.CheckError(w.Result())
	assert.Equal(t, errors.ETooManyRequests, errors.ErrorCode(err))
	assert.Equal(t, 3*time.Second, http.RetryAfter(err))
	assert.Equal(t, time.Duration(-1), http.RetryAfter(stderrors.New("plain")))
}
