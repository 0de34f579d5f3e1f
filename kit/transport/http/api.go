package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/knoxite/admin/kit/platform/errors"
	"github.com/knoxite/admin/logger"
	"go.uber.org/zap"
)

type oker interface {
	OK() error
}

// APIOptFn is a functional option for setting fields on the API type.
type APIOptFn func(*API)

// WithLog sets the logger.
func WithLog(logger *zap.Logger) APIOptFn {
	return func(api *API) {
		api.logger = logger
	}
}

// WithErrHandler sets the handler used to encode errors.
func WithErrHandler(h errors.HTTPErrorHandler) APIOptFn {
	return func(api *API) {
		api.errHandler = h
	}
}

// API decodes request bodies and writes JSON responses and errors.
type API struct {
	logger     *zap.Logger
	errHandler errors.HTTPErrorHandler
}

// NewAPI creates a new API type.
func NewAPI(opts ...APIOptFn) *API {
	api := API{
		logger:     zap.NewNop(),
		errHandler: ErrorHandler(0),
	}
	for _, o := range opts {
		o(&api)
	}
	return &api
}

// DecodeJSON decodes reader with json.
func (a *API) DecodeJSON(r io.Reader, v interface{}) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return &errors.Error{
			Code: errors.EInvalid,
			Msg:  "failed to unmarshal json",
			Err:  err,
		}
	}

	if vv, ok := v.(oker); ok {
		if err := vv.OK(); err != nil {
			return &errors.Error{
				Code: errors.EUnprocessableEntity,
				Msg:  err.Error(),
			}
		}
	}

	return nil
}

// Respond writes to the response writer, handling all errors in writing.
func (a *API) Respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")

	w.WriteHeader(status)
	if err := enc.Encode(v); err != nil {
		a.logErr(r, "failed to encode response", zap.Error(err))
	}
}

// Err is used for writing an error to the response.
func (a *API) Err(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	a.logErr(r, "api error encountered", zap.Error(err))

	var handler errors.HTTPErrorHandler = ErrorHandler(0)
	if a != nil && a.errHandler != nil {
		handler = a.errHandler
	}
	handler.HandleHTTPError(r.Context(), err, w)
}

// logErr prefers the request scoped logger put on the context by Logging.
func (a *API) logErr(r *http.Request, msg string, fields ...zap.Field) {
	var log *zap.Logger
	if a != nil {
		log = a.logger
	}
	if log = logger.FromContextOr(r.Context(), log); log == nil {
		return
	}
	log.Error(msg, fields...)
}
