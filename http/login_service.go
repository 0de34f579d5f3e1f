package http

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/knoxite/admin"
	"github.com/knoxite/admin/kit/platform/errors"
	kithttp "github.com/knoxite/admin/kit/transport/http"
	"github.com/knoxite/admin/pkg/httpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	prefixLogin = "/login"
)

// Default login throttle: one attempt per second with a burst of five.
const (
	DefaultLoginRate  = rate.Limit(1)
	DefaultLoginBurst = 5
)

// ErrInvalidCredentials is returned for a rejected username or password.
var ErrInvalidCredentials = &errors.Error{
	Code: errors.EUnauthorized,
	Msg:  "invalid username or password",
}

// LoginHandler exchanges operator basic credentials for a bearer token.
type LoginHandler struct {
	chi.Router
	api *kithttp.API
	log *zap.Logger

	authenticator admin.Authenticator
	tokenSvc      admin.TokenService
	limiter       *rate.Limiter
}

// Prefix returns the mount point of the handler.
func (h *LoginHandler) Prefix() string { return prefixLogin }

// NewLoginHandler returns a new instance of LoginHandler. A nil limiter
// disables throttling.
func NewLoginHandler(log *zap.Logger, authenticator admin.Authenticator, tokenSvc admin.TokenService, limiter *rate.Limiter) *LoginHandler {
	h := &LoginHandler{
		api:           kithttp.NewAPI(kithttp.WithLog(log)),
		log:           log,
		authenticator: authenticator,
		tokenSvc:      tokenSvc,
		limiter:       limiter,
	}

	r := chi.NewRouter()
	r.Post("/", h.handleLogin)
	h.Router = r
	return h
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *LoginHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if wait, ok := h.allow(); !ok {
		w.Header().Set("Retry-After", strconv.Itoa(wait))
		h.api.Err(w, r, &errors.Error{
			Code: errors.ETooManyRequests,
			Msg:  "too many login attempts",
		})
		return
	}

	username, password, ok := r.BasicAuth()
	if !ok {
		h.api.Err(w, r, admin.ErrNoAuth)
		return
	}

	if err := h.authenticator.Authenticate(ctx, username, password); err != nil {
		h.log.Info("Login rejected", zap.String("username", username), zap.Error(err))
		h.api.Err(w, r, ErrInvalidCredentials)
		return
	}

	cred, err := h.tokenSvc.Issue(ctx, username)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}
	h.log.Info("Operator logged in", zap.String("username", username))
	h.api.Respond(w, r, http.StatusOK, loginResponse{Token: cred.Token()})
}

// allow reports whether an attempt may proceed and, if not, how many whole
// seconds the caller should wait.
func (h *LoginHandler) allow() (int, bool) {
	if h.limiter == nil {
		return 0, true
	}
	res := h.limiter.Reserve()
	if !res.OK() {
		return 1, false
	}
	delay := res.Delay()
	if delay == 0 {
		return 0, true
	}
	res.Cancel()
	return int(math.Ceil(delay.Seconds())), false
}

// LoginService logs in against a remote admin server. Its client must not
// carry a session transport.
type LoginService struct {
	Client *httpc.Client
}

var _ admin.LoginService = (*LoginService)(nil)

// Login sends the credentials as basic auth and returns the issued token.
func (s *LoginService) Login(ctx context.Context, username, password string) (admin.Credential, error) {
	var resp loginResponse
	err := s.Client.
		Post(httpc.BodyEmpty, prefixLogin).
		Auth(func(r *http.Request) {
			r.SetBasicAuth(username, password)
		}).
		DecodeJSON(&resp).
		Do(ctx)
	if err != nil {
		return "", withOp(admin.OpLogin, err)
	}
	if resp.Token == "" {
		return "", &errors.Error{
			Code: errors.EInternal,
			Op:   "http." + admin.OpLogin,
			Msg:  "server returned an empty token",
		}
	}
	return admin.Credential(resp.Token), nil
}
