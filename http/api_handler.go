package http

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/knoxite/admin"
	"github.com/knoxite/admin/kit/platform/errors"
	kithttp "github.com/knoxite/admin/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MetricsNamespace prefixes every metric exported by the API.
const MetricsNamespace = "knoxite_admin"

// APIHandler is a collection of all the service handlers.
type APIHandler struct {
	chi.Router

	ClientHandler  *ClientHandler
	StorageHandler *StorageHandler
	LoginHandler   *LoginHandler
}

// APIBackend is all services and associated parameters required to construct
// an APIHandler.
type APIBackend struct {
	Logger *zap.Logger
	errors.HTTPErrorHandler

	ClientService     admin.ClientService
	ClientAuthService admin.ClientAuthService
	StorageService    admin.StorageService
	Authenticator     admin.Authenticator
	TokenService      admin.TokenService

	// LoginLimiter throttles POST /login. Nil disables throttling.
	LoginLimiter *rate.Limiter
	// Registerer receives the request metrics. Nil disables them.
	Registerer prometheus.Registerer
}

// ResourceHandler is an HTTP handler for a resource. The prefix
// describes the url path prefix that relates to the handler
// endpoints.
type ResourceHandler interface {
	Prefix() string
	http.Handler
}

// NewAPIHandler constructs all api handlers beneath it and returns an APIHandler
func NewAPIHandler(b *APIBackend) *APIHandler {
	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}
	errHandler := b.HTTPErrorHandler
	if errHandler == nil {
		errHandler = kithttp.ErrorHandler(0)
	}

	authn := NewAuthenticationHandler(log.With(zap.String("handler", "authentication")), errHandler, b.TokenService, b.ClientAuthService)

	h := &APIHandler{
		ClientHandler:  NewClientHandler(log.With(zap.String("handler", "client")), b.ClientService, authn),
		StorageHandler: NewStorageHandler(log.With(zap.String("handler", "storage")), b.StorageService, authn),
		LoginHandler:   NewLoginHandler(log.With(zap.String("handler", "login")), b.Authenticator, b.TokenService, b.LoginLimiter),
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		middleware.RequestID,
		middleware.RealIP,
		kithttp.SetCORS,
		kithttp.SkipOptions,
		kithttp.Logging(log),
	)
	if b.Registerer != nil {
		reqs, dur := kithttp.NewRequestMetrics(b.Registerer, MetricsNamespace)
		r.Use(kithttp.Metrics("api", reqs, dur))
	}

	api := kithttp.NewAPI(kithttp.WithLog(log), kithttp.WithErrHandler(errHandler))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Err(w, r, &errors.Error{
			Code: errors.ENotFound,
			Msg:  "path not found",
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Err(w, r, &errors.Error{
			Code: errors.EMethodNotAllowed,
			Msg:  "method not allowed",
		})
	})

	r.Get("/health", HealthHandler)
	for _, rh := range []ResourceHandler{h.ClientHandler, h.LoginHandler} {
		r.Mount(rh.Prefix(), rh)
	}
	// The storage routes live at the root next to /health and /login.
	for _, p := range []string{pathStorageSize, pathStorageSizePlusQuota, pathStorageSizeMinusQuota, pathUsedSpace, pathTotalQuota} {
		r.Handle(p, h.StorageHandler)
	}

	h.Router = r
	return h
}
