package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/kit/platform/errors"
	"go.uber.org/zap"
)

type contextKey int

const (
	claimsContextKey contextKey = iota
	clientContextKey
)

// ClaimsFromContext returns the operator claims placed on ctx by RequireOperator.
func ClaimsFromContext(ctx context.Context) (*admin.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*admin.Claims)
	return c, ok
}

// ClientFromContext returns the client placed on ctx by RequireClient.
func ClientFromContext(ctx context.Context) (*admin.Client, bool) {
	c, ok := ctx.Value(clientContextKey).(*admin.Client)
	return c, ok
}

// AuthenticationHandler guards routes behind bearer credentials.
type AuthenticationHandler struct {
	errors.HTTPErrorHandler
	log *zap.Logger

	tokenSvc      admin.TokenService
	clientAuthSvc admin.ClientAuthService
}

// NewAuthenticationHandler creates an authentication handler.
func NewAuthenticationHandler(log *zap.Logger, h errors.HTTPErrorHandler, tokenSvc admin.TokenService, clientAuthSvc admin.ClientAuthService) *AuthenticationHandler {
	return &AuthenticationHandler{
		HTTPErrorHandler: h,
		log:              log,
		tokenSvc:         tokenSvc,
		clientAuthSvc:    clientAuthSvc,
	}
}

// RequireOperator admits requests carrying a valid operator token.
func (h *AuthenticationHandler) RequireOperator(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token, err := GetToken(r)
		if err != nil {
			h.HandleHTTPError(ctx, err, w)
			return
		}

		claims, err := h.tokenSvc.Verify(ctx, admin.Credential(token))
		if err != nil {
			h.log.Info("Rejected operator token", zap.Error(err))
			UnauthorizedError(ctx, h, w)
			return
		}

		ctx = context.WithValue(ctx, claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

// RequireClient admits requests carrying a known client auth code.
func (h *AuthenticationHandler) RequireClient(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		code, err := GetToken(r)
		if err != nil {
			h.HandleHTTPError(ctx, err, w)
			return
		}

		c, err := h.clientAuthSvc.FindClientByAuthCode(ctx, code)
		if err != nil {
			h.HandleHTTPError(ctx, &errors.Error{
				Code: errors.EForbidden,
				Msg:  "client not authorized",
			}, w)
			return
		}

		ctx = context.WithValue(ctx, clientContextKey, c)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

const bearerScheme = "Bearer"

// GetToken extracts the bearer token from the Authorization header.
func GetToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", admin.ErrNoAuth
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) || strings.TrimSpace(token) == "" {
		return "", &errors.Error{
			Code: errors.EUnauthorized,
			Msg:  "authorization header is not a bearer token",
		}
	}
	return strings.TrimSpace(token), nil
}
