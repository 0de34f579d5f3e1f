package http

import (
	"github.com/knoxite/admin/pkg/httpc"
)

// NewHTTPClient creates a new httpc.Client type. This call sets all
// the options that are important to the http pkg on the httpc client.
// The default status fn and so forth will all be set for the caller.
// In addition, some options can be specified. Those will be added to the defaults.
//
// Authorization is left to the caller, usually through httpc.WithTransport
// wrapping a session transport.
func NewHTTPClient(addr string, insecureSkipVerify bool, opts ...httpc.ClientOptFn) (*httpc.Client, error) {
	defaultOpts := []httpc.ClientOptFn{
		httpc.WithAddr(addr),
		httpc.WithHeader("Accept", "application/json"),
		httpc.WithInsecureSkipVerify(insecureSkipVerify),
		httpc.WithStatusFn(CheckError),
	}
	opts = append(defaultOpts, opts...)
	return httpc.New(opts...)
}

// Service is an HTTP client to the protected part of a remote admin server.
// Logging in goes through a LoginService on an unauthorized client.
type Service struct {
	*ClientService
	*StorageService
}

// NewService returns a service that is an HTTP client to a remote.
func NewService(httpClient *httpc.Client) *Service {
	return &Service{
		ClientService:  &ClientService{Client: httpClient},
		StorageService: &StorageService{Client: httpClient},
	}
}
