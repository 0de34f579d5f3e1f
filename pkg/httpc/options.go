package httpc

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// ClientOptFn are options to set different parameters on the Client.
type ClientOptFn func(*clientOpt) error

type clientOpt struct {
	addr               string
	insecureSkipVerify bool
	doer               doer
	headers            http.Header
	authFn             func(*http.Request)
	statusFn           func(*http.Response) error
	transportFn        func(http.RoundTripper) http.RoundTripper
}

// WithAddr sets the host address on the client.
func WithAddr(addr string) ClientOptFn {
	return func(opt *clientOpt) error {
		opt.addr = addr
		return nil
	}
}

// WithAuth provides a means to set a custom auth that doesn't match
// the provided auth types here.
func WithAuth(fn func(r *http.Request)) ClientOptFn {
	return func(opt *clientOpt) error {
		opt.authFn = fn
		return nil
	}
}

// WithAuthToken provides bearer token auth for requests.
func WithAuthToken(token string) ClientOptFn {
	return func(opts *clientOpt) error {
		fn := func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		return WithAuth(fn)(opts)
	}
}

func withDoer(d doer) ClientOptFn {
	return func(opt *clientOpt) error {
		opt.doer = d
		return nil
	}
}

// WithHeader sets a default header that will be applied to all requests created
// by the client.
func WithHeader(header, val string) ClientOptFn {
	return func(opt *clientOpt) error {
		if opt.headers == nil {
			opt.headers = make(http.Header)
		}
		opt.headers.Add(header, val)
		return nil
	}
}

// WithTransport wraps the default http client's transport with fn, e.g. to
// authorize every request.
func WithTransport(fn func(http.RoundTripper) http.RoundTripper) ClientOptFn {
	return func(opt *clientOpt) error {
		opt.transportFn = fn
		return nil
	}
}

// WithInsecureSkipVerify sets the insecure skip verify on the http client's http transport.
func WithInsecureSkipVerify(b bool) ClientOptFn {
	return func(opts *clientOpt) error {
		opts.insecureSkipVerify = b
		return nil
	}
}

// WithStatusFn sets the default status fn for the client that will be applied to all requests
// generated from it.
func WithStatusFn(fn func(*http.Response) error) ClientOptFn {
	return func(opt *clientOpt) error {
		opt.statusFn = fn
		return nil
	}
}

func defaultHTTPClient(scheme string, insecure bool, wrap func(http.RoundTripper) http.RoundTripper) *http.Client {
	tr := http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if scheme == "https" && insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	var rt http.RoundTripper = &tr
	if wrap != nil {
		rt = wrap(rt)
	}
	return &http.Client{
		Transport: rt,
	}
}
