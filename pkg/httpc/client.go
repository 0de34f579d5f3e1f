// Package httpc is a small request builder over net/http used by every
// client-side service of the admin API.
package httpc

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/knoxite/admin/kit/platform/errors"
)

const (
	headerContentType     = "Content-Type"
	headerContentEncoding = "Content-Encoding"
)

type doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client builds requests against a single base address. Defaults for auth,
// headers and response checks are set once through ClientOptFn and can be
// overridden per Req.
type Client struct {
	addr url.URL
	doer doer

	defaultHeaders http.Header

	authFn   func(*http.Request)
	statusFn func(*http.Response) error
}

// New creates a new httpc client.
func New(opts ...ClientOptFn) (*Client, error) {
	opt := clientOpt{
		authFn: func(*http.Request) {},
	}
	for _, o := range opts {
		if err := o(&opt); err != nil {
			return nil, err
		}
	}

	if opt.addr == "" {
		return nil, fmt.Errorf("must provide a non empty host address")
	}

	u, err := url.Parse(opt.addr)
	if err != nil {
		return nil, fmt.Errorf("invalid host address %q: %w", opt.addr, err)
	}

	if opt.doer == nil {
		opt.doer = defaultHTTPClient(u.Scheme, opt.insecureSkipVerify, opt.transportFn)
	}

	return &Client{
		addr:           *u,
		doer:           opt.doer,
		defaultHeaders: opt.headers,
		authFn:         opt.authFn,
		statusFn:       opt.statusFn,
	}, nil
}

// Addr returns the base address requests are resolved against.
func (c *Client) Addr() string {
	return c.addr.String()
}

// Delete generates a DELETE request.
func (c *Client) Delete(urlPath string, rest ...string) *Req {
	return c.Req(http.MethodDelete, nil, urlPath, rest...)
}

// Get generates a GET request.
func (c *Client) Get(urlPath string, rest ...string) *Req {
	return c.Req(http.MethodGet, nil, urlPath, rest...)
}

// Post generates a POST request.
func (c *Client) Post(bFn BodyFn, urlPath string, rest ...string) *Req {
	return c.Req(http.MethodPost, bFn, urlPath, rest...)
}

// PostForm generates a POST request with a form encoded body.
func (c *Client) PostForm(vals url.Values, urlPath string, rest ...string) *Req {
	return c.Post(BodyForm(vals), urlPath, rest...)
}

// Put generates a PUT request.
func (c *Client) Put(bFn BodyFn, urlPath string, rest ...string) *Req {
	return c.Req(http.MethodPut, bFn, urlPath, rest...)
}

// PutForm generates a PUT request with a form encoded body.
func (c *Client) PutForm(vals url.Values, urlPath string, rest ...string) *Req {
	return c.Put(BodyForm(vals), urlPath, rest...)
}

// Req constructs a request.
func (c *Client) Req(method string, bFn BodyFn, urlPath string, rest ...string) *Req {
	bodyF := BodyEmpty
	if bFn != nil {
		bodyF = bFn
	}

	headers := make(http.Header, len(c.defaultHeaders))
	for header, vals := range c.defaultHeaders {
		for _, v := range vals {
			headers.Add(header, v)
		}
	}

	var buf bytes.Buffer
	header, headerVal, err := bodyF(nopWriteCloser{Writer: &buf})
	if err != nil {
		return &Req{err: err}
	}
	if header != "" {
		headers.Set(header, headerVal)
	}

	var body io.Reader = &buf
	if buf.Len() == 0 {
		body = nil
	}

	req, err := http.NewRequest(method, c.buildURL(urlPath, rest...), body)
	if err != nil {
		return &Req{err: err}
	}

	cr := &Req{
		client:   c.doer,
		req:      req,
		authFn:   c.authFn,
		statusFn: c.statusFn,
	}
	return cr.headers(headers)
}

func (c *Client) buildURL(urlPath string, rest ...string) string {
	u := c.addr
	if len(rest) > 0 {
		urlPath = path.Join(append([]string{urlPath}, rest...)...)
	}
	u.Path = path.Join(u.Path, urlPath)
	return u.String()
}

// Req is a request type.
type Req struct {
	client doer
	req    *http.Request

	authFn func(*http.Request)

	decodeFn func(*http.Response) error
	respFn   func(*http.Response) error
	statusFn func(*http.Response) error

	err error
}

// Auth sets the authorization for a request.
func (r *Req) Auth(authFn func(r *http.Request)) *Req {
	if r.err != nil {
		return r
	}
	r.authFn = authFn
	return r
}

// Decode sets the decoding functionality for the request. All Decode calls are called
// after the status and response functions are called. Decoding will not happen if error
// encountered in the status check.
func (r *Req) Decode(fn func(resp *http.Response) error) *Req {
	if r.err != nil {
		return r
	}
	r.decodeFn = fn
	return r
}

// DecodeJSON sets the decoding functionality to decode json for the request.
func (r *Req) DecodeJSON(v interface{}) *Req {
	return r.Decode(func(resp *http.Response) error {
		r := decodeReader(resp.Body, resp.Header)
		return json.NewDecoder(r).Decode(v)
	})
}

// Header adds the header to the http request.
func (r *Req) Header(k, v string) *Req {
	if r.err != nil {
		return r
	}
	r.req.Header.Add(k, v)
	return r
}

func (r *Req) headers(m http.Header) *Req {
	if r.err != nil {
		return r
	}
	for header, vals := range m {
		if header == "" {
			continue
		}
		for _, v := range vals {
			r = r.Header(header, v)
		}
	}
	return r
}

// QueryParams adds the query params to the http request.
func (r *Req) QueryParams(pairs ...[2]string) *Req {
	if r.err != nil || len(pairs) == 0 {
		return r
	}
	params := r.req.URL.Query()
	for _, p := range pairs {
		params.Add(p[0], p[1])
	}
	r.req.URL.RawQuery = params.Encode()
	return r
}

// RespFn provides a means to inspect the entire http response. This function runs first
// before the status and decode functions are called.
func (r *Req) RespFn(fn func(*http.Response) error) *Req {
	r.respFn = fn
	return r
}

// StatusFn sets a status check function. This runs after the resp func
// but before the decode fn.
func (r *Req) StatusFn(fn func(*http.Response) error) *Req {
	r.statusFn = fn
	return r
}

// Do makes the HTTP request. Any errors that had been encountered in
// the lifetime of the Req type will be returned here first, in place of
// the call. This makes it safe to call Do at anytime.
//
// A request that produced no response fails with an EUnavailable error.
// Platform errors raised by the transport itself, such as a missing
// credential, are returned unchanged.
func (r *Req) Do(ctx context.Context) error {
	if r.err != nil {
		return r.err
	}

	r.authFn(r.req)

	resp, err := r.client.Do(r.req.WithContext(ctx))
	if err != nil {
		var perr *errors.Error
		if stderrors.As(err, &perr) {
			return perr
		}
		return errors.NetworkFailure(r.req.Method+" "+r.req.URL.Path, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body) // drain body completely
		resp.Body.Close()
	}()

	responseFns := []func(*http.Response) error{
		r.respFn,
		r.statusFn,
		r.decodeFn,
	}
	for _, fn := range responseFns {
		if fn != nil {
			if err := fn(resp); err != nil {
				return err
			}
		}
	}
	return nil
}

// StatusIn validates the status code matches one of the provided statuses.
func StatusIn(code int, rest ...int) func(*http.Response) error {
	return func(resp *http.Response) error {
		for _, code := range append(rest, code) {
			if code == resp.StatusCode {
				return nil
			}
		}
		return fmt.Errorf("received unexpected status: %s %d", resp.Status, resp.StatusCode)
	}
}

var encodingReaders = map[string]func(io.Reader) io.Reader{
	"gzip": func(r io.Reader) io.Reader {
		if gr, err := gzip.NewReader(r); err == nil {
			return gr
		}
		return r
	},
}

func decodeReader(r io.Reader, h http.Header) io.Reader {
	if readerFn, ok := encodingReaders[h.Get(headerContentEncoding)]; ok {
		return readerFn(r)
	}
	return r
}

type nopWriteCloser struct {
	io.Writer
}

func (n nopWriteCloser) Close() error { return nil }
