package http_test

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/http"
	"github.com/knoxite/admin/inmem"
	"github.com/knoxite/admin/kit/platform/errors"
	"github.com/knoxite/admin/mock"
	"github.com/knoxite/admin/pkg/httpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"
)

type testServer struct {
	*httptest.Server
	store *inmem.Service
	reg   *prometheus.Registry
}

func newTestServer(t *testing.T, limiter *rate.Limiter) *testServer {
	t.Helper()
	store := inmem.NewService(inmem.WithCapacity(inmem.FixedCapacity(10000)))
	reg := prometheus.NewRegistry()
	h := http.NewAPIHandler(&http.APIBackend{
		Logger:            zaptest.NewLogger(t),
		ClientService:     store,
		ClientAuthService: store,
		StorageService:    store,
		Authenticator: &mock.Authenticator{
			AuthenticateFn: func(_ context.Context, u, p string) error {
				if u == "admin" && p == "secret" {
					return nil
				}
				return &admin.Error{Code: admin.EForbidden, Msg: "your username or password is incorrect"}
			},
		},
		TokenService: mock.NewTokenService(),
		LoginLimiter: limiter,
		Registerer:   reg,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store, reg: reg}
}

func (s *testServer) service(t *testing.T, token string) *http.Service {
	t.Helper()
	opts := []httpc.ClientOptFn{}
	if token != "" {
		opts = append(opts, httpc.WithAuthToken(token))
	}
	c, err := http.NewHTTPClient(s.URL, false, opts...)
	require.NoError(t, err)
	return http.NewService(c)
}

func TestAPIHandler_ClientLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, nil)
	svc := srv.service(t, "token-admin")

	alice := &admin.Client{Name: "alice", Quota: 4000}
	require.NoError(t, svc.CreateClient(ctx, alice))
	assert.Equal(t, admin.ID(1), alice.ID)
	assert.Len(t, alice.AuthCode, 64)

	bob := &admin.Client{Name: "bob", Quota: 3000}
	require.NoError(t, svc.CreateClient(ctx, bob))

	clients, err := svc.FindClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "alice", clients[0].Name)

	got, err := svc.FindClientByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob, got)

	quota := admin.ByteCount(6000)
	updated, err := svc.UpdateClient(ctx, alice.ID, admin.ClientUpdate{Quota: &quota})
	require.NoError(t, err)
	assert.Equal(t, quota, updated.Quota)
	assert.Equal(t, "alice", updated.Name)

	require.NoError(t, svc.DeleteClient(ctx, bob.ID))

	_, err = svc.FindClientByID(ctx, bob.ID)
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))
	assert.Equal(t, nethttp.StatusNotFound, errors.ErrorStatus(err))
}

func TestAPIHandler_QuotaRules(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, nil)
	svc := srv.service(t, "token-admin")

	alice := &admin.Client{Name: "alice", Quota: 8000}
	require.NoError(t, svc.CreateClient(ctx, alice))

	err := svc.CreateClient(ctx, &admin.Client{Name: "bob", Quota: 2001})
	require.Error(t, err)
	assert.Equal(t, errors.EUnprocessableEntity, errors.ErrorCode(err))
	assert.Contains(t, errors.ErrorMessage(err), "client storage space used up")
	assert.False(t, errors.IsValidationFailure(err))

	require.NoError(t, srv.store.SetUsedSpace(ctx, alice.ID, 5000))
	low := admin.ByteCount(4999)
	_, err = svc.UpdateClient(ctx, alice.ID, admin.ClientUpdate{Quota: &low})
	assert.Equal(t, errors.EUnprocessableEntity, errors.ErrorCode(err))

	bad := "../escape"
	_, err = svc.UpdateClient(ctx, alice.ID, admin.ClientUpdate{Name: &bad})
	assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))
}

func TestAPIHandler_Storage(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, nil)
	svc := srv.service(t, "token-admin")

	alice := &admin.Client{Name: "alice", Quota: 4000}
	require.NoError(t, svc.CreateClient(ctx, alice))
	require.NoError(t, svc.CreateClient(ctx, &admin.Client{Name: "bob", Quota: 1000}))
	require.NoError(t, srv.store.SetUsedSpace(ctx, alice.ID, 1500))

	for _, tt := range []struct {
		name string
		fn   func(context.Context) (admin.ByteCount, error)
		want admin.ByteCount
	}{
		{name: "capacity", fn: svc.Capacity, want: 10000},
		{name: "capacity minus quota", fn: svc.CapacityMinusQuota, want: 5000},
		{name: "total quota", fn: svc.TotalQuota, want: 5000},
		{name: "used space", fn: svc.UsedSpace, want: 1500},
		{
			name: "capacity plus quota",
			fn: func(ctx context.Context) (admin.ByteCount, error) {
				return svc.CapacityPlusQuota(ctx, alice.ID)
			},
			want: 9000,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAPIHandler_RawResponses(t *testing.T) {
	srv := newTestServer(t, nil)

	req, err := nethttp.NewRequest(nethttp.MethodPost, srv.URL+"/clients", strings.NewReader("name=alice&quota=100"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer token-admin")
	resp, err := nethttp.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/clients/1", resp.Header.Get("Location"))

	req, err = nethttp.NewRequest(nethttp.MethodGet, srv.URL+"/total_quota", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token-admin")
	resp, err = nethttp.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "100", strings.TrimSpace(string(body)))

	resp, err = nethttp.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp, err = nethttp.Get(srv.URL + "/storage_size_plus_quota?id=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	n, err := testutil.GatherAndCount(srv.reg, "knoxite_admin_http_api_requests_total")
	require.NoError(t, err)
	assert.NotZero(t, n)
}

func TestAPIHandler_ClientListGzipped(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, nil)
	for i := 0; i < 40; i++ {
		require.NoError(t, srv.store.CreateClient(ctx, &admin.Client{Name: fmt.Sprintf("host-%02d", i), Quota: 100}))
	}

	req, err := nethttp.NewRequest(nethttp.MethodGet, srv.URL+"/clients", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token-admin")
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := nethttp.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	require.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))

	zr, err := gzip.NewReader(resp.Body)
	require.NoError(t, err)
	var clients []admin.Client
	require.NoError(t, json.NewDecoder(zr).Decode(&clients))
	assert.Len(t, clients, 40)

	// The regular client negotiates gzip on its own.
	got, err := srv.service(t, "token-admin").FindClients(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 40)
}

func TestAPIHandler_RequiresOperator(t *testing.T) {
	ctx := context.Background()

	for _, token := range []string{"", "forged"} {
		t.Run("token "+token, func(t *testing.T) {
			srv := newTestServer(t, nil)
			svc := srv.service(t, token)

			_, err := svc.FindClients(ctx)
			require.Error(t, err)
			assert.True(t, errors.IsAuthFailure(err))
			assert.Equal(t, nethttp.StatusUnauthorized, errors.ErrorStatus(err))

			_, err = svc.Capacity(ctx)
			assert.True(t, errors.IsAuthFailure(err))
		})
	}
}

func TestAPIHandler_ClientMe(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, nil)

	alice := &admin.Client{Name: "alice", Quota: 10}
	require.NoError(t, srv.service(t, "token-admin").CreateClient(ctx, alice))

	c, err := http.NewHTTPClient(srv.URL, false, httpc.WithAuthToken(alice.AuthCode))
	require.NoError(t, err)
	var me admin.Client
	require.NoError(t, c.Get("/clients/me").DecodeJSON(&me).Do(ctx))
	assert.Equal(t, alice.ID, me.ID)

	c, err = http.NewHTTPClient(srv.URL, false, httpc.WithAuthToken("token-admin"))
	require.NoError(t, err)
	err = c.Get("/clients/me").Do(ctx)
	assert.Equal(t, errors.EForbidden, errors.ErrorCode(err))
}

func TestAPIHandler_Login(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, nil)

	c, err := http.NewHTTPClient(srv.URL, false)
	require.NoError(t, err)
	login := &http.LoginService{Client: c}

	cred, err := login.Login(ctx, "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "token-admin", cred.Token())

	_, err = login.Login(ctx, "admin", "wrong")
	require.Error(t, err)
	assert.Equal(t, errors.EUnauthorized, errors.ErrorCode(err))
}

func TestAPIHandler_LoginThrottled(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, rate.NewLimiter(rate.Every(1<<40), 1))

	c, err := http.NewHTTPClient(srv.URL, false)
	require.NoError(t, err)
	login := &http.LoginService{Client: c}

	_, err = login.Login(ctx, "admin", "wrong")
	assert.Equal(t, errors.EUnauthorized, errors.ErrorCode(err))

	_, err = login.Login(ctx, "admin", "secret")
	require.Error(t, err)
	assert.Equal(t, errors.ETooManyRequests, errors.ErrorCode(err))
	assert.Greater(t, http.RetryAfter(err).Seconds(), 0.0)
}

func TestAPIHandler_NetworkFailure(t *testing.T) {
	srv := newTestServer(t, nil)
	addr := srv.URL
	srv.Close()

	c, err := http.NewHTTPClient(addr, false, httpc.WithAuthToken("token-admin"))
	require.NoError(t, err)
	_, err = http.NewService(c).FindClients(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsNetworkFailure(err))
}
