package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/knoxite/admin/auth"
	"github.com/knoxite/admin/http"
	"github.com/knoxite/admin/inmem"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	*httptest.Server
	svc      *inmem.Service
	boltPath string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hash, err := auth.HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	svc := inmem.NewService(inmem.WithCapacity(inmem.FixedCapacity(10000)))
	h := http.NewAPIHandler(&http.APIBackend{
		Logger:            zaptest.NewLogger(t),
		ClientService:     svc,
		ClientAuthService: svc,
		StorageService:    svc,
		Authenticator:     auth.NewAuthenticator("admin", hash),
		TokenService:      auth.NewTokenIssuer([]byte(strings.Repeat("k", 32)), auth.DefaultTokenTTL),
	})
	s := &testServer{
		Server:   httptest.NewServer(h),
		svc:      svc,
		boltPath: filepath.Join(t.TempDir(), "admin.bolt"),
	}
	t.Cleanup(s.Close)
	return s
}

// run executes the command line against the test server.
func (s *testServer) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd, err := newRootCmd(viper.New())
	require.NoError(t, err)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--host", s.URL, "--bolt-path", s.boltPath, "--log-level", "error"}, args...))
	err = cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_RequiresLogin(t *testing.T) {
	s := newTestServer(t)

	_, err := s.run(t, "", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestCLI_Workflow(t *testing.T) {
	s := newTestServer(t)

	out, err := s.run(t, "correct horse\n", "login", "-u", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in")

	// The stored session is reused by later invocations.
	out, err = s.run(t, "", "client", "create", "-n", "laptop", "-q", "3 kB")
	require.NoError(t, err)
	assert.Contains(t, out, "ID 1, auth code ")
	assert.Contains(t, out, "Client laptop created")

	_, err = s.run(t, "", "client", "create", "-n", "desktop", "-q", "8 kB")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds the 7,000 bytes still available")

	out, err = s.run(t, "", "client", "update", "1", "--quota", "4 kB", "--limits")
	require.NoError(t, err)
	assert.Contains(t, out, "Quota may range from 0 bytes to 10 kB")
	assert.Contains(t, out, "laptop now has a quota of 4000 bytes")

	out, err = s.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Capacity     10 kB")
	assert.Contains(t, out, "[########............] 4,000 bytes of 10 kB, 40% (info)")
	assert.Contains(t, out, "laptop")

	_, err = s.run(t, "n\n", "client", "delete", "1")
	require.NoError(t, err)
	clients, err := s.svc.FindClients(context.Background())
	require.NoError(t, err)
	assert.Len(t, clients, 1)

	out, err = s.run(t, "", "client", "delete", "1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Client laptop deleted")

	out, err = s.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = s.run(t, "", "client", "list")
	require.Error(t, err)
}

func TestCLI_LoginRejected(t *testing.T) {
	s := newTestServer(t)

	_, err := s.run(t, "", "login", "-u", "admin", "-p", "wrong password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid username or password")
}
