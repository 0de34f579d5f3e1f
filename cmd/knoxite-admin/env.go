package main

import (
	"context"
	"path/filepath"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/bolt"
	"github.com/knoxite/admin/dashboard"
	"github.com/knoxite/admin/http"
	"github.com/knoxite/admin/pkg/httpc"
	"github.com/knoxite/admin/session"
	"go.uber.org/zap"
)

// clientEnv is everything a command talking to a server needs.
type clientEnv struct {
	log     *zap.Logger
	bolt    *bolt.Client
	session *session.Manager
	svc     *http.Service
}

// open connects to the configured server and restores a stored session.
func (f *globalFlags) open(ctx context.Context) (*clientEnv, error) {
	log, err := f.logger()
	if err != nil {
		return nil, err
	}

	b := bolt.NewClient(log.With(zap.String("service", "bolt")))
	b.Path = f.boltPath
	if err := b.Open(ctx); err != nil {
		return nil, err
	}

	env := &clientEnv{log: log, bolt: b}
	if err := env.connect(ctx, f.host, f.skipVerify); err != nil {
		b.Close()
		return nil, err
	}
	return env, nil
}

func (e *clientEnv) connect(ctx context.Context, host string, skipVerify bool) error {
	plain, err := http.NewHTTPClient(host, skipVerify)
	if err != nil {
		return err
	}
	e.session = session.NewManager(
		&http.LoginService{Client: plain},
		session.WithLogger(e.log.With(zap.String("service", "session"))),
		session.WithStore(e.bolt.CredentialStore(host)),
	)
	if _, _, err := e.session.Restore(ctx); err != nil {
		return err
	}

	authed, err := http.NewHTTPClient(host, skipVerify, httpc.WithTransport(e.session.Transport))
	if err != nil {
		return err
	}
	e.svc = http.NewService(authed)
	return nil
}

func (e *clientEnv) view() *dashboard.View {
	return dashboard.NewView(e.svc, e.svc, e.session, dashboard.WithLogger(e.log.With(zap.String("service", "dashboard"))))
}

func (e *clientEnv) Close() error {
	_ = e.log.Sync()
	return e.bolt.Close()
}

func absPath(p string) (string, error) {
	return filepath.Abs(p)
}

func parseQuota(s string) (admin.ByteCount, error) {
	q, err := dashboard.ParseQuota(s)
	if err != nil {
		return 0, err
	}
	return q.Bytes()
}
