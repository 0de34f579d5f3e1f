package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"time"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/auth"
	"github.com/knoxite/admin/bolt"
	"github.com/knoxite/admin/http"
	"github.com/knoxite/admin/inmem"
	"github.com/knoxite/admin/kit/cli"
	"github.com/knoxite/admin/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	configPath  string
	bindAddress string
	statePath   string
}

func newServeCmd(v *viper.Viper) (*cobra.Command, error) {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), &flags)
		},
	}

	opts := []cli.Opt{
		{
			DestP:   &flags.configPath,
			Flag:    "config",
			Short:   'c',
			Default: defaultConfigPath(),
			Desc:    "path to the server configuration written by setup",
		},
		{
			DestP: &flags.bindAddress,
			Flag:  "http-bind-address",
			Desc:  "override the bind address from the configuration",
		},
		{
			DestP: &flags.statePath,
			Flag:  "state-path",
			Desc:  "bolt file holding the clients; defaults to admin.bolt next to the configuration",
		},
	}
	if err := cli.BindOptions(v, cmd, opts); err != nil {
		return nil, err
	}
	return cmd, nil
}

func runServe(ctx context.Context, flags *serveFlags) error {
	cfg := newServerConfig()
	if err := cfg.Load(flags.configPath); err != nil {
		return err
	}
	if flags.bindAddress != "" {
		cfg.BindAddress = flags.bindAddress
	}
	statePath := flags.statePath
	if statePath == "" {
		statePath = siblingPath(flags.configPath, "admin.bolt")
	}

	log, err := logger.New(os.Stderr, cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	store := bolt.NewClient(log.With(zap.String("service", "bolt")))
	store.Path = statePath
	if err := store.Open(ctx); err != nil {
		return err
	}
	defer store.Close()

	dirs := &inmem.StorageDirs{Root: cfg.StoragesPath}
	capacity := inmem.CapacityFunc(dirs.Capacity)
	if cfg.Capacity > 0 {
		capacity = inmem.FixedCapacity(admin.ByteCount(cfg.Capacity))
	}
	svc := inmem.NewService(
		inmem.WithLogger(log.With(zap.String("service", "clients"))),
		inmem.WithCapacity(capacity),
		inmem.WithStorageDirs(dirs),
		inmem.WithPersister(store.ClientStore()),
	)
	if err := svc.Load(ctx); err != nil {
		return err
	}

	srv := &nethttp.Server{
		Addr:              cfg.BindAddress,
		Handler:           newServerHandler(log, cfg, svc, store),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(log),
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("Listening", zap.String("transport", "http"), zap.String("addr", cfg.BindAddress), zap.String("storages", cfg.StoragesPath))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newServerHandler serves the API at the root and the prometheus registry
// at /metrics.
func newServerHandler(log *zap.Logger, cfg *ServerConfig, svc *inmem.Service, store *bolt.Client) nethttp.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		store,
	)

	api := http.NewAPIHandler(&http.APIBackend{
		Logger:            log.With(zap.String("service", "http")),
		ClientService:     svc,
		ClientAuthService: svc,
		StorageService:    svc,
		Authenticator:     auth.NewAuthenticator(cfg.AdminUserName, cfg.AdminPassword),
		TokenService:      auth.NewTokenIssuer([]byte(cfg.TokenSecret), cfg.TokenTTL.Duration),
		LoginLimiter:      rate.NewLimiter(rate.Limit(cfg.LoginRate), cfg.LoginBurst),
		Registerer:        reg,
	})

	mux := nethttp.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", api)
	return mux
}
