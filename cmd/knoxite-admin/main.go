package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/knoxite/admin/kit/cli"
	"github.com/knoxite/admin/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd, err := newRootCmd(viper.New())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	host       string
	skipVerify bool
	boltPath   string
	logLevel   zapcore.Level
	logFormat  string
}

func newRootCmd(v *viper.Viper) (*cobra.Command, error) {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Administer the clients of a knoxite backup server",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	cli.SetEnvPrefix(v, "knoxite-admin")
	opts := []cli.Opt{
		{
			DestP:      &flags.host,
			Flag:       "host",
			Default:    "http://localhost" + defaultBindAddress,
			Desc:       "address of the admin server",
			Persistent: true,
		},
		{
			DestP:      &flags.skipVerify,
			Flag:       "skip-verify",
			Desc:       "skip TLS certificate verification",
			Persistent: true,
		},
		{
			DestP:      &flags.boltPath,
			Flag:       "bolt-path",
			Default:    defaultBoltPath(),
			Desc:       "path to the file holding stored credentials",
			Persistent: true,
		},
		{
			DestP:      &flags.logLevel,
			Flag:       "log-level",
			Default:    zapcore.WarnLevel,
			Desc:       "supported log levels are debug, info, warn and error",
			Persistent: true,
		},
		{
			DestP:      &flags.logFormat,
			Flag:       "log-format",
			Default:    logger.FormatAuto,
			Desc:       "log format: auto, console, json or logfmt",
			Persistent: true,
		},
	}
	if err := cli.BindOptions(v, cmd, opts); err != nil {
		return nil, err
	}

	serveCmd, err := newServeCmd(v)
	if err != nil {
		return nil, err
	}
	cmd.AddCommand(
		serveCmd,
		newSetupCmd(),
		newLoginCmd(&flags),
		newLogoutCmd(&flags),
		newStatusCmd(&flags),
		newClientCmd(&flags),
	)
	return cmd, nil
}

func (f *globalFlags) logger() (*zap.Logger, error) {
	return logger.New(os.Stderr, logger.Config{Format: f.logFormat, Level: f.logLevel})
}
