package main

import (
	"fmt"
	"os"

	"github.com/knoxite/admin/auth"
	"github.com/knoxite/admin/cmd/knoxite-admin/internal"
	"github.com/knoxite/admin/rand"
	"github.com/knoxite/admin/units"
	"github.com/spf13/cobra"
)

type setupFlags struct {
	configPath   string
	username     string
	password     string
	bindAddress  string
	storagesPath string
	capacity     string
	force        bool
}

func newSetupCmd() *cobra.Command {
	var flags setupFlags
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Write the server configuration",
		Long: `Write the server configuration read by serve.

The admin password is stored as a bcrypt hash and a random token secret is
generated. Without --password the password is read from standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd, &flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", defaultConfigPath(), "path of the configuration file to write")
	cmd.Flags().StringVarP(&flags.username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&flags.password, "password", "p", "", "admin password")
	cmd.Flags().StringVarP(&flags.bindAddress, "http-bind-address", "P", defaultBindAddress, "bind address for the REST API")
	cmd.Flags().StringVarP(&flags.storagesPath, "storages-path", "s", "", "directory holding the client storages")
	cmd.Flags().StringVar(&flags.capacity, "capacity", "", `fixed capacity such as "500 GB"; probes the filesystem when empty`)
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "overwrite an existing configuration")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("storages-path")
	return cmd
}

func runSetup(cmd *cobra.Command, flags *setupFlags) error {
	if _, err := os.Stat(flags.configPath); err == nil && !flags.force {
		return fmt.Errorf("configuration %s already exists; use --force to overwrite it", flags.configPath)
	}

	password := flags.password
	if password == "" {
		var err error
		if password, err = prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Admin password", true); err != nil {
			return err
		}
	}
	hash, err := auth.HashPassword(password, 0)
	if err != nil {
		return err
	}

	secret, err := rand.NewTokenGenerator(rand.DefaultTokenSize).Token()
	if err != nil {
		return err
	}

	cfg := newServerConfig()
	cfg.AdminUserName = flags.username
	cfg.AdminPassword = hash
	cfg.BindAddress = flags.bindAddress
	cfg.TokenSecret = secret
	if cfg.StoragesPath, err = absPath(flags.storagesPath); err != nil {
		return err
	}
	if flags.capacity != "" {
		q, err := parseQuota(flags.capacity)
		if err != nil {
			return err
		}
		cfg.Capacity = uint64(q)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.StoragesPath, 0755); err != nil {
		return err
	}
	if err := cfg.Save(flags.configPath); err != nil {
		return err
	}

	capacity := "filesystem"
	if cfg.Capacity > 0 {
		capacity = units.Format(cfg.Capacity)
	}
	w := internal.NewTabWriter(cmd.OutOrStdout())
	w.WriteHeaders("Config", "User", "Address", "Storages", "Capacity")
	w.Write(map[string]interface{}{
		"Config":   flags.configPath,
		"User":     cfg.AdminUserName,
		"Address":  cfg.BindAddress,
		"Storages": cfg.StoragesPath,
		"Capacity": capacity,
	})
	return w.Flush()
}
