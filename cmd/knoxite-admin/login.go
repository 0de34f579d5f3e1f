package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(global *globalFlags) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the admin server and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env, err := global.open(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			if username == "" {
				if username, err = prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Username", false); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Password", true); err != nil {
					return err
				}
			}

			if _, err := env.session.Login(ctx, username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s\n", global.host, username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password; read from standard input when empty")
	return cmd
}

func newLogoutCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env, err := global.open(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.session.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out of %s\n", global.host)
			return nil
		},
	}
}
