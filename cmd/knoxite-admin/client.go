package main

import (
	"fmt"
	"strings"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/cmd/knoxite-admin/internal"
	"github.com/knoxite/admin/dashboard"
	"github.com/knoxite/admin/ledger"
	"github.com/knoxite/admin/units"
	"github.com/spf13/cobra"
)

func newClientCmd(global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Client management commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	cmd.AddCommand(
		newClientListCmd(global),
		newClientShowCmd(global),
		newClientCreateCmd(global),
		newClientUpdateCmd(global),
		newClientDeleteCmd(global),
	)
	return cmd
}

// withView runs fn against a mounted dashboard and prints its notices.
func withView(cmd *cobra.Command, global *globalFlags, fn func(v *dashboard.View) error) error {
	ctx := cmd.Context()
	env, err := global.open(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	v := env.view()
	defer v.Unmount()
	if err := v.Mount(ctx); err != nil {
		return err
	}
	if err := fn(v); err != nil {
		return err
	}
	for _, n := range v.Notices() {
		if n.Err {
			fmt.Fprintln(cmd.ErrOrStderr(), "error: "+n.Message)
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), n.Message)
	}
	return nil
}

func newClientListCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List clients",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withView(cmd, global, func(v *dashboard.View) error {
				printClients(cmd.OutOrStdout(), v.Snapshot().Clients)
				return nil
			})
		},
	}
}

func newClientShowCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a client including its auth code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := admin.IDFromString(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			env, err := global.open(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.session.Guard(ctx); err != nil {
				return err
			}
			c, err := env.svc.FindClientByID(ctx, id)
			if err != nil {
				return env.session.Check(ctx, err)
			}

			w := internal.NewTabWriter(cmd.OutOrStdout())
			w.WriteHeaders("ID", "Name", "Quota", "Used", "Usage", "AuthCode")
			w.Write(map[string]interface{}{
				"ID":       c.ID,
				"Name":     c.Name,
				"Quota":    units.Format(uint64(c.Quota)),
				"Used":     units.Format(uint64(c.UsedSpace)),
				"Usage":    ledger.ClientUsage(c),
				"AuthCode": c.AuthCode,
			})
			return w.Flush()
		},
	}
}

func newClientCreateCmd(global *globalFlags) *cobra.Command {
	var name, quota string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := dashboard.ParseQuota(quota)
			if err != nil {
				return err
			}
			return withView(cmd, global, func(v *dashboard.View) error {
				c, err := v.CreateClient(cmd.Context(), name, q)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ID %s, auth code %s\n", c.ID, c.AuthCode)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "client name, also its storage directory")
	cmd.Flags().StringVarP(&quota, "quota", "q", "", `quota such as "500 GB" or a byte count`)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("quota")
	return cmd
}

func newClientUpdateCmd(global *globalFlags) *cobra.Command {
	var name, quota string
	var limits bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a client or change its quota",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := admin.IDFromString(args[0])
			if err != nil {
				return err
			}

			var namep *string
			if cmd.Flags().Changed("name") {
				namep = &name
			}
			var quotap *dashboard.QuotaInput
			if cmd.Flags().Changed("quota") {
				q, err := dashboard.ParseQuota(quota)
				if err != nil {
					return err
				}
				quotap = &q
			}

			return withView(cmd, global, func(v *dashboard.View) error {
				if limits {
					min, max, err := v.EditLimits(cmd.Context(), id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Quota may range from %s to %s\n",
						units.Format(uint64(min)), units.Format(uint64(max)))
				}
				if namep == nil && quotap == nil {
					return nil
				}
				c, err := v.UpdateClient(cmd.Context(), id, namep, quotap)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s now has a quota of %s\n", c.Name, dashboard.QuotaInputFor(c.Quota))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "new client name")
	cmd.Flags().StringVarP(&quota, "quota", "q", "", `new quota such as "500 GB"`)
	cmd.Flags().BoolVar(&limits, "limits", false, "print the range the quota may be set to")
	return cmd
}

func newClientDeleteCmd(global *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client and its storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := admin.IDFromString(args[0])
			if err != nil {
				return err
			}
			if !yes {
				answer, err := prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete client "+id.String()+" and its storage? [y/N]", false)
				if err != nil {
					return err
				}
				if !strings.EqualFold(strings.TrimSpace(answer), "y") {
					return nil
				}
			}
			return withView(cmd, global, func(v *dashboard.View) error {
				return v.DeleteClient(cmd.Context(), id)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
