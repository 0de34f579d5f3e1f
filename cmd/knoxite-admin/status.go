package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/cmd/knoxite-admin/internal"
	"github.com/knoxite/admin/dashboard"
	"github.com/knoxite/admin/ledger"
	"github.com/knoxite/admin/units"
	"github.com/spf13/cobra"
)

const barWidth = 20

func newStatusCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show storage capacity, quotas and usage of every client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			printStatus(cmd.OutOrStdout(), v.Snapshot())
			return nil
		},
	}
}

func printStatus(out io.Writer, s dashboard.State) {
	l := s.Ledger
	fmt.Fprintf(out, "Capacity     %s\n", units.Format(uint64(l.Capacity)))
	fmt.Fprintf(out, "Assigned     %s\n", usageLine(l.QuotaUsage()))
	fmt.Fprintf(out, "Used         %s\n", usageLine(l.SpaceUsage()))
	fmt.Fprintf(out, "Unassigned   %s\n\n", units.Format(uint64(l.Unallocated())))

	printClients(out, s.Clients)

	if len(s.Notices) > 0 {
		fmt.Fprintln(out)
	}
	for _, n := range s.Notices {
		prefix := ""
		if n.Err {
			prefix = "error: "
		}
		fmt.Fprintln(out, prefix+n.Message)
	}
}

func printClients(out io.Writer, clients []admin.Client) {
	w := internal.NewTabWriter(out)
	w.WriteHeaders("ID", "Name", "Quota", "Used", "Usage")
	for i := range clients {
		c := &clients[i]
		w.Write(map[string]interface{}{
			"ID":    c.ID,
			"Name":  c.Name,
			"Quota": units.Format(uint64(c.Quota)),
			"Used":  units.Format(uint64(c.UsedSpace)),
			"Usage": ledger.ClientUsage(c),
		})
	}
	_ = w.Flush()
}

// usageLine renders "[###.................] 1,500 bytes of 10 kB, 15% (low)".
func usageLine(u ledger.Usage) string {
	filled := 0
	if u.Defined {
		filled = u.Percent * barWidth / 100
	}
	bar := "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
	return fmt.Sprintf("%s %s of %s, %s", bar, units.Format(uint64(u.Part)), units.Format(uint64(u.Whole)), u)
}
