package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProtectCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protect",
		Short: "Inspect Protect add-on usage",
	}

	cmd.AddCommand(newProtectUsageCmd(app))

	return cmd
}

func newProtectUsageCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "usage <tenant>",
		Short: "Show a tenant's Protect storage usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.portalClient(cmd.Context())
			if err != nil {
				return err
			}

			stats, err := client.ProtectPlanUsage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if stats == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "no Protect usage recorded for tenant %s\n", args[0])
				return nil
			}

			return writeJSON(cmd, stats)
		},
	}
}
