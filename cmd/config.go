package cmd

import (
	"fmt"

	configadapter "github.com/bnema/egnyte-reseller-cli/internal/adapters/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(newConfigInitCmd(app))

	return cmd
}

func newConfigInitCmd(app *app) *cobra.Command {
	var username string
	var protectPlanID string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := app.settings
			if username != "" {
				settings.Username = username
			}
			if protectPlanID != "" {
				settings.ProtectPlanID = protectPlanID
			}

			path, err := configadapter.Init(settings)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Portal login username")
	cmd.Flags().StringVar(&protectPlanID, "protect-plan", "", "Reserved Protect plan id")

	return cmd
}
