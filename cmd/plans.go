package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/egnyte-reseller-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newPlansCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Inspect and resize reseller plan pools",
	}

	cmd.AddCommand(newPlansListCmd(app), newPlansSetPowerUsersCmd(app))

	return cmd
}

func newPlansListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plan seat and storage pools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.portalClient(cmd.Context())
			if err != nil {
				return err
			}

			var plans []domain.Plan
			fetch := func(ctx context.Context) error {
				var fetchErr error
				plans, fetchErr = client.ListPlans(ctx)
				return fetchErr
			}

			if asJSON {
				if err := fetch(cmd.Context()); err != nil {
					return err
				}
				return writeJSON(cmd, plans)
			}

			if err := runFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching plans...", fetch); err != nil {
				return err
			}

			output, err := app.plansRenderer(plans)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newPlansSetPowerUsersCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-power-users <plan> <total>",
		Short: "Set a plan's purchased power user total",
		Long:  "Set a plan's purchased power user total. This changes what the reseller is invoiced for.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := parseCount(args[1], "total")
			if err != nil {
				return err
			}

			service, _, err := app.licenseService(cmd.Context())
			if err != nil {
				return err
			}

			outcome, err := service.SetPlanPowerUsers(cmd.Context(), domain.PlanID(args[0]), total)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), outcome.Message)
			return nil
		},
	}
}
