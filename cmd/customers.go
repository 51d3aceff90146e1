package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bnema/egnyte-reseller-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newCustomersCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Inspect and update customer licenses",
	}

	cmd.AddCommand(
		newCustomersListCmd(app),
		newCustomersGetCmd(app),
		newCustomersSetPowerUsersCmd(app),
		newCustomersSetStorageCmd(app),
	)

	return cmd
}

func newCustomersListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all customers across active plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.portalClient(cmd.Context())
			if err != nil {
				return err
			}

			var customers []domain.Customer
			fetch := func(ctx context.Context) error {
				var fetchErr error
				customers, fetchErr = client.ListCustomers(ctx)
				return fetchErr
			}

			if asJSON {
				if err := fetch(cmd.Context()); err != nil {
					return err
				}
				return writeJSON(cmd, customers)
			}

			if err := runFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching customers...", fetch); err != nil {
				return err
			}

			output, err := app.customersRenderer(customers)
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

func newCustomersGetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <customer>",
		Short: "Show one customer's licensing snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.portalClient(cmd.Context())
			if err != nil {
				return err
			}

			customer, err := client.GetCustomer(cmd.Context(), domain.NormalizeCustomerID(args[0]))
			if err != nil {
				return err
			}

			return writeJSON(cmd, customer)
		},
	}
}

func newCustomersSetPowerUsersCmd(app *app) *cobra.Command {
	var autoPool bool

	cmd := &cobra.Command{
		Use:   "set-power-users <customer> <total>",
		Short: "Set a customer's licensed power user total",
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

			outcome, err := service.SetCustomerPowerUsers(cmd.Context(), domain.CustomerID(args[0]), total, autoPool)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), outcome.Message)
			return nil
		},
	}

	cmd.Flags().BoolVar(&autoPool, "auto-pool", false, "Buy plan seat packs automatically when the pool is short")

	return cmd
}

func newCustomersSetStorageCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-storage <customer> <gb>",
		Short: "Set a customer's storage allocation in GB",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			totalGB, err := parseCount(args[1], "gb")
			if err != nil {
				return err
			}

			service, _, err := app.licenseService(cmd.Context())
			if err != nil {
				return err
			}

			outcome, err := service.SetCustomerStorage(cmd.Context(), domain.CustomerID(args[0]), totalGB)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), outcome.Message)
			return nil
		},
	}
}

func parseCount(raw, name string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, raw)
	}

	return n, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
