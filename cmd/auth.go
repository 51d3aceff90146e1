package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage portal credentials",
	}

	cmd.AddCommand(newAuthSetCmd(app), newAuthStatusCmd(app), newAuthRemoveCmd(app))

	return cmd
}

func newAuthSetCmd(app *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the portal password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.credentials.Put(cmd.Context(), passwordCredentialKey, password); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Portal password stored.")
			return err
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Portal password")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newAuthStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show credential status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			username := app.settings.Username
			if username == "" {
				username = "(not configured)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "username: %s\n", username)

			if _, err := app.credentials.Get(cmd.Context(), passwordCredentialKey); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "password: not stored")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password: stored")

			return nil
		},
	}
}

func newAuthRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Remove the stored portal password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.credentials.Delete(cmd.Context(), passwordCredentialKey)
		},
	}
}
