package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "egr",
		Short:         "Egnyte Resellers CLI (egr): manage customer licenses and plan pools",
		Long:          "egr drives the Egnyte resellers portal from the terminal: list customers and plans, adjust power user seats and storage, and replenish plan seat pools.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAuthCmd(app),
		newCustomersCmd(app),
		newPlansCmd(app),
		newProtectCmd(app),
		newConfigCmd(app),
	)

	return rootCmd
}
