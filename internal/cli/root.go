// Package cli provides the schoolbooks command line: the API server and the
// ledger maintenance commands that run against the same store.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	logLevel string
	actingAs string
)

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "schoolbooks",
		Short: "Double-entry ledger for school back-office accounting",
		Long: `schoolbooks keeps the school's general ledger: a fixed chart of
accounts, balanced journal postings, materialized balances, trial balances
and period closing.

Configuration is read from the environment and an optional .env file.

Example:
  schoolbooks migrate up
  schoolbooks provision --file config/chart.yaml
  schoolbooks serve
  schoolbooks close-period 01J9Z...`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&actingAs, "user", "system", "user ID recorded on ledger changes made by this command")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newProvisionCommand(),
		newCreatePeriodCommand(),
		newClosePeriodCommand(),
		newTrialBalanceCommand(),
		newRebuildBalancesCommand(),
		newVerifyBalancesCommand(),
	)
	return root
}

// Execute runs the root command. It is called by main.main().
func Execute() error {
	return NewRootCommand().Execute()
}
