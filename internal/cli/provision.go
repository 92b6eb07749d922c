package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SscSPs/schoolbooks/internal/chart"
	"github.com/SscSPs/schoolbooks/internal/core/services"
	"github.com/SscSPs/schoolbooks/internal/platform/config"
	"github.com/SscSPs/schoolbooks/internal/repositories/database/pgsql"
	"github.com/SscSPs/schoolbooks/pkg/database"
)

func newProvisionCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Load the chart of accounts and currencies into the database",
		Long: `Validates a chart file and upserts its currencies and accounts.
Account IDs derive from account codes, so re-running with the same file
changes nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StoreDriver != config.StoreDriverPostgres {
				return fmt.Errorf("provision writes to the %s store; the memory store provisions itself at startup", config.StoreDriverPostgres)
			}
			if file == "" {
				file = cfg.ChartFile
			}
			accounts, currencies, err := chart.Load(file)
			if err != nil {
				return err
			}

			pool, err := database.NewPgxPool(cmd.Context(), cfg.DatabaseURL, cfg.EnableDBCheck)
			if err != nil {
				return fmt.Errorf("failed to initialize database pool: %w", err)
			}
			defer pool.Close()

			_, err = services.ProvisionChart(cmd.Context(), pgsql.NewStore(pool), accounts, currencies, actingAs, serviceOptions(logger)...)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "chart file (default CHART_FILE)")
	return cmd
}
