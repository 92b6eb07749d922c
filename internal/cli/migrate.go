package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SscSPs/schoolbooks/internal/platform/config"
	"github.com/SscSPs/schoolbooks/pkg/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the ledger schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(database.MigrateUp), string(database.MigrateDown)},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := database.MigrateUp
			if len(args) == 1 {
				direction = database.MigrationDirection(args[0])
			}
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StoreDriver != config.StoreDriverPostgres {
				return fmt.Errorf("migrations only apply to the %s store", config.StoreDriverPostgres)
			}
			_, err = database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, direction, logger)
			return err
		},
	}
}
