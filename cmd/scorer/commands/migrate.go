package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/campaign-scorer/internal/history"
	"github.com/wonny/campaign-scorer/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "예측 이력 스키마 마이그레이션",
	Long:      `DATABASE_URL 의 PostgreSQL 에 scoring.predictions 스키마를 적용(up)하거나 제거(down)합니다.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{database.MigrateUp, database.MigrateDown},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled() {
		return database.ErrDisabled
	}

	direction := args[0]
	log.WithFields(map[string]interface{}{
		"direction": direction,
		"database":  maskPassword(cfg.Database.URL),
	}).Info("Running history migrations")

	version, err := database.Migrate(cfg.Database.URL, history.Migrations, history.MigrationsDir, direction)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ migrate %s complete (schema version %d)\n", direction, version)
	return nil
}
