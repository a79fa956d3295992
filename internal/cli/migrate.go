package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/votegrid/canvass/internal/config"
	"github.com/votegrid/canvass/internal/database"
)

var migrateDatabaseURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply pending schema migrations and exit.

The serve command migrates on startup too; this exists for deploy
pipelines that migrate before rolling the new binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithOverrides(migrateDatabaseURL, "")
		if err != nil {
			return err
		}

		if err := connectDatabase(cfg.DatabaseURL); err != nil {
			return err
		}
		defer func() { _ = closeDatabase() }()

		if err := database.Migrate(database.DB); err != nil {
			return err
		}

		fmt.Println("Migrations applied.")
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVarP(&migrateDatabaseURL, "database-url", "d", "", "PostgreSQL connection URL")
	RootCmd.AddCommand(migrateCmd)
}
