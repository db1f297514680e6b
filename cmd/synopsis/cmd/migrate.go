package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/NASA-AMMOS/synopsis/internal/catalog"
)

var migrateDBURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the catalog schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openMigrationTarget()
		if err != nil {
			return err
		}
		defer db.Close()
		return catalog.MigrateUp(db)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openMigrationTarget()
		if err != nil {
			return err
		}
		defer db.Close()

		statuses, err := catalog.MigrateStatus(db)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Printf("%s\t%s\t%s\n", s.ID, state, s.Checksum[:12])
		}
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrateDBURL, "db-url", "",
		"database connection URL (sqlite://path or postgres://...); defaults to database_url from config")
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

// openMigrationTarget resolves the database URL from the flag or the
// configuration chain and opens it.
func openMigrationTarget() (*sqlx.DB, error) {
	url := migrateDBURL
	if url == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		url = cfg.DatabaseURL
	}
	if url == "" {
		return nil, fmt.Errorf("no database URL: pass --db-url or set database_url in config")
	}
	return catalog.Open(url)
}
