package cmd

import (
	"github.com/spf13/cobra"

	"github.com/blogd/blogd/config"
	"github.com/blogd/blogd/models"
	"github.com/blogd/blogd/utils"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create or update every table, unique constraint, index and cascading
foreign key, then exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := config.OpenDatabase(cfg)
		if err != nil {
			return err
		}
		defer config.CloseDatabase(db) //nolint:errcheck

		if err := models.AutoMigrate(db); err != nil {
			return err
		}
		utils.Sugar.Infof("schema migrated (%s)", cfg.DBDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
