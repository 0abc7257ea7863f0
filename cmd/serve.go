package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blogd/blogd/config"
	"github.com/blogd/blogd/models"
	"github.com/blogd/blogd/routes"
	"github.com/blogd/blogd/services"
	"github.com/blogd/blogd/utils"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not create or update the schema at startup")
}

func runServe() error {
	cfg := config.Get()
	defer utils.Logger.Sync() //nolint:errcheck

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer config.CloseDatabase(db) //nolint:errcheck
	defer utils.CloseRedis()

	if !skipMigrate {
		if err := models.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}

	r := routes.SetupRouter(services.New(db, cfg))

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	return utils.GraceServer(":"+cfg.AppPort, r)
}
