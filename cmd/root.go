package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blogd/blogd/config"
	"github.com/blogd/blogd/utils"
)

var configPath string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "blogd",
	Short: "Blogging and social backend",
	Long: `blogd serves the blogging API: accounts, blogs with tags, comments,
follows and the analytical queries over them.

Configuration is read from config/config.json, then .env, then the environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.SetPath(configPath)
		return utils.InitLogger(config.Load())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the JSON config file (default config/config.json)")
}
