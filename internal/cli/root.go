package cli

import (
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "smart-air-monitor",
	Short: "Smart Air Monitoring API",
	Long: `An HTTP API for an air quality monitoring setup.

Sensor devices post CO2, CO and dust readings, which are stored in a relational
database together with the categories the database derives from them. A dashboard
reads the latest, historical and statistical views and drives the fan through a
small control log (fan ON/OFF, mode AUTO/MANUAL).

Without a subcommand the API server is started.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a config file (default: config.yaml lookup)")
	rootCmd.PersistentFlags().String("database-url", "", "Database connection string (env DATABASE_URL)")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file (env LOG_FILE)")

	addServerFlags(rootCmd)
}
