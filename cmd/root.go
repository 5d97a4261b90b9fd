package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	analyzeCmd "github.com/mpapenbr/raceanalysis-service/pkg/cmd/analyze"
	migrateCmd "github.com/mpapenbr/raceanalysis-service/pkg/cmd/migrate"
	"github.com/mpapenbr/raceanalysis-service/pkg/cmd/server"
	"github.com/mpapenbr/raceanalysis-service/pkg/config"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/partition"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/sections"
	"github.com/mpapenbr/raceanalysis-service/version"
)

const envPrefix = "RAS"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "ras",
	Short:   "Telemetry analytics for F1 sessions",
	Long:    ``,
	Version: version.FullVersion,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:funlen // flag definitions
func init() {
	cobra.OnInitialize(initConfig)

	defaults := sections.DefaultThresholds()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.ras.yml)")
	pf.StringVar(&config.DataDir, "data-dir", "./data",
		"directory containing the session archives")
	pf.IntVar(&config.Segments, "segments", partition.DefaultSegments,
		"number of mini sectors used for track dominance")
	pf.StringVar(&config.PartitionPolicy, "policy", "distance",
		"mini sector partition (distance, time, angle)")
	pf.Float64Var(&config.FullThrottle, "full-throttle", defaults.FullThrottle,
		"throttle percentage counted as full throttle")
	pf.Float64Var(&config.CorneringSpeed, "cornering-speed", defaults.CorneringSpeed,
		"speed (km/h) below which a sample counts as cornering")
	pf.StringVar(&config.DB, "db",
		"postgresql://DB_USERNAME:DB_USER_PASSWORD@DB_HOST:5432/raceanalysis",
		"Connection string for the database")
	pf.StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for other services to be ready")
	pf.StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	pf.StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format (json, text)")
	pf.StringVar(&config.LogConfig,
		"log-config",
		"",
		"file with per logger level settings (overrides log-level and log-format)")

	// add commands here
	rootCmd.AddCommand(migrateCmd.NewMigrateCmd())
	rootCmd.AddCommand(server.NewServerCmd())
	rootCmd.AddCommand(analyzeCmd.NewAnalyzeCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".ras" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ras")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --data-dir to RAS_DATA_DIR
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
