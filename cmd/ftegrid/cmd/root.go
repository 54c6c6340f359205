package cmd

import (
	"fmt"
	"os"

	"fte-grid-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ftegrid",
	Short: "Monthly FTE grid reconciliation tool",
	Long: `Ftegrid consolidates the monthly FTE headcount grid with single-agency
files, reconciles agency coverage against the reference mapping, and
produces the upload extract for the financial consolidation system.

Examples:
  ftegrid process --input-file grid.csv --mapping-file mapping.xlsx --year 2026 --month 7
  ftegrid process --input-file grid.xlsx --mapping-file mapping.xlsx \
    --agency-files gamma.xlsx,delta.xlsx --year 2026 --month 7 --output-dir out
  ftegrid version`,
	Version: getVersionString(),
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return NewCLIErrorHandler().HandleError(err)
	}
	return 0
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	viper.SetEnvPrefix("FTEGRID")
	viper.AutomaticEnv()

	if viper.GetBool("verbose") {
		if debugLogger, err := logger.NewLogger(logger.DebugConfig()); err == nil {
			logger.SetGlobalLogger(debugLogger)
		}
	}
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
