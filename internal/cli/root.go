// Package cli implements the split-nlogo-experiment command-line interface using Cobra.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahrenberg/split-nlogo-experiment/internal/config"
	"github.com/ahrenberg/split-nlogo-experiment/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Global flags
	cfgFile     string
	jsonOutput  bool
	jsonlOutput bool
	verbose     bool
	noColor     bool
	logLevel    string
	logFormat   string
	ledgerPath  string

	// Global config loader and config
	configLoader *config.Loader
	appConfig    *config.Config
	logger       zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "split-nlogo-experiment <nlogo_file> [experiment...]",
	Short: "Split NetLogo BehaviorSpace experiments into single-run setup files",
	Long: `split-nlogo-experiment reads the BehaviorSpace experiments of a NetLogo
model and writes one setup file per combination of parameter values, so the
runs can be distributed over a cluster.

Each setup file can be run with NetLogo's headless launcher:

  netlogo-headless.sh --model model.nlogo --setup-file exp0.xml

Optionally a run table mapping run numbers to parameter values and job
scripts filled from a template are written alongside.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSplit,
}

// Execute runs the root command. Cancelling ctx stops a split between
// experiments.
func Execute(ctx context.Context, version, commit, date string) error {
	rootCmd.Version = formatVersion(version, commit, date)
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return handleCLIError(err)
	}
	return nil
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/split-nlogo/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&jsonlOutput, "jsonl", false, "output in JSON Lines format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override logging format (json, console)")
	rootCmd.PersistentFlags().StringVar(&ledgerPath, "ledger", "", "record generated runs in this SQLite database")

	addSplitFlags(rootCmd)
	rootCmd.SetGlobalNormalizationFunc(underscoreToDash)
}

// underscoreToDash lets --repetitions_per_run and friends name the same
// flags as their dashed forms.
func underscoreToDash(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// initConfig loads configuration using Viper with proper precedence:
// defaults < config file < env vars < CLI flags
func initConfig(cmd *cobra.Command) error {
	configLoader = config.NewLoader()

	// Set explicit config file if provided via CLI flag
	if cfgFile != "" {
		configLoader.SetConfigFile(cfgFile)
	}

	var err error
	appConfig, err = configLoader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	applyCLIOverrides(cmd)
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	initLogging()

	if cfgUsed := configLoader.ConfigFileUsed(); cfgUsed != "" {
		logger.Debug().Str("config_file", cfgUsed).Msg("loaded config file")
	}
	return nil
}

func applyCLIOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("log-level") {
		appConfig.Logging.Level = logLevel
	} else if verbose {
		appConfig.Logging.Level = "debug"
	}

	if flags.Changed("log-format") {
		appConfig.Logging.Format = logFormat
	}

	if flags.Changed("ledger") {
		appConfig.Ledger.Path = ledgerPath
	}

	applySplitOverrides(cmd)
}

// initLogging sets up the logger based on configuration
func initLogging() {
	logging.Init(logging.Config{
		Level:        appConfig.Logging.Level,
		Format:       appConfig.Logging.Format,
		EnableCaller: appConfig.Logging.EnableCaller,
	})
	logger = logging.Component("cli")
}

// IsJSONOutput returns true if JSON output mode is enabled.
func IsJSONOutput() bool {
	return jsonOutput
}

// IsJSONLOutput returns true if JSONL output mode is enabled.
func IsJSONLOutput() bool {
	return jsonlOutput
}

func formatVersion(version, commit, date string) string {
	return version + " (commit: " + commit + ", built: " + date + ")"
}
