package cli

import (
	"fmt"
	"path/filepath"

	"github.com/ahrenberg/split-nlogo-experiment/internal/config"
	"github.com/ahrenberg/split-nlogo-experiment/internal/splitter"
	"github.com/spf13/cobra"
)

var (
	splitAll               bool
	splitRepsPerRun        int
	splitOutputDir         string
	splitOutputPrefix      string
	splitCreateScript      string
	splitScriptOutputDir   string
	splitScriptMode        string
	splitCSVOutputDir      string
	splitCreateRunTable    bool
	splitNoPathTranslation bool
	splitManifest          string
)

func addSplitFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&splitAll, "all-experiments", false, "split every experiment in the model; experiment names are ignored")
	flags.IntVar(&splitRepsPerRun, "repetitions-per-run", 0, "split each experiment's repetitions into runs of this many repetitions")
	flags.StringVar(&splitOutputDir, "output-dir", "", "directory for setup files and run tables (default .)")
	flags.StringVar(&splitOutputPrefix, "output-prefix", "", "prefix for every generated file name")
	flags.StringVar(&splitCreateScript, "create-script", "", "write job scripts from this template file")
	flags.StringVar(&splitScriptOutputDir, "script-output-dir", "", "directory for generated scripts (default --output-dir)")
	flags.StringVar(&splitScriptMode, "script-mode", "", "script mode: array (one per experiment) or per-run")
	flags.StringVar(&splitCSVOutputDir, "csv-output-dir", "", "directory runs write their tables to, used by {csvfpath} (default --output-dir)")
	flags.BoolVar(&splitCreateRunTable, "create-run-table", false, "write <prefix><experiment>_run_table.csv per experiment")
	flags.BoolVar(&splitNoPathTranslation, "no-path-translation", false, "use paths as given instead of making them absolute")
	flags.StringVar(&splitManifest, "manifest", "", "write a manifest of the generated files (.yaml, .toml or .json)")
}

func applySplitOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Lookup("output-dir") == nil {
		return
	}

	if flags.Changed("repetitions-per-run") {
		appConfig.Split.RepetitionsPerRun = splitRepsPerRun
	}
	if flags.Changed("create-run-table") {
		appConfig.Split.CreateRunTable = splitCreateRunTable
	}
	if flags.Changed("output-dir") {
		appConfig.Output.Dir = splitOutputDir
	}
	if flags.Changed("output-prefix") {
		appConfig.Output.Prefix = splitOutputPrefix
	}
	if flags.Changed("script-output-dir") {
		appConfig.Output.ScriptDir = splitScriptOutputDir
	}
	if flags.Changed("csv-output-dir") {
		appConfig.Output.CSVDir = splitCSVOutputDir
	}
	if flags.Changed("no-path-translation") {
		appConfig.Output.PathTranslation = !splitNoPathTranslation
	}
	if flags.Changed("create-script") {
		appConfig.Script.Template = splitCreateScript
	}
	if flags.Changed("script-mode") {
		appConfig.Script.Mode = splitScriptMode
	}
	if flags.Changed("manifest") {
		appConfig.Manifest.Path = splitManifest
	}
}

func runSplit(cmd *cobra.Command, args []string) error {
	modelPath := args[0]
	names := args[1:]

	if len(names) == 0 && !splitAll {
		logger.Warn().Msg("no experiment names given and --all-experiments not set, nothing to do")
		return nil
	}

	cfg := appConfig
	if cfg.Output.PathTranslation {
		if err := cfg.Absolutize(); err != nil {
			return err
		}
		abs, err := filepath.Abs(modelPath)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", modelPath, err)
		}
		modelPath = abs
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
	}

	res, err := splitter.New(splitOptions(cfg, modelPath, names)).Run(cmd.Context())
	if err != nil {
		return err
	}

	logger.Debug().
		Str("batch", res.BatchID).
		Int("experiments", len(res.Experiments)).
		Int("warnings", len(res.Warnings)).
		Msg("split complete")

	return WriteOutput(cmd.OutOrStdout(), res)
}

func splitOptions(cfg *config.Config, modelPath string, names []string) splitter.Options {
	return splitter.Options{
		ModelPath:           modelPath,
		Experiments:         names,
		All:                 splitAll,
		RepetitionsPerRun:   cfg.Split.RepetitionsPerRun,
		OutputDir:           cfg.Output.Dir,
		Prefix:              cfg.Output.Prefix,
		CreateRunTable:      cfg.Split.CreateRunTable,
		ScriptTemplate:      cfg.Script.Template,
		ScriptMode:          cfg.Script.Mode,
		ScriptDir:           cfg.ScriptDir(),
		CSVDir:              cfg.CSVDir(),
		LedgerPath:          cfg.Ledger.Path,
		LedgerBusyTimeoutMs: cfg.Ledger.BusyTimeoutMs,
		ManifestPath:        cfg.Manifest.Path,
	}
}
