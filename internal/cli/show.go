package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ahrenberg/split-nlogo-experiment/internal/ledger"
	"github.com/spf13/cobra"
)

var (
	showBatch      string
	showExperiment string
	showIndex      int
)

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVar(&showBatch, "batch", "", "batch ID (default: most recent batch)")
	showCmd.Flags().StringVar(&showExperiment, "experiment", "", "only show runs of this experiment")
	showCmd.Flags().IntVar(&showIndex, "index", -1, "only show the run with this index")
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "List runs recorded in the ledger",
	Long: `List the runs a previous split recorded in its ledger, with their setup
files and parameter values. Requires --ledger or ledger.path in the config.`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

// ShowResult is the output of the show command.
type ShowResult struct {
	Batch *ledger.Batch `json:"batch"`
	Runs  []ledger.Run  `json:"runs"`
}

func runShow(cmd *cobra.Command, args []string) error {
	path := appConfig.Ledger.Path
	if path == "" {
		return fmt.Errorf("ledger path is required (use --ledger or set ledger.path)")
	}

	res, err := loadRuns(cmd.Context(), path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if IsJSONLOutput() {
		return WriteOutput(out, res.Runs)
	}
	if IsJSONOutput() {
		return WriteOutput(out, res)
	}
	return writeRunList(out, res)
}

func loadRuns(ctx context.Context, path string) (*ShowResult, error) {
	cfg := ledger.DefaultConfig()
	cfg.Path = path
	if appConfig.Ledger.BusyTimeoutMs > 0 {
		cfg.BusyTimeoutMs = appConfig.Ledger.BusyTimeoutMs
	}

	db, err := ledger.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if _, err := db.Migrate(ctx); err != nil {
		return nil, err
	}

	var batch *ledger.Batch
	if showBatch == "" {
		batch, err = db.LatestBatch(ctx)
	} else {
		batch, err = db.GetBatch(ctx, showBatch)
	}
	if err != nil {
		return nil, err
	}

	filter := ledger.RunFilter{BatchID: batch.ID, Experiment: showExperiment}
	if showIndex >= 0 {
		index := showIndex
		filter.Index = &index
	}
	runs, err := db.ListRuns(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ShowResult{Batch: batch, Runs: runs}, nil
}

func writeRunList(out io.Writer, res *ShowResult) error {
	fmt.Fprintf(out, "%s %s (%s, %s)\n",
		colorize("batch", styleTitle),
		res.Batch.ID,
		res.Batch.ModelPath,
		res.Batch.CreatedAt.Format("2006-01-02 15:04:05"))

	if len(res.Runs) == 0 {
		_, err := fmt.Fprintln(out, colorize("no runs", styleMuted))
		return err
	}

	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "EXPERIMENT\tINDEX\tREPS\tSETUP FILE\tPARAMETERS")
	for _, r := range res.Runs {
		params := make([]string, 0, len(r.Params))
		for _, a := range r.Params {
			params = append(params, a.Name+"="+a.Value)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", r.Experiment, r.Index, r.Repetitions, r.SetupFile, strings.Join(params, " "))
	}
	return w.Flush()
}
