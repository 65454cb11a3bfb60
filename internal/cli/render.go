package cli

import (
	"fmt"
	"strings"

	"github.com/ahrenberg/split-nlogo-experiment/internal/splitter"
)

// renderSummary describes a finished split for humans.
func renderSummary(res *splitter.Result) string {
	var b strings.Builder

	if len(res.Experiments) == 0 {
		b.WriteString(colorize("No experiments split.", styleWarn))
		b.WriteString("\n")
	}

	for _, er := range res.Experiments {
		fmt.Fprintf(&b, "%s %s: %s\n",
			colorize("✓", styleOK),
			colorize(er.Name, styleTitle),
			describeRuns(er))
		if len(er.SetupFiles) > 0 {
			fmt.Fprintf(&b, "  %s %s\n", colorize("setup files:", styleMuted), describeFiles(er.SetupFiles))
		}
		if er.RunTable != "" {
			fmt.Fprintf(&b, "  %s %s\n", colorize("run table:", styleMuted), er.RunTable)
		}
		if len(er.Scripts) > 0 {
			fmt.Fprintf(&b, "  %s %s\n", colorize("scripts:", styleMuted), describeFiles(er.Scripts))
		}
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(&b, "%s %s\n", colorize("warning:", styleWarn), w.Message)
	}

	if res.Manifest != "" {
		fmt.Fprintf(&b, "%s %s\n", colorize("manifest:", styleMuted), res.Manifest)
	}
	if res.Ledger != "" {
		fmt.Fprintf(&b, "%s %s (batch %s)\n", colorize("ledger:", styleMuted), res.Ledger, res.BatchID)
	}

	return b.String()
}

func describeRuns(er splitter.ExperimentResult) string {
	noun := "runs"
	if er.Runs == 1 {
		noun = "run"
	}
	text := fmt.Sprintf("%d %s", er.Runs, noun)
	if er.Split.Copies > 1 {
		text += fmt.Sprintf(" (%d repetitions each, %d copies per combination)", er.Split.RepsPerRun, er.Split.Copies)
	}
	return text
}

func describeFiles(files []string) string {
	switch len(files) {
	case 0:
		return ""
	case 1:
		return files[0]
	default:
		return fmt.Sprintf("%s ... %s", files[0], files[len(files)-1])
	}
}
