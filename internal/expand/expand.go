// Package expand drives one experiment template through its sweep
// combinations and repetition copies, producing the concrete runs.
package expand

import (
	"iter"

	"github.com/ahrenberg/split-nlogo-experiment/internal/experiment"
	"github.com/ahrenberg/split-nlogo-experiment/internal/sweep"
)

// StartIndex is the index of the first run of every experiment.
const StartIndex = 0

// Record ties a run index to the parameter values of that run.
type Record struct {
	Index  int               `json:"index" yaml:"index" toml:"index"`
	Values sweep.Combination `json:"values" yaml:"values" toml:"values"`
}

// Run is one generated experiment instance.
type Run struct {
	// Experiment is an independent copy of the template for this run.
	Experiment *experiment.Node
	Record     Record
	// Name is the source experiment name, unsanitized.
	Name string
	// Index is the run index, equal to Record.Index.
	Index int
	// Total is the number of runs the expansion yields.
	Total int
	// Combination is the position of the run's combination, starting at 0.
	Combination int
	// Copy is the repetition copy of the combination, starting at 0.
	Copy int
}

// Expander produces the runs of one experiment.
type Expander struct {
	tmpl  *experiment.Template
	split sweep.Split
	start int
}

// New returns an Expander for tmpl. Every run repeats split.RepsPerRun
// times and each combination is produced split.Copies times.
func New(tmpl *experiment.Template, split sweep.Split) *Expander {
	return &Expander{tmpl: tmpl, split: split, start: StartIndex}
}

// Total returns the number of runs without expanding them.
func (e *Expander) Total() int {
	return sweep.SaturatingMul(sweep.CombinationCount(e.tmpl.Variables), e.split.Copies)
}

// Runs yields every run in order: combinations in lexicographic order, and
// for each combination its repetition copies. Indices increase by one from
// StartIndex across all combinations and copies. Each range over the
// sequence starts a fresh count.
func (e *Expander) Runs() iter.Seq[Run] {
	return func(yield func(Run) bool) {
		total := e.Total()
		next := e.start
		comboIndex := 0
		for combo := range sweep.Combinations(e.tmpl.Variables) {
			for c := 0; c < e.split.Copies; c++ {
				run := Run{
					Experiment:  e.tmpl.Instantiate(e.split.RepsPerRun, combo),
					Record:      Record{Index: next, Values: combo},
					Name:        e.tmpl.Name,
					Index:       next,
					Total:       total,
					Combination: comboIndex,
					Copy:        c,
				}
				if !yield(run) {
					return
				}
				next++
			}
			comboIndex++
		}
	}
}
