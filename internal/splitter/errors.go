package splitter

import "fmt"

// IOError is a fatal read or write failure on a named file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// WarningKind classifies non-fatal findings.
type WarningKind string

const (
	WarnUnknownExperiment  WarningKind = "unknown_experiment"
	WarnRepetitionMismatch WarningKind = "repetition_mismatch"
	WarnUnknownTemplateKey WarningKind = "unknown_template_key"
)

// Warning is a non-fatal finding reported after or during the pass.
type Warning struct {
	Kind       WarningKind `json:"kind"`
	Experiment string      `json:"experiment,omitempty"`
	Key        string      `json:"key,omitempty"`
	Message    string      `json:"message"`
}

func (w Warning) String() string {
	return w.Message
}
