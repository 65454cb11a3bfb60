// Package cli provides structured error output helpers.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ahrenberg/split-nlogo-experiment/internal/experiment"
	"github.com/ahrenberg/split-nlogo-experiment/internal/ledger"
	"github.com/ahrenberg/split-nlogo-experiment/internal/splitter"
	"github.com/ahrenberg/split-nlogo-experiment/internal/sweep"
)

// ErrorEnvelope is the JSON/JSONL error response shape.
type ErrorEnvelope struct {
	Error ErrorPayload `json:"error"`
}

// ErrorPayload carries structured error details.
type ErrorPayload struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ExitError carries an exit code and whether output was already printed.
type ExitError struct {
	Code    int
	Err     error
	Printed bool
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func handleCLIError(err error) error {
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Printed {
			return exitErr
		}
		if exitErr.Err != nil {
			err = exitErr.Err
		}
	}

	exitCode := exitCodeFromError(err)
	if exitErr != nil && exitErr.Code != 0 {
		exitCode = exitErr.Code
	}

	if IsJSONOutput() || IsJSONLOutput() {
		envelope := buildErrorEnvelope(err)
		_ = WriteOutput(os.Stdout, envelope)
	} else {
		fmt.Fprintf(os.Stderr, "%s %v\n", colorize("Error:", styleWarn), err)
	}

	return &ExitError{
		Code:    exitCode,
		Err:     err,
		Printed: true,
	}
}

func buildErrorEnvelope(err error) ErrorEnvelope {
	code, message, hint, details, _ := classifyError(err)
	return ErrorEnvelope{
		Error: ErrorPayload{
			Code:    code,
			Message: message,
			Hint:    hint,
			Details: details,
		},
	}
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code != 0 {
		return exitErr.Code
	}
	_, _, _, _, code := classifyError(err)
	return code
}

func classifyError(err error) (code, message, hint string, details map[string]any, exitCode int) {
	exitCode = 1
	if err == nil {
		return "ERR_UNKNOWN", "", "", nil, exitCode
	}

	message = err.Error()

	var (
		ioErr        *splitter.IOError
		parseErr     *experiment.ParseError
		malformedErr *experiment.MalformedSweepError
		rangeErr     *sweep.InvalidRangeError
	)
	switch {
	case errors.As(err, &ioErr):
		details = map[string]any{"op": ioErr.Op, "path": ioErr.Path}
		if errors.Is(err, fs.ErrNotExist) {
			return "ERR_NOT_FOUND", message, "Check the path, or omit --no-path-translation to create output directories.", details, 2
		}
		return "ERR_IO", message, "", details, 2
	case errors.As(err, &parseErr):
		details = map[string]any{"section": parseErr.Section, "line": parseErr.Line, "column": parseErr.Column}
		return "ERR_PARSE", message, "The <experiments> section of the model is not well-formed XML.", details, exitCode
	case errors.As(err, &malformedErr):
		details = map[string]any{"experiment": malformedErr.Experiment, "element": malformedErr.Element}
		if malformedErr.Variable != "" {
			details["variable"] = malformedErr.Variable
		}
		if malformedErr.Field != "" {
			details["field"] = malformedErr.Field
		}
		return "ERR_MALFORMED_SWEEP", message, "", details, exitCode
	case errors.As(err, &rangeErr):
		details = map[string]any{"first": rangeErr.First, "step": rangeErr.Step, "last": rangeErr.Last}
		return "ERR_INVALID_RANGE", message, "Stepped value sets need a positive step and last >= first.", details, exitCode
	case errors.Is(err, ledger.ErrBatchNotFound):
		return "ERR_NOT_FOUND", message, "Run a split with --ledger first.", map[string]any{"resource": "batch"}, exitCode
	}

	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "not found"):
		code = "ERR_NOT_FOUND"
		if id := extractQuotedValue(message); id != "" {
			details = map[string]any{"id": id}
		}
	case strings.Contains(lower, "unknown flag"):
		code = "ERR_INVALID_FLAG"
	case strings.Contains(lower, "invalid") || strings.Contains(lower, "required") || strings.Contains(lower, "accepts") || strings.Contains(lower, "must"):
		code = "ERR_INVALID"
	case strings.Contains(lower, "permission denied") || strings.Contains(lower, "database is locked"):
		code = "ERR_OPERATION_FAILED"
		exitCode = 2
	case strings.Contains(lower, "failed to") || strings.Contains(lower, "unable to"):
		code = "ERR_OPERATION_FAILED"
		exitCode = 2
	default:
		code = "ERR_UNKNOWN"
	}

	return code, message, hint, details, exitCode
}

func extractQuotedValue(message string) string {
	start := strings.Index(message, "'")
	if start == -1 {
		return ""
	}
	end := strings.Index(message[start+1:], "'")
	if end == -1 {
		return ""
	}
	return message[start+1 : start+1+end]
}
