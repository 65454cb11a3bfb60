package experiment

import (
	"fmt"
	"strings"
)

// ParseError reports experiments markup that is not well-formed XML.
type ParseError struct {
	// Section is the 1-based index of the <experiments> section in the source.
	Section int
	Line    int
	Column  int
	Err     error
}

func (e *ParseError) Error() string {
	location := fmt.Sprintf("experiments section %d", e.Section)
	if e.Line > 0 {
		location = fmt.Sprintf("%s, line %d:%d", location, e.Line, e.Column)
	}
	return fmt.Sprintf("parse %s: %v", location, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MalformedSweepError reports a value set or experiment attribute that is
// missing or not numeric.
type MalformedSweepError struct {
	Experiment string
	Element    string
	Variable   string
	Field      string
	Value      string
	Err        error
}

func (e *MalformedSweepError) Error() string {
	parts := make([]string, 0, 3)
	if e.Experiment != "" {
		parts = append(parts, fmt.Sprintf("experiment %q", e.Experiment))
	}
	if e.Element != "" {
		parts = append(parts, e.Element)
	}
	if e.Variable != "" {
		parts = append(parts, fmt.Sprintf("variable %q", e.Variable))
	}
	prefix := "malformed sweep"
	if len(parts) > 0 {
		prefix = prefix + " in " + strings.Join(parts, ": ")
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: attribute %s=%q: %v", prefix, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: attribute %s is required", prefix, e.Field)
}

func (e *MalformedSweepError) Unwrap() error {
	return e.Err
}
