// Package sweep implements the value-set arithmetic behind BehaviorSpace
// parameter sweeps: stepped ranges, cross-product expansion, and
// repetition splitting.
package sweep

import (
	"math"
	"strconv"
)

// Variable is a named parameter with its candidate values, in declaration order.
type Variable struct {
	Name   string   `json:"name" yaml:"name" toml:"name"`
	Values []string `json:"values" yaml:"values" toml:"values"`
}

// Assignment is one (variable, value) pair of a combination.
type Assignment struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Value string `json:"value" yaml:"value" toml:"value"`
}

// Combination selects exactly one value per sweep variable, ordered as the
// variables were declared.
type Combination []Assignment

// Names returns the variable names of the combination in order.
func (c Combination) Names() []string {
	names := make([]string, len(c))
	for i, a := range c {
		names[i] = a.Name
	}
	return names
}

// Values returns the selected values in order.
func (c Combination) Values() []string {
	values := make([]string, len(c))
	for i, a := range c {
		values[i] = a.Value
	}
	return values
}

// FormatValue renders a stepped value with the shortest decimal form that
// round-trips.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatValues renders a stepped range as strings.
func FormatValues(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = FormatValue(v)
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
