package experiment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ahrenberg/split-nlogo-experiment/internal/sweep"
)

// DefaultRepetitions is used when an experiment has no repetitions attribute.
const DefaultRepetitions = 1

// Template is an experiment with its sweep axes lifted out. Body holds the
// fixed part of the experiment; Variables lists the axes to expand.
type Template struct {
	Name        string
	Repetitions int
	Body        *Node
	Variables   []sweep.Variable
}

// Prepare separates the sweep variables of exp from its fixed body. exp is
// not modified.
//
// Enumerated value sets with more than one value become variables, in
// document order, followed by every stepped value set. An enumerated set
// with a single value stays in the body, while a stepped set is always an
// axis even if its range holds one value.
func Prepare(exp *Node) (*Template, error) {
	body := exp.Clone()
	name := Name(body)

	reps := DefaultRepetitions
	if raw, ok := body.Attr(AttrRepetitions); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, &MalformedSweepError{Experiment: name, Element: TagExperiment, Field: AttrRepetitions, Value: raw, Err: err}
		}
		if n < 0 {
			return nil, &MalformedSweepError{Experiment: name, Element: TagExperiment, Field: AttrRepetitions, Value: raw, Err: fmt.Errorf("must not be negative")}
		}
		reps = n
	}

	tmpl := &Template{Name: name, Repetitions: reps, Body: body}

	for _, evs := range body.ChildElements(TagEnumeratedValueSet) {
		values := evs.ChildElements(TagValue)
		if len(values) <= 1 {
			continue
		}
		variable, err := requireAttr(name, evs, AttrVariable, "")
		if err != nil {
			return nil, err
		}
		v := sweep.Variable{Name: variable, Values: make([]string, 0, len(values))}
		for _, val := range values {
			s, err := requireAttr(name, val, AttrValue, variable)
			if err != nil {
				return nil, err
			}
			v.Values = append(v.Values, s)
		}
		tmpl.Variables = append(tmpl.Variables, v)
		body.RemoveChild(evs)
	}

	for _, svs := range body.ChildElements(TagSteppedValueSet) {
		v, err := steppedVariable(name, svs)
		if err != nil {
			return nil, err
		}
		tmpl.Variables = append(tmpl.Variables, v)
		body.RemoveChild(svs)
	}

	return tmpl, nil
}

func steppedVariable(experiment string, svs *Node) (sweep.Variable, error) {
	variable, err := requireAttr(experiment, svs, AttrVariable, "")
	if err != nil {
		return sweep.Variable{}, err
	}

	var bounds [3]float64
	for i, field := range []string{AttrFirst, AttrStep, AttrLast} {
		raw, err := requireAttr(experiment, svs, field, variable)
		if err != nil {
			return sweep.Variable{}, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return sweep.Variable{}, &MalformedSweepError{
				Experiment: experiment,
				Element:    svs.Name,
				Variable:   variable,
				Field:      field,
				Value:      raw,
				Err:        err,
			}
		}
		bounds[i] = f
	}

	values, err := sweep.StepRange(bounds[0], bounds[1], bounds[2])
	if err != nil {
		return sweep.Variable{}, fmt.Errorf("experiment %q: variable %q: %w", experiment, variable, err)
	}
	return sweep.Variable{Name: variable, Values: sweep.FormatValues(values)}, nil
}

func requireAttr(experiment string, n *Node, attr, variable string) (string, error) {
	v, ok := n.Attr(attr)
	if !ok {
		return "", &MalformedSweepError{Experiment: experiment, Element: n.Name, Variable: variable, Field: attr}
	}
	return v, nil
}

// Instantiate returns a deep copy of the template body with its repetitions
// set to reps and one single-valued enumerated value set appended per
// assignment of combo.
func (t *Template) Instantiate(reps int, combo sweep.Combination) *Node {
	exp := t.Body.Clone()
	exp.SetAttr(AttrRepetitions, strconv.Itoa(reps))
	for _, a := range combo {
		evs := NewElement(TagEnumeratedValueSet, AttrVariable, a.Name)
		evs.AppendChild(NewElement(TagValue, AttrValue, a.Value))
		exp.AppendChild(evs)
	}
	return exp
}
