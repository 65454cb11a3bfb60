// Package script fills job-submission script templates.
//
// Templates use {key} placeholders. {{ and }} stand for literal braces.
// Placeholders naming unknown keys are left in the output unchanged and
// reported, so shell constructs such as ${PBS_ARRAYID} survive.
package script

import "strings"

// Keys available to script templates.
const (
	KeyExperiment  = "experiment"
	KeyModel       = "model"
	KeyModelName   = "modelname"
	KeyNumExps     = "numexps"
	KeyCSVPath     = "csvfpath"
	KeyCombination = "combination"
	KeyJobName     = "jobname"
	KeyCSVFile     = "csvfname"
	KeySetupFile   = "setupfile"
)

type segment struct {
	literal string
	key     string
}

// Template is a parsed script template.
type Template struct {
	segments []segment
	keys     []string
}

// Parse splits text into literal runs and placeholders.
func Parse(text string) *Template {
	t := &Template{}
	seen := make(map[string]struct{})
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); {
		switch {
		case strings.HasPrefix(text[i:], "{{"):
			lit.WriteByte('{')
			i += 2
		case strings.HasPrefix(text[i:], "}}"):
			lit.WriteByte('}')
			i += 2
		case text[i] == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 || !isIdentifier(text[i+1:i+1+end]) {
				lit.WriteByte('{')
				i++
				continue
			}
			key := text[i+1 : i+1+end]
			flush()
			t.segments = append(t.segments, segment{key: key})
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				t.keys = append(t.keys, key)
			}
			i += end + 2
		default:
			lit.WriteByte(text[i])
			i++
		}
	}
	flush()
	return t
}

// Keys returns the distinct placeholder names in order of first use.
func (t *Template) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Unknown returns the placeholder names that values does not define.
func (t *Template) Unknown(values map[string]string) []string {
	var out []string
	for _, k := range t.keys {
		if _, ok := values[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// Render substitutes values into the template. Unknown placeholders are
// written back as {key} and returned.
func (t *Template) Render(values map[string]string) (string, []string) {
	var b strings.Builder
	for _, s := range t.segments {
		if s.key == "" {
			b.WriteString(s.literal)
			continue
		}
		if v, ok := values[s.key]; ok {
			b.WriteString(v)
		} else {
			b.WriteString("{" + s.key + "}")
		}
	}
	return b.String(), t.Unknown(values)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
