package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ahrenberg/split-nlogo-experiment/internal/splitter"
	"github.com/ahrenberg/split-nlogo-experiment/internal/sweep"
)

type sampleOutput struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestFormatterJSON(t *testing.T) {
	t.Cleanup(func() {
		jsonOutput = false
		jsonlOutput = false
	})

	jsonOutput = true
	jsonlOutput = false

	var buf bytes.Buffer
	formatter := NewFormatter(&buf)
	if err := formatter.Write(sampleOutput{Name: "alpha", Count: 2}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := "{\n  \"name\": \"alpha\",\n  \"count\": 2\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected JSON output:\n%s", buf.String())
	}
}

func TestFormatterJSONL(t *testing.T) {
	t.Cleanup(func() {
		jsonOutput = false
		jsonlOutput = false
	})

	jsonOutput = false
	jsonlOutput = true

	var buf bytes.Buffer
	formatter := NewFormatter(&buf)
	payload := []sampleOutput{
		{Name: "alpha", Count: 1},
		{Name: "beta", Count: 2},
	}
	if err := formatter.Write(payload); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := "{\"name\":\"alpha\",\"count\":1}\n{\"name\":\"beta\",\"count\":2}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected JSONL output:\n%s", buf.String())
	}
}

func TestFormatterHuman(t *testing.T) {
	t.Cleanup(func() {
		jsonOutput = false
		jsonlOutput = false
	})

	jsonOutput = false
	jsonlOutput = false

	var buf bytes.Buffer
	formatter := NewFormatter(&buf)
	if err := formatter.Write("hello"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if buf.String() != "hello\n" {
		t.Fatalf("unexpected human output: %q", buf.String())
	}
}

func TestFormatterHumanResult(t *testing.T) {
	t.Cleanup(func() {
		jsonOutput = false
		jsonlOutput = false
		noColor = false
	})

	jsonOutput = false
	jsonlOutput = false
	noColor = true

	res := &splitter.Result{
		BatchID: "b1",
		Experiments: []splitter.ExperimentResult{{
			Name:       "fire",
			Runs:       4,
			Split:      sweep.Split{RepsPerRun: 5, Copies: 2},
			SetupFiles: []string{"out/fire0.xml", "out/fire1.xml", "out/fire2.xml", "out/fire3.xml"},
			RunTable:   "out/fire_run_table.csv",
		}},
		Warnings: []splitter.Warning{{Kind: splitter.WarnUnknownExperiment, Message: "experiment named 'x' not found"}},
		Ledger:   "runs.db",
	}

	var buf bytes.Buffer
	if err := NewFormatter(&buf).Write(res); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := strings.Join([]string{
		"✓ fire: 4 runs (5 repetitions each, 2 copies per combination)",
		"  setup files: out/fire0.xml ... out/fire3.xml",
		"  run table: out/fire_run_table.csv",
		"warning: experiment named 'x' not found",
		"ledger: runs.db (batch b1)",
		"",
	}, "\n")
	if buf.String() != expected {
		t.Fatalf("unexpected human output:\n%s", buf.String())
	}
}
