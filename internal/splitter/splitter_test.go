package splitter

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/ahrenberg/split-nlogo-experiment/internal/experiment"
	"github.com/ahrenberg/split-nlogo-experiment/internal/ledger"
	"github.com/ahrenberg/split-nlogo-experiment/internal/manifest"
	"github.com/ahrenberg/split-nlogo-experiment/internal/sweep"
	"github.com/ahrenberg/split-nlogo-experiment/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = `to setup
end
@#$#@#$#@
GRAPHICS-WINDOW
@#$#@#$#@
<experiments>
  <experiment name="My Exp" repetitions="10" runMetricsEveryStep="true">
    <setup>setup</setup>
    <go>go</go>
    <metric>count turtles</metric>
    <enumeratedValueSet variable="density">
      <value value="50"/>
      <value value="60"/>
      <value value="70"/>
    </enumeratedValueSet>
  </experiment>
  <experiment name="wind" repetitions="2" runMetricsEveryStep="false">
    <setup>setup</setup>
    <go>go</go>
    <steppedValueSet variable="speed" first="1" step="1" last="2"/>
  </experiment>
</experiments>
@#$#@#$#@
`

type fixture struct {
	dir   string
	model string
	out   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:   dir,
		model: testutil.WriteFile(t, dir, "fire.nlogo", testModel),
		out:   filepath.Join(dir, "out"),
	}
	require.NoError(t, os.MkdirAll(f.out, 0o755))
	return f
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t)

	res, err := New(Options{
		ModelPath:         f.model,
		Experiments:       []string{"My Exp"},
		RepetitionsPerRun: 5,
		OutputDir:         f.out,
		CreateRunTable:    true,
	}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Experiments, 1)
	er := res.Experiments[0]
	assert.Equal(t, sweep.Split{RepsPerRun: 5, Copies: 2}, er.Split)
	assert.Equal(t, 6, er.Runs)
	require.Len(t, er.SetupFiles, 6)
	for i, path := range er.SetupFiles {
		assert.Equal(t, filepath.Join(f.out, "My_Exp"+strconv.Itoa(i)+".xml"), path)
	}
	assert.Empty(t, res.Warnings)

	rows := readCSV(t, filepath.Join(f.out, "My_Exp_run_table.csv"))
	assert.Equal(t, [][]string{
		{"Experiment number", "density"},
		{"0", "50"}, {"1", "50"},
		{"2", "60"}, {"3", "60"},
		{"4", "70"}, {"5", "70"},
	}, rows)

	data, err := os.ReadFile(er.SetupFiles[2])
	require.NoError(t, err)
	exps, err := experiment.Extract(string(data))
	require.NoError(t, err)
	require.Len(t, exps, 1)
	assert.Equal(t, "5", exps[0].AttrOr(experiment.AttrRepetitions, ""))
	sets := exps[0].ChildElements(experiment.TagEnumeratedValueSet)
	require.Len(t, sets, 1)
	assert.Equal(t, "60", sets[0].ChildElements(experiment.TagValue)[0].AttrOr(experiment.AttrValue, ""))
	assert.True(t, strings.HasPrefix(string(data), experiment.SetupFileHeader))
}

func TestRunIdempotent(t *testing.T) {
	f := newFixture(t)
	opts := Options{ModelPath: f.model, All: true, OutputDir: f.out, CreateRunTable: true}

	snapshot := func() map[string]string {
		_, err := New(opts).Run(context.Background())
		require.NoError(t, err)
		entries, err := os.ReadDir(f.out)
		require.NoError(t, err)
		files := make(map[string]string, len(entries))
		for _, e := range entries {
			data, err := os.ReadFile(filepath.Join(f.out, e.Name()))
			require.NoError(t, err)
			files[e.Name()] = string(data)
		}
		return files
	}

	first := snapshot()
	second := snapshot()
	assert.Equal(t, first, second)
	// 3 + 2 setup files and two run tables.
	assert.Len(t, first, 7)
}

func TestRunUnknownExperiments(t *testing.T) {
	f := newFixture(t)

	res, err := New(Options{
		ModelPath:   f.model,
		Experiments: []string{"nope", "wind", "nope", "also missing"},
		OutputDir:   f.out,
	}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Experiments, 1)
	assert.Equal(t, "wind", res.Experiments[0].Name)
	assert.Equal(t, []string{"nope", "also missing"}, res.Unmatched)

	var unknown []string
	for _, w := range res.Warnings {
		if w.Kind == WarnUnknownExperiment {
			unknown = append(unknown, w.Experiment)
		}
	}
	assert.Equal(t, []string{"nope", "also missing"}, unknown)
}

func TestRunRepetitionMismatch(t *testing.T) {
	f := newFixture(t)

	res, err := New(Options{
		ModelPath:         f.model,
		Experiments:       []string{"My Exp"},
		RepetitionsPerRun: 3,
		OutputDir:         f.out,
	}).Run(context.Background())
	require.NoError(t, err)

	er := res.Experiments[0]
	assert.Equal(t, sweep.Split{RepsPerRun: 3, Copies: 3}, er.Split)
	assert.Equal(t, 9, er.Runs)
	require.Len(t, er.Warnings, 1)
	assert.Equal(t, WarnRepetitionMismatch, er.Warnings[0].Kind)
	assert.Contains(t, er.Warnings[0].Message, "new total is 9")
}

func TestRunArrayScript(t *testing.T) {
	f := newFixture(t)
	tmplPath := testutil.WriteFile(t, f.dir, "job.pbs", "#PBS -t 0-{numexps}\n{model} {modelname} '{experiment}' {csvfpath} ${PBS_ARRAYID}\n")

	res, err := New(Options{
		ModelPath:      f.model,
		Experiments:    []string{"My Exp"},
		OutputDir:      f.out,
		ScriptTemplate: tmplPath,
	}).Run(context.Background())
	require.NoError(t, err)

	er := res.Experiments[0]
	require.Equal(t, []string{filepath.Join(f.out, "My_Exp_script.pbs")}, er.Scripts)
	data, err := os.ReadFile(er.Scripts[0])
	require.NoError(t, err)
	assert.Equal(t, "#PBS -t 0-3\n"+f.model+" fire 'My Exp' "+f.out+" ${PBS_ARRAYID}\n", string(data))

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnUnknownTemplateKey, res.Warnings[0].Kind)
	assert.Equal(t, "PBS_ARRAYID", res.Warnings[0].Key)
}

func TestRunPerRunScripts(t *testing.T) {
	f := newFixture(t)
	tmplPath := testutil.WriteFile(t, f.dir, "job.sh", "{jobname} {combination}/{numexps} {setupfile} {csvfname}\n")
	scripts := filepath.Join(f.dir, "scripts")
	require.NoError(t, os.MkdirAll(scripts, 0o755))
	csvDir := filepath.Join(f.dir, "csv")

	res, err := New(Options{
		ModelPath:      f.model,
		Experiments:    []string{"wind"},
		OutputDir:      f.out,
		Prefix:         "p_",
		ScriptTemplate: tmplPath,
		ScriptMode:     ScriptModePerRun,
		ScriptDir:      scripts,
		CSVDir:         csvDir,
	}).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	er := res.Experiments[0]
	require.Len(t, er.Scripts, 2)
	data, err := os.ReadFile(filepath.Join(scripts, "p_wind1.sh"))
	require.NoError(t, err)
	want := "p_wind1 1/2 " + filepath.Join(f.out, "p_wind1.xml") + " " + filepath.Join(csvDir, "p_wind1.csv") + "\n"
	assert.Equal(t, want, string(data))
}

func TestRunRejectsScriptsOverSetupFiles(t *testing.T) {
	f := newFixture(t)
	tmplPath := testutil.WriteFile(t, f.dir, "job.xml", "<job>{jobname}</job>\n")

	opts := Options{
		ModelPath:      f.model,
		Experiments:    []string{"wind"},
		OutputDir:      f.out,
		ScriptTemplate: tmplPath,
		ScriptMode:     ScriptModePerRun,
	}
	_, err := New(opts).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "would overwrite the setup files")
	entries, err := os.ReadDir(f.out)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// A separate script directory keeps both.
	opts.ScriptDir = filepath.Join(f.dir, "scripts")
	require.NoError(t, os.MkdirAll(opts.ScriptDir, 0o755))
	res, err := New(opts).Run(context.Background())
	require.NoError(t, err)
	data, err := os.ReadFile(res.Experiments[0].SetupFiles[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), experiment.SetupFileHeader))
	assert.Equal(t, []string{filepath.Join(opts.ScriptDir, "wind0.xml"), filepath.Join(opts.ScriptDir, "wind1.xml")}, res.Experiments[0].Scripts)
}

func TestRunLedgerAndManifest(t *testing.T) {
	f := newFixture(t)
	ledgerPath := filepath.Join(f.dir, "ledger", "runs.db")
	manifestPath := filepath.Join(f.dir, "manifest.yaml")

	res, err := New(Options{
		ModelPath:    f.model,
		All:          true,
		OutputDir:    f.out,
		LedgerPath:   ledgerPath,
		ManifestPath: manifestPath,
	}).Run(context.Background())
	require.NoError(t, err)

	m, err := manifest.Load(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, res.BatchID, m.BatchID)
	require.Len(t, m.Experiments, 2)
	assert.Equal(t, 3, m.Experiments[0].Runs)
	assert.Equal(t, 2, m.Experiments[1].Runs)

	db := testutil.OpenLedger(t, ledgerPath)
	batch, err := db.LatestBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, res.BatchID, batch.ID)

	runs, err := db.ListRuns(context.Background(), ledger.RunFilter{BatchID: res.BatchID, Experiment: "wind"})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, sweep.Combination{{Name: "speed", Value: "2"}}, runs[1].Params)
	assert.Equal(t, filepath.Join(f.out, "wind1.xml"), runs[1].SetupFile)
}

func TestRunIOFailures(t *testing.T) {
	f := newFixture(t)

	_, err := New(Options{ModelPath: filepath.Join(f.dir, "missing.nlogo"), All: true, OutputDir: f.out}).Run(context.Background())
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "expected IOError, got %v", err)
	assert.Contains(t, err.Error(), "missing.nlogo")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = New(Options{ModelPath: f.model, All: true, OutputDir: filepath.Join(f.dir, "no", "such")}).Run(context.Background())
	require.True(t, errors.As(err, &ioErr), "expected IOError, got %v", err)
	assert.Contains(t, ioErr.Path, filepath.Join("no", "such"))
}

func TestRunMalformedRange(t *testing.T) {
	f := newFixture(t)
	testutil.WriteFile(t, f.dir, "fire.nlogo", strings.Replace(testModel, `step="1"`, `step="0"`, 1))

	_, err := New(Options{ModelPath: f.model, All: true, OutputDir: f.out}).Run(context.Background())
	var rangeErr *sweep.InvalidRangeError
	require.True(t, errors.As(err, &rangeErr), "expected InvalidRangeError, got %v", err)
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "fire", modelName("/models/fire.nlogo"))
	assert.Equal(t, "fire", modelName("fire.v2.nlogo"))
	assert.Equal(t, "model", modelName("model"))
}
