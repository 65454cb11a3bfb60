// Package splitter runs one invocation: it reads a NetLogo model, expands
// the selected BehaviorSpace experiments into single-combination setup
// files, and writes run tables, job scripts, a manifest and ledger entries.
package splitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ahrenberg/split-nlogo-experiment/internal/expand"
	"github.com/ahrenberg/split-nlogo-experiment/internal/experiment"
	"github.com/ahrenberg/split-nlogo-experiment/internal/ledger"
	"github.com/ahrenberg/split-nlogo-experiment/internal/logging"
	"github.com/ahrenberg/split-nlogo-experiment/internal/manifest"
	"github.com/ahrenberg/split-nlogo-experiment/internal/naming"
	"github.com/ahrenberg/split-nlogo-experiment/internal/runtable"
	"github.com/ahrenberg/split-nlogo-experiment/internal/script"
	"github.com/ahrenberg/split-nlogo-experiment/internal/sweep"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SetupFileExt is the extension of generated setup files.
const SetupFileExt = ".xml"

// Script modes.
const (
	ScriptModeArray  = "array"
	ScriptModePerRun = "per-run"
)

// Options configure one invocation. Paths are used as given.
type Options struct {
	// ModelPath is the .nlogo file; it is also the {model} script value.
	ModelPath string

	// Experiments names the experiments to expand.
	Experiments []string

	// All expands every experiment in the model.
	All bool

	// RepetitionsPerRun splits repetitions; zero or less disables it.
	RepetitionsPerRun int

	OutputDir string
	Prefix    string

	// CreateRunTable writes a run table per experiment into OutputDir.
	CreateRunTable bool

	// ScriptTemplate is the template file; empty disables scripts.
	ScriptTemplate string
	ScriptMode     string
	ScriptDir      string
	CSVDir         string

	// LedgerPath enables the SQLite run ledger.
	LedgerPath          string
	LedgerBusyTimeoutMs int

	// ManifestPath enables the invocation manifest.
	ManifestPath string
}

// ExperimentResult describes the output of one expanded experiment.
type ExperimentResult struct {
	Name        string           `json:"name"`
	Repetitions int              `json:"repetitions"`
	Split       sweep.Split      `json:"split"`
	Variables   []sweep.Variable `json:"variables,omitempty"`
	Runs        int              `json:"runs"`
	SetupFiles  []string         `json:"setup_files"`
	RunTable    string           `json:"run_table,omitempty"`
	Scripts     []string         `json:"scripts,omitempty"`
	Warnings    []Warning        `json:"warnings,omitempty"`
}

// Result describes a completed invocation.
type Result struct {
	BatchID     string             `json:"batch_id"`
	Model       string             `json:"model"`
	Experiments []ExperimentResult `json:"experiments"`
	Unmatched   []string           `json:"unmatched,omitempty"`
	Warnings    []Warning          `json:"warnings,omitempty"`
	Manifest    string             `json:"manifest,omitempty"`
	Ledger      string             `json:"ledger,omitempty"`
}

// Splitter executes invocations.
type Splitter struct {
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a Splitter.
func New(opts Options) *Splitter {
	if opts.ScriptMode == "" {
		opts.ScriptMode = ScriptModeArray
	}
	if opts.CSVDir == "" {
		opts.CSVDir = opts.OutputDir
	}
	if opts.ScriptDir == "" {
		opts.ScriptDir = opts.OutputDir
	}
	return &Splitter{
		opts:   opts,
		logger: logging.Component("splitter"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run performs the invocation. Any returned error is fatal; files written
// before it stay on disk. Warnings are logged as they occur and collected
// on the result.
func (s *Splitter) Run(ctx context.Context) (*Result, error) {
	opts := s.opts
	if opts.ScriptMode != ScriptModeArray && opts.ScriptMode != ScriptModePerRun {
		return nil, fmt.Errorf("invalid script mode %q", opts.ScriptMode)
	}
	if s.scriptsShadowSetupFiles() {
		return nil, fmt.Errorf("invalid script template %s: per-run scripts named *%s in %s would overwrite the setup files; use another script directory or extension",
			opts.ScriptTemplate, SetupFileExt, opts.ScriptDir)
	}

	text, err := os.ReadFile(opts.ModelPath)
	if err != nil {
		return nil, &IOError{Op: "read model", Path: opts.ModelPath, Err: err}
	}

	res := &Result{
		BatchID: uuid.New().String(),
		Model:   opts.ModelPath,
	}

	var tmpl *script.Template
	if opts.ScriptTemplate != "" {
		data, err := os.ReadFile(opts.ScriptTemplate)
		if err != nil {
			return nil, &IOError{Op: "read script template", Path: opts.ScriptTemplate, Err: err}
		}
		tmpl = script.Parse(string(data))
		for _, key := range tmpl.Unknown(s.scriptKeys()) {
			s.warn(res, nil, Warning{
				Kind:    WarnUnknownTemplateKey,
				Key:     key,
				Message: fmt.Sprintf("unsupported key '{%s}' in script template, left unchanged", key),
			})
		}
	}

	experiments, err := experiment.Extract(string(text))
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", opts.ModelPath, err)
	}
	chosen, unmatched := expand.Select(experiments, opts.Experiments, opts.All)

	var db *ledger.DB
	if opts.LedgerPath != "" {
		db, err = s.openLedger(ctx, res)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		res.Ledger = opts.LedgerPath
	}

	for _, exp := range chosen {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		er, runs, err := s.expandExperiment(res, exp, tmpl)
		if err != nil {
			return nil, err
		}
		if db != nil {
			if err := db.AddRuns(ctx, runs); err != nil {
				return nil, fmt.Errorf("ledger %s: %w", opts.LedgerPath, err)
			}
		}
		res.Experiments = append(res.Experiments, *er)
	}

	res.Unmatched = unmatched
	for _, name := range unmatched {
		s.warn(res, nil, Warning{
			Kind:       WarnUnknownExperiment,
			Experiment: name,
			Message:    fmt.Sprintf("experiment named '%s' not found in model file '%s'", name, opts.ModelPath),
		})
	}

	if opts.ManifestPath != "" {
		if err := manifest.Write(opts.ManifestPath, s.buildManifest(res)); err != nil {
			return nil, &IOError{Op: "write manifest", Path: opts.ManifestPath, Err: err}
		}
		res.Manifest = opts.ManifestPath
	}

	return res, nil
}

// scriptsShadowSetupFiles reports whether per-run scripts would get the same
// paths as the setup files of their runs.
func (s *Splitter) scriptsShadowSetupFiles() bool {
	opts := s.opts
	return opts.ScriptTemplate != "" &&
		opts.ScriptMode == ScriptModePerRun &&
		strings.EqualFold(filepath.Ext(opts.ScriptTemplate), SetupFileExt) &&
		filepath.Clean(opts.ScriptDir) == filepath.Clean(opts.OutputDir)
}

func (s *Splitter) openLedger(ctx context.Context, res *Result) (*ledger.DB, error) {
	cfg := ledger.DefaultConfig()
	cfg.Path = s.opts.LedgerPath
	if s.opts.LedgerBusyTimeoutMs > 0 {
		cfg.BusyTimeoutMs = s.opts.LedgerBusyTimeoutMs
	}

	db, err := ledger.Open(cfg)
	if err != nil {
		return nil, &IOError{Op: "open ledger", Path: cfg.Path, Err: err}
	}
	if _, err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger %s: %w", cfg.Path, err)
	}
	if err := db.CreateBatch(ctx, &ledger.Batch{ID: res.BatchID, ModelPath: s.opts.ModelPath, CreatedAt: s.now()}); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger %s: %w", cfg.Path, err)
	}
	return db, nil
}

func (s *Splitter) expandExperiment(res *Result, exp *experiment.Node, tmpl *script.Template) (*ExperimentResult, []ledger.Run, error) {
	opts := s.opts

	prepared, err := experiment.Prepare(exp)
	if err != nil {
		return nil, nil, err
	}

	er := &ExperimentResult{
		Name:        prepared.Name,
		Repetitions: prepared.Repetitions,
		Variables:   prepared.Variables,
	}

	split, mismatch := sweep.SplitRepetitions(prepared.Repetitions, opts.RepetitionsPerRun)
	er.Split = split
	if mismatch != nil {
		s.warn(res, er, Warning{
			Kind:       WarnRepetitionMismatch,
			Experiment: prepared.Name,
			Message:    fmt.Sprintf("experiment '%s': %s", prepared.Name, mismatch.Error()),
		})
	}

	expander := expand.New(prepared, split)
	total := expander.Total()
	er.Runs = total

	log := s.logger.With().Str("experiment", prepared.Name).Logger()
	log.Info().
		Int("variables", len(prepared.Variables)).
		Int("runs", total).
		Int("reps_per_run", split.RepsPerRun).
		Msg("expanding experiment")

	table := runtable.New()
	var entries []ledger.Run

	for run := range expander.Runs() {
		name := naming.FileName(run.Name, run.Index, run.Total, opts.Prefix, SetupFileExt)
		path := filepath.Join(opts.OutputDir, name)
		if err := writeSetupFile(path, run.Experiment); err != nil {
			return nil, nil, err
		}
		er.SetupFiles = append(er.SetupFiles, path)

		if err := table.Add(run.Record); err != nil {
			return nil, nil, err
		}

		var scriptPath string
		if tmpl != nil && opts.ScriptMode == ScriptModePerRun {
			ext := filepath.Ext(opts.ScriptTemplate)
			scriptPath = filepath.Join(opts.ScriptDir, naming.FileName(run.Name, run.Index, run.Total, opts.Prefix, ext))
			if err := writeScript(scriptPath, tmpl, s.perRunValues(run, total, path)); err != nil {
				return nil, nil, err
			}
			er.Scripts = append(er.Scripts, scriptPath)
		}

		entries = append(entries, ledger.Run{
			BatchID:     res.BatchID,
			Experiment:  run.Name,
			Index:       run.Index,
			Total:       run.Total,
			Repetitions: split.RepsPerRun,
			SetupFile:   path,
			ScriptFile:  scriptPath,
			Params:      run.Record.Values,
		})
		log.Debug().Int("index", run.Index).Str("file", path).Msg("wrote setup file")
	}

	if opts.CreateRunTable {
		path := filepath.Join(opts.OutputDir, naming.RunTableName(prepared.Name, opts.Prefix))
		if err := writeRunTable(path, table); err != nil {
			return nil, nil, err
		}
		er.RunTable = path
	}

	if tmpl != nil && opts.ScriptMode == ScriptModeArray {
		path := filepath.Join(opts.ScriptDir, naming.ScriptName(prepared.Name, opts.Prefix, filepath.Ext(opts.ScriptTemplate)))
		if err := writeScript(path, tmpl, s.arrayValues(prepared.Name, total)); err != nil {
			return nil, nil, err
		}
		er.Scripts = append(er.Scripts, path)
	}

	return er, entries, nil
}

func (s *Splitter) warn(res *Result, er *ExperimentResult, w Warning) {
	event := s.logger.Warn().Str("kind", string(w.Kind))
	if w.Experiment != "" {
		event = event.Str("experiment", w.Experiment)
	}
	if w.Key != "" {
		event = event.Str("key", w.Key)
	}
	event.Msg(w.Message)

	res.Warnings = append(res.Warnings, w)
	if er != nil {
		er.Warnings = append(er.Warnings, w)
	}
}

// scriptKeys lists the keys the configured mode supplies, with placeholder
// values, for detecting unsupported template keys up front.
func (s *Splitter) scriptKeys() map[string]string {
	keys := s.arrayValues("", 0)
	if s.opts.ScriptMode == ScriptModePerRun {
		keys[script.KeyCombination] = ""
		keys[script.KeyCSVFile] = ""
		keys[script.KeySetupFile] = ""
	}
	return keys
}

func (s *Splitter) arrayValues(experimentName string, total int) map[string]string {
	return map[string]string{
		script.KeyExperiment: experimentName,
		script.KeyModel:      s.opts.ModelPath,
		script.KeyModelName:  modelName(s.opts.ModelPath),
		script.KeyNumExps:    strconv.Itoa(total),
		script.KeyCSVPath:    s.opts.CSVDir,
		script.KeyJobName:    s.opts.Prefix + naming.Sanitize(experimentName),
	}
}

func (s *Splitter) perRunValues(run expand.Run, total int, setupFile string) map[string]string {
	values := s.arrayValues(run.Name, total)
	job := naming.JobName(run.Name, run.Index, run.Total, s.opts.Prefix)
	values[script.KeyCombination] = strconv.Itoa(run.Index)
	values[script.KeyJobName] = job
	values[script.KeyCSVFile] = filepath.Join(s.opts.CSVDir, job+".csv")
	values[script.KeySetupFile] = setupFile
	return values
}

func (s *Splitter) buildManifest(res *Result) *manifest.Manifest {
	m := &manifest.Manifest{
		BatchID:   res.BatchID,
		Model:     res.Model,
		CreatedAt: s.now(),
		Unmatched: res.Unmatched,
	}
	for _, er := range res.Experiments {
		me := manifest.Experiment{
			Name:        er.Name,
			Repetitions: er.Repetitions,
			Split:       er.Split,
			Variables:   er.Variables,
			Runs:        er.Runs,
			SetupFiles:  er.SetupFiles,
			RunTable:    er.RunTable,
			Scripts:     er.Scripts,
		}
		for _, w := range er.Warnings {
			me.Warnings = append(me.Warnings, w.Message)
		}
		m.Experiments = append(m.Experiments, me)
	}
	return m
}

// modelName is the model file name up to its first dot.
func modelName(path string) string {
	base := filepath.Base(path)
	name, _, _ := strings.Cut(base, ".")
	return name
}
