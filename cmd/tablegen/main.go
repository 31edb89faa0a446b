// Command tablegen generates single-table DynamoDB data-access code from a
// declarative schema: entity definitions, repository classes, and usage
// examples, per target language.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/tuanknguyen/tablegen/compiler/gen"
	"github.com/tuanknguyen/tablegen/compiler/gen/golang"
	"github.com/tuanknguyen/tablegen/compiler/gen/python"
	"github.com/tuanknguyen/tablegen/compiler/gen/typescript"
	"github.com/tuanknguyen/tablegen/compiler/load"
	"github.com/tuanknguyen/tablegen/compiler/validate"
	"github.com/tuanknguyen/tablegen/introspect"
)

type options struct {
	schemaPath string
	lang       string
	outDir     string
	engine     string
	examples   bool
	checkOnly  bool
	watch      bool

	introspectDialect string
	dsn               string
	tableName         string

	verbose bool
}

func main() {
	var opts options
	flag.StringVar(&opts.schemaPath, "schema", "schema.yaml", "schema file (YAML or JSON)")
	flag.StringVar(&opts.lang, "lang", "python", "target language backend")
	flag.StringVar(&opts.outDir, "out", "gen", "output directory")
	flag.StringVar(&opts.engine, "engine", "standard", "generation engine variant")
	flag.BoolVar(&opts.examples, "examples", true, "generate the usage-example file")
	flag.BoolVar(&opts.checkOnly, "check", false, "validate the schema and exit")
	flag.BoolVar(&opts.watch, "watch", false, "re-run generation when the schema file changes")
	flag.StringVar(&opts.introspectDialect, "introspect", "", "scaffold a schema draft from a relational database (mysql or postgres)")
	flag.StringVar(&opts.dsn, "dsn", "", "database DSN for -introspect")
	flag.StringVar(&opts.tableName, "table", "app", "target table name for -introspect")
	flag.BoolVar(&opts.verbose, "v", false, "debug logging")
	flag.Parse()

	logger := newLogger(opts.verbose)
	if err := run(opts, logger); err != nil {
		logger.Error().Err(err).Msg("tablegen failed")
		os.Exit(1)
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

func run(opts options, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.introspectDialect != "" {
		return runIntrospect(ctx, opts, logger)
	}
	if opts.checkOnly {
		return runCheck(opts, logger)
	}
	if err := runGenerate(opts, logger); err != nil {
		return err
	}
	if opts.watch {
		return runWatch(ctx, opts, logger)
	}
	return nil
}

// runIntrospect prints a schema draft scaffolded from a relational database
// to stdout.
func runIntrospect(ctx context.Context, opts options, logger zerolog.Logger) error {
	if opts.dsn == "" {
		return errors.New("-introspect requires -dsn")
	}
	db, err := introspect.Open(ctx, opts.introspectDialect, opts.dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	in, err := introspect.DefaultRegistry().New(opts.introspectDialect, db)
	if err != nil {
		return err
	}
	draft, err := introspect.Scaffold(ctx, in, opts.tableName)
	if err != nil {
		return err
	}
	logger.Info().Str("dialect", in.Dialect()).
		Int("entities", len(draft.Tables[0].Entities)).
		Msg("scaffolded schema draft")
	return yaml.NewEncoder(os.Stdout).Encode(draft)
}

// runCheck validates the schema and reports every finding.
func runCheck(opts options, logger zerolog.Logger) error {
	result, err := validateFile(opts.schemaPath)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		logger.Warn().Str("path", w.Path).Msg(w.Message)
	}
	for _, e := range result.Errors {
		logger.Error().Str("path", e.Path).Msg(e.Message)
	}
	if !result.Valid() {
		return fmt.Errorf("schema has %d error(s)", len(result.Errors))
	}
	logger.Info().
		Int("entities", len(result.Inventory.Entities)).
		Int("warnings", len(result.Warnings)).
		Msg("schema is valid")
	return nil
}

func validateFile(path string) (*validate.Result, error) {
	raw, err := load.Load(path)
	if err != nil {
		return nil, err
	}
	return validate.Validate(raw), nil
}

// runGenerate is the main pipeline: load, validate, assemble, generate.
func runGenerate(opts options, logger zerolog.Logger) error {
	raw, err := load.Load(opts.schemaPath)
	if err != nil {
		return err
	}
	result := validate.Validate(raw)
	for _, w := range result.Warnings {
		logger.Warn().Str("path", w.Path).Msg(w.Message)
	}
	if !result.Valid() {
		for _, e := range result.Errors {
			logger.Error().Str("path", e.Path).Msg(e.Message)
		}
		return fmt.Errorf("schema has %d error(s)", len(result.Errors))
	}
	s, err := load.Decode(raw)
	if err != nil {
		return err
	}

	backend, err := gen.LoadBackend(gen.DefaultBackendRoot(), opts.lang)
	if err != nil {
		return err
	}
	pluginOpts, err := pluginOptions(opts.lang)
	if err != nil {
		return err
	}
	cfg, err := gen.NewConfig(append(pluginOpts,
		gen.WithSchema(s),
		gen.WithBackend(backend),
		gen.WithLogger(logger),
	)...)
	if err != nil {
		return err
	}
	engine, err := gen.DefaultRegistry().New(opts.engine, cfg)
	if err != nil {
		return err
	}
	report, err := engine.GenerateAll(opts.outDir, opts.examples)
	if err != nil {
		return err
	}
	logger.Info().
		Str("language", report.Language).
		Str("out", report.OutDir).
		Int("entities", report.Entities).
		Int("repositories", report.Repositories).
		Int("example_steps", report.ExampleSteps).
		Int("skipped_patterns", report.SkippedPatterns).
		Str("fingerprint", report.Fingerprint[:12]).
		Msg("generated")
	return nil
}

// pluginOptions maps a language identifier to its built-in plugin set.
// Backend configs and plugins pair one-to-one.
func pluginOptions(lang string) ([]gen.Option, error) {
	switch lang {
	case "python":
		return python.Options(), nil
	case "typescript":
		return typescript.Options(), nil
	case "go":
		return golang.Options(), nil
	default:
		available, err := gen.Backends(gen.DefaultBackendRoot())
		if err != nil {
			return nil, err
		}
		return nil, gen.NewConfigError("Language", lang, "no plugin for language", available...)
	}
}

// runWatch re-runs generation whenever the schema file changes. Editors
// often replace files on save, so the watch is on the directory and
// filtered by name.
func runWatch(ctx context.Context, opts options, logger zerolog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(opts.schemaPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(opts.schemaPath)
	logger.Info().Str("schema", target).Msg("watching for changes")

	// Absorb bursts of events from editors that write in several steps.
	var debounce *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watcher.Errors:
			logger.Warn().Err(err).Msg("watch error")
		case <-pending:
			if err := runGenerate(opts, logger); err != nil {
				// Keep watching: a broken intermediate save is expected.
				logger.Error().Err(err).Msg("generation failed")
			}
		case ev := <-watcher.Events:
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		}
	}
}
