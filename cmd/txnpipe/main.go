package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"txnpipe/internal/config"
	"txnpipe/internal/datasource"
	"txnpipe/internal/datasource/file"
	"txnpipe/internal/datasource/httpds"
	"txnpipe/internal/metrics"
	"txnpipe/internal/metrics/datadog"
	"txnpipe/internal/metrics/prompush"
	csvparser "txnpipe/internal/parser/csv"
	"txnpipe/internal/pipeline"
	"txnpipe/internal/storage"

	// register all archive backends with the storage factory.
	// config selects which to use but support for all is built in.
	_ "txnpipe/internal/storage/all"
)

// main is the entry point for the batch binary. It loads the run config,
// optionally initializes a metrics backend, reads one batch, runs the
// pipeline and writes the result files.
func main() {
	var (
		cfgPath           string
		inputPath         string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validateOnly      bool
	)

	flag.StringVar(&cfgPath, "config", "configs/sample.json", "run config JSON path")
	flag.StringVar(&inputPath, "input", "", "input CSV path (overrides source.file.path)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, datadog, none); overrides config")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides config and env PUSHGATEWAY_URL)")
	flag.BoolVar(&validateOnly, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	if inputPath != "" {
		cfg.Source.Kind = "file"
		cfg.Source.File.Path = inputPath
	}

	issues := config.Validate(cfg)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validateOnly {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	setupMetrics(cfg, metricsBackendFlg, pushGatewayURLFlg, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		log.Printf("run: job=%s source=%s parser=%s archive=%s",
			cfg.Job, cfg.Source.Kind, cfg.Parser.Kind, cfg.Archive.Kind)
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// run reads one batch, processes it and persists the output.
func run(ctx context.Context, cfg config.Config) error {
	src, err := newSource(cfg.Source)
	if err != nil {
		return err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer rc.Close()

	p := csvparser.NewParser(csvparser.Options{
		HasHeader:      cfg.Parser.Options.Bool("has_header", true),
		Comma:          cfg.Parser.Options.Rune("comma", ','),
		TrimSpace:      cfg.Parser.Options.Bool("trim_space", true),
		ExpectedFields: cfg.Parser.Options.Int("expected_fields", 0),
		HeaderMap:      cfg.Parser.Options.StringMap("header_map"),
	})
	table, skipped, err := p.Parse(rc)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if skipped > 0 {
		log.Printf("parse: skipped %d malformed rows", skipped)
		metrics.RecordRows(cfg.Job, "parse_skipped", int64(skipped))
	}

	res, err := pipeline.Run(ctx, table, pipeline.Options{
		Job:     cfg.Job,
		Workers: cfg.Runtime.ValidateWorkers,
	})
	if err != nil {
		return err
	}

	if err := writeOutputs(cfg.Output.Dir, res); err != nil {
		return err
	}

	if cfg.Archive.Kind != "" {
		if err := archive(ctx, cfg, res); err != nil {
			return err
		}
	}
	return nil
}

func newSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "file":
		return file.NewLocal(s.File.Path), nil
	case "http":
		return httpds.NewRemote(httpds.Config{
			URL:                s.HTTP.URL,
			Timeout:            time.Duration(s.HTTP.TimeoutSeconds) * time.Second,
			MaxRetries:         s.HTTP.MaxRetries,
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
		}), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", s.Kind)
	}
}

func archive(ctx context.Context, cfg config.Config, res *pipeline.Result) error {
	start := time.Now()
	repo, err := storage.New(ctx, storage.Config{
		Kind:        cfg.Archive.Kind,
		DSN:         cfg.Archive.DB.DSN,
		TablePrefix: cfg.Archive.DB.TablePrefix,
	})
	if err != nil {
		metrics.RecordPhase(cfg.Job, "archive", err, time.Since(start))
		return err
	}
	defer repo.Close()

	if err := repo.Init(ctx); err != nil {
		metrics.RecordPhase(cfg.Job, "archive", err, time.Since(start))
		return err
	}
	err = storage.ArchiveRun(ctx, repo, cfg.Archive.DB.TablePrefix, cfg.Job, res.Valid, res.Invalid, res.Stats)
	metrics.RecordPhase(cfg.Job, "archive", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordRows(cfg.Job, "archived", int64(res.Valid.Len()+res.Invalid.Len()))
	log.Printf("run %s: archived to %s", res.RunID, cfg.Archive.Kind)
	return nil
}

// setupMetrics decides the backend: flag, then config, then env.
func setupMetrics(cfg config.Config, backendFlg, gwURLFlg string, verbose bool) {
	backendName := backendFlg
	if backendName == "" {
		backendName = cfg.Metrics.Backend
	}
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}

	job := cfg.Job
	if job == "" {
		job = "txnpipe"
	}

	switch backendName {
	case "pushgateway":
		gwURL := gwURLFlg
		if gwURL == "" {
			gwURL = cfg.Metrics.PushgatewayURL
		}
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		log.Printf("metrics: backend=%v url=%v job=%v", backendName, gwURL, job)
		metrics.SetBackend(prompush.New(gwURL, job))

	case "datadog":
		addr := cfg.Metrics.DogstatsdAddr
		if addr == "" {
			addr = os.Getenv("DOGSTATSD_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.New(addr)
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=%v addr=%v job=%v", backendName, addr, job)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
