package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/dataset"
	"github.com/askdb/askdb/internal/demo"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/storage"
	"github.com/askdb/askdb/internal/store"
)

func main() {
	source := flag.String("source", "", "local path or s3://bucket/key of a CSV or Parquet file")
	table := flag.String("table", "", "destination table name")
	format := flag.String("format", "", "csv or parquet; detected from the extension when empty")
	demoRows := flag.Int("demo", 0, "load this many generated people rows instead of -source")
	seed := flag.Int64("seed", 1, "random seed for -demo")
	flag.Parse()

	cfg, err := config.LoadFromEnv("askdb-load")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	if *demoRows > 0 {
		path, cleanup, err := writeDemoDataset(*seed, *demoRows)
		if err != nil {
			logger.Error("failed to generate demo dataset", slog.Any("error", err))
			os.Exit(1)
		}
		defer cleanup()
		*source = path
		*format = string(dataset.FormatCSV)
		if *table == "" {
			*table = "people"
		}
	}
	if *source == "" || *table == "" {
		_, _ = fmt.Fprintln(os.Stderr, "usage: askdb-load (-source <path|s3://bucket/key> | -demo <rows>) -table <name> [-format csv|parquet]")
		os.Exit(2)
	}
	var parsedFormat dataset.Format
	if *format != "" {
		parsedFormat, err = dataset.ParseFormat(*format)
		if err != nil {
			logger.Error("invalid format", slog.Any("error", err))
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.Error("failed to open data store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = engine.Close() }()

	loader := &dataset.Loader{Target: engine, Logger: logger}
	if storage.IsObjectURL(*source) {
		objects, err := store.OpenObjectStore(cfg.ObjectStore)
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		loader.Objects = objects
	}

	summary, err := loader.Load(ctx, dataset.Request{Source: *source, Table: *table, Format: parsedFormat})
	if err != nil {
		logger.Error("load failed", slog.Any("error", err))
		os.Exit(1)
	}
	_, _ = fmt.Fprintf(os.Stdout, "loaded %s into table %q (%d bytes)\n", *source, summary.Table, summary.Bytes)
}

func writeDemoDataset(seed int64, rows int) (string, func(), error) {
	file, err := os.CreateTemp("", "askdb-demo-*.csv")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(file.Name()) }
	if err := demo.WritePeopleCSV(file, seed, rows); err != nil {
		_ = file.Close()
		cleanup()
		return "", nil, err
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return file.Name(), cleanup, nil
}
