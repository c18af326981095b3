// Package store opens the configured query engine.
package store

import (
	"context"
	"fmt"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/dataset"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/query/duckdb"
	"github.com/askdb/askdb/internal/query/postgres"
	"github.com/askdb/askdb/internal/query/sqlite"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/storage"
	"github.com/askdb/askdb/internal/storage/s3"
)

// Engine is everything the service needs from a data store.
type Engine interface {
	schema.Provider
	query.Executor
	dataset.Target
	HealthCheck(ctx context.Context) error
	Close() error
}

var (
	_ Engine = (*duckdb.Engine)(nil)
	_ Engine = (*sqlite.Engine)(nil)
	_ Engine = (*postgres.Engine)(nil)
)

func Open(ctx context.Context, cfg config.StoreConfig) (Engine, error) {
	var (
		engine Engine
		err    error
	)
	switch cfg.Driver {
	case config.DriverDuckDB, "":
		engine, err = openDuckDB(ctx, cfg.DSN)
	case config.DriverSQLite:
		engine, err = openSQLite(ctx, cfg.DSN)
	case config.DriverPostgres:
		engine, err = openPostgres(ctx, postgres.DBConfig{
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		}, cfg.PGSchema)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	return engine, nil
}

func openDuckDB(ctx context.Context, path string) (Engine, error) {
	engine, err := duckdb.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

func openSQLite(ctx context.Context, dsn string) (Engine, error) {
	engine, err := sqlite.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

func openPostgres(ctx context.Context, cfg postgres.DBConfig, schemaName string) (Engine, error) {
	engine, err := postgres.Open(ctx, cfg, schemaName)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// OpenObjectStore returns nil when no object store endpoint is configured.
func OpenObjectStore(cfg config.ObjectStoreConfig) (storage.ObjectStore, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}
	objects, err := s3.New(s3.Config{
		Endpoint:        cfg.Endpoint,
		Region:          cfg.Region,
		Bucket:          cfg.Bucket,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		UseSSL:          cfg.UseSSL,
		Prefix:          cfg.Prefix,
	})
	if err != nil {
		return nil, err
	}
	return objects, nil
}
