package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/skillrecordings/support-sub010/internal/config"
	"github.com/skillrecordings/support-sub010/internal/engine"
	"github.com/skillrecordings/support-sub010/internal/events"
	"github.com/skillrecordings/support-sub010/internal/metrics"
	"github.com/skillrecordings/support-sub010/internal/service"
	"github.com/skillrecordings/support-sub010/internal/storage"
	"github.com/skillrecordings/support-sub010/internal/storage/postgres"
	"github.com/spf13/viper"
)

// runtime is everything a command needs to run the engine.
type runtime struct {
	engine    *engine.Engine
	db        *storage.SQLiteStorage
	trust     service.TrustStore
	publisher service.EventPublisher
	registry  *prometheus.Registry
	closers   []func() error
}

// Close releases every resource the runtime opened.
func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runtimeOptions selects the optional parts of the runtime.
type runtimeOptions struct {
	fallback  bool
	publisher bool
}

// initStorage opens the SQLite database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, config.StorageConfig, error) {
	cfg, err := config.LoadStorageConfig(viper.GetViper())
	if err != nil {
		return nil, config.StorageConfig{}, err
	}

	db, err := storage.NewSQLiteStorage(cfg.Path)
	if err != nil {
		return nil, config.StorageConfig{}, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, config.StorageConfig{}, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, cfg, nil
}

// initTrustStore returns the configured trust store. SQLite trust rows live in
// db itself.
func initTrustStore(ctx context.Context, cfg config.StorageConfig, db *storage.SQLiteStorage) (service.TrustStore, func() error, error) {
	if cfg.Driver != config.DriverPostgres {
		return db, func() error { return nil }, nil
	}

	store, err := postgres.NewTrustStoreFromConnString(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to migrate postgres trust store: %w", err)
	}
	return store, store.Close, nil
}

// buildRuntime wires storage, the fallback classifier, the event publisher and
// metrics into an engine.
func buildRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	logger := slog.Default()
	v := viper.GetViper()

	engineCfg, err := config.LoadEngineConfig(v)
	if err != nil {
		return nil, err
	}
	apps, err := config.LoadApps(v)
	if err != nil {
		return nil, err
	}

	db, storageCfg, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}
	rt := &runtime{db: db, closers: []func() error{db.Close}}

	trustStore, closeTrust, err := initTrustStore(ctx, storageCfg, db)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.trust = trustStore
	rt.closers = append(rt.closers, closeTrust)

	rt.registry = prometheus.NewRegistry()
	rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithAppSource(config.NewAppRegistry(apps, db)),
		engine.WithCorrectionSink(db),
		engine.WithMetrics(metrics.New(rt.registry)),
	}

	if opts.fallback {
		fallback, err := createFallback(logger)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		if fallback != nil {
			rt.closers = append(rt.closers, fallback.Close)
			engineOpts = append(engineOpts, engine.WithFallback(fallback))
		}
	}

	if opts.publisher {
		publisher, err := events.New(config.LoadEventsConfig(v), logger)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.publisher = publisher
		rt.closers = append(rt.closers, publisher.Close)
		engineOpts = append(engineOpts, engine.WithPublisher(publisher))
	}

	rt.engine, err = engine.New(trustStore, engineCfg, engineOpts...)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	return rt, nil
}
