package main

import (
	"context"
	"fmt"
	"io/fs"

	"sticker-pricer/assets"
	"sticker-pricer/internal/config"
	"sticker-pricer/internal/pricing"
	"sticker-pricer/internal/storage"
	"sticker-pricer/pkg/api"
	"sticker-pricer/pkg/logger"
	"sticker-pricer/pkg/redis"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	_ pricing.Source     = (*api.Client)(nil)
	_ pricing.Source     = (*storage.PostgresStorage)(nil)
	_ pricing.Source     = (*pricing.FileSource)(nil)
	_ pricing.SheetCache = (*redis.Client)(nil)
)

// app holds what every subcommand needs once config is loaded.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "pricer",
		Short:         "Sticker and banner pricing engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			zapLogger, err := logger.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = zapLogger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.AddCommand(
		newServeCmd(a),
		newQuoteCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newMigrateCmd(a),
	)
	return root
}

// loadTables builds the configured source (and optional cache) and loads
// the pricing tables once.
func (a *app) loadTables(ctx context.Context) (*pricing.Tables, error) {
	source, closeSource, err := a.source(ctx)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	var cache pricing.SheetCache
	if a.cfg.Redis.Addr != "" {
		rc := redis.New(a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB, a.cfg.Redis.TTL)
		defer rc.Close()
		cache = rc
	}

	p := a.cfg.Pricing
	loader := pricing.NewLoader(source, cache, pricing.LoaderConfig{
		BaseSheet:     p.BaseSheet,
		DiscountSheet: p.DiscountSheet,
		Retry: pricing.RetryPolicy{
			Attempts:        p.RetryAttempts,
			InitialInterval: p.RetryInitial,
			MaxInterval:     p.RetryMax,
			AttemptTimeout:  p.FetchTimeout,
		},
	}, a.logger)

	return loader.Load(ctx)
}

func (a *app) source(ctx context.Context) (pricing.Source, func(), error) {
	noop := func() {}

	switch a.cfg.Pricing.Source {
	case config.SourceEmbedded:
		sub, err := fs.Sub(assets.Pricing, "pricing")
		if err != nil {
			return nil, noop, fmt.Errorf("embedded sheets: %w", err)
		}
		return pricing.NewFSSource(sub), noop, nil
	case config.SourceFile:
		return pricing.NewFileSource(a.cfg.Pricing.Dir), noop, nil
	case config.SourceHTTP:
		return api.NewClient(a.cfg.Pricing.BaseURL, a.cfg.Pricing.APIKey, a.cfg.Pricing.FetchTimeout, a.logger), noop, nil
	case config.SourcePostgres:
		pg, err := storage.NewPostgresStorage(ctx, a.cfg.Database, a.logger)
		if err != nil {
			return nil, noop, err
		}
		return pg, func() { _ = pg.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown pricing source %q", a.cfg.Pricing.Source)
}

func (a *app) catalog() (*pricing.Catalog, error) {
	return pricing.LoadCatalog(a.cfg.ProductsFile)
}

func (a *app) productLine(name string) (pricing.ProductLine, error) {
	catalog, err := a.catalog()
	if err != nil {
		return pricing.ProductLine{}, err
	}
	line, ok := catalog.Line(name)
	if !ok {
		return pricing.ProductLine{}, fmt.Errorf("unknown product %q", name)
	}
	return line, nil
}
