/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command dyndata serves runtime-defined entities over HTTP, backed by
// MongoDB or DynamoDB.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/suparena/dyndata"
	"github.com/suparena/dyndata/api"
	"github.com/suparena/dyndata/config"
	"github.com/suparena/dyndata/datastore"
	"github.com/suparena/dyndata/datastore/ddb"
	"github.com/suparena/dyndata/datastore/mongo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dyndata:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to a YAML configuration file")
	dbURL := flag.String("dburl", "", "database host, overrides configuration")
	dbPort := flag.Int("dbport", 0, "database port, overrides configuration")
	dbName := flag.String("dbname", "", "database name, overrides configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *dbURL != "" {
		cfg.Store.Mongo.URL = *dbURL
	}
	if *dbPort != 0 {
		if *dbPort < 1024 || *dbPort > 65535 {
			return fmt.Errorf("dbport must be between 1024 and 65535, got %d", *dbPort)
		}
		cfg.Store.Mongo.Port = *dbPort
	}
	if *dbName != "" {
		cfg.Store.Mongo.Database = *dbName
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := dyndata.New(store)
	if err := svc.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	logger.Info().Str("backend", cfg.Store.Backend).Msg("store ready")

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      api.New(svc, logger).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (datastore.Store, func(), error) {
	switch cfg.Backend {
	case "mongo":
		store, err := mongo.New(ctx, mongo.Config{
			URL:      cfg.Mongo.URL,
			Port:     cfg.Mongo.Port,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
		}
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = store.Close(closeCtx)
		}, nil
	case "dynamodb":
		store, err := ddb.New(ctx, ddb.Config{
			AccessKey: cfg.DynamoDB.AccessKey,
			SecretKey: cfg.DynamoDB.SecretKey,
			Region:    cfg.DynamoDB.Region,
			Table:     cfg.DynamoDB.Table,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to dynamodb: %w", err)
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func newLogger(cfg config.LoggingConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q", cfg.Level)
	}
	var out = os.Stderr
	logger := zerolog.New(out)
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger(), nil
}
