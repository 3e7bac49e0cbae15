package main

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/strata-db/strata/db"
	"github.com/strata-db/strata/dialect"
	"github.com/strata-db/strata/internal/config"
	"github.com/strata-db/strata/migrate"
)

// env bundles everything a command needs: configuration, a live connection,
// and a wired migration engine. Close releases the connection and flushes
// the logger.
type env struct {
	cfg    *config.Config
	d      dialect.Dialect
	conn   *sql.DB
	engine *migrate.Engine
	log    *zap.Logger
}

func (e *env) Close() {
	if e.conn != nil {
		e.conn.Close()
	}
	if e.log != nil {
		e.log.Sync()
	}
}

// setup loads configuration and wires the engine. Commands that only touch
// the filesystem pass needDB false and get no connection.
func setup(ctx context.Context, needDB bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var d dialect.Dialect
	if cfg.Dialect != "" {
		d, err = dialect.ForName(cfg.Dialect)
	} else {
		d, err = dialect.Infer(cfg.DatabaseURL)
	}
	if err != nil {
		return nil, err
	}

	log, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	e := &env{cfg: cfg, d: d, log: log}
	if !needDB {
		// Create only touches the filesystem; the state backend is never
		// consulted, so no connection is opened.
		e.engine = migrate.NewEngine(nil, d, cfg.MigrationsDir,
			migrate.NewJournalState(cfg.JournalPath),
			migrate.WithLogger(log),
			migrate.WithTransactional(cfg.Transactional))
		return e, nil
	}

	if cfg.DatabaseURL == "" {
		log.Sync()
		return nil, fmt.Errorf("no database URL configured; set STRATA_DATABASE_URL or database_url in strata.yaml")
	}
	conn, err := db.Open(ctx, d, cfg.DatabaseURL)
	if err != nil {
		log.Sync()
		return nil, err
	}
	e.conn = conn

	var state migrate.State
	if cfg.State == "journal" {
		state = migrate.NewJournalState(cfg.JournalPath)
	} else {
		state = migrate.NewTableState(conn, d)
	}
	e.engine = migrate.NewEngine(conn, d, cfg.MigrationsDir, state,
		migrate.WithLogger(log),
		migrate.WithTransactional(cfg.Transactional))
	return e, nil
}
