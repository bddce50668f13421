package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/ftsfr/wrds-crsp-compustat/internal/audit"
	"github.com/ftsfr/wrds-crsp-compustat/internal/brain"
	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/internal/methodology"
	"github.com/ftsfr/wrds-crsp-compustat/internal/storage/filestore"
	"github.com/ftsfr/wrds-crsp-compustat/internal/storage/pgstore"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/config"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/database"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/logger"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/metrics"
)

const (
	storeFile     = "file"
	storePostgres = "postgres"
)

// appEnv is the shared setup of every command
type appEnv struct {
	cfg    *config.Config
	log    *logger.Logger
	method *methodology.Config
}

// loadEnv loads config, applies flag overrides and the methodology
func loadEnv() (*appEnv, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := applyFlags(cfg); err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Methodology
	method, err := methodology.LoadOrDefault(cfg.Data.MethodologyPath)
	if err != nil {
		return nil, fmt.Errorf("load methodology: %w", err)
	}

	return &appEnv{cfg: cfg, log: log, method: method}, nil
}

// applyFlags overrides env config with the global flags
func applyFlags(cfg *config.Config) error {
	if dataDir != "" {
		cfg.Data.Dir = dataDir
	}
	if outputDir != "" {
		cfg.Data.OutputDir = outputDir
	}
	if dataFormat != "" {
		cfg.Data.Format = strings.ToLower(dataFormat)
	}
	if methodologyPath != "" {
		cfg.Data.MethodologyPath = methodologyPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	switch storeKind {
	case storeFile:
	case storePostgres:
		if !cfg.Database.Enabled() {
			return fmt.Errorf("--store postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown store %q (expected file or postgres)", storeKind)
	}
	return nil
}

// stores holds the file store and, with --store postgres, the pg store
// ⭐ 입력/결과는 선택된 store, 워크북은 항상 파일
type stores struct {
	files *filestore.Store
	pg    *pgstore.Store
	db    *database.DB
}

func openStores(ctx context.Context, env *appEnv) (*stores, error) {
	files, err := filestore.New(env.cfg.Data.Dir, env.cfg.Data.OutputDir, filestore.Format(env.cfg.Data.Format), env.log)
	if err != nil {
		return nil, fmt.Errorf("open file store: %w", err)
	}
	st := &stores{files: files}

	if storeKind == storePostgres {
		db, err := openDB(ctx, env)
		if err != nil {
			return nil, err
		}
		st.db = db
		st.pg = pgstore.New(db, env.log)
	}
	return st, nil
}

func openDB(ctx context.Context, env *appEnv) (*database.DB, error) {
	if !env.cfg.Database.Enabled() {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := database.New(ctx, env.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	env.log.Info("Connected to database")
	return db, nil
}

func (s *stores) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *stores) Source() contracts.Source {
	if s.pg != nil {
		return s.pg
	}
	return s.files
}

func (s *stores) Sink() contracts.Sink {
	if s.pg != nil {
		return s.pg
	}
	return s.files
}

func (s *stores) Reader() contracts.ResultReader {
	if s.pg != nil {
		return s.pg
	}
	return s.files
}

func (s *stores) ReferenceSource() contracts.ReferenceSource {
	if s.pg != nil {
		return s.pg
	}
	return s.files
}

func (s *stores) ReferenceSink() contracts.ReferenceSink {
	if s.pg != nil {
		return s.pg
	}
	return s.files
}

// LatestSnapshot reads the last run snapshot from the selected store
func (s *stores) LatestSnapshot(ctx context.Context) (*contracts.PipelineSnapshot, error) {
	if s.pg != nil {
		return s.pg.LatestSnapshot(ctx)
	}
	return s.files.LatestSnapshot(ctx)
}

// newComparer builds the S8 comparer from config
func newComparer(env *appEnv) (*audit.Comparer, contracts.Month) {
	return audit.NewComparer(env.cfg.Reference.MinCorrelation, env.log), contracts.MonthOf(env.cfg.Reference.Start)
}

// newOrchestrator wires the orchestrator to the selected stores
func newOrchestrator(env *appEnv, st *stores, m *metrics.Metrics, withReference bool) (*brain.Orchestrator, error) {
	opts := []brain.Option{brain.WithMetrics(m)}
	if withReference {
		comparer, from := newComparer(env)
		opts = append(opts, brain.WithReference(st.ReferenceSource(), comparer, from))
	}
	return brain.NewOrchestrator(st.Source(), st.Sink(), env.method, env.log, opts...)
}
