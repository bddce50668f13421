package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/logger"
)

// Format selects the on-disk encoding
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// SnapshotFile is the run snapshot written next to the outputs
const SnapshotFile = "pipeline_snapshot.json"

// Store reads extracts from dataDir and writes outputs to outputDir
// ⭐ SSOT: 파일 기반 Source/Sink 구현
type Store struct {
	dataDir   string
	outputDir string
	format    Format
	logger    *logger.Logger
}

// New creates a file store, creating the output directory if needed
func New(dataDir, outputDir string, format Format, log *logger.Logger) (*Store, error) {
	switch format {
	case FormatParquet, FormatCSV:
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{
		dataDir:   dataDir,
		outputDir: outputDir,
		format:    format,
		logger:    log,
	}, nil
}

// Path returns the file path of a dataset in dir
func (s *Store) Path(dir, dataset string) string {
	return filepath.Join(dir, dataset+"."+string(s.format))
}

// OutputDir returns the output directory
func (s *Store) OutputDir() string {
	return s.outputDir
}

func read[T any](s *Store, dir, dataset string, required []string) ([]T, error) {
	path := s.Path(dir, dataset)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, contracts.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var (
		rows []T
		err  error
	)
	if s.format == FormatCSV {
		rows, err = readCSV[T](path, dataset, required)
	} else {
		rows, err = readParquet[T](path, dataset, required)
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"dataset": dataset,
		"path":    path,
		"rows":    len(rows),
	}).Debug("dataset loaded")
	return rows, nil
}

func write[T any](s *Store, dir, dataset string, rows []T) error {
	path := s.Path(dir, dataset)

	var err error
	if s.format == FormatCSV {
		err = writeCSV(path, rows)
	} else {
		err = writeParquet(path, rows)
	}
	if err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"dataset": dataset,
		"path":    path,
		"rows":    len(rows),
	}).Info("dataset written")
	return nil
}

// =============================================================================
// contracts.Source
// =============================================================================

// LoadSecurityMonths loads the CRSP monthly extract
func (s *Store) LoadSecurityMonths(ctx context.Context) ([]contracts.SecurityMonthRecord, error) {
	rows, err := read[securityRow](s, s.dataDir, contracts.DatasetSecurityMonths, securityColumns)
	if err != nil {
		return nil, err
	}
	return toSecurityRecords(rows)
}

// LoadFundamentals loads the Compustat annual extract
func (s *Store) LoadFundamentals(ctx context.Context) ([]contracts.FundamentalsRecord, error) {
	rows, err := read[fundamentalsRow](s, s.dataDir, contracts.DatasetFundamentals, fundamentalsColumns)
	if err != nil {
		return nil, err
	}
	return toFundamentalsRecords(rows)
}

// LoadLinks loads the CRSP/Compustat link table
func (s *Store) LoadLinks(ctx context.Context) ([]contracts.LinkRecord, error) {
	rows, err := read[linkRow](s, s.dataDir, contracts.DatasetLinks, linkColumns)
	if err != nil {
		return nil, err
	}
	return toLinkRecords(rows)
}

// WriteInputs writes the three extracts to dataDir (fixtures, pg export)
func (s *Store) WriteInputs(ctx context.Context, inputs *contracts.Inputs) error {
	if err := write(s, s.dataDir, contracts.DatasetSecurityMonths, fromSecurityRecords(inputs.Securities)); err != nil {
		return err
	}
	if err := write(s, s.dataDir, contracts.DatasetFundamentals, fromFundamentalsRecords(inputs.Fundamentals)); err != nil {
		return err
	}
	return write(s, s.dataDir, contracts.DatasetLinks, fromLinkRecords(inputs.Links))
}

// =============================================================================
// contracts.ReferenceSource / ReferenceSink
// =============================================================================

// LoadReference loads the published factors pulled earlier
func (s *Store) LoadReference(ctx context.Context) ([]contracts.ReferenceRecord, error) {
	rows, err := read[referenceRow](s, s.dataDir, contracts.DatasetReference, referenceColumns)
	if err != nil {
		return nil, err
	}
	return toReferenceRecords(rows)
}

// WriteReference stores published factors in dataDir
func (s *Store) WriteReference(ctx context.Context, rows []contracts.ReferenceRecord) error {
	return write(s, s.dataDir, contracts.DatasetReference, fromReferenceRecords(rows))
}

// =============================================================================
// contracts.Sink
// =============================================================================

// WritePortfolios writes the vwret and vwret_n tables
func (s *Store) WritePortfolios(ctx context.Context, rows []contracts.PortfolioReturn) error {
	rets, counts := fromPortfolios(rows)
	if err := write(s, s.outputDir, contracts.DatasetPortfolios, rets); err != nil {
		return err
	}
	return write(s, s.outputDir, contracts.DatasetPortfolioCount, counts)
}

// WriteFactors writes the SMB/HML series
func (s *Store) WriteFactors(ctx context.Context, rows []contracts.FactorRecord) error {
	return write(s, s.outputDir, contracts.DatasetFactors, fromFactors(rows))
}

// WriteFirmCounts writes the factor firm counts
func (s *Store) WriteFirmCounts(ctx context.Context, rows []contracts.FirmCountRecord) error {
	return write(s, s.outputDir, contracts.DatasetFirmCounts, fromFirmCounts(rows))
}

// WritePanel writes a long-format return panel
func (s *Store) WritePanel(ctx context.Context, name string, rows []contracts.PanelRecord) error {
	return write(s, s.outputDir, name, fromPanel(rows))
}

// WriteSnapshot writes the run snapshot as indented JSON
func (s *Store) WriteSnapshot(ctx context.Context, snapshot *contracts.PipelineSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	path := filepath.Join(s.outputDir, SnapshotFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot reads the snapshot of the last run
func (s *Store) LatestSnapshot(ctx context.Context) (*contracts.PipelineSnapshot, error) {
	path := filepath.Join(s.outputDir, SnapshotFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, contracts.ErrNotFound)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot contracts.PipelineSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// =============================================================================
// contracts.ResultReader
// =============================================================================

// ReadPortfolios reads vwret joined with vwret_n
func (s *Store) ReadPortfolios(ctx context.Context) ([]contracts.PortfolioReturn, error) {
	rets, err := read[portfolioRow](s, s.outputDir, contracts.DatasetPortfolios, portfolioColumns)
	if err != nil {
		return nil, err
	}
	counts, err := read[portfolioCountRow](s, s.outputDir, contracts.DatasetPortfolioCount, portfolioCountColumns)
	if err != nil {
		return nil, err
	}
	return toPortfolios(rets, counts)
}

// ReadFactors reads the factor series
func (s *Store) ReadFactors(ctx context.Context) ([]contracts.FactorRecord, error) {
	rows, err := read[factorRow](s, s.outputDir, contracts.DatasetFactors, factorColumns)
	if err != nil {
		return nil, err
	}
	return toFactors(rows)
}

// ReadFirmCounts reads the factor firm counts
func (s *Store) ReadFirmCounts(ctx context.Context) ([]contracts.FirmCountRecord, error) {
	rows, err := read[firmCountRow](s, s.outputDir, contracts.DatasetFirmCounts, firmCountColumns)
	if err != nil {
		return nil, err
	}
	return toFirmCounts(rows)
}
