package services

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retail-sdw/sdwload/internal/datasets"
	"github.com/retail-sdw/sdwload/internal/loader"
	"github.com/retail-sdw/sdwload/internal/mapper"
	"github.com/retail-sdw/sdwload/internal/source"
	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// releaseTimeout bounds closing a session after the run context is gone.
const releaseTimeout = 5 * time.Second

// Progress receives per-dataset lifecycle events.
// Implementations must not block for long; they run on the load path.
type Progress interface {
	Start(dataset string)
	Done(result sdwload.LoadResult)
	Fail(dataset string, err error)
}

type noProgress struct{}

func (noProgress) Start(string)            {}
func (noProgress) Done(sdwload.LoadResult) {}
func (noProgress) Fail(string, error)      {}

// LoadService runs dataset loads end to end: read, map, insert, commit.
//
// Thread-Safety: NOT safe for concurrent Load/Stage calls on the same
// instance. Loads are sequential by design of the workflow.
type LoadService struct {
	connectorFactory func(*sdwload.ConnectionConfig) (sdwload.Connector, error)
	registry         *datasets.Registry
	logger           sdwload.Logger
	loader           *loader.Loader
	progress         Progress
	openFS           func(dir string) fs.FS
}

// NewLoadService creates a LoadService with all dependencies injected.
// Panics on nil dependencies; progress may be nil.
func NewLoadService(
	connectorFactory func(*sdwload.ConnectionConfig) (sdwload.Connector, error),
	registry *datasets.Registry,
	logger sdwload.Logger,
	progress Progress,
) *LoadService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if registry == nil {
		panic("registry cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if progress == nil {
		progress = noProgress{}
	}

	return &LoadService{
		connectorFactory: connectorFactory,
		registry:         registry,
		logger:           logger,
		loader:           loader.New(logger),
		progress:         progress,
		openFS:           os.DirFS,
	}
}

// plan is one dataset resolved against the run's overrides.
type plan struct {
	datasets.Dataset
	digest string
}

// Load loads each dataset of config independently, in order, each with
// its own session and its own commit. The first failure stops the run;
// results of datasets committed before it are still returned.
func (s *LoadService) Load(ctx context.Context, config sdwload.LoadConfig) ([]sdwload.LoadResult, error) {
	reader, plans, err := s.prepare(config)
	if err != nil {
		return nil, err
	}
	if config.DryRun {
		return s.dryRun(ctx, reader, plans)
	}

	connector, err := s.connectorFactory(config.Connection)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	runID := uuid.New()
	s.logger.Verbose("Run %s: loading %d datasets independently", runID, len(plans))

	results := make([]sdwload.LoadResult, 0, len(plans))
	for _, p := range plans {
		s.progress.Start(p.Name)
		result, err := s.loadOne(ctx, connector, reader, runID, p)
		if err != nil {
			s.progress.Fail(p.Name, err)
			return results, fmt.Errorf("load %s: %w", p.Name, err)
		}
		s.progress.Done(result)
		results = append(results, result)
	}
	return results, nil
}

func (s *LoadService) loadOne(ctx context.Context, connector sdwload.Connector, reader *source.Reader, runID uuid.UUID, p plan) (sdwload.LoadResult, error) {
	start := time.Now()

	session, err := connector.Connect(ctx)
	if err != nil {
		return sdwload.LoadResult{}, err
	}
	defer s.release(ctx, session, p.Name)

	n, err := s.loader.Load(ctx, session, loader.Batch{
		Table:   p.Table,
		Columns: p.Schema.Names(),
		Rows:    s.rows(reader, p),
		Message: p.Message,
	})
	if err != nil {
		return sdwload.LoadResult{}, err
	}

	return s.result(runID, p, n, time.Since(start)), nil
}

// Stage loads every dataset of config over one session and commits once
// after the last one. Any failure leaves all of them unloaded.
func (s *LoadService) Stage(ctx context.Context, config sdwload.LoadConfig) ([]sdwload.LoadResult, error) {
	reader, plans, err := s.prepare(config)
	if err != nil {
		return nil, err
	}
	if config.DryRun {
		return s.dryRun(ctx, reader, plans)
	}

	connector, err := s.connectorFactory(config.Connection)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	runID := uuid.New()
	s.logger.Verbose("Run %s: staging %d datasets in one transaction", runID, len(plans))

	session, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, session, "staging")

	type inserted struct {
		plan
		rows     int64
		duration time.Duration
	}
	done := make([]inserted, 0, len(plans))
	tables := make([]string, 0, len(plans))

	for _, p := range plans {
		s.progress.Start(p.Name)
		start := time.Now()
		n, err := s.loader.Insert(ctx, session, loader.Batch{
			Table:   p.Table,
			Columns: p.Schema.Names(),
			Rows:    s.rows(reader, p),
		})
		if err != nil {
			s.progress.Fail(p.Name, err)
			return nil, fmt.Errorf("stage %s: %w", p.Name, err)
		}
		done = append(done, inserted{plan: p, rows: n, duration: time.Since(start)})
		tables = append(tables, p.Table)
	}

	if err := s.loader.Commit(ctx, session, tables...); err != nil {
		return nil, err
	}

	results := make([]sdwload.LoadResult, len(done))
	for i, d := range done {
		results[i] = s.result(runID, d.plan, d.rows, d.duration)
		s.progress.Done(results[i])
	}
	s.logger.Info("%s", datasets.StagingMessage)
	return results, nil
}

// dryRun reads and maps every dataset without touching the database.
func (s *LoadService) dryRun(ctx context.Context, reader *source.Reader, plans []plan) ([]sdwload.LoadResult, error) {
	results := make([]sdwload.LoadResult, 0, len(plans))
	for _, p := range plans {
		s.progress.Start(p.Name)
		start := time.Now()

		var n int64
		for _, err := range s.rows(reader, p) {
			if err == nil {
				err = ctx.Err()
			}
			if err != nil {
				s.progress.Fail(p.Name, err)
				return results, fmt.Errorf("dry run %s: %w", p.Name, err)
			}
			n++
		}

		result := sdwload.LoadResult{
			Dataset:      p.Name,
			Table:        p.Table,
			Source:       p.Source,
			SourceDigest: p.digest,
			Rows:         n,
			Duration:     time.Since(start),
		}
		s.progress.Done(result)
		s.logger.Info("%s: %d rows would be inserted into %s", p.Name, n, p.Table)
		results = append(results, result)
	}
	return results, nil
}

// prepare validates config, resolves every dataset and fingerprints its
// source file before any connection is opened.
func (s *LoadService) prepare(config sdwload.LoadConfig) (*source.Reader, []plan, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid load configuration: %w", err)
	}

	if err := s.checkOverrides(config); err != nil {
		return nil, nil, err
	}

	reader := source.NewReader(s.openFS(config.DataDir), source.WithComma(config.Delimiter))

	plans := make([]plan, 0, len(config.Datasets))
	for _, name := range config.Datasets {
		d, err := s.registry.Get(name)
		if err != nil {
			return nil, nil, err
		}
		if src, ok := config.Sources[name]; ok && src != "" {
			if d.Inline() {
				return nil, nil, fmt.Errorf("dataset %s has no source file to override: %w", name, sdwload.ErrInvalidConfig)
			}
			d.Source = src
		}
		if table, ok := config.Tables[name]; ok && table != "" {
			d.Table = table
		}

		p := plan{Dataset: d}
		if !d.Inline() {
			digest, err := reader.Digest(d.Source)
			if err != nil {
				return nil, nil, err
			}
			p.digest = digest
			s.logger.Verbose("Source %s for %s: xxh3 %s", d.Source, name, digest)

			header, err := reader.Header(d.Source)
			if err != nil {
				return nil, nil, err
			}
			s.logger.Verbose("Source %s columns: %s", d.Source, strings.Join(header, ", "))
			if extra := unmappedColumns(header, d.Schema); len(extra) > 0 {
				s.logger.Verbose("Ignoring columns of %s not in %s: %s", d.Source, d.Table, strings.Join(extra, ", "))
			}
		}
		plans = append(plans, p)
	}
	return reader, plans, nil
}

// checkOverrides rejects source and table overrides that name an unknown
// dataset or one outside the run.
func (s *LoadService) checkOverrides(config sdwload.LoadConfig) error {
	for _, overrides := range []map[string]string{config.Sources, config.Tables} {
		for _, name := range slices.Sorted(maps.Keys(overrides)) {
			if _, err := s.registry.Get(name); err != nil {
				return fmt.Errorf("override: %w", err)
			}
			if !slices.Contains(config.Datasets, name) {
				return fmt.Errorf("override for dataset %s which is not being loaded: %w", name, sdwload.ErrInvalidConfig)
			}
		}
	}
	return nil
}

func unmappedColumns(header []string, schema sdwload.Schema) []string {
	names := schema.Names()
	var extra []string
	for _, col := range header {
		if !slices.Contains(names, col) {
			extra = append(extra, col)
		}
	}
	return extra
}

func (s *LoadService) rows(reader *source.Reader, p plan) iter.Seq2[sdwload.Tuple, error] {
	if p.Inline() {
		return mapper.MapRecords(inlineRecords(p.Records), p.Schema)
	}
	return mapper.MapRecords(reader.Records(p.Source), p.Schema)
}

func inlineRecords(records []sdwload.Record) iter.Seq2[sdwload.Record, error] {
	return func(yield func(sdwload.Record, error) bool) {
		for _, rec := range records {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (s *LoadService) result(runID uuid.UUID, p plan, rows int64, d time.Duration) sdwload.LoadResult {
	return sdwload.LoadResult{
		RunID:        runID,
		Dataset:      p.Name,
		Table:        p.Table,
		Source:       p.Source,
		SourceDigest: p.digest,
		Rows:         rows,
		Committed:    true,
		Duration:     d,
	}
}

// release closes session even when ctx is already cancelled. A failed
// close after a successful commit does not fail the load.
func (s *LoadService) release(ctx context.Context, session sdwload.Session, name string) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := session.Close(closeCtx); err != nil {
		s.logger.Error("failed to release session for %s: %v", name, err)
	}
}
