// Package loader inserts mapped rows into a target table, one
// parameterized INSERT per row, inside the session's transaction.
package loader

import (
	"context"
	"fmt"
	"iter"

	"github.com/retail-sdw/sdwload/internal/db"
	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// Batch is one table's worth of rows. Rows are consumed exactly once,
// in order; the first error yielded by Rows aborts the batch.
type Batch struct {
	Table   string
	Columns []string
	Rows    iter.Seq2[sdwload.Tuple, error]

	// Message is logged after a successful Load, e.g. "Customers loaded successfully."
	Message string
}

// Loader executes batches against a session.
//
// Thread-Safety: Safe for concurrent use with distinct sessions; a
// session itself must not be shared.
type Loader struct {
	logger sdwload.Logger
}

// New creates a Loader. Panics if logger is nil.
func New(logger sdwload.Logger) *Loader {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Loader{logger: logger}
}

// Insert executes one INSERT per row of b without committing and returns
// the number of rows inserted before the first failure.
//
// Source and coercion errors yielded by b.Rows are returned unchanged.
// A unique-key conflict is returned as *sdwload.DuplicateKeyError and any
// other constraint violation as *sdwload.ConstraintError; both carry the
// 1-based row number within the batch.
func (l *Loader) Insert(ctx context.Context, session sdwload.Session, b Batch) (int64, error) {
	if b.Table == "" || len(b.Columns) == 0 {
		return 0, fmt.Errorf("batch needs a table and at least one column: %w", sdwload.ErrInvalidConfig)
	}

	dialect := session.Dialect()
	query := db.InsertStatement(dialect, b.Table, b.Columns)
	l.logger.Verbose("Inserting into %s: %s", b.Table, query)

	var inserted int64
	for tuple, err := range b.Rows {
		if err != nil {
			return inserted, err
		}
		if err := ctx.Err(); err != nil {
			return inserted, fmt.Errorf("insert into %s aborted after %d rows: %w", b.Table, inserted, err)
		}

		row := inserted + 1
		if len(tuple) != len(b.Columns) {
			return inserted, fmt.Errorf("insert into %s row %d: %d values for %d columns", b.Table, row, len(tuple), len(b.Columns))
		}

		if err := session.Exec(ctx, query, tuple...); err != nil {
			return inserted, classify(dialect, b.Table, row, err)
		}
		inserted = row
	}

	l.logger.Verbose("Inserted %d rows into %s", inserted, b.Table)
	return inserted, nil
}

// Commit commits the session. tables name what the transaction covered
// and are reported in the *sdwload.CommitError on failure.
func (l *Loader) Commit(ctx context.Context, session sdwload.Session, tables ...string) error {
	if err := session.Commit(ctx); err != nil {
		return &sdwload.CommitError{Tables: tables, Err: err}
	}
	return nil
}

// Load inserts b, commits, and logs b.Message. Nothing is committed
// when any row fails.
func (l *Loader) Load(ctx context.Context, session sdwload.Session, b Batch) (int64, error) {
	n, err := l.Insert(ctx, session, b)
	if err != nil {
		return n, err
	}

	if err := l.Commit(ctx, session, b.Table); err != nil {
		return n, err
	}

	if b.Message != "" {
		l.logger.Info("%s", b.Message)
	}
	return n, nil
}

func classify(dialect sdwload.Dialect, table string, row int64, err error) error {
	switch v, constraint := dialect.Violation(err); v {
	case sdwload.UniqueViolation:
		return &sdwload.DuplicateKeyError{Table: table, Row: row, Constraint: constraint, Err: err}
	case sdwload.OtherViolation:
		return &sdwload.ConstraintError{Table: table, Row: row, Constraint: constraint, Err: err}
	default:
		return fmt.Errorf("insert into %s row %d: %w", table, row, err)
	}
}
