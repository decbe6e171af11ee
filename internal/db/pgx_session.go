package db

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// dialFunc replaces the network dialer of a pgx connection (Cloud SQL).
type dialFunc = pgconn.DialFunc

// pgxSession holds one *pgx.Conn and the transaction opened on it.
//
// Thread-Safety: Not safe for concurrent use.
type pgxSession struct {
	conn      *pgx.Conn
	tx        pgx.Tx
	release   io.Closer // extra resource closed with the session, may be nil
	committed bool
	closed    bool
}

// openPgxSession connects with pgx and begins a transaction.
// connStr is a PostgreSQL URI; dial, when non-nil, overrides the dialer.
func openPgxSession(ctx context.Context, config *sdwload.ConnectionConfig, connStr string, dial dialFunc) (*pgxSession, error) {
	connConfig, err := pgx.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	if dial != nil {
		connConfig.DialFunc = dial
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout(config))
	defer cancel()

	conn, err := pgx.ConnectConfig(connectCtx, connConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		_ = conn.Close(context.WithoutCancel(ctx))
		return nil, wrapConnectionError(err, config)
	}

	return &pgxSession{conn: conn, tx: tx}, nil
}

func (s *pgxSession) Exec(ctx context.Context, query string, args ...any) error {
	if s.closed || s.committed {
		return errSessionDone
	}
	_, err := s.tx.Exec(ctx, query, args...)
	return err
}

func (s *pgxSession) Commit(ctx context.Context) error {
	if s.closed || s.committed {
		return errSessionDone
	}
	s.committed = true
	return s.tx.Commit(ctx)
}

func (s *pgxSession) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	ctx, cancel := releaseContext(ctx)
	defer cancel()

	var errs []error
	if !s.committed {
		if err := s.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			errs = append(errs, fmt.Errorf("rollback: %w", err))
		}
	}
	if err := s.conn.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close connection: %w", err))
	}
	if s.release != nil {
		if err := s.release.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *pgxSession) Dialect() sdwload.Dialect { return postgresDialect{} }

var _ sdwload.Session = (*pgxSession)(nil)
