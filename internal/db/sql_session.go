package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// sqlSession pins one *sql.Conn of a single-connection *sql.DB and the
// transaction opened on it. Used by the mysql, sqlite and sqlserver drivers.
//
// Thread-Safety: Not safe for concurrent use.
type sqlSession struct {
	db        *sql.DB
	conn      *sql.Conn
	tx        *sql.Tx
	dialect   sdwload.Dialect
	committed bool
	closed    bool
}

// openSQLSession limits db to one connection, checks the server is
// reachable and begins a transaction. db is closed on failure.
func openSQLSession(ctx context.Context, config *sdwload.ConnectionConfig, db *sql.DB) (*sqlSession, error) {
	dialect, err := DialectFor(config.Driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout(config))
	defer cancel()

	conn, err := db.Conn(connectCtx)
	if err != nil {
		_ = db.Close()
		return nil, wrapConnectionError(err, config)
	}
	if err := conn.PingContext(connectCtx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, wrapConnectionError(err, config)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, wrapConnectionError(err, config)
	}

	return &sqlSession{db: db, conn: conn, tx: tx, dialect: dialect}, nil
}

func (s *sqlSession) Exec(ctx context.Context, query string, args ...any) error {
	if s.closed || s.committed {
		return errSessionDone
	}
	_, err := s.tx.ExecContext(ctx, query, args...)
	return err
}

func (s *sqlSession) Commit(context.Context) error {
	if s.closed || s.committed {
		return errSessionDone
	}
	s.committed = true
	return s.tx.Commit()
}

func (s *sqlSession) Close(context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if !s.committed {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, fmt.Errorf("rollback: %w", err))
		}
	}
	if err := s.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		errs = append(errs, fmt.Errorf("close connection: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *sqlSession) Dialect() sdwload.Dialect { return s.dialect }

var _ sdwload.Session = (*sqlSession)(nil)
