package sdwload

import "context"

// Connector establishes database sessions.
// Different implementations handle the supported drivers and
// authentication methods (standard credentials, cloud IAM tokens).
type Connector interface {
	// Connect opens one physical connection and begins a transaction on it.
	// The returned session must be closed by the caller.
	Connect(ctx context.Context) (Session, error)
}

// Session is one connection holding one open transaction.
//
// Thread-Safety: NOT safe for concurrent use.
//
// Lifecycle:
//  1. Created by Connector.Connect() with the transaction already open
//  2. Exec is called once per row
//  3. Commit is called at most once
//  4. Close releases the connection, rolling back if Commit was not reached
type Session interface {
	// Exec runs one statement inside the session transaction.
	Exec(ctx context.Context, query string, args ...any) error

	// Commit commits the session transaction.
	Commit(ctx context.Context) error

	// Close rolls back an uncommitted transaction and releases the connection.
	// Calling Close more than once is a no-op.
	Close(ctx context.Context) error

	// Dialect describes the SQL flavour spoken by the session.
	Dialect() Dialect
}

// Dialect captures the per-engine differences the loader needs.
type Dialect interface {
	// Name is the driver name, e.g. "postgres".
	Name() string

	// Placeholder returns the bind parameter marker for the n-th (1-based) argument.
	Placeholder(n int) string

	// QuoteIdent quotes a possibly schema-qualified identifier.
	QuoteIdent(name string) string

	// Violation classifies a failed statement. constraint is the
	// violated constraint's name when the engine reports one.
	Violation(err error) (v Violation, constraint string)
}

// Violation is the kind of integrity constraint a statement broke.
type Violation int

const (
	NoViolation     Violation = iota // not a constraint error
	UniqueViolation                  // primary key or unique index
	OtherViolation                   // foreign key, not null, check
)
