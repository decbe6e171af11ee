package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// releaseTimeout bounds rollback and close when the caller's context is
// already cancelled.
const releaseTimeout = 5 * time.Second

var errSessionDone = errors.New("session already committed or closed")

func connectTimeout(config *sdwload.ConnectionConfig) time.Duration {
	if config.ConnectTimeout > 0 {
		return config.ConnectTimeout
	}
	return sdwload.DefaultConnectTimeout
}

func releaseContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
}

// StandardConnector implements the Connector interface for standard
// username/password authentication. Every Connect opens exactly one
// physical connection; failures are returned as is, without retry.
type StandardConnector struct {
	config *sdwload.ConnectionConfig
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *sdwload.ConnectionConfig) *StandardConnector {
	return &StandardConnector{config: config}
}

// Connect opens a session with an active transaction.
func (c *StandardConnector) Connect(ctx context.Context) (sdwload.Session, error) {
	return openSession(ctx, c.config)
}

// openSession dispatches on the driver. Postgres uses a single pgx.Conn;
// the other engines go through database/sql.
func openSession(ctx context.Context, config *sdwload.ConnectionConfig) (sdwload.Session, error) {
	switch config.Driver {
	case sdwload.DriverPostgres:
		s, err := openPgxSession(ctx, config, postgresURL(config), nil)
		if err != nil {
			return nil, err
		}
		return s, nil

	case sdwload.DriverMySQL:
		connector, err := mysql.NewConnector(mysqlConfig(config))
		if err != nil {
			return nil, fmt.Errorf("mysql connection config: %v: %w", err, sdwload.ErrInvalidConfig)
		}
		return sqlSessionOrNil(openSQLSession(ctx, config, sql.OpenDB(connector)))

	case sdwload.DriverSQLite:
		db, err := sql.Open("sqlite", sqliteDSN(config))
		if err != nil {
			return nil, wrapConnectionError(err, config)
		}
		return sqlSessionOrNil(openSQLSession(ctx, config, db))

	case sdwload.DriverSQLServer:
		connector, err := mssql.NewConnector(sqlserverURL(config))
		if err != nil {
			return nil, fmt.Errorf("sqlserver connection config: %v: %w", err, sdwload.ErrInvalidConfig)
		}
		return sqlSessionOrNil(openSQLSession(ctx, config, sql.OpenDB(connector)))

	default:
		return nil, fmt.Errorf("%q: %w", config.Driver, sdwload.ErrUnsupportedDriver)
	}
}

// sqlSessionOrNil keeps a nil *sqlSession from becoming a non-nil Session.
func sqlSessionOrNil(s *sqlSession, err error) (sdwload.Session, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *sdwload.ConnectionConfig) (sdwload.Connector, error) {
	if !config.AuthMethod.SupportsDriver(config.Driver) {
		return nil, fmt.Errorf("%s authentication is not available for %s: %w",
			config.AuthMethod, config.Driver, sdwload.ErrUnsupportedAuthMethod)
	}

	switch config.AuthMethod {
	case sdwload.AuthMethodStandard:
		return NewStandardConnector(config), nil
	case sdwload.AuthMethodAWSIAM:
		return newAWSConnector(config)
	case sdwload.AuthMethodGoogleIAM:
		return newGoogleConnector(config)
	case sdwload.AuthMethodAzureEntraID:
		return newAzureConnector(config)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, sdwload.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw driver connection errors with actionable guidance.
// The result always matches sdwload.ErrConnectionFailed.
func wrapConnectionError(err error, config *sdwload.ConnectionConfig) error {
	errStr := strings.ToLower(err.Error())
	addr := config.Address()
	failed := sdwload.ErrConnectionFailed

	switch {
	case config.Driver == sdwload.DriverSQLite &&
		(strings.Contains(errStr, "unable to open") || strings.Contains(errStr, "cannot open")):
		return fmt.Errorf(`%w: cannot open SQLite database %q

Possible causes:
  - Parent directory does not exist
  - File is not readable or writable by this user

Original error: %w`, failed, config.Database, err)

	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`%w: connection refused to %s

Possible causes:
  - %s is not running%s
  - Wrong host or port
  - Firewall blocking the connection

Original error: %w`, failed, addr, serverName(config.Driver), readinessHint(config), err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`%w: cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable
  - Network connection issue

Original error: %w`, failed, config.Host, err)

	case strings.Contains(errStr, "password authentication failed") ||
		strings.Contains(errStr, "access denied for user") ||
		strings.Contains(errStr, "login failed for user"):
		return fmt.Errorf(`%w: authentication failed for database "%s"

Possible causes:
  - Wrong password (check $SDWLOAD_PASSWORD or $PGPASSWORD)
  - Wrong username
  - User does not have access to the database

Original error: %w`, failed, config.Database, err)

	case strings.Contains(errStr, "does not exist") || strings.Contains(errStr, "unknown database"):
		return fmt.Errorf(`%w: database "%s" does not exist

The target database and its tables must be created before loading.

Original error: %w`, failed, config.Database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out") ||
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf(`%w: connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Network latency or packet loss
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)

Original error: %w`, failed, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`%w: SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)

Original error: %w`, failed, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`%w: too many connections to database "%s"

Possible causes:
  - Connection limit reached on the server
  - Stale connections from previous runs

Original error: %w`, failed, config.Database, err)

	default:
		return fmt.Errorf("%w: failed to connect to database: %w", failed, err)
	}
}

func serverName(d sdwload.Driver) string {
	switch d {
	case sdwload.DriverMySQL:
		return "MySQL"
	case sdwload.DriverSQLServer:
		return "SQL Server"
	default:
		return "PostgreSQL"
	}
}

func readinessHint(config *sdwload.ConnectionConfig) string {
	switch config.Driver {
	case sdwload.DriverPostgres:
		return fmt.Sprintf(" (check: pg_isready -h %s -p %d)", config.Host, config.Port)
	case sdwload.DriverMySQL:
		return fmt.Sprintf(" (check: mysqladmin ping -h %s -P %d)", config.Host, config.Port)
	default:
		return ""
	}
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *sdwload.ConnectionConfig) (sdwload.Connector, error) {
	tokenProvider, err := NewAWSIAMTokenProvider(config.Address(), config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM"), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *sdwload.ConnectionConfig) (sdwload.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", sdwload.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", sdwload.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance), nil
}

// newAzureConnector creates a token-based connector with the Azure Entra ID token provider.
// If explicit credentials (tenant, client, secret) are provided, uses Service Principal auth.
// Otherwise, falls back to DefaultAzureCredential chain.
func newAzureConnector(config *sdwload.ConnectionConfig) (sdwload.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure"), nil
}
