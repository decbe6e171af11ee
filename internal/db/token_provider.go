package db

import (
	"context"
	"time"
)

// TokenProvider abstracts cloud token acquisition for database authentication.
type TokenProvider interface {
	// GetToken acquires a short-lived token that is sent as the database password.
	// Returns the token string and its expiry time.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String returns a human-readable description for logging.
	// Should NOT include secrets.
	String() string
}

// AzureOSSRDBMSScope is the OAuth scope Entra ID issues tokens under for
// Azure Database for PostgreSQL and Azure Database for MySQL.
const AzureOSSRDBMSScope = "https://ossrdbms-aad.database.windows.net/.default"
