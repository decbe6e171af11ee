package sdwload

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LoadConfig contains all parameters needed for a load run.
type LoadConfig struct {
	// Connection is the resolved target database configuration
	Connection *ConnectionConfig

	// DataDir is the directory source files are resolved against
	DataDir string

	// Datasets are the dataset names to load, in order
	Datasets []string

	// Sources overrides the source file of a dataset by name
	Sources map[string]string

	// Tables overrides the target table of a dataset by name
	Tables map[string]string

	// Delimiter is the CSV field separator; zero means ','
	Delimiter rune

	// DryRun reads and maps every source without touching the database
	DryRun bool

	// Timeout is the global timeout for the entire run
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if len(c.Datasets) == 0 {
		errs = append(errs, fmt.Errorf("at least one dataset is required: %w", ErrInvalidConfig))
	}

	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("DataDir is required: %w", ErrInvalidConfig))
	}

	if !c.DryRun {
		if c.Connection == nil {
			errs = append(errs, fmt.Errorf("Connection is required: %w", ErrInvalidConfig))
		} else if err := c.Connection.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Delimiter == '"' || c.Delimiter == '\r' || c.Delimiter == '\n' {
		errs = append(errs, fmt.Errorf("delimiter %q is not allowed: %w", c.Delimiter, ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// LoadResult describes one dataset that reached its target table.
type LoadResult struct {
	RunID        uuid.UUID
	Dataset      string
	Table        string
	Source       string
	SourceDigest string
	Rows         int64
	Committed    bool
	Duration     time.Duration
}

// Driver names a supported database engine.
type Driver string

const (
	DriverPostgres  Driver = "postgres"
	DriverMySQL     Driver = "mysql"
	DriverSQLite    Driver = "sqlite"
	DriverSQLServer Driver = "sqlserver"
)

// ParseDriver maps user input (including common aliases) to a Driver.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgres", "postgresql", "pg", "pgx":
		return DriverPostgres, nil
	case "mysql", "mariadb":
		return DriverMySQL, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "sqlserver", "mssql":
		return DriverSQLServer, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnsupportedDriver)
	}
}

// DefaultPort returns the engine's well-known TCP port, or 0 for file-based engines.
func (d Driver) DefaultPort() int {
	switch d {
	case DriverPostgres:
		return 5432
	case DriverMySQL:
		return 3306
	case DriverSQLServer:
		return 1433
	default:
		return 0
	}
}

// IsNetworked reports whether the engine is reached over the network.
func (d Driver) IsNetworked() bool {
	return d != DriverSQLite
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Driver   Driver
	Host     string
	Port     int
	Database string // file path for sqlite
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWS RDS IAM authentication (AuthMethodAWSIAM)
	AWSRegion string

	// Google Cloud SQL instance connection name project:region:instance (AuthMethodGoogleIAM)
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks that the connection can be attempted at all.
func (c *ConnectionConfig) Validate() error {
	var errs []error

	if _, err := ParseDriver(string(c.Driver)); err != nil {
		errs = append(errs, err)
	}

	if c.Database == "" {
		errs = append(errs, fmt.Errorf("database is required: %w", ErrInvalidConfig))
	}

	if c.Driver.IsNetworked() {
		if c.Host == "" && c.AuthMethod != AuthMethodGoogleIAM {
			errs = append(errs, fmt.Errorf("host is required: %w", ErrInvalidConfig))
		}
		if c.Port < 0 || c.Port > 65535 {
			errs = append(errs, fmt.Errorf("port %d out of range: %w", c.Port, ErrInvalidConfig))
		}
	}

	if !c.AuthMethod.IsValid() {
		errs = append(errs, fmt.Errorf("auth method %s: %w", c.AuthMethod, ErrUnsupportedAuthMethod))
	} else if !c.AuthMethod.SupportsDriver(c.Driver) {
		errs = append(errs, fmt.Errorf("%s authentication is not available for %s: %w",
			c.AuthMethod, c.Driver, ErrUnsupportedAuthMethod))
	}

	return errors.Join(errs...)
}

// Address returns host:port for networked drivers.
func (c *ConnectionConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// SupportsDriver reports whether the method can authenticate against the driver.
func (a AuthMethod) SupportsDriver(d Driver) bool {
	switch a {
	case AuthMethodStandard:
		return true
	case AuthMethodAWSIAM, AuthMethodAzureEntraID:
		return d == DriverPostgres || d == DriverMySQL
	case AuthMethodGoogleIAM:
		return d == DriverPostgres
	default:
		return false
	}
}

// ParseAuthMethod maps the sdwload.yaml spelling of an auth method.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws-iam", "aws":
		return AuthMethodAWSIAM, nil
	case "google-iam", "google", "gcp":
		return AuthMethodGoogleIAM, nil
	case "azure-entra-id", "azure":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("%q: %w", s, ErrUnsupportedAuthMethod)
	}
}
