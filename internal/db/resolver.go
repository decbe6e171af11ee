package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/retail-sdw/sdwload/internal/config"
	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-H, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use one of these methods instead:
//  1. $SDWLOAD_PASSWORD or $PGPASSWORD environment variable
//  2. Connection string with embedded password
type GranularConnFlags struct {
	Driver   string
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided by the user.
// Note: Database flag is excluded from this check because it can be used to override
// the database specified in a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Driver == "" && g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// AzureFlags represents Azure Entra ID CLI flags.
// These override the corresponding AZURE_* environment variables.
// Note: Client secret is NOT included as a CLI flag for security reasons.
// Use AZURE_CLIENT_SECRET environment variable instead.
type AzureFlags struct {
	Enabled  bool
	TenantID string // Overrides AZURE_TENANT_ID
	ClientID string // Overrides AZURE_CLIENT_ID
}

// IsEmpty returns true if no Azure flags were provided.
func (a *AzureFlags) IsEmpty() bool {
	return a == nil || (!a.Enabled && a.TenantID == "" && a.ClientID == "")
}

// AWSFlags represents AWS RDS IAM CLI flags.
type AWSFlags struct {
	Enabled bool
	Region  string // Overrides AWS_REGION
}

// GoogleFlags represents Google Cloud SQL IAM CLI flags.
type GoogleFlags struct {
	Enabled  bool
	Instance string // project:region:instance
}

// EnvVars represents the environment variables that take part in connection resolution.
// SDWLOAD_* variables win over the libpq PG* variables, which are only
// consulted for the postgres driver.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	SDWLOAD_CONNECTION_STRING string
	SDWLOAD_DRIVER            string
	SDWLOAD_HOST              string
	SDWLOAD_PORT              string
	SDWLOAD_USER              string
	SDWLOAD_PASSWORD          string
	SDWLOAD_DATABASE          string
	SDWLOAD_SSLMODE           string

	PGHOST       string // PostgreSQL server host
	PGPORT       string // PostgreSQL server port
	PGUSER       string // PostgreSQL username
	PGPASSWORD   string // PostgreSQL password
	PGDATABASE   string // Default database name
	PGSSLMODE    string // SSL mode
	DATABASE_URL string // Full connection string (Heroku/Rails convention)

	AWS_REGION string

	// Azure Entra ID environment variables (Azure SDK standard names)
	AZURE_TENANT_ID     string // Azure AD tenant/directory ID
	AZURE_CLIENT_ID     string // Azure AD application/client ID
	AZURE_CLIENT_SECRET string // Azure AD client secret (for Service Principal auth)
}

// LoadFromEnvironment loads sdwload, PostgreSQL and cloud provider environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		SDWLOAD_CONNECTION_STRING: os.Getenv("SDWLOAD_CONNECTION_STRING"),
		SDWLOAD_DRIVER:            os.Getenv("SDWLOAD_DRIVER"),
		SDWLOAD_HOST:              os.Getenv("SDWLOAD_HOST"),
		SDWLOAD_PORT:              os.Getenv("SDWLOAD_PORT"),
		SDWLOAD_USER:              os.Getenv("SDWLOAD_USER"),
		SDWLOAD_PASSWORD:          os.Getenv("SDWLOAD_PASSWORD"),
		SDWLOAD_DATABASE:          os.Getenv("SDWLOAD_DATABASE"),
		SDWLOAD_SSLMODE:           os.Getenv("SDWLOAD_SSLMODE"),
		PGHOST:                    os.Getenv("PGHOST"),
		PGPORT:                    os.Getenv("PGPORT"),
		PGUSER:                    os.Getenv("PGUSER"),
		PGPASSWORD:                os.Getenv("PGPASSWORD"),
		PGDATABASE:                os.Getenv("PGDATABASE"),
		PGSSLMODE:                 os.Getenv("PGSSLMODE"),
		DATABASE_URL:              os.Getenv("DATABASE_URL"),
		AWS_REGION:                os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:           os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:           os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:       os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ConnectionStringFromEnv returns the first non-empty connection string from
// SDWLOAD_CONNECTION_STRING or DATABASE_URL.
func (e *EnvVars) ConnectionStringFromEnv() string {
	if e.SDWLOAD_CONNECTION_STRING != "" {
		return e.SDWLOAD_CONNECTION_STRING
	}
	return e.DATABASE_URL
}

// password returns SDWLOAD_PASSWORD, falling back to PGPASSWORD for postgres.
func (e *EnvVars) password(driver sdwload.Driver) string {
	if e.SDWLOAD_PASSWORD != "" {
		return e.SDWLOAD_PASSWORD
	}
	if driver == sdwload.DriverPostgres {
		return e.PGPASSWORD
	}
	return ""
}

// CloudFlags groups the cloud authentication flags.
type CloudFlags struct {
	Azure  *AzureFlags
	AWS    *AWSFlags
	Google *GoogleFlags
}

// ResolveConnectionParams resolves connection parameters with this precedence:
//
// 1. Connection string flag (--connection) - if provided, parse and use directly
// 2. Granular flags (--driver, -H, -p, -U, --sslmode) - if any provided, build config from flags
// 3. SDWLOAD_CONNECTION_STRING, then DATABASE_URL - if no granular flags
// 4. Per field: SDWLOAD_* variables, then PG* variables (postgres only), then sdwload.yaml
// 5. Defaults (postgres on localhost, database retail_sdw, prefer SSL)
//
// The -d/--database flag overrides the database of a connection string.
//
// Conflict Detection:
// Returns error if BOTH --connection flag AND granular flags are provided.
// This prevents ambiguity and ensures clear user intent.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*sdwload.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	// Check for conflicts: connection string XOR granular flags
	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (--driver, -H, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/retail_sdw\"\n"+
				"  2. Granular flags: -H localhost -p 5432 -U myuser -d retail_sdw\n"+
				"  3. Environment variables: export SDWLOAD_HOST=localhost SDWLOAD_USER=myuser: %w",
			sdwload.ErrUsage,
		)
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	var cfg *sdwload.ConnectionConfig
	var err error

	switch envConnStr := envVars.ConnectionStringFromEnv(); {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, envVars, pc)
	case granularFlags.IsEmpty() && envConnStr != "":
		cfg, err = resolveFromConnectionString(envConnStr, envVars, pc)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, pc)
	}
	if err != nil {
		return nil, err
	}

	if granularFlags.Database != "" {
		cfg.Database = granularFlags.Database
	}
	if cfg.AppName == "" {
		cfg.AppName = sdwload.DefaultAppName
	}

	if err := applyCloudAuth(cfg, cloudFlags, envVars, pc); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveFromConnectionString parses a connection string. Environment
// variables and sdwload.yaml fill in the password and sslmode only.
func resolveFromConnectionString(connStr string, envVars *EnvVars, pc config.ConnectionConfig) (*sdwload.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %v: %w", err, sdwload.ErrInvalidConfig)
	}

	if cfg.Password == "" {
		cfg.Password = envVars.password(cfg.Driver)
	}

	if cfg.Driver.IsNetworked() {
		cfg.SSLMode = firstNonEmpty(cfg.SSLMode, envVars.SDWLOAD_SSLMODE, pgOnly(cfg.Driver, envVars.PGSSLMODE), pc.SSLMode, "prefer")
	}

	if cfg.Database == "" {
		cfg.Database = firstNonEmpty(envVars.SDWLOAD_DATABASE, pc.Database, defaultDatabase(cfg.Driver))
	}

	return cfg, nil
}

// resolveFromGranularParams builds ConnectionConfig from granular flags and environment variables.
//
// Precedence for each parameter:
// 1. CLI flag (highest priority)
// 2. SDWLOAD_* environment variable
// 3. PG* environment variable (postgres driver only)
// 4. sdwload.yaml
// 5. Default value (lowest priority)
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	pc config.ConnectionConfig,
) (*sdwload.ConnectionConfig, error) {
	driver, err := sdwload.ParseDriver(firstNonEmpty(flags.Driver, envVars.SDWLOAD_DRIVER, pc.Driver))
	if err != nil {
		return nil, err
	}

	cfg := &sdwload.ConnectionConfig{
		Driver:           driver,
		AuthMethod:       sdwload.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	// Database: flag > SDWLOAD_DATABASE > PGDATABASE > sdwload.yaml > default
	cfg.Database = firstNonEmpty(flags.Database, envVars.SDWLOAD_DATABASE,
		pgOnly(driver, envVars.PGDATABASE), pc.Database, defaultDatabase(driver))

	if !driver.IsNetworked() {
		return cfg, nil
	}

	// Host: flag > SDWLOAD_HOST > PGHOST > sdwload.yaml > default
	cfg.Host = firstNonEmpty(flags.Host, envVars.SDWLOAD_HOST, pgOnly(driver, envVars.PGHOST), pc.Host, "localhost")

	// Port: flag > SDWLOAD_PORT > PGPORT > sdwload.yaml > driver default
	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.SDWLOAD_PORT != "":
		if cfg.Port, err = parsePortEnv("SDWLOAD_PORT", envVars.SDWLOAD_PORT); err != nil {
			return nil, err
		}
	case pgOnly(driver, envVars.PGPORT) != "":
		if cfg.Port, err = parsePortEnv("PGPORT", envVars.PGPORT); err != nil {
			return nil, err
		}
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = driver.DefaultPort()
	}

	// Username: flag > SDWLOAD_USER > PGUSER > sdwload.yaml > current OS user
	cfg.Username = firstNonEmpty(flags.Username, envVars.SDWLOAD_USER, pgOnly(driver, envVars.PGUSER),
		pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))

	cfg.Password = envVars.password(driver)

	// SSLMode: flag > SDWLOAD_SSLMODE > PGSSLMODE > sdwload.yaml > default
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.SDWLOAD_SSLMODE, pgOnly(driver, envVars.PGSSLMODE), pc.SSLMode, "prefer")

	return cfg, nil
}

// applyCloudAuth selects the authentication method. Flags, sdwload.yaml's
// auth_method and the AZURE_TENANT_ID / AZURE_CLIENT_ID variables can each
// request one; requesting two different methods is an error.
func applyCloudAuth(cfg *sdwload.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc config.ConnectionConfig) error {
	configured, err := sdwload.ParseAuthMethod(pc.AuthMethod)
	if err != nil {
		return err
	}

	var requested []sdwload.AuthMethod
	if configured != sdwload.AuthMethodStandard {
		requested = append(requested, configured)
	}
	if flags.AWS != nil && (flags.AWS.Enabled || flags.AWS.Region != "") {
		requested = append(requested, sdwload.AuthMethodAWSIAM)
	}
	if flags.Google != nil && (flags.Google.Enabled || flags.Google.Instance != "") {
		requested = append(requested, sdwload.AuthMethodGoogleIAM)
	}
	if !flags.Azure.IsEmpty() {
		requested = append(requested, sdwload.AuthMethodAzureEntraID)
	}

	method := sdwload.AuthMethodStandard
	for _, m := range requested {
		if method != sdwload.AuthMethodStandard && m != method {
			return fmt.Errorf("conflicting authentication methods %s and %s: %w", method, m, sdwload.ErrInvalidConfig)
		}
		method = m
	}

	// Azure SDK variables switch a postgres or mysql target to Entra ID
	// when nothing else was asked for.
	if method == sdwload.AuthMethodStandard &&
		(env.AZURE_TENANT_ID != "" || env.AZURE_CLIENT_ID != "") &&
		sdwload.AuthMethodAzureEntraID.SupportsDriver(cfg.Driver) {
		method = sdwload.AuthMethodAzureEntraID
	}

	cfg.AuthMethod = method

	switch method {
	case sdwload.AuthMethodAWSIAM:
		var region string
		if flags.AWS != nil {
			region = flags.AWS.Region
		}
		cfg.AWSRegion = firstNonEmpty(region, env.AWS_REGION, pc.AWSRegion)

	case sdwload.AuthMethodGoogleIAM:
		var instance string
		if flags.Google != nil {
			instance = flags.Google.Instance
		}
		cfg.GoogleInstance = firstNonEmpty(instance, pc.GoogleInstance)

	case sdwload.AuthMethodAzureEntraID:
		var tenantID, clientID string
		if flags.Azure != nil {
			tenantID, clientID = flags.Azure.TenantID, flags.Azure.ClientID
		}
		cfg.AzureTenantID = firstNonEmpty(tenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(clientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
		// Client secret only comes from env var (no flag for security)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}

	return nil
}

func parsePortEnv(name, value string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid $%s value '%s': must be an integer: %w", name, value, sdwload.ErrInvalidConfig)
	}
	return port, nil
}

// defaultDatabase names the target when nothing configures one.
// SQLite gets a file next to the working directory.
func defaultDatabase(driver sdwload.Driver) string {
	if driver == sdwload.DriverSQLite {
		return sdwload.DefaultDatabase + ".db"
	}
	return sdwload.DefaultDatabase
}

// pgOnly returns value for the postgres driver and "" otherwise.
func pgOnly(driver sdwload.Driver, value string) string {
	if driver != sdwload.DriverPostgres {
		return ""
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
