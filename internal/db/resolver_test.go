package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-sdw/sdwload/internal/config"
	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

func TestGranularConnFlags_IsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		flags GranularConnFlags
		want  bool
	}{
		{name: "empty flags", flags: GranularConnFlags{}, want: true},
		{name: "only driver set", flags: GranularConnFlags{Driver: "mysql"}, want: false},
		{name: "only host set", flags: GranularConnFlags{Host: "localhost"}, want: false},
		{name: "only port set", flags: GranularConnFlags{Port: 5432}, want: false},
		{name: "only username set", flags: GranularConnFlags{Username: "loader"}, want: false},
		{name: "only sslmode set", flags: GranularConnFlags{SSLMode: "require"}, want: false},
		// Database may override the database of a connection string
		{name: "only database set", flags: GranularConnFlags{Database: "retail_sdw"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.flags.IsEmpty())
		})
	}
}

func TestResolveConnectionParams_Defaults(t *testing.T) {
	t.Setenv("USER", "etl")

	cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, nil)
	require.NoError(t, err)

	assert.Equal(t, sdwload.DriverPostgres, cfg.Driver)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "retail_sdw", cfg.Database)
	assert.Equal(t, "etl", cfg.Username)
	assert.Equal(t, "prefer", cfg.SSLMode)
	assert.Equal(t, sdwload.DefaultAppName, cfg.AppName)
	assert.Equal(t, sdwload.AuthMethodStandard, cfg.AuthMethod)
	assert.NoError(t, cfg.Validate())
}

func TestResolveConnectionParams_DriverDefaults(t *testing.T) {
	tests := []struct {
		driver       string
		wantPort     int
		wantHost     string
		wantDatabase string
	}{
		{driver: "mysql", wantPort: 3306, wantHost: "localhost", wantDatabase: "retail_sdw"},
		{driver: "mssql", wantPort: 1433, wantHost: "localhost", wantDatabase: "retail_sdw"},
		{driver: "sqlite", wantPort: 0, wantHost: "", wantDatabase: "retail_sdw.db"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg, err := ResolveConnectionParams("", &GranularConnFlags{Driver: tt.driver}, nil, &EnvVars{}, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPort, cfg.Port)
			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, tt.wantDatabase, cfg.Database)
		})
	}
}

func TestResolveConnectionParams_Precedence(t *testing.T) {
	project := &config.ProjectConfig{Connection: config.ConnectionConfig{
		Driver:   "postgres",
		Host:     "yaml-host",
		Port:     6000,
		Username: "yaml-user",
		Database: "yaml_db",
		SSLMode:  "disable",
	}}

	t.Run("yaml beats defaults", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, project)
		require.NoError(t, err)
		assert.Equal(t, "yaml-host", cfg.Host)
		assert.Equal(t, 6000, cfg.Port)
		assert.Equal(t, "yaml-user", cfg.Username)
		assert.Equal(t, "yaml_db", cfg.Database)
		assert.Equal(t, "disable", cfg.SSLMode)
	})

	t.Run("PG variables beat yaml", func(t *testing.T) {
		env := &EnvVars{PGHOST: "pg-host", PGPORT: "6001", PGUSER: "pg-user", PGDATABASE: "pg_db", PGPASSWORD: "pg-pass"}
		cfg, err := ResolveConnectionParams("", nil, nil, env, project)
		require.NoError(t, err)
		assert.Equal(t, "pg-host", cfg.Host)
		assert.Equal(t, 6001, cfg.Port)
		assert.Equal(t, "pg-user", cfg.Username)
		assert.Equal(t, "pg_db", cfg.Database)
		assert.Equal(t, "pg-pass", cfg.Password)
	})

	t.Run("SDWLOAD variables beat PG variables", func(t *testing.T) {
		env := &EnvVars{
			SDWLOAD_HOST: "sdw-host", SDWLOAD_PORT: "6002", SDWLOAD_USER: "sdw-user",
			SDWLOAD_DATABASE: "sdw_db", SDWLOAD_PASSWORD: "sdw-pass", SDWLOAD_SSLMODE: "require",
			PGHOST: "pg-host", PGPORT: "6001", PGUSER: "pg-user", PGDATABASE: "pg_db", PGPASSWORD: "pg-pass",
		}
		cfg, err := ResolveConnectionParams("", nil, nil, env, project)
		require.NoError(t, err)
		assert.Equal(t, "sdw-host", cfg.Host)
		assert.Equal(t, 6002, cfg.Port)
		assert.Equal(t, "sdw-user", cfg.Username)
		assert.Equal(t, "sdw_db", cfg.Database)
		assert.Equal(t, "sdw-pass", cfg.Password)
		assert.Equal(t, "require", cfg.SSLMode)
	})

	t.Run("flags beat everything", func(t *testing.T) {
		env := &EnvVars{SDWLOAD_HOST: "sdw-host", SDWLOAD_PORT: "6002", SDWLOAD_USER: "sdw-user"}
		flags := &GranularConnFlags{Host: "flag-host", Port: 6003, Username: "flag-user", Database: "flag_db", SSLMode: "verify-full"}
		cfg, err := ResolveConnectionParams("", flags, nil, env, project)
		require.NoError(t, err)
		assert.Equal(t, "flag-host", cfg.Host)
		assert.Equal(t, 6003, cfg.Port)
		assert.Equal(t, "flag-user", cfg.Username)
		assert.Equal(t, "flag_db", cfg.Database)
		assert.Equal(t, "verify-full", cfg.SSLMode)
	})
}

func TestResolveConnectionParams_PGVariablesIgnoredForOtherDrivers(t *testing.T) {
	env := &EnvVars{PGHOST: "pg-host", PGPORT: "6001", PGUSER: "pg-user", PGPASSWORD: "pg-pass", SDWLOAD_DRIVER: "mysql"}

	cfg, err := ResolveConnectionParams("", nil, nil, env, nil)
	require.NoError(t, err)

	assert.Equal(t, sdwload.DriverMySQL, cfg.Driver)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 3306, cfg.Port)
	assert.NotEqual(t, "pg-user", cfg.Username)
	assert.Empty(t, cfg.Password)
}

func TestResolveConnectionParams_InvalidPortEnv(t *testing.T) {
	for _, env := range []*EnvVars{{SDWLOAD_PORT: "abc"}, {PGPORT: "5432x"}} {
		_, err := ResolveConnectionParams("", nil, nil, env, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, sdwload.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "must be an integer")
	}
}

func TestResolveConnectionParams_ConnectionString(t *testing.T) {
	t.Run("flag conflicts with granular flags", func(t *testing.T) {
		_, err := ResolveConnectionParams("postgresql://localhost/retail_sdw",
			&GranularConnFlags{Host: "other"}, nil, &EnvVars{}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, sdwload.ErrUsage)
		assert.Contains(t, err.Error(), "cannot specify both --connection and granular flags")
	})

	t.Run("database flag overrides connection string", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("mysql://root@db/other",
			&GranularConnFlags{Database: "retail_sdw"}, nil, &EnvVars{}, nil)
		require.NoError(t, err)
		assert.Equal(t, sdwload.DriverMySQL, cfg.Driver)
		assert.Equal(t, "retail_sdw", cfg.Database)
	})

	t.Run("password and sslmode fall back to environment", func(t *testing.T) {
		env := &EnvVars{SDWLOAD_PASSWORD: "secret", PGSSLMODE: "require"}
		cfg, err := ResolveConnectionParams("postgresql://loader@db/retail_sdw", nil, nil, env, nil)
		require.NoError(t, err)
		assert.Equal(t, "secret", cfg.Password)
		assert.Equal(t, "require", cfg.SSLMode)
	})

	t.Run("embedded sslmode wins", func(t *testing.T) {
		env := &EnvVars{PGSSLMODE: "require"}
		cfg, err := ResolveConnectionParams("postgresql://db/retail_sdw?sslmode=disable", nil, nil, env, nil)
		require.NoError(t, err)
		assert.Equal(t, "disable", cfg.SSLMode)
	})

	t.Run("missing database gets default", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("postgresql://db", nil, nil, &EnvVars{}, nil)
		require.NoError(t, err)
		assert.Equal(t, "retail_sdw", cfg.Database)
	})

	t.Run("SDWLOAD_CONNECTION_STRING beats DATABASE_URL", func(t *testing.T) {
		env := &EnvVars{
			SDWLOAD_CONNECTION_STRING: "sqlite://sdw.db",
			DATABASE_URL:              "postgresql://heroku/app",
		}
		cfg, err := ResolveConnectionParams("", nil, nil, env, nil)
		require.NoError(t, err)
		assert.Equal(t, sdwload.DriverSQLite, cfg.Driver)
		assert.Equal(t, "sdw.db", cfg.Database)
		assert.Empty(t, cfg.SSLMode)
	})

	t.Run("granular flags beat environment connection string", func(t *testing.T) {
		env := &EnvVars{DATABASE_URL: "postgresql://heroku/app"}
		cfg, err := ResolveConnectionParams("", &GranularConnFlags{Host: "flag-host"}, nil, env, nil)
		require.NoError(t, err)
		assert.Equal(t, "flag-host", cfg.Host)
		assert.Equal(t, "retail_sdw", cfg.Database)
	})

	t.Run("invalid connection string", func(t *testing.T) {
		_, err := ResolveConnectionParams("nonsense", nil, nil, &EnvVars{}, nil)
		assert.ErrorIs(t, err, sdwload.ErrInvalidConfig)
	})
}

func TestResolveConnectionParams_CloudAuth(t *testing.T) {
	t.Run("aws flags", func(t *testing.T) {
		cloud := &CloudFlags{AWS: &AWSFlags{Enabled: true}}
		cfg, err := ResolveConnectionParams("", nil, cloud, &EnvVars{AWS_REGION: "eu-west-1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, sdwload.AuthMethodAWSIAM, cfg.AuthMethod)
		assert.Equal(t, "eu-west-1", cfg.AWSRegion)
	})

	t.Run("aws region flag beats env", func(t *testing.T) {
		cloud := &CloudFlags{AWS: &AWSFlags{Region: "us-east-2"}}
		cfg, err := ResolveConnectionParams("", nil, cloud, &EnvVars{AWS_REGION: "eu-west-1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, sdwload.AuthMethodAWSIAM, cfg.AuthMethod)
		assert.Equal(t, "us-east-2", cfg.AWSRegion)
	})

	t.Run("google instance flag", func(t *testing.T) {
		cloud := &CloudFlags{Google: &GoogleFlags{Instance: "proj:region:sdw"}}
		cfg, err := ResolveConnectionParams("", nil, cloud, &EnvVars{}, nil)
		require.NoError(t, err)
		assert.Equal(t, sdwload.AuthMethodGoogleIAM, cfg.AuthMethod)
		assert.Equal(t, "proj:region:sdw", cfg.GoogleInstance)
	})

	t.Run("azure flags beat env", func(t *testing.T) {
		cloud := &CloudFlags{Azure: &AzureFlags{TenantID: "flag-tenant"}}
		env := &EnvVars{AZURE_TENANT_ID: "env-tenant", AZURE_CLIENT_ID: "env-client", AZURE_CLIENT_SECRET: "s3cret"}
		cfg, err := ResolveConnectionParams("", nil, cloud, env, nil)
		require.NoError(t, err)
		assert.Equal(t, sdwload.AuthMethodAzureEntraID, cfg.AuthMethod)
		assert.Equal(t, "flag-tenant", cfg.AzureTenantID)
		assert.Equal(t, "env-client", cfg.AzureClientID)
		assert.Equal(t, "s3cret", cfg.AzureClientSecret)
	})

	t.Run("azure env vars switch postgres to entra id", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{AZURE_CLIENT_ID: "client"}, nil)
		require.NoError(t, err)
		assert.Equal(t, sdwload.AuthMethodAzureEntraID, cfg.AuthMethod)
	})

	t.Run("azure env vars ignored for sqlite", func(t *testing.T) {
		cfg, err := ResolveConnectionParams("sqlite://sdw.db", nil, nil, &EnvVars{AZURE_CLIENT_ID: "client"}, nil)
		require.NoError(t, err)
		assert.Equal(t, sdwload.AuthMethodStandard, cfg.AuthMethod)
	})

	t.Run("auth method from yaml", func(t *testing.T) {
		project := &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "aws-iam", AWSRegion: "ap-south-1"}}
		cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, project)
		require.NoError(t, err)
		assert.Equal(t, sdwload.AuthMethodAWSIAM, cfg.AuthMethod)
		assert.Equal(t, "ap-south-1", cfg.AWSRegion)
	})

	t.Run("conflicting methods", func(t *testing.T) {
		cloud := &CloudFlags{AWS: &AWSFlags{Enabled: true}, Azure: &AzureFlags{Enabled: true}}
		_, err := ResolveConnectionParams("", nil, cloud, &EnvVars{}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, sdwload.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "conflicting authentication methods")
	})

	t.Run("unknown yaml auth method", func(t *testing.T) {
		project := &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "kerberos"}}
		_, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, project)
		assert.ErrorIs(t, err, sdwload.ErrUnsupportedAuthMethod)
	})
}
