package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

const projectYAML = `data_dir: exports
delimiter: ";"
timeout: 2m
datasets:
  customers:
    source: customers_2024.csv
    table: sdw.dim_customer
`

func TestBuildLoadConfig_Defaults(t *testing.T) {
	isolateEnv(t)
	cmd, f := newRunCommand(t, "--dry-run")

	cfg, err := buildLoadConfig(cmd, f, []string{"customers"}, false)
	require.NoError(t, err)

	assert.Equal(t, sdwload.DefaultDataDir, cfg.DataDir)
	assert.Equal(t, []string{"customers"}, cfg.Datasets)
	assert.Equal(t, rune(0), cfg.Delimiter)
	assert.Equal(t, sdwload.DefaultTimeout, cfg.Timeout)
	assert.True(t, cfg.DryRun)
	assert.Nil(t, cfg.Connection, "dry run never resolves a connection")
}

func TestBuildLoadConfig_ProjectFile(t *testing.T) {
	dir := isolateEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sdwload.yaml"), []byte(projectYAML), 0o644))
	cmd, f := newRunCommand(t, "--dry-run")

	cfg, err := buildLoadConfig(cmd, f, []string{"customers"}, false)
	require.NoError(t, err)

	assert.Equal(t, "exports", cfg.DataDir)
	assert.Equal(t, ';', cfg.Delimiter)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "customers_2024.csv", cfg.Sources["customers"])
	assert.Equal(t, "sdw.dim_customer", cfg.Tables["customers"])
}

func TestBuildLoadConfig_FlagsOverrideProjectFile(t *testing.T) {
	dir := isolateEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sdwload.yaml"), []byte(projectYAML), 0o644))
	cmd, f := newRunCommand(t,
		"--dry-run",
		"--data-dir", "incoming",
		"--delimiter", "tab",
		"--timeout", "30s",
		"--source", "customers=latest.csv",
		"--table", "products=sdw.dim_product",
	)

	cfg, err := buildLoadConfig(cmd, f, []string{"customers", "products"}, false)
	require.NoError(t, err)

	assert.Equal(t, "incoming", cfg.DataDir)
	assert.Equal(t, '\t', cfg.Delimiter)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "latest.csv", cfg.Sources["customers"])
	assert.Equal(t, "sdw.dim_customer", cfg.Tables["customers"], "unset flag keeps the project value")
	assert.Equal(t, "sdw.dim_product", cfg.Tables["products"])
}

func TestBuildLoadConfig_ProjectOverridesOutsideRunAreSkipped(t *testing.T) {
	dir := isolateEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sdwload.yaml"), []byte(projectYAML), 0o644))
	cmd, f := newRunCommand(t, "--dry-run")

	cfg, err := buildLoadConfig(cmd, f, []string{"cities"}, false)
	require.NoError(t, err)

	assert.Empty(t, cfg.Sources)
	assert.Empty(t, cfg.Tables)
}

func TestBuildLoadConfig_RejectsOverrideKeys(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		args    []string
		wantErr error
	}{
		{
			name:    "misspelled source flag",
			args:    []string{"--dry-run", "--source", "customer=people.csv"},
			wantErr: sdwload.ErrUnknownDataset,
		},
		{
			name:    "misspelled table flag",
			args:    []string{"--dry-run", "--table", "customer=dim_people"},
			wantErr: sdwload.ErrUnknownDataset,
		},
		{
			name:    "flag for dataset not loaded",
			args:    []string{"--dry-run", "--source", "products=items.csv"},
			wantErr: sdwload.ErrInvalidConfig,
		},
		{
			name:    "misspelled project dataset",
			yaml:    "datasets:\n  customer:\n    source: people.csv\n",
			args:    []string{"--dry-run"},
			wantErr: sdwload.ErrUnknownDataset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolateEnv(t)
			if tt.yaml != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "sdwload.yaml"), []byte(tt.yaml), 0o644))
			}
			cmd, f := newRunCommand(t, tt.args...)

			_, err := buildLoadConfig(cmd, f, []string{"customers"}, false)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, sdwload.ExitConfigError, sdwload.ExitCodeForError(err))
		})
	}
}

func TestBuildLoadConfig_ResolvesConnection(t *testing.T) {
	isolateEnv(t)
	cmd, f := newRunCommand(t, "--driver", "sqlite", "-d", "warehouse.db")

	cfg, err := buildLoadConfig(cmd, f, []string{"cities"}, false)
	require.NoError(t, err)

	require.NotNil(t, cfg.Connection)
	assert.Equal(t, sdwload.DriverSQLite, cfg.Connection.Driver)
	assert.Equal(t, "warehouse.db", cfg.Connection.Database)
}

func TestBuildLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{name: "missing explicit config", args: []string{"--dry-run", "--config", "absent.yaml"}, wantCode: sdwload.ExitConfigError},
		{name: "zero timeout", args: []string{"--dry-run", "--timeout", "0s"}, wantCode: sdwload.ExitUsageError},
		{name: "multi-character delimiter", args: []string{"--dry-run", "--delimiter", ";;"}, wantCode: sdwload.ExitConfigError},
		{name: "quote delimiter", args: []string{"--dry-run", "--delimiter", `"`}, wantCode: sdwload.ExitConfigError},
		{name: "connection conflict", args: []string{"--connection", "sqlite://a.db", "--driver", "sqlite"}, wantCode: sdwload.ExitUsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			cmd, f := newRunCommand(t, tt.args...)

			_, err := buildLoadConfig(cmd, f, []string{"customers"}, false)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, sdwload.ExitCodeForError(err), err.Error())
		})
	}
}
