package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/retail-sdw/sdwload/internal/config"
	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	connection     string
	driver         string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	azure          bool
	azureTenantID  string
	azureClientID  string
	aws            bool
	awsRegion      string
	google         bool
	googleInstance string
}

// runFlags holds the flags shared by the load and stage commands.
type runFlags struct {
	conn       connectionFlags
	configPath string
	dataDir    string
	delimiter  string
	sources    map[string]string
	tables     map[string]string
	timeout    time.Duration
	dryRun     bool
}

func addConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	// Connection string flag (mutually exclusive with granular flags)
	cmd.Flags().StringVar(&f.connection, "connection", "",
		"Connection string (postgres://, mysql://, sqlserver://, sqlite://, MySQL DSN or ADO.NET).\n"+
			"Mutually exclusive with granular flags (--driver, --host, --port, --username, --sslmode).\n"+
			"Alternative: SDWLOAD_CONNECTION_STRING or DATABASE_URL environment variable.\n"+
			"Example: mysql://root@localhost:3306/retail_sdw")

	// Granular connection flags
	// Precedence: flag > SDWLOAD_* > PG* (postgres only) > sdwload.yaml > default
	cmd.Flags().StringVar(&f.driver, "driver", "",
		"Database driver: postgres|mysql|sqlite|sqlserver\n"+
			"Precedence: --driver > $SDWLOAD_DRIVER > sdwload.yaml > postgres")
	cmd.Flags().StringVarP(&f.host, "host", "H", "",
		"Database server host\n"+
			"Precedence: --host > $SDWLOAD_HOST > $PGHOST > sdwload.yaml > localhost")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0,
		"Database server port (default: 5432, 3306 or 1433 by driver)")
	cmd.Flags().StringVarP(&f.username, "username", "U", "",
		"Database user (default: $SDWLOAD_USER, $PGUSER or current OS user)")
	cmd.Flags().StringVarP(&f.database, "database", "d", "",
		"Target database, or the database file for sqlite (default: retail_sdw)\n"+
			"Overrides the database of a connection string")
	cmd.Flags().StringVar(&f.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n"+
			"(default: prefer, or $SDWLOAD_SSLMODE)")
	_ = cmd.RegisterFlagCompletionFunc("sslmode", completeSSLModes)
	_ = cmd.RegisterFlagCompletionFunc("driver", completeDrivers)

	// Cloud IAM flags
	cmd.Flags().BoolVar(&f.azure, "azure", false,
		"Enable Azure Entra ID authentication (postgres, mysql)\n"+
			"Uses DefaultAzureCredential chain (Managed Identity, Azure CLI, etc.)")
	cmd.Flags().StringVar(&f.azureTenantID, "azure-tenant-id", "",
		"Azure AD tenant/directory ID (overrides $AZURE_TENANT_ID)")
	cmd.Flags().StringVar(&f.azureClientID, "azure-client-id", "",
		"Azure AD application/client ID (overrides $AZURE_CLIENT_ID)")
	cmd.Flags().BoolVar(&f.aws, "aws", false,
		"Enable AWS RDS IAM authentication (postgres, mysql)")
	cmd.Flags().StringVar(&f.awsRegion, "aws-region", "",
		"AWS region for RDS IAM tokens (overrides $AWS_REGION)")
	cmd.Flags().BoolVar(&f.google, "google", false,
		"Enable Google Cloud SQL IAM authentication (postgres)")
	cmd.Flags().StringVar(&f.googleInstance, "google-instance", "",
		"Cloud SQL instance connection name project:region:instance")
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	addConnectionFlags(cmd, &f.conn)

	cmd.Flags().StringVar(&f.configPath, "config", "",
		"Project file (default: ./"+config.ConfigFileName+" when present)")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "",
		"Directory source files are read from (default: data, or data_dir in sdwload.yaml)")
	_ = cmd.MarkFlagDirname("data-dir")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "",
		"CSV field delimiter: a single character or 'tab' (default ',')")
	cmd.Flags().StringToStringVar(&f.sources, "source", nil,
		"Override a dataset's source file, relative to the data directory\n"+
			"Example: --source customers=customers_2024.csv")
	cmd.Flags().StringToStringVar(&f.tables, "table", nil,
		"Override a dataset's target table\n"+
			"Example: --table customers=sdw.dim_customer")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false,
		"Read and map every source without connecting to the database")

	// Timeout flag - catastrophic failure protection
	cmd.Flags().DurationVar(&f.timeout, "timeout", sdwload.DefaultTimeout,
		"Timeout for the whole run\n"+
			"Prevents indefinite hangs from network issues or lock waits\n"+
			"Examples: 30s, 5m, 1h30m")
}

// loadProjectConfig loads .env and the project file.
// Returns nil config if the default sdwload.yaml does not exist (not an error).
// An explicit --config path must exist.
func loadProjectConfig(path string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	if path != "" {
		cfg, err := config.LoadFile(path)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("config file %s not found: %w", path, sdwload.ErrInvalidConfig)
		}
		return cfg, err
	}

	cfg, err := config.Load(".")
	if errors.Is(err, config.ErrConfigNotFound) {
		return nil, nil
	}
	return cfg, err
}

// buildLoadConfig merges flags, sdwload.yaml and defaults into a LoadConfig.
func buildLoadConfig(cmd *cobra.Command, f *runFlags, names []string, verbose bool) (sdwload.LoadConfig, error) {
	projectCfg, err := loadProjectConfig(f.configPath)
	if err != nil {
		return sdwload.LoadConfig{}, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}

	cfg := sdwload.LoadConfig{
		DataDir:  sdwload.DefaultDataDir,
		Datasets: names,
		DryRun:   f.dryRun,
		Verbose:  verbose,
		Sources:  map[string]string{},
		Tables:   map[string]string{},
	}

	if projectCfg != nil {
		if projectCfg.DataDir != "" {
			cfg.DataDir = projectCfg.DataDir
		}
		for name, ds := range projectCfg.Datasets {
			if _, err := registry.Get(name); err != nil {
				return sdwload.LoadConfig{}, fmt.Errorf("%s datasets: %w", config.ConfigFileName, err)
			}
			// the project file describes every dataset; keep the ones in this run
			if !slices.Contains(names, name) {
				continue
			}
			if ds.Source != "" {
				cfg.Sources[name] = ds.Source
			}
			if ds.Table != "" {
				cfg.Tables[name] = ds.Table
			}
		}
	}
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	for name, src := range f.sources {
		if err := checkOverride("--source", name, names); err != nil {
			return sdwload.LoadConfig{}, err
		}
		cfg.Sources[name] = src
	}
	for name, table := range f.tables {
		if err := checkOverride("--table", name, names); err != nil {
			return sdwload.LoadConfig{}, err
		}
		cfg.Tables[name] = table
	}

	cfg.Delimiter, err = resolveDelimiter(f.delimiter, projectCfg)
	if err != nil {
		return sdwload.LoadConfig{}, err
	}

	cfg.Timeout, err = resolveEffectiveTimeout(cmd, projectCfg, f.timeout)
	if err != nil {
		return sdwload.LoadConfig{}, err
	}

	if !f.dryRun {
		cfg.Connection, err = resolveConnectionFromFlags(f.conn, projectCfg)
		if err != nil {
			return sdwload.LoadConfig{}, err
		}
		if verbose {
			printConnection(cfg.Connection)
		}
	}

	if err := cfg.Validate(); err != nil {
		return sdwload.LoadConfig{}, err
	}
	return cfg, nil
}

// checkOverride rejects a flag override for a dataset that is unknown or
// not part of the run.
func checkOverride(flag, name string, names []string) error {
	if _, err := registry.Get(name); err != nil {
		return fmt.Errorf("%s: %w", flag, err)
	}
	if !slices.Contains(names, name) {
		return fmt.Errorf("%s %s: dataset is not being loaded: %w", flag, name, sdwload.ErrInvalidConfig)
	}
	return nil
}

func resolveDelimiter(flagValue string, projectCfg *config.ProjectConfig) (rune, error) {
	if flagValue != "" {
		return config.ParseDelimiter(flagValue)
	}
	if projectCfg != nil {
		return projectCfg.DelimiterRune()
	}
	return 0, nil
}

// resolveEffectiveTimeout returns the effective timeout, preferring sdwload.yaml if flag wasn't set.
func resolveEffectiveTimeout(
	cmd *cobra.Command,
	projectCfg *config.ProjectConfig,
	flagTimeout time.Duration,
) (time.Duration, error) {
	if projectCfg != nil && !cmd.Flags().Changed("timeout") {
		d, err := projectCfg.TimeoutDuration()
		if err != nil || d > 0 {
			return d, err
		}
	}
	if flagTimeout <= 0 {
		return 0, fmt.Errorf("--timeout must be positive: %w", sdwload.ErrUsage)
	}
	return flagTimeout, nil
}

func printConnection(c *sdwload.ConnectionConfig) {
	fmt.Fprintf(os.Stderr, "[VERBOSE] Connection resolved:\n")
	fmt.Fprintf(os.Stderr, "  Driver: %s\n", c.Driver)
	if c.Driver.IsNetworked() {
		fmt.Fprintf(os.Stderr, "  Host: %s\n", c.Host)
		fmt.Fprintf(os.Stderr, "  Port: %d\n", c.Port)
		fmt.Fprintf(os.Stderr, "  User: %s\n", c.Username)
		fmt.Fprintf(os.Stderr, "  SSL Mode: %s\n", c.SSLMode)
	}
	fmt.Fprintf(os.Stderr, "  Database: %s\n", c.Database)
	fmt.Fprintf(os.Stderr, "  Auth Method: %s\n", c.AuthMethod)
}
