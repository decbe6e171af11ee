package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/retail-sdw/sdwload/internal/config"
	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "Write an sdwload.yaml for the resolved connection",
	Long: `Resolves the connection from flags and environment variables exactly like
load and stage do, then writes it to sdwload.yaml together with the data
directory and delimiter. Passwords are never written.

Examples:
  # Save a MySQL warehouse for later runs
  sdwload config --connection "mysql://etl@warehouse:3306/retail_sdw"

  # Save an Azure-authenticated Postgres target in ./project
  sdwload config ./project -H sdw.postgres.database.azure.com -U etl --azure`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfig,
}

var (
	configConn      connectionFlags
	configDataDir   string
	configDelimiter string
	configForce     bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	addConnectionFlags(configCmd, &configConn)
	configCmd.Flags().StringVar(&configDataDir, "data-dir", "", "Data directory to record (default: data)")
	configCmd.Flags().StringVar(&configDelimiter, "delimiter", "", "CSV field delimiter to record")
	configCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing sdwload.yaml")
}

func runConfig(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	existing, err := config.Load(targetDir)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return err
	}
	if existing != nil && !configForce {
		return fmt.Errorf("%s already exists in %s; use --force to overwrite: %w",
			config.ConfigFileName, targetDir, sdwload.ErrUsage)
	}

	if _, err := config.ParseDelimiter(configDelimiter); err != nil {
		return err
	}

	connConfig, err := resolveConnectionFromFlags(configConn, nil)
	if err != nil {
		return err
	}
	if err := connConfig.Validate(); err != nil {
		return err
	}

	path, err := saveConnectionToConfig(targetDir, connConfig)
	if err != nil {
		return err
	}

	fmt.Printf("Configuration saved to %s\n", path)
	return nil
}

// saveConnectionToConfig writes connConfig, without its password, to
// sdwload.yaml in dir and returns the file path.
func saveConnectionToConfig(dir string, connConfig *sdwload.ConnectionConfig) (string, error) {
	cfg := config.ProjectConfig{
		Connection: config.ConnectionConfig{
			Driver:         string(connConfig.Driver),
			Host:           connConfig.Host,
			Port:           connConfig.Port,
			Username:       connConfig.Username,
			Database:       connConfig.Database,
			SSLMode:        connConfig.SSLMode,
			AuthMethod:     authMethodToString(connConfig.AuthMethod),
			AzureTenantID:  connConfig.AzureTenantID,
			AzureClientID:  connConfig.AzureClientID,
			AWSRegion:      connConfig.AWSRegion,
			GoogleInstance: connConfig.GoogleInstance,
		},
		DataDir:   configDataDir,
		Delimiter: configDelimiter,
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, config.ConfigFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

// authMethodToString maps an auth method to its sdwload.yaml spelling.
func authMethodToString(m sdwload.AuthMethod) string {
	switch m {
	case sdwload.AuthMethodAzureEntraID:
		return "azure"
	case sdwload.AuthMethodAWSIAM:
		return "aws"
	case sdwload.AuthMethodGoogleIAM:
		return "google"
	default:
		return ""
	}
}
