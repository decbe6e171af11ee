package cli

import (
	"github.com/retail-sdw/sdwload/internal/config"
	"github.com/retail-sdw/sdwload/internal/db"
	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// resolveConnectionFromFlags resolves connection configuration from flags,
// the environment and the project config.
func resolveConnectionFromFlags(
	flags connectionFlags,
	projectCfg *config.ProjectConfig,
) (*sdwload.ConnectionConfig, error) {
	granularFlags := &db.GranularConnFlags{
		Driver:   flags.driver,
		Host:     flags.host,
		Port:     flags.port,
		Username: flags.username,
		Database: flags.database,
		SSLMode:  flags.sslMode,
	}

	cloudFlags := &db.CloudFlags{
		Azure: &db.AzureFlags{
			Enabled:  flags.azure,
			TenantID: flags.azureTenantID,
			ClientID: flags.azureClientID,
		},
		AWS: &db.AWSFlags{
			Enabled: flags.aws,
			Region:  flags.awsRegion,
		},
		Google: &db.GoogleFlags{
			Enabled:  flags.google,
			Instance: flags.googleInstance,
		},
	}

	return db.ResolveConnectionParams(
		flags.connection,
		granularFlags,
		cloudFlags,
		db.LoadFromEnvironment(),
		projectCfg,
	)
}
