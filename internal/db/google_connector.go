package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// GoogleCloudSQLConnector implements the Connector interface for Google Cloud SQL
// using IAM database authentication via the Cloud SQL Go Connector.
//
// Each session owns its dialer; closing the session releases it.
type GoogleCloudSQLConnector struct {
	config   *sdwload.ConnectionConfig
	instance string
	opts     []cloudsqlconn.Option
}

// NewGoogleCloudSQLConnector creates a connector for Google Cloud SQL IAM authentication.
// instance is the instance connection name in format: project:region:instance
func NewGoogleCloudSQLConnector(config *sdwload.ConnectionConfig, instance string, opts ...cloudsqlconn.Option) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{
		config:   config,
		instance: instance,
		opts:     append([]cloudsqlconn.Option{cloudsqlconn.WithIAMAuthN()}, opts...),
	}
}

// Connect opens a session through the Cloud SQL dialer, which handles
// authentication and TLS; the driver-level sslmode is therefore disabled.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (sdwload.Session, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w: %w", sdwload.ErrConnectionFailed, err)
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s dbname=%s sslmode=disable",
		c.instance,
		c.config.Username,
		c.config.Database,
	)

	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, c.instance)
	}

	session, err := openPgxSession(ctx, c.config, dsn, dial)
	if err != nil {
		_ = dialer.Close()
		return nil, err
	}
	session.release = dialer
	return session, nil
}
