package db

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// tokenExpiryWarning is the remaining lifetime below which a warning is printed.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// The token is acquired from a TokenProvider and used as the database password.
type TokenBasedConnector struct {
	config        *sdwload.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	warnings      io.Writer
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error/warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *sdwload.ConnectionConfig, tokenProvider TokenProvider, providerName string) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		warnings:      os.Stderr,
	}
}

// Connect acquires a fresh token and opens a session with it.
func (c *TokenBasedConnector) Connect(ctx context.Context) (sdwload.Session, error) {
	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s token: %w: %w", c.providerName, sdwload.ErrConnectionFailed, err)
	}

	if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
		fmt.Fprintf(c.warnings, "Warning: %s token expires in %v\n", c.providerName, remaining.Round(time.Second))
	}

	configWithToken := *c.config
	configWithToken.Password = token

	return openSession(ctx, &configWithToken)
}
