package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/fsedit/internal/retry"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// TokenBasedConnector connects to cloud-hosted PostgreSQL that authenticates
// with short-lived tokens (AWS IAM, Azure Entra ID). The token is acquired
// from a TokenProvider on every attempt and used as the password.
type TokenBasedConnector struct {
	config        *fsedit.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	opts          options
	executor      *retry.Executor
}

var _ fsedit.Connector = (*TokenBasedConnector)(nil)

// NewTokenBasedConnector creates a connector that uses tokenProvider for authentication.
// providerName appears in diagnostics (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *fsedit.ConnectionConfig, tokenProvider TokenProvider, providerName string, opts ...Option) *TokenBasedConnector {
	o := newOptions(opts)
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		opts:          o,
		executor:      o.executor(providerName + " connect"),
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	return retry.Do(ctx, c.executor, func(ctx context.Context) (*pgxpool.Pool, error) {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
		}

		if left := time.Until(expiresOn); left < tokenExpiryWarning {
			c.opts.logger.Info("%s token expires in %v", c.providerName, left.Round(time.Second))
		}
		c.opts.logger.Verbose("Acquired token from %s", c.tokenProvider)

		configWithToken := *c.config
		configWithToken.Password = token

		return openPool(ctx, connURI(&configWithToken), c.config, &c.opts)
	})
}
