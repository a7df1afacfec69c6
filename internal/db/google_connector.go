package db

import (
	"context"
	"fmt"
	"net"
	"sync"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// GoogleCloudSQLConnector connects to Google Cloud SQL with IAM database
// authentication through the Cloud SQL Go Connector.
//
// Close releases the dialer and must be called after the pool is closed.
type GoogleCloudSQLConnector struct {
	config   *fsedit.ConnectionConfig
	instance string
	opts     options

	mu     sync.Mutex
	dialer *cloudsqlconn.Dialer
}

var _ fsedit.Connector = (*GoogleCloudSQLConnector)(nil)

// NewGoogleCloudSQLConnector creates a connector for instance (project:region:instance).
func NewGoogleCloudSQLConnector(config *fsedit.ConnectionConfig, instance string, opts ...Option) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{
		config:   config,
		instance: instance,
		opts:     newOptions(opts),
	}
}

// Connect establishes a pool whose connections are dialed by the Cloud SQL
// connector, which handles authentication and TLS.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Cloud SQL dialer: %w", fsedit.ErrConnectionFailed, err)
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s dbname=%s sslmode=disable application_name=%s",
		c.instance,
		c.config.Username,
		c.config.Database,
		appName(c.config),
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(ctx, c.instance)
	}

	configurePool(poolConfig, &c.opts)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		dialer.Close()
		return nil, wrapConnectionError(err, c.instance, 0, c.config.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		dialer.Close()
		return nil, wrapConnectionError(err, c.instance, 0, c.config.Database)
	}

	c.mu.Lock()
	c.dialer = dialer
	c.mu.Unlock()
	return pool, nil
}

// Close releases the Cloud SQL dialer.
func (c *GoogleCloudSQLConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dialer != nil {
		err := c.dialer.Close()
		c.dialer = nil
		return err
	}
	return nil
}

func appName(config *fsedit.ConnectionConfig) string {
	if config.AppName == "" {
		return "fsedit"
	}
	return config.AppName
}
