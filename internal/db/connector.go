// Package db opens the pgx connection pools used by the PostgreSQL backend.
//
// NewConnector selects an implementation from ConnectionConfig.AuthMethod:
// username/password, AWS RDS IAM and Azure Entra ID tokens used as the
// password, or the Cloud SQL Go Connector for Google Cloud SQL IAM. Every
// connector retries transient failures with the PostgreSQL classifier from
// internal/retry.
package db

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/fsedit/internal/logging"
	"github.com/vvka-141/fsedit/internal/retry"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns allows parallel subtree enumeration at the default
	// traversal concurrency.
	DefaultMaxConns = int32(fsedit.DefaultConcurrency)

	DefaultMinConns = 0

	DefaultMaxConnIdleTime = 5 * time.Minute

	// tokenExpiryWarning is how close to expiry an acquired token gets logged.
	tokenExpiryWarning = 5 * time.Minute
)

// Option configures a connector.
type Option func(*options)

type options struct {
	logger   fsedit.Logger
	maxConns int32
	strategy fsedit.BackoffStrategy
}

// WithLogger routes server notices and retry diagnostics to logger.
func WithLogger(logger fsedit.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxConns sets the pool size. Values below 1 are ignored.
func WithMaxConns(n int32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConns = n
		}
	}
}

// WithBackoff replaces the retry strategy used while connecting.
func WithBackoff(strategy fsedit.BackoffStrategy) Option {
	return func(o *options) {
		if strategy != nil {
			o.strategy = strategy
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:   logging.NewNullLogger(),
		maxConns: DefaultMaxConns,
		strategy: retry.DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o *options) executor(what string) *retry.Executor {
	return retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), o.strategy).WithLogger(o.logger, what)
}

func configurePool(poolConfig *pgxpool.Config, o *options) {
	poolConfig.MaxConns = o.maxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	logger := o.logger
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("postgres %s: %s", strings.ToLower(notice.Severity), notice.Message)
	}
}

// openPool parses connStr, creates the pool and pings it once.
func openPool(ctx context.Context, connStr string, config *fsedit.ConnectionConfig, o *options) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	configurePool(poolConfig, o)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}
	return pool, nil
}

// StandardConnector connects with username/password authentication and
// retries transient failures.
type StandardConnector struct {
	config   *fsedit.ConnectionConfig
	opts     options
	executor *retry.Executor
}

var _ fsedit.Connector = (*StandardConnector)(nil)

// NewStandardConnector creates a StandardConnector for config.
func NewStandardConnector(config *fsedit.ConnectionConfig, opts ...Option) *StandardConnector {
	o := newOptions(opts)
	return &StandardConnector{
		config:   config,
		opts:     o,
		executor: o.executor("connect"),
	}
}

// Connect establishes a connection pool.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	connStr := connURI(c.config)
	return retry.Do(ctx, c.executor, func(ctx context.Context) (*pgxpool.Pool, error) {
		return openPool(ctx, connStr, c.config, &c.opts)
	})
}

// NewConnector creates the Connector matching config.AuthMethod.
func NewConnector(config *fsedit.ConnectionConfig, opts ...Option) (fsedit.Connector, error) {
	switch config.AuthMethod {
	case fsedit.AuthMethodStandard:
		return NewStandardConnector(config, opts...), nil
	case fsedit.AuthMethodAWSIAM:
		return newAWSConnector(config, opts)
	case fsedit.AuthMethodGoogleIAM:
		return newGoogleConnector(config, opts)
	case fsedit.AuthMethodAzureEntraID:
		return newAzureConnector(config, opts)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, fsedit.ErrUnsupportedAuthMethod)
	}
}

// Open connects with the connector matching config and returns the pool with
// a release function that closes the pool and any connector resources.
func Open(ctx context.Context, config *fsedit.ConnectionConfig, opts ...Option) (*pgxpool.Pool, func(), error) {
	connector, err := NewConnector(config, opts...)
	if err != nil {
		return nil, nil, err
	}
	pool, err := connector.Connect(ctx)
	if err != nil {
		if closer, ok := connector.(io.Closer); ok {
			closer.Close()
		}
		return nil, nil, err
	}
	release := func() {
		pool.Close()
		if closer, ok := connector.(io.Closer); ok {
			closer.Close()
		}
	}
	return pool, release, nil
}

// wrapConnectionError wraps raw pgx connection errors with ErrConnectionFailed
// and actionable guidance.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`%w: refused by %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port
  - Firewall blocking the connection

Original error: %w`, fsedit.ErrConnectionFailed, addr, host, port, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`%w: cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable

Original error: %w`, fsedit.ErrConnectionFailed, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`%w: password authentication failed for database "%s"

Possible causes:
  - Wrong password (check FSEDIT_PG_PASSWORD or ~/.pgpass)
  - Wrong username
  - User does not have access to the database

Original error: %w`, fsedit.ErrConnectionFailed, database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`%w: database "%s" does not exist

To create it:
  createdb %s

Original error: %w`, fsedit.ErrConnectionFailed, database, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`%w: timed out connecting to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)

Original error: %w`, fsedit.ErrConnectionFailed, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`%w: SSL/TLS error

Possible causes:
  - Server requires SSL but sslmode is wrong
  - Certificate verification failed (try sslmode=require)

Original error: %w`, fsedit.ErrConnectionFailed, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`%w: too many connections to database "%s"

Possible causes:
  - max_connections limit reached in postgresql.conf
  - Lower the pool size with --concurrency

Original error: %w`, fsedit.ErrConnectionFailed, database, err)

	default:
		return fmt.Errorf("%w: %w", fsedit.ErrConnectionFailed, err)
	}
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *fsedit.ConnectionConfig, opts []Option) (fsedit.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", opts...), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *fsedit.ConnectionConfig, opts []Option) (fsedit.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires postgres.google_instance (project:region:instance): %w", fsedit.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires postgres.username: %w", fsedit.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, opts...), nil
}

// newAzureConnector uses Service Principal auth when tenant, client and
// secret are all set, and the DefaultAzureCredential chain otherwise.
func newAzureConnector(config *fsedit.ConnectionConfig, opts []Option) (fsedit.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure", opts...), nil
}
