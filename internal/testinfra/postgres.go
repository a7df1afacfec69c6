// Package testinfra starts the PostgreSQL instance used by integration tests.
//
// Tests call RequireDatabase, which prefers FSEDIT_TEST_CONN and otherwise
// starts one shared testcontainers-go container per test binary. Without
// Docker the test is skipped.
package testinfra

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:17-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "postgres"

	// ConnEnvVar points tests at an existing server instead of a container.
	ConnEnvVar = "FSEDIT_TEST_CONN"
)

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartPostgres runs a disposable PostgreSQL container.
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}

var (
	containerOnce sync.Once
	containerConn string
	containerErr  error
)

func sharedContainer() (string, error) {
	containerOnce.Do(func() {
		ctr, err := StartPostgres(context.Background())
		if err != nil {
			containerErr = err
			return
		}
		containerConn = ctr.ConnString
	})
	return containerConn, containerErr
}

// RequireDatabase returns a server connection string or skips the test in
// short mode or when no server is available.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if connString := os.Getenv(ConnEnvVar); connString != "" {
		return connString
	}
	connString, err := sharedContainer()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", ConnEnvVar, err)
	}
	return connString
}

// NewTestPool creates a fresh database on the server and returns a pool
// connected to it. The database is dropped when the test ends.
func NewTestPool(t *testing.T, connString string) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("connect for test database creation: %v", err)
	}
	defer admin.Close()

	name := "fsedit_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	if _, err := admin.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		t.Fatalf("create test database %s: %v", name, err)
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		t.Fatalf("parse connection string: %v", err)
	}
	cfg.ConnConfig.Database = name

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect to test database %s: %v", name, err)
	}

	t.Cleanup(func() {
		pool.Close()
		dropDatabase(t, connString, name)
	})
	return pool
}

func dropDatabase(t *testing.T, connString, name string) {
	t.Helper()
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Logf("Warning: connect for cleanup: %v", err)
		return
	}
	defer admin.Close()

	if _, err := admin.Exec(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()`, name); err != nil {
		t.Logf("Warning: terminate connections to %s: %v", name, err)
	}
	if _, err := admin.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize()); err != nil {
		t.Logf("Warning: drop test database %s: %v", name, err)
	}
}
