package db

import (
	"context"
	"time"
)

// TokenProvider acquires cloud tokens used as the PostgreSQL password.
type TokenProvider interface {
	// GetToken returns the token and its expiry time.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for logging. It never includes secrets.
	String() string
}

// AzurePostgreSQLScope is the OAuth scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"

// rdsTokenLifetime is how long an RDS IAM token stays valid after signing.
const rdsTokenLifetime = 15 * time.Minute
