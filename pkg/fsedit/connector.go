package fsedit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connector opens the connection pool used by the PostgreSQL backend.
// Implementations differ by authentication method.
type Connector interface {
	// Connect establishes a connection pool. The caller closes it.
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}
