// Package pg manages the PostgreSQL connection pool backing the
// subscription and ticket stores: pooled connections with startup retries,
// goose migrations, a health check, and error classification helpers shared
// by the stores.
package pg
