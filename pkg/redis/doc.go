// Package redis connects to the Redis instance backing the shared reminder
// log, with startup retries and a health check.
package redis
