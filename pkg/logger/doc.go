// Package logger builds configured slog.Logger instances for the
// entitlement engine. It supports JSON and text output, static attributes,
// and context extractors that pull request-scoped values such as the tenant
// ID into every record.
package logger
