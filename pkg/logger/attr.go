package logger

import (
	"log/slog"

	"github.com/google/uuid"
)

// Error returns a standard attribute for a single error value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// TenantID returns the attribute used everywhere a log line concerns one
// tenant, keeping the key consistent across packages.
func TenantID(id uuid.UUID) slog.Attr {
	return slog.String("tenant_id", id.String())
}

// SubscriptionID returns the attribute for a subscription identifier.
func SubscriptionID(id uuid.UUID) slog.Attr {
	return slog.String("subscription_id", id.String())
}

// Plan returns the attribute for a plan slug.
func Plan(slug string) slog.Attr {
	return slog.String("plan", slug)
}
