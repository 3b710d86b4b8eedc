// Package usage computes live ticket usage for a tenant from the ticket store.
//
// Usage is a derived view: the accountant re-queries the ticket store on every
// call and never caches counts, so an enforcement decision always sees ticket
// state as of the moment of the check. The ticket store itself is an external
// collaborator and is only ever read.
//
// Basic usage:
//
//	store := usage.NewPostgresTicketStore(pool)
//	accountant := usage.NewAccountant(store)
//
//	stats, err := accountant.CurrentUsage(ctx, tenantID)
//	pct := accountant.PercentageUsed(stats, plan.Limits)
package usage
