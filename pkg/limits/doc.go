// Package limits is the admission-decision layer invoked before mutating
// ticket operations. It combines live usage from the accountant with the
// effective plan limits (custom pricing included) and allows or denies the
// operation, producing structured upgrade guidance on denial.
//
// Two policies shape every decision:
//
//   - Fail-open: when the usage or plan lookup itself fails, the check
//     returns allowed=true and logs the condition. Availability of the
//     ticketing system outranks strict quota enforcement.
//   - Per-tenant serialization: admission checks for the same tenant run one
//     at a time behind a keyed mutex, so two concurrent creations cannot both
//     observe a count one below the limit. The guarantee is per process;
//     multi-node deployments should route a tenant's mutations to one node.
//
// Basic usage:
//
//	enforcer := limits.NewEnforcer(accountant, store, catalog)
//
//	res := enforcer.CheckCreate(ctx, tenantID)
//	if !res.Allowed {
//	    limits.WriteDenial(w, res) // 429 with upgrade guidance
//	    return
//	}
package limits
