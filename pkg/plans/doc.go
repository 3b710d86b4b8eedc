// Package plans defines subscription plans for the ticketing system and the
// catalog used to look them up.
//
// A plan carries a price, a billing interval, a default trial length, and three
// ticket quotas (active, completed, total). A quota of -1 (Unlimited) means the
// dimension is not enforced. Plans are loaded once from a Source and treated as
// immutable afterwards; a plan referenced by a live subscription only changes
// through an explicit catalog reload.
//
// Basic usage:
//
//	source := plans.NewInMemSource(map[string]plans.Plan{
//	    "free": {
//	        Slug:     "free",
//	        Name:     "Free",
//	        Interval: plans.IntervalNone,
//	        Limits:   plans.TicketLimits{Active: 5, Completed: 20, Total: 25},
//	        Public:   true,
//	    },
//	    "pro": {
//	        Slug:      "pro",
//	        Name:      "Pro",
//	        Price:     plans.Money{Amount: 2900, Currency: "USD"},
//	        Interval:  plans.IntervalMonthly,
//	        TrialDays: 14,
//	        Limits:    plans.TicketLimits{Active: plans.Unlimited, Completed: plans.Unlimited, Total: plans.Unlimited},
//	        Public:    true,
//	    },
//	})
//
//	catalog, err := plans.NewCatalog(ctx, source)
//	plan, err := catalog.FindBySlug(ctx, "pro")
package plans
