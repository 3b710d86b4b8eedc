// Package subscription owns tenant subscription records and the trial/active/
// cancelled lifecycle state machine of the ticketing system.
//
// A subscription is created by StartTrial or ProvisionActive and from then on
// is mutated exclusively through the Lifecycle operations. Every mutation is a
// single atomic store write that carries both the state change and an appended
// metadata audit event, so a record can never end up with a new status but a
// stale audit trail (or the reverse). Records are never hard-deleted; the
// cancelled terminal state is retained for audit and reporting.
//
// Transition failures return a typed Error carrying an HTTP-style status and
// a machine-readable code, classified as validation, state-conflict, not-found
// or dependency per the engine's error taxonomy.
//
// Basic usage:
//
//	store := subscription.NewMemoryStore()
//	lc := subscription.NewLifecycle(store, catalog,
//	    subscription.WithNotifier(notif),
//	    subscription.WithLogger(log),
//	)
//
//	sub, err := lc.StartTrial(ctx, tenantID, "pro", 14)
//	sub, err = lc.ExtendTrial(ctx, sub.ID, 7, "goodwill")
//	sub, err = lc.ConvertToPaid(ctx, sub.ID, "pay_abc123")
package subscription
