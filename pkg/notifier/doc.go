// Package notifier is the fire-and-forget side channel for subscription
// lifecycle messages (trial reminders, conversions, cancellations).
//
// Delivery is always best-effort: callers log a failed Send and move on, and a
// notifier error must never roll back or block a state transition. The
// MultiNotifier fans out to several channels and continues past per-channel
// failures.
package notifier
