// Package sweep runs the unattended background jobs that advance trials
// through their lifecycle: reminder sends ahead of trial end and expiration
// processing once the trial window closes.
//
// Both jobs are idempotent per trigger window. Reminders are deduplicated per
// subscription+offset+calendar day through a ReminderLog; expiration drives
// each due trial through the lifecycle manager exactly once and keeps going
// past per-subscription failures, reporting counts for observability. The
// scheduler guards both jobs with a single lock so a slow run and the next
// tick can never double-process the same trial; a running sweep is allowed to
// finish, never force-terminated.
//
// Basic usage:
//
//	sweeper := sweep.NewSweeper(store, lifecycle, notif, sweep.NewMemoryReminderLog())
//	scheduler := sweep.NewScheduler(sweeper)
//	go scheduler.Start(ctx)
package sweep
