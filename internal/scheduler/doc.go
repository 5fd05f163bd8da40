// Package scheduler adapts the gocron job scheduler to the small
// interface the device runtime needs: one-shot jobs, fixed-interval
// jobs, and cancellation.
//
// Cancellation semantics matter here: disabling a device cancels all of
// its jobs, and a cancellation can race with the job's own firing.
// Cancel therefore treats unknown or already-fired handles as a no-op,
// and every job callback re-checks the device's enabled flag on entry.
package scheduler
