// Package draftstore persists recoverable answer drafts keyed by
// question id. The store is durable across controller restarts and
// guarantees last-write-wins ordering per key by issue order, not by
// write completion order.
package draftstore

import "context"

// Store provides keyed draft persistence.
type Store interface {
	// Save persists text for the question, superseding any earlier
	// draft. It is fire-and-forget: the write completes in the
	// background and failures are absorbed (logged, counted, never
	// surfaced). Ordering is fixed at the moment Save is called.
	Save(ctx context.Context, questionID, text string)

	// Load returns the most recently saved text for the question.
	// The second return value is false if no draft exists.
	Load(ctx context.Context, questionID string) (string, bool, error)

	// Clear removes the question's draft. Like Save, ordering is
	// fixed at call time, so a slow earlier write can never
	// resurrect a cleared draft.
	Clear(ctx context.Context, questionID string)

	// Flush blocks until all background writes issued so far settle.
	Flush()

	// Close flushes and releases the store.
	Close() error
}
