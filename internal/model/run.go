package model

import "time"

// Operation names recorded in the audit log.
const (
	OperationCleanSender = "clean_sender"
	OperationPrune       = "prune"
	OperationEmptyTrash  = "empty_trash"
)

// CleanupRun is one audit-log entry: a single mutating operation against
// the mailbox and its outcome.
type CleanupRun struct {
	// ID is the run's unique identifier (UUID).
	ID string

	// Operation is one of the Operation* constants.
	Operation string

	// Folder is the folder the operation targeted.
	Folder string

	// Sender is set for clean_sender runs; empty otherwise.
	Sender string

	// Succeeded and Failed are the UID counts from the MutationResult.
	Succeeded int
	Failed    int

	// StartedAt and FinishedAt bound the operation.
	StartedAt  time.Time
	FinishedAt time.Time

	// Error holds the surfaced error text when the operation aborted.
	Error string
}
