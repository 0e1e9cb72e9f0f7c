package store

import (
	"context"

	"github.com/nhle/mailsweep/internal/model"
)

// RunFilter controls filtering and pagination for audit-log queries.
type RunFilter struct {
	Operation *string
	Folder    *string
	Limit     int
	Offset    int
}

// Store defines the persistence interface for the cleanup audit log.
type Store interface {
	RecordRun(ctx context.Context, run model.CleanupRun) error
	GetRuns(ctx context.Context, filter RunFilter) ([]model.CleanupRun, error)
	GetRunByID(ctx context.Context, id string) (*model.CleanupRun, error)

	Close() error
}
