package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"distillery/internal/planning"

	"github.com/google/uuid"
)

// ItemLocker serializes postings that touch the same items. Lock takes every
// key or none; on failure it returns a *ledger.ConcurrencyConflictError.
type ItemLocker interface {
	Lock(ctx context.Context, keys []string) (release func(), err error)
}

// StockLockKey names the posting lock of one item.
func StockLockKey(orgID, itemID uuid.UUID) string {
	return fmt.Sprintf("stock:%s:%s", orgID, itemID)
}

// SnapshotCache holds each organization's on-hand figures by item name between postings.
// Every Invalidate bumps the organization's generation; Set stores snap only
// if the generation still equals gen, so a snapshot read before a posting
// committed is never cached after it.
type SnapshotCache interface {
	Get(ctx context.Context, orgID uuid.UUID) (planning.Snapshot, bool)
	Generation(ctx context.Context, orgID uuid.UUID) (int64, error)
	Set(ctx context.Context, orgID uuid.UUID, gen int64, snap planning.Snapshot) error
	Invalidate(ctx context.Context, orgID uuid.UUID) error
}

// Export job states.
const (
	ExportPending = "pending"
	ExportDone    = "done"
	ExportFailed  = "failed"
)

// ExportJob asks the worker pool to render a purchasing workbook.
type ExportJob struct {
	ID             uuid.UUID                 `json:"id"`
	OrganizationID uuid.UUID                 `json:"organization_id"`
	Batches        []planning.ScheduledBatch `json:"batches"`
	Snapshot       planning.Snapshot         `json:"snapshot,omitempty"`
	Month          string                    `json:"month,omitempty"`
	Category       string                    `json:"category,omitempty"`
}

// ExportStatus tracks a job from enqueue to download.
type ExportStatus struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Status         string    `json:"status"`
	Path           string    `json:"path,omitempty"`
	Error          string    `json:"error,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ExportQueue hands export jobs to the worker pool.
type ExportQueue interface {
	EnqueueExport(ctx context.Context, job ExportJob) error
}

// ErrExportNotFound is returned for unknown or expired export jobs.
var ErrExportNotFound = errors.New("export not found")

// ErrExportsDisabled is returned when the server runs without a job queue.
var ErrExportsDisabled = errors.New("exports are not available on this server")

// ExportStore persists export job status.
type ExportStore interface {
	Save(ctx context.Context, st ExportStatus) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*ExportStatus, error)
}
