package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"distillery/internal/planning"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PlanningService runs the consumption projector against the ledger's current
// stock. A caller-supplied snapshot overrides individual materials.
type PlanningService interface {
	Requirements(ctx context.Context, orgID uuid.UUID, batch planning.ScheduledBatch) ([]planning.MaterialRequirement, error)
	Project(ctx context.Context, orgID uuid.UUID, batches []planning.ScheduledBatch, override planning.Snapshot) (*planning.Projection, error)
	Shortages(ctx context.Context, orgID uuid.UUID, req ShortageQuery) ([]planning.PurchaseLine, error)

	RequestExport(ctx context.Context, orgID uuid.UUID, req ShortageQuery) (*ExportStatus, error)
	ExportStatus(ctx context.Context, orgID, id uuid.UUID) (*ExportStatus, error)
	// WriteExport renders a queued job's purchasing workbook. Called by the worker.
	WriteExport(ctx context.Context, job ExportJob, w io.Writer) error
}

// ShortageQuery is a schedule plus the optional month and category filters of
// the purchasing list.
type ShortageQuery struct {
	Batches  []planning.ScheduledBatch
	Snapshot planning.Snapshot
	Month    string
	Category string
}

type planningService struct {
	ledger LedgerService
	proj   *planning.Projector
	queue  ExportQueue
	store  ExportStore
	now    func() time.Time
}

// NewPlanningService wires the planner. ledger may be nil for offline use, in
// which case only the override snapshot is used. queue and store may be nil
// when exports are disabled.
func NewPlanningService(ledger LedgerService, recipes planning.RecipeTable, queue ExportQueue, store ExportStore) PlanningService {
	return &planningService{
		ledger: ledger,
		proj:   planning.NewProjector(planning.NewCalculator(recipes)),
		queue:  queue,
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *planningService) Requirements(ctx context.Context, orgID uuid.UUID, batch planning.ScheduledBatch) ([]planning.MaterialRequirement, error) {
	stock, err := s.stock(ctx, orgID, nil)
	if err != nil {
		return nil, err
	}
	reqs := s.proj.Calculator().Requirements(batch)
	return planning.Evaluate(reqs, stock), nil
}

func (s *planningService) Project(ctx context.Context, orgID uuid.UUID, batches []planning.ScheduledBatch, override planning.Snapshot) (*planning.Projection, error) {
	stock, err := s.stock(ctx, orgID, override)
	if err != nil {
		return nil, err
	}
	pr := s.proj.Project(batches, stock)
	log.Debug().
		Str("organization_id", orgID.String()).
		Int("batches", len(batches)).
		Int("materials", len(pr.Timelines)).
		Msg("consumption projected")
	return &pr, nil
}

func (s *planningService) Shortages(ctx context.Context, orgID uuid.UUID, req ShortageQuery) ([]planning.PurchaseLine, error) {
	pr, err := s.Project(ctx, orgID, req.Batches, req.Snapshot)
	if err != nil {
		return nil, err
	}
	return purchaseLines(pr, req.Month, req.Category), nil
}

// RequestExport freezes the stock snapshot at request time so the workbook
// reflects the ledger as it was when the user asked for it.
func (s *planningService) RequestExport(ctx context.Context, orgID uuid.UUID, req ShortageQuery) (*ExportStatus, error) {
	if s.queue == nil || s.store == nil {
		return nil, ErrExportsDisabled
	}
	stock, err := s.stock(ctx, orgID, req.Snapshot)
	if err != nil {
		return nil, err
	}
	job := ExportJob{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Batches:        req.Batches,
		Snapshot:       stock,
		Month:          req.Month,
		Category:       req.Category,
	}
	st := ExportStatus{ID: job.ID, OrganizationID: orgID, Status: ExportPending, UpdatedAt: s.now()}
	if err := s.store.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save export status: %w", err)
	}
	if err := s.queue.EnqueueExport(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue export: %w", err)
	}
	log.Info().
		Str("organization_id", orgID.String()).
		Str("export_id", job.ID.String()).
		Msg("purchasing export queued")
	return &st, nil
}

func (s *planningService) ExportStatus(ctx context.Context, orgID, id uuid.UUID) (*ExportStatus, error) {
	if s.store == nil {
		return nil, ErrExportNotFound
	}
	return s.store.Get(ctx, orgID, id)
}

func (s *planningService) WriteExport(_ context.Context, job ExportJob, w io.Writer) error {
	pr := s.proj.Project(job.Batches, job.Snapshot)
	lines := purchaseLines(&pr, job.Month, job.Category)
	return planning.WritePurchaseXLSX(w, lines, pr.Timelines)
}

// stock is the ledger snapshot with override entries layered on top.
func (s *planningService) stock(ctx context.Context, orgID uuid.UUID, override planning.Snapshot) (planning.Snapshot, error) {
	out := planning.Snapshot{}
	if s.ledger != nil {
		snap, err := s.ledger.Snapshot(ctx, orgID)
		if err != nil {
			return nil, fmt.Errorf("stock snapshot: %w", err)
		}
		for k, v := range snap {
			out[k] = v
		}
	}
	for k, v := range override {
		out[k] = v
	}
	return out, nil
}

func purchaseLines(pr *planning.Projection, month, category string) []planning.PurchaseLine {
	var lines []planning.PurchaseLine
	if strings.TrimSpace(month) != "" {
		lines = planning.AggregateShortagesForMonth(pr.Batches, month)
	} else {
		lines = planning.AggregateShortages(pr.Batches)
	}
	return planning.FilterCategory(lines, category)
}
