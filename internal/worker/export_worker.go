package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"distillery/internal/service"

	"github.com/rs/zerolog/log"
)

// ExportWorker renders queued purchasing workbooks to local storage and
// records where they landed.
type ExportWorker struct {
	planning service.PlanningService
	store    service.ExportStore
	dir      string
}

func NewExportWorker(planning service.PlanningService, store service.ExportStore, dir string) *ExportWorker {
	return &ExportWorker{planning: planning, store: store, dir: dir}
}

// Handle renders one job. The job's status is always updated, to done or to
// failed; the returned error sends the job to the dead letter queue.
func (w *ExportWorker) Handle(ctx context.Context, job service.ExportJob) error {
	st := service.ExportStatus{ID: job.ID, OrganizationID: job.OrganizationID}

	path, err := w.render(ctx, job)
	if err != nil {
		st.Status = service.ExportFailed
		st.Error = err.Error()
	} else {
		st.Status = service.ExportDone
		st.Path = path
	}
	st.UpdatedAt = time.Now().UTC()

	if serr := w.store.Save(ctx, st); serr != nil {
		log.Error().Err(serr).Str("export_id", job.ID.String()).Msg("export status save failed")
		if err == nil {
			err = serr
		}
	}
	if err != nil {
		return err
	}
	log.Info().
		Str("organization_id", job.OrganizationID.String()).
		Str("export_id", job.ID.String()).
		Str("path", path).
		Msg("purchasing export written")
	return nil
}

// render writes to a temp file and renames it so a download never sees a
// half-written workbook.
func (w *ExportWorker) render(ctx context.Context, job service.ExportJob) (string, error) {
	dir := filepath.Join(w.dir, job.OrganizationID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	final := filepath.Join(dir, job.ID.String()+".xlsx")

	tmp, err := os.CreateTemp(dir, job.ID.String()+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := w.planning.WriteExport(ctx, job, tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("render workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("publish export: %w", err)
	}
	return final, nil
}
