package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"distillery/internal/planning"
	"distillery/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type memStore struct{ saved []service.ExportStatus }

func (m *memStore) Save(_ context.Context, st service.ExportStatus) error {
	m.saved = append(m.saved, st)
	return nil
}

func (m *memStore) Get(_ context.Context, _, _ uuid.UUID) (*service.ExportStatus, error) {
	return nil, service.ErrExportNotFound
}

func exportJob() service.ExportJob {
	return service.ExportJob{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Batches: []planning.ScheduledBatch{{
			Product: "Rainforest Gin", ProductionType: "GIN", ScheduledMonth: 3, ScheduledMonthName: "March",
			Packs: []planning.PackQuantity{{SizeML: 700, Units: 12}},
		}},
		Snapshot: planning.Snapshot{"Bottle 700ml": decimal.NewFromInt(2)},
	}
}

func TestExportWorker_WritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	store := &memStore{}
	w := NewExportWorker(service.NewPlanningService(nil, nil, nil, nil), store, dir)
	job := exportJob()

	require.NoError(t, w.Handle(context.Background(), job))

	require.Len(t, store.saved, 1)
	st := store.saved[0]
	assert.Equal(t, service.ExportDone, st.Status)
	assert.Equal(t, filepath.Join(dir, job.OrganizationID.String(), job.ID.String()+".xlsx"), st.Path)

	f, err := excelize.OpenFile(st.Path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Purchasing")
	require.NoError(t, err)
	require.Greater(t, len(rows), 1)

	entries, err := os.ReadDir(filepath.Dir(st.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestExportWorker_FailureIsRecorded(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store := &memStore{}
	w := NewExportWorker(service.NewPlanningService(nil, nil, nil, nil), store, blocker)

	err := w.Handle(context.Background(), exportJob())
	require.Error(t, err)
	require.Len(t, store.saved, 1)
	assert.Equal(t, service.ExportFailed, store.saved[0].Status)
	assert.NotEmpty(t, store.saved[0].Error)
}

func TestProcessJob(t *testing.T) {
	dir := t.TempDir()
	store := &memStore{}
	w := NewExportWorker(service.NewPlanningService(nil, nil, nil, nil), store, dir)

	raw, err := encodeJob(jobTypeExport, exportJob())
	require.NoError(t, err)
	require.NoError(t, processJob(context.Background(), w, string(raw)))
	assert.Equal(t, service.ExportDone, store.saved[0].Status)

	unknown, err := encodeJob("email", map[string]string{})
	require.NoError(t, err)
	assert.Error(t, processJob(context.Background(), w, string(unknown)))
	assert.Error(t, processJob(context.Background(), w, "{"))
}
