package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"distillery/internal/ledger"
	"distillery/internal/model"
	"distillery/internal/planning"
	"distillery/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubQueue struct {
	jobs []service.ExportJob
	err  error
}

func (q *stubQueue) EnqueueExport(_ context.Context, job service.ExportJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type stubExportStore struct {
	byID map[uuid.UUID]service.ExportStatus
}

var _ service.ExportStore = (*stubExportStore)(nil)

func (s *stubExportStore) Save(_ context.Context, st service.ExportStatus) error {
	if s.byID == nil {
		s.byID = make(map[uuid.UUID]service.ExportStatus)
	}
	s.byID[st.ID] = st
	return nil
}

func (s *stubExportStore) Get(_ context.Context, orgID, id uuid.UUID) (*service.ExportStatus, error) {
	st, ok := s.byID[id]
	if !ok || st.OrganizationID != orgID {
		return nil, service.ErrExportNotFound
	}
	return &st, nil
}

func ginBatch(month string, idx int, bottles int64) planning.ScheduledBatch {
	return planning.ScheduledBatch{
		BatchID:            month + "-1",
		Product:            "Rainforest Gin",
		ProductionType:     "GIN",
		ScheduledMonth:     idx,
		ScheduledMonthName: month,
		Packs:              []planning.PackQuantity{{SizeML: 700, Units: bottles}},
	}
}

func newPlanningEnv() (*ledgerEnv, *stubQueue, *stubExportStore, service.PlanningService) {
	e := newLedgerEnv()
	q := &stubQueue{}
	st := &stubExportStore{}
	return e, q, st, service.NewPlanningService(e.svc, nil, q, st)
}

func TestPlanning_ProjectUsesLedgerStock(t *testing.T) {
	e, _, _, svc := newPlanningEnv()
	bottle := e.seedItem("Bottle 700ml", model.CategoryPackaging, "units")
	e.seedTxn(bottle, nil, ledger.Receive, 500)

	pr, err := svc.Project(ctx, e.org, []planning.ScheduledBatch{ginBatch("March", 3, 600)}, nil)
	require.NoError(t, err)

	tl, ok := pr.Timeline("Bottle 700ml")
	require.True(t, ok)
	assert.True(t, dec(500).Equal(tl.InitialStock))
	require.Len(t, tl.Entries, 1)
	assert.True(t, dec(-100).Equal(tl.Entries[0].StockAfter))
	assert.True(t, tl.Entries[0].RunsOut)
}

func TestPlanning_OverrideWinsOverLedger(t *testing.T) {
	e, _, _, svc := newPlanningEnv()
	bottle := e.seedItem("Bottle 700ml", model.CategoryPackaging, "units")
	e.seedTxn(bottle, nil, ledger.Receive, 500)

	pr, err := svc.Project(ctx, e.org,
		[]planning.ScheduledBatch{ginBatch("March", 3, 600)},
		planning.Snapshot{"Bottle 700ml": dec(1000)})
	require.NoError(t, err)

	tl, _ := pr.Timeline("Bottle 700ml")
	assert.True(t, dec(400).Equal(tl.FinalStock()))
	assert.False(t, tl.Entries[0].RunsOut)
}

func TestPlanning_RequirementsEvaluated(t *testing.T) {
	e, _, _, svc := newPlanningEnv()
	bottle := e.seedItem("Bottle 700ml", model.CategoryPackaging, "units")
	e.seedTxn(bottle, nil, ledger.Receive, 200)

	reqs, err := svc.Requirements(ctx, e.org, ginBatch("March", 3, 600))
	require.NoError(t, err)
	require.NotEmpty(t, reqs)
	assert.Equal(t, "Bottle 700ml", reqs[0].Material)
	assert.True(t, dec(200).Equal(reqs[0].Available))
	assert.Equal(t, planning.StatusLow, reqs[0].Status)
}

func TestPlanning_ShortagesFilters(t *testing.T) {
	e, _, _, svc := newPlanningEnv()
	batches := []planning.ScheduledBatch{ginBatch("March", 3, 60), ginBatch("April", 4, 60)}

	all, err := svc.Shortages(ctx, e.org, service.ShortageQuery{Batches: batches})
	require.NoError(t, err)
	require.NotEmpty(t, all)

	bot, err := svc.Shortages(ctx, e.org, service.ShortageQuery{Batches: batches, Category: planning.CategoryBotanicals})
	require.NoError(t, err)
	require.NotEmpty(t, bot)
	for _, l := range bot {
		assert.Equal(t, planning.CategoryBotanicals, l.Category)
	}

	march, err := svc.Shortages(ctx, e.org, service.ShortageQuery{Batches: batches, Month: "March"})
	require.NoError(t, err)
	assert.True(t, planning.TotalShortage(march).LessThan(planning.TotalShortage(all)))
}

func TestPlanning_OfflineWithoutLedger(t *testing.T) {
	svc := service.NewPlanningService(nil, nil, nil, nil)
	pr, err := svc.Project(context.Background(), uuid.Nil,
		[]planning.ScheduledBatch{ginBatch("March", 3, 6)},
		planning.Snapshot{"Bottle 700ml": dec(6)})
	require.NoError(t, err)
	tl, _ := pr.Timeline("Bottle 700ml")
	assert.True(t, tl.Entries[0].RunsOut, "exactly zero counts as running out")

	_, err = svc.RequestExport(context.Background(), uuid.Nil, service.ShortageQuery{})
	assert.ErrorIs(t, err, service.ErrExportsDisabled)
	_, err = svc.ExportStatus(context.Background(), uuid.Nil, uuid.New())
	assert.ErrorIs(t, err, service.ErrExportNotFound)
}

func TestPlanning_RequestExportFreezesSnapshot(t *testing.T) {
	e, q, st, svc := newPlanningEnv()
	bottle := e.seedItem("Bottle 700ml", model.CategoryPackaging, "units")
	e.seedTxn(bottle, nil, ledger.Receive, 50)

	status, err := svc.RequestExport(ctx, e.org, service.ShortageQuery{
		Batches:  []planning.ScheduledBatch{ginBatch("March", 3, 60)},
		Category: planning.CategoryPackaging,
	})
	require.NoError(t, err)
	assert.Equal(t, service.ExportPending, status.Status)

	require.Len(t, q.jobs, 1)
	job := q.jobs[0]
	assert.Equal(t, status.ID, job.ID)
	assert.True(t, dec(50).Equal(job.Snapshot["Bottle 700ml"]))

	got, err := svc.ExportStatus(ctx, e.org, status.ID)
	require.NoError(t, err)
	assert.Equal(t, service.ExportPending, got.Status)
	_, err = svc.ExportStatus(ctx, uuid.New(), status.ID)
	assert.ErrorIs(t, err, service.ErrExportNotFound)
	assert.Len(t, st.byID, 1)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteExport(ctx, job, &buf))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Purchasing")
	require.NoError(t, err)
	require.Greater(t, len(rows), 1)
	assert.Equal(t, "Item Name", rows[0][0])
}

func TestPlanning_RequestExportQueueFailure(t *testing.T) {
	e, q, _, svc := newPlanningEnv()
	q.err = errors.New("redis unavailable")

	_, err := svc.RequestExport(ctx, e.org, service.ShortageQuery{
		Batches: []planning.ScheduledBatch{ginBatch("March", 3, 6)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis unavailable")
}
