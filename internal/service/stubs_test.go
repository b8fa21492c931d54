package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"distillery/internal/ledger"
	"distillery/internal/model"
	"distillery/internal/planning"
	"distillery/internal/repository"
	"distillery/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory ItemRepository stub ────────────────────────────────────────────

type stubItemRepo struct {
	items map[uuid.UUID]*model.Item
}

var _ repository.ItemRepository = (*stubItemRepo)(nil)

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{items: make(map[uuid.UUID]*model.Item)}
}

func (r *stubItemRepo) Create(_ context.Context, it *model.Item) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	r.items[it.ID] = it
	return nil
}

func (r *stubItemRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.Item, error) {
	it, ok := r.items[id]
	if !ok || it.OrganizationID != orgID {
		return nil, repository.ErrNotFound
	}
	return it, nil
}

func (r *stubItemRepo) FindByName(_ context.Context, orgID uuid.UUID, name string) (*model.Item, error) {
	for _, it := range r.items {
		if it.OrganizationID == orgID && it.Name == name {
			return it, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubItemRepo) List(_ context.Context, orgID uuid.UUID, f repository.ItemFilter) ([]model.Item, error) {
	var out []model.Item
	for _, it := range r.items {
		if it.OrganizationID != orgID {
			continue
		}
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(f.Name)) {
			continue
		}
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubItemRepo) LockForUpdateTx(_ *gorm.DB, orgID uuid.UUID, ids []uuid.UUID) ([]model.Item, error) {
	var out []model.Item
	for _, id := range ids {
		if it, ok := r.items[id]; ok && it.OrganizationID == orgID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *stubItemRepo) DB() *gorm.DB { return nil }

// ── In-memory LotRepository stub ─────────────────────────────────────────────

type stubLotRepo struct {
	lots map[uuid.UUID]*model.Lot
}

var _ repository.LotRepository = (*stubLotRepo)(nil)

func newStubLotRepo() *stubLotRepo {
	return &stubLotRepo{lots: make(map[uuid.UUID]*model.Lot)}
}

func (r *stubLotRepo) CreateTx(_ *gorm.DB, l *model.Lot) error {
	r.lots[l.ID] = l
	return nil
}

func (r *stubLotRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.Lot, error) {
	l, ok := r.lots[id]
	if !ok || l.OrganizationID != orgID {
		return nil, repository.ErrNotFound
	}
	return l, nil
}

func (r *stubLotRepo) FindByIDsTx(_ *gorm.DB, orgID uuid.UUID, ids []uuid.UUID) ([]model.Lot, error) {
	var out []model.Lot
	for _, id := range ids {
		if l, ok := r.lots[id]; ok && l.OrganizationID == orgID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubLotRepo) ListByItem(_ context.Context, orgID, itemID uuid.UUID) ([]model.Lot, error) {
	var out []model.Lot
	for _, l := range r.lots {
		if l.OrganizationID == orgID && l.ItemID == itemID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedDate.After(out[j].ReceivedDate) })
	return out, nil
}

// ── In-memory InventoryTxnRepository stub ────────────────────────────────────

// Guarded by mu so postings can run from several goroutines.
type stubTxnRepo struct {
	mu        sync.Mutex
	rows      []model.InventoryTxn
	insertErr error
}

var _ repository.InventoryTxnRepository = (*stubTxnRepo)(nil)

func (r *stubTxnRepo) CreateBatchTx(_ *gorm.DB, rows []model.InventoryTxn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.rows = append(r.rows, rows...)
	return nil
}

func (r *stubTxnRepo) where(orgID uuid.UUID, keep func(model.InventoryTxn) bool) []model.InventoryTxn {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryTxn
	for _, t := range r.rows {
		if t.OrganizationID == orgID && keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (r *stubTxnRepo) ListByItem(_ context.Context, orgID, itemID uuid.UUID) ([]model.InventoryTxn, error) {
	return r.where(orgID, func(t model.InventoryTxn) bool { return t.ItemID == itemID }), nil
}

func (r *stubTxnRepo) ListByLot(_ context.Context, orgID, itemID, lotID uuid.UUID) ([]model.InventoryTxn, error) {
	return r.where(orgID, func(t model.InventoryTxn) bool {
		return t.ItemID == itemID && t.LotID != nil && *t.LotID == lotID
	}), nil
}

func (r *stubTxnRepo) ListByItemsTx(_ *gorm.DB, orgID uuid.UUID, itemIDs []uuid.UUID) ([]model.InventoryTxn, error) {
	want := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		want[id] = true
	}
	return r.where(orgID, func(t model.InventoryTxn) bool { return want[t.ItemID] }), nil
}

func (r *stubTxnRepo) ListAll(_ context.Context, orgID uuid.UUID) ([]model.InventoryTxn, error) {
	return r.where(orgID, func(model.InventoryTxn) bool { return true }), nil
}

func (r *stubTxnRepo) List(_ context.Context, orgID uuid.UUID, f repository.InventoryTxnFilter) ([]model.InventoryTxn, int64, error) {
	rows := r.where(orgID, func(t model.InventoryTxn) bool {
		if f.ItemID != nil && t.ItemID != *f.ItemID {
			return false
		}
		if f.LotID != nil && (t.LotID == nil || *t.LotID != *f.LotID) {
			return false
		}
		return f.TxnType == "" || t.TxnType == f.TxnType
	})
	total := int64(len(rows))
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return rows, total, nil
}

// ── Locker / cache stubs ─────────────────────────────────────────────────────

type stubLocker struct {
	calls    [][]string
	released int
	err      error
}

func (l *stubLocker) Lock(_ context.Context, keys []string) (func(), error) {
	l.calls = append(l.calls, keys)
	if l.err != nil {
		return nil, l.err
	}
	return func() { l.released++ }, nil
}

type stubCache struct {
	mu            sync.Mutex
	snaps         map[uuid.UUID]planning.Snapshot
	gens          map[uuid.UUID]int64
	gets, sets    int
	invalidations int
}

var _ service.SnapshotCache = (*stubCache)(nil)

func newStubCache() *stubCache {
	return &stubCache{
		snaps: make(map[uuid.UUID]planning.Snapshot),
		gens:  make(map[uuid.UUID]int64),
	}
}

func (c *stubCache) Get(_ context.Context, orgID uuid.UUID) (planning.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	s, ok := c.snaps[orgID]
	return s, ok
}

func (c *stubCache) Generation(_ context.Context, orgID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[orgID], nil
}

// Set counts only writes that were stored.
func (c *stubCache) Set(_ context.Context, orgID uuid.UUID, gen int64, s planning.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[orgID] != gen {
		return nil
	}
	c.sets++
	c.snaps[orgID] = s
	return nil
}

func (c *stubCache) Invalidate(_ context.Context, orgID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	c.gens[orgID]++
	delete(c.snaps, orgID)
	return nil
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type ledgerEnv struct {
	org    uuid.UUID
	items  *stubItemRepo
	lots   *stubLotRepo
	txns   *stubTxnRepo
	locker *stubLocker
	cache  *stubCache
	svc    service.LedgerService
}

func newLedgerEnv() *ledgerEnv {
	e := &ledgerEnv{
		org:    uuid.New(),
		items:  newStubItemRepo(),
		lots:   newStubLotRepo(),
		txns:   &stubTxnRepo{},
		locker: &stubLocker{},
		cache:  newStubCache(),
	}
	e.svc = service.NewLedgerService(e.items, e.lots, e.txns, e.locker, e.cache)
	return e
}

func (e *ledgerEnv) seedItem(name, category, uom string) uuid.UUID {
	it := &model.Item{ID: uuid.New(), OrganizationID: e.org, Name: name, Category: category, UOM: uom}
	e.items.items[it.ID] = it
	return it.ID
}

// seedTxn appends a history row directly, bypassing the floor check.
func (e *ledgerEnv) seedTxn(itemID uuid.UUID, lotID *uuid.UUID, typ ledger.TxnType, qty int64) {
	e.txns.mu.Lock()
	defer e.txns.mu.Unlock()
	e.txns.rows = append(e.txns.rows, model.InventoryTxn{
		ID:             uuid.New(),
		OrganizationID: e.org,
		ItemID:         itemID,
		LotID:          lotID,
		TxnType:        string(typ),
		Quantity:       decimal.NewFromInt(qty),
		UOM:            "units",
	})
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func proposed(itemID uuid.UUID, typ ledger.TxnType, qty int64) ledger.Proposed {
	return ledger.Proposed{ItemID: itemID, Type: typ, Quantity: dec(qty), UOM: "units"}
}
