package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"distillery/internal/dto"
	"distillery/internal/ledger"
	"distillery/internal/model"
	"distillery/internal/planning"
	"distillery/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const initialLotNote = "Initial lot receipt"

// ErrItemExists is returned when an item name is already taken in the organization.
var ErrItemExists = errors.New("item already exists")

// LedgerService is the only writer of inventory transactions. Every read of
// on-hand is a sum over the ledger; every write goes through the floor check.
type LedgerService interface {
	OnHand(ctx context.Context, orgID, itemID uuid.UUID) (decimal.Decimal, error)
	OnHandByLot(ctx context.Context, orgID, itemID, lotID uuid.UUID) (decimal.Decimal, error)
	// PostBatch writes every transaction or none of them.
	PostBatch(ctx context.Context, orgID uuid.UUID, batch []ledger.Proposed) ([]model.InventoryTxn, error)
	// CreateLot creates the lot and its opening RECEIVE in one transaction.
	CreateLot(ctx context.Context, orgID, itemID uuid.UUID, code string, quantity decimal.Decimal, uom string, note *string) (uuid.UUID, error)

	CreateItem(ctx context.Context, orgID uuid.UUID, req dto.CreateItemRequest) (*dto.ItemResponse, error)
	StockLevels(ctx context.Context, orgID uuid.UUID, filter dto.StockLevelFilter) ([]dto.StockLevelResponse, error)
	LotsForItem(ctx context.Context, orgID, itemID uuid.UUID) ([]dto.LotResponse, error)
	RecentTransactions(ctx context.Context, orgID uuid.UUID, filter dto.TxnFilter) (*dto.TxnListResponse, error)
	Stocktake(ctx context.Context, orgID uuid.UUID, req dto.StocktakeRequest) (*dto.StocktakeResponse, error)
	// Snapshot is on-hand per item name, the starting point of a forecast.
	Snapshot(ctx context.Context, orgID uuid.UUID) (planning.Snapshot, error)
}

type ledgerService struct {
	items  repository.ItemRepository
	lots   repository.LotRepository
	txns   repository.InventoryTxnRepository
	locker ItemLocker
	cache  SnapshotCache
	now    func() time.Time
}

// NewLedgerService wires the ledger. locker and cache may be nil.
func NewLedgerService(
	items repository.ItemRepository,
	lots repository.LotRepository,
	txns repository.InventoryTxnRepository,
	locker ItemLocker,
	cache SnapshotCache,
) LedgerService {
	return &ledgerService{
		items:  items,
		lots:   lots,
		txns:   txns,
		locker: locker,
		cache:  cache,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ── On-hand ──────────────────────────────────────────────────────────────────

func (s *ledgerService) OnHand(ctx context.Context, orgID, itemID uuid.UUID) (decimal.Decimal, error) {
	if _, err := s.findItem(ctx, orgID, itemID); err != nil {
		return decimal.Zero, err
	}
	rows, err := s.txns.ListByItem(ctx, orgID, itemID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list transactions: %w", err)
	}
	return ledger.OnHand(rows), nil
}

func (s *ledgerService) OnHandByLot(ctx context.Context, orgID, itemID, lotID uuid.UUID) (decimal.Decimal, error) {
	if _, err := s.findItem(ctx, orgID, itemID); err != nil {
		return decimal.Zero, err
	}
	lot, err := s.lots.FindByID(ctx, orgID, lotID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && lot.ItemID != itemID) {
		return decimal.Zero, &ledger.LotNotFoundError{ItemID: itemID, LotID: lotID}
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("find lot: %w", err)
	}
	rows, err := s.txns.ListByLot(ctx, orgID, itemID, lotID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list lot transactions: %w", err)
	}
	return ledger.OnHand(rows), nil
}

// ── Posting ──────────────────────────────────────────────────────────────────
// PostBatch:
//   1. Validate every entry locally (no I/O)
//   2. Take the posting lock of every touched item, in id order
//   3. BEGIN TX: SELECT ... FOR UPDATE the items, check lots, read balances
//   4. Walk the batch with running balances; any decrease below zero aborts
//   5. Insert all rows, COMMIT
//   6. Drop the cached forecast snapshot

func (s *ledgerService) PostBatch(ctx context.Context, orgID uuid.UUID, batch []ledger.Proposed) ([]model.InventoryTxn, error) {
	if err := ledger.ValidateBatch(batch); err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, orgID, ledger.ItemIDs(batch))
	if err != nil {
		return nil, err
	}
	defer release()

	var posted []model.InventoryTxn
	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		ids, err := s.verifyTx(tx, orgID, batch)
		if err != nil {
			return err
		}
		opening, err := s.balancesTx(tx, orgID, ids)
		if err != nil {
			return err
		}
		posted, err = s.checkAndInsertTx(tx, orgID, batch, opening)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, orgID)
	log.Info().
		Str("organization_id", orgID.String()).
		Int("transactions", len(posted)).
		Msg("inventory batch posted")
	return posted, nil
}

func (s *ledgerService) CreateLot(ctx context.Context, orgID, itemID uuid.UUID, code string, quantity decimal.Decimal, uom string, note *string) (uuid.UUID, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return uuid.Nil, &ledger.ValidationError{Index: -1, Field: "code", Reason: "required"}
	}

	lotID := uuid.New()
	receiptNote := note
	if receiptNote == nil || strings.TrimSpace(*receiptNote) == "" {
		n := initialLotNote
		receiptNote = &n
	}
	refType := "lot"
	receipt := []ledger.Proposed{{
		ItemID:        itemID,
		LotID:         &lotID,
		Type:          ledger.Receive,
		Quantity:      quantity,
		UOM:           uom,
		Note:          receiptNote,
		ReferenceType: &refType,
		ReferenceID:   &lotID,
	}}
	if err := ledger.ValidateBatch(receipt); err != nil {
		return uuid.Nil, err
	}

	release, err := s.lock(ctx, orgID, []uuid.UUID{itemID})
	if err != nil {
		return uuid.Nil, err
	}
	defer release()

	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		if err := s.requireItemsTx(tx, orgID, []uuid.UUID{itemID}); err != nil {
			return err
		}
		lot := &model.Lot{
			ID:             lotID,
			OrganizationID: orgID,
			ItemID:         itemID,
			Code:           code,
			ReceivedDate:   s.now(),
			Note:           note,
		}
		if err := s.lots.CreateTx(tx, lot); err != nil {
			return fmt.Errorf("create lot: %w", err)
		}
		opening, err := s.balancesTx(tx, orgID, []uuid.UUID{itemID})
		if err != nil {
			return err
		}
		_, err = s.checkAndInsertTx(tx, orgID, receipt, opening)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.invalidate(ctx, orgID)
	log.Info().
		Str("organization_id", orgID.String()).
		Str("item_id", itemID.String()).
		Str("lot_id", lotID.String()).
		Str("quantity", quantity.String()).
		Msg("lot received")
	return lotID, nil
}

// Stocktake compares physical counts with the ledger and posts the differences
// as one batch: ADJUST_UP where more was counted, ADJUST where less.
func (s *ledgerService) Stocktake(ctx context.Context, orgID uuid.UUID, req dto.StocktakeRequest) (*dto.StocktakeResponse, error) {
	ids := make([]uuid.UUID, 0, len(req.Lines))
	counted := make(map[uuid.UUID]decimal.Decimal, len(req.Lines))
	for i, line := range req.Lines {
		id, err := uuid.Parse(line.ItemID)
		if err != nil {
			return nil, &ledger.ValidationError{Index: i, Field: "item_id", Reason: "invalid uuid"}
		}
		if line.Counted.IsNegative() {
			return nil, &ledger.ValidationError{Index: i, Field: "counted", Reason: "must not be negative"}
		}
		if _, dup := counted[id]; dup {
			return nil, &ledger.ValidationError{Index: i, Field: "item_id", Reason: "counted twice"}
		}
		counted[id] = line.Counted
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, &ledger.ValidationError{Index: -1, Field: "lines", Reason: "no counts given"}
	}

	release, err := s.lock(ctx, orgID, ledger.SortedIDs(ids))
	if err != nil {
		return nil, err
	}
	defer release()

	resp := &dto.StocktakeResponse{Adjustments: make([]dto.StocktakeAdjustment, 0, len(ids))}
	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		items, err := s.items.LockForUpdateTx(tx, orgID, ids)
		if err != nil {
			return fmt.Errorf("lock items: %w", err)
		}
		byID := make(map[uuid.UUID]model.Item, len(items))
		for _, it := range items {
			byID[it.ID] = it
		}
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				return &ledger.ItemNotFoundError{ItemID: id}
			}
		}

		opening, err := s.balancesTx(tx, orgID, ids)
		if err != nil {
			return err
		}

		refType := "stocktake"
		var batch []ledger.Proposed
		for _, id := range ids {
			before := opening.Item(id)
			delta := counted[id].Sub(before)
			adj := dto.StocktakeAdjustment{ItemID: id.String(), Before: before, Counted: counted[id], Delta: delta}
			if !delta.IsZero() {
				p := ledger.Proposed{
					ItemID:        id,
					Type:          ledger.AdjustUp,
					Quantity:      delta.Abs(),
					UOM:           byID[id].UOM,
					Note:          req.Note,
					ReferenceType: &refType,
				}
				if delta.IsNegative() {
					p.Type = ledger.Adjust
				}
				adj.TxnType = string(p.Type)
				batch = append(batch, p)
			}
			resp.Adjustments = append(resp.Adjustments, adj)
		}
		if len(batch) == 0 {
			return nil
		}
		posted, err := s.checkAndInsertTx(tx, orgID, batch, opening)
		resp.Posted = len(posted)
		return err
	})
	if err != nil {
		return nil, err
	}
	if resp.Posted > 0 {
		s.invalidate(ctx, orgID)
	}
	return resp, nil
}

// verifyTx row-locks the batch's items and checks that every lot exists and
// belongs to the item it is posted against. Returns the sorted item ids.
func (s *ledgerService) verifyTx(tx *gorm.DB, orgID uuid.UUID, batch []ledger.Proposed) ([]uuid.UUID, error) {
	ids := ledger.ItemIDs(batch)
	if err := s.requireItemsTx(tx, orgID, ids); err != nil {
		return nil, err
	}

	keys := ledger.LotKeys(batch)
	if len(keys) == 0 {
		return ids, nil
	}
	lotIDs := make([]uuid.UUID, len(keys))
	for i, k := range keys {
		lotIDs[i] = k.LotID
	}
	lots, err := s.lots.FindByIDsTx(tx, orgID, lotIDs)
	if err != nil {
		return nil, fmt.Errorf("find lots: %w", err)
	}
	owner := make(map[uuid.UUID]uuid.UUID, len(lots))
	for _, l := range lots {
		owner[l.ID] = l.ItemID
	}
	for _, k := range keys {
		if item, ok := owner[k.LotID]; !ok || item != k.ItemID {
			return nil, &ledger.LotNotFoundError{ItemID: k.ItemID, LotID: k.LotID}
		}
	}
	return ids, nil
}

func (s *ledgerService) requireItemsTx(tx *gorm.DB, orgID uuid.UUID, ids []uuid.UUID) error {
	found, err := s.items.LockForUpdateTx(tx, orgID, ids)
	if err != nil {
		return fmt.Errorf("lock items: %w", err)
	}
	present := make(map[uuid.UUID]bool, len(found))
	for _, it := range found {
		present[it.ID] = true
	}
	for _, id := range ids {
		if !present[id] {
			return &ledger.ItemNotFoundError{ItemID: id}
		}
	}
	return nil
}

func (s *ledgerService) balancesTx(tx *gorm.DB, orgID uuid.UUID, ids []uuid.UUID) (ledger.Balances, error) {
	history, err := s.txns.ListByItemsTx(tx, orgID, ids)
	if err != nil {
		return ledger.Balances{}, fmt.Errorf("read balances: %w", err)
	}
	return ledger.Snapshot(history), nil
}

func (s *ledgerService) checkAndInsertTx(tx *gorm.DB, orgID uuid.UUID, batch []ledger.Proposed, opening ledger.Balances) ([]model.InventoryTxn, error) {
	if err := ledger.CheckFloor(batch, opening); err != nil {
		return nil, err
	}
	rows := ledger.Rows(orgID, batch, s.now())
	if err := s.txns.CreateBatchTx(tx, rows); err != nil {
		return nil, fmt.Errorf("insert transactions: %w", err)
	}
	return rows, nil
}

func (s *ledgerService) lock(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = StockLockKey(orgID, id)
	}
	return s.locker.Lock(ctx, keys)
}

func (s *ledgerService) invalidate(ctx context.Context, orgID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, orgID); err != nil {
		log.Warn().Err(err).Str("organization_id", orgID.String()).Msg("snapshot cache invalidation failed")
	}
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *ledgerService) CreateItem(ctx context.Context, orgID uuid.UUID, req dto.CreateItemRequest) (*dto.ItemResponse, error) {
	name := strings.TrimSpace(req.Name)
	if _, err := s.items.FindByName(ctx, orgID, name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrItemExists, name)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find item: %w", err)
	}
	item := &model.Item{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           name,
		Category:       req.Category,
		UOM:            req.UOM,
		IsAlcohol:      req.IsAlcohol,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	s.invalidate(ctx, orgID)
	resp := itemToResponse(item)
	return &resp, nil
}

func (s *ledgerService) StockLevels(ctx context.Context, orgID uuid.UUID, filter dto.StockLevelFilter) ([]dto.StockLevelResponse, error) {
	items, err := s.items.List(ctx, orgID, repository.ItemFilter{Category: filter.Category, Name: filter.Name})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	rows, err := s.txns.ListAll(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	bal := ledger.Snapshot(rows)

	out := make([]dto.StockLevelResponse, len(items))
	for i := range items {
		out[i] = dto.StockLevelResponse{
			ItemResponse: itemToResponse(&items[i]),
			OnHand:       bal.Item(items[i].ID),
		}
	}
	return out, nil
}

// LotsForItem lists lots that still hold stock, newest receipt first.
func (s *ledgerService) LotsForItem(ctx context.Context, orgID, itemID uuid.UUID) ([]dto.LotResponse, error) {
	if _, err := s.findItem(ctx, orgID, itemID); err != nil {
		return nil, err
	}
	lots, err := s.lots.ListByItem(ctx, orgID, itemID)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	rows, err := s.txns.ListByItem(ctx, orgID, itemID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	bal := ledger.Snapshot(rows)

	out := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		onHand := bal.Lot(itemID, l.ID)
		if !onHand.IsPositive() {
			continue
		}
		out = append(out, dto.LotResponse{
			ID:           l.ID.String(),
			ItemID:       l.ItemID.String(),
			Code:         l.Code,
			ReceivedDate: l.ReceivedDate.Format(time.RFC3339),
			Note:         l.Note,
			OnHand:       onHand,
		})
	}
	return out, nil
}

func (s *ledgerService) RecentTransactions(ctx context.Context, orgID uuid.UUID, filter dto.TxnFilter) (*dto.TxnListResponse, error) {
	f := repository.InventoryTxnFilter{TxnType: filter.TxnType, Page: filter.Page, Limit: filter.Limit}
	if filter.ItemID != "" {
		id, err := uuid.Parse(filter.ItemID)
		if err != nil {
			return nil, &ledger.ValidationError{Index: -1, Field: "item_id", Reason: "invalid uuid"}
		}
		f.ItemID = &id
	}
	if filter.LotID != "" {
		id, err := uuid.Parse(filter.LotID)
		if err != nil {
			return nil, &ledger.ValidationError{Index: -1, Field: "lot_id", Reason: "invalid uuid"}
		}
		f.LotID = &id
	}

	rows, total, err := s.txns.List(ctx, orgID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	data := make([]dto.TxnResponse, len(rows))
	for i := range rows {
		data[i] = TxnToResponse(&rows[i])
	}
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return &dto.TxnListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *ledgerService) Snapshot(ctx context.Context, orgID uuid.UUID) (planning.Snapshot, error) {
	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		if snap, ok := s.cache.Get(ctx, orgID); ok {
			return snap, nil
		}
		g, err := s.cache.Generation(ctx, orgID)
		if err != nil {
			log.Warn().Err(err).Str("organization_id", orgID.String()).Msg("snapshot cache generation unreadable")
		} else {
			gen, cacheable = g, true
		}
	}

	items, err := s.items.List(ctx, orgID, repository.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	rows, err := s.txns.ListAll(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	bal := ledger.Snapshot(rows)

	snap := make(planning.Snapshot, len(items))
	for _, it := range items {
		snap[it.Name] = bal.Item(it.ID)
	}

	if cacheable {
		if err := s.cache.Set(ctx, orgID, gen, snap); err != nil {
			log.Warn().Err(err).Str("organization_id", orgID.String()).Msg("snapshot cache write failed")
		}
	}
	return snap, nil
}

func (s *ledgerService) findItem(ctx context.Context, orgID, itemID uuid.UUID) (*model.Item, error) {
	item, err := s.items.FindByID(ctx, orgID, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &ledger.ItemNotFoundError{ItemID: itemID}
	}
	if err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}
	return item, nil
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func itemToResponse(it *model.Item) dto.ItemResponse {
	return dto.ItemResponse{
		ID:        it.ID.String(),
		Name:      it.Name,
		Category:  it.Category,
		UOM:       it.UOM,
		IsAlcohol: it.IsAlcohol,
	}
}

// TxnToResponse maps a ledger row for the API.
func TxnToResponse(t *model.InventoryTxn) dto.TxnResponse {
	r := dto.TxnResponse{
		ID:            t.ID.String(),
		ItemID:        t.ItemID.String(),
		TxnType:       t.TxnType,
		Quantity:      t.Quantity,
		UOM:           t.UOM,
		Note:          t.Note,
		ReferenceType: t.ReferenceType,
		OccurredAt:    t.OccurredAt.Format(time.RFC3339),
	}
	if t.LotID != nil {
		s := t.LotID.String()
		r.LotID = &s
	}
	if t.ReferenceID != nil {
		s := t.ReferenceID.String()
		r.ReferenceID = &s
	}
	if t.Item != nil {
		r.ItemName = t.Item.Name
	}
	if t.Lot != nil {
		code := t.Lot.Code
		r.LotCode = &code
	}
	return r
}
