package repository

import (
	"context"

	"distillery/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryTxnFilter defines filters for listing ledger rows.
type InventoryTxnFilter struct {
	ItemID  *uuid.UUID
	LotID   *uuid.UUID
	TxnType string
	Page    int
	Limit   int
}

// InventoryTxnRepository is append-only: there is no update or delete.
type InventoryTxnRepository interface {
	CreateBatchTx(tx *gorm.DB, rows []model.InventoryTxn) error
	ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]model.InventoryTxn, error)
	ListByLot(ctx context.Context, orgID, itemID, lotID uuid.UUID) ([]model.InventoryTxn, error)
	ListByItemsTx(tx *gorm.DB, orgID uuid.UUID, itemIDs []uuid.UUID) ([]model.InventoryTxn, error)
	ListAll(ctx context.Context, orgID uuid.UUID) ([]model.InventoryTxn, error)
	List(ctx context.Context, orgID uuid.UUID, filter InventoryTxnFilter) ([]model.InventoryTxn, int64, error)
}

type inventoryTxnRepo struct{ db *gorm.DB }

func NewInventoryTxnRepository(db *gorm.DB) InventoryTxnRepository {
	return &inventoryTxnRepo{db: db}
}

func (r *inventoryTxnRepo) CreateBatchTx(tx *gorm.DB, rows []model.InventoryTxn) error {
	if len(rows) == 0 {
		return nil
	}
	return conn(r.db, tx).Create(&rows).Error
}

func (r *inventoryTxnRepo) ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]model.InventoryTxn, error) {
	var rows []model.InventoryTxn
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND item_id = ?", orgID, itemID).
		Find(&rows).Error
	return rows, err
}

func (r *inventoryTxnRepo) ListByLot(ctx context.Context, orgID, itemID, lotID uuid.UUID) ([]model.InventoryTxn, error) {
	var rows []model.InventoryTxn
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND item_id = ? AND lot_id = ?", orgID, itemID, lotID).
		Find(&rows).Error
	return rows, err
}

func (r *inventoryTxnRepo) ListByItemsTx(tx *gorm.DB, orgID uuid.UUID, itemIDs []uuid.UUID) ([]model.InventoryTxn, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var rows []model.InventoryTxn
	err := conn(r.db, tx).
		Where("organization_id = ? AND item_id IN ?", orgID, itemIDs).
		Find(&rows).Error
	return rows, err
}

func (r *inventoryTxnRepo) ListAll(ctx context.Context, orgID uuid.UUID) ([]model.InventoryTxn, error) {
	var rows []model.InventoryTxn
	err := r.db.WithContext(ctx).
		Select("item_id", "lot_id", "txn_type", "quantity").
		Where("organization_id = ?", orgID).
		Find(&rows).Error
	return rows, err
}

func (r *inventoryTxnRepo) List(ctx context.Context, orgID uuid.UUID, filter InventoryTxnFilter) ([]model.InventoryTxn, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryTxn{}).
		Where("organization_id = ?", orgID)
	if filter.ItemID != nil {
		q = q.Where("item_id = ?", *filter.ItemID)
	}
	if filter.LotID != nil {
		q = q.Where("lot_id = ?", *filter.LotID)
	}
	if filter.TxnType != "" {
		q = q.Where("txn_type = ?", filter.TxnType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 500 {
		limit = 500
	}
	offset := (page - 1) * limit

	var rows []model.InventoryTxn
	err := q.Preload("Item").Preload("Lot").
		Order("occurred_at DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	return rows, total, err
}
