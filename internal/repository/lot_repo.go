package repository

import (
	"context"

	"distillery/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LotRepository interface {
	CreateTx(tx *gorm.DB, lot *model.Lot) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Lot, error)
	FindByIDsTx(tx *gorm.DB, orgID uuid.UUID, ids []uuid.UUID) ([]model.Lot, error)
	// ListByItem returns the item's lots, newest receipt first.
	ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]model.Lot, error)
}

type lotRepo struct{ db *gorm.DB }

func NewLotRepository(db *gorm.DB) LotRepository {
	return &lotRepo{db: db}
}

func (r *lotRepo) CreateTx(tx *gorm.DB, lot *model.Lot) error {
	return conn(r.db, tx).Create(lot).Error
}

func (r *lotRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Lot, error) {
	var lot model.Lot
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&lot).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &lot, nil
}

func (r *lotRepo) FindByIDsTx(tx *gorm.DB, orgID uuid.UUID, ids []uuid.UUID) ([]model.Lot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var lots []model.Lot
	err := conn(r.db, tx).
		Where("organization_id = ? AND id IN ?", orgID, ids).
		Find(&lots).Error
	return lots, err
}

func (r *lotRepo) ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]model.Lot, error) {
	var lots []model.Lot
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND item_id = ?", orgID, itemID).
		Order("received_date DESC").
		Find(&lots).Error
	return lots, err
}
