package repository

import (
	"context"

	"distillery/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemFilter narrows item listings.
type ItemFilter struct {
	Category string
	Name     string // substring match
}

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Item, error)
	FindByName(ctx context.Context, orgID uuid.UUID, name string) (*model.Item, error)
	List(ctx context.Context, orgID uuid.UUID, filter ItemFilter) ([]model.Item, error)
	// LockForUpdateTx row-locks the given items in id order and returns the ones that exist.
	LockForUpdateTx(tx *gorm.DB, orgID uuid.UUID, ids []uuid.UUID) ([]model.Item, error)
	DB() *gorm.DB
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) DB() *gorm.DB { return r.db }

func (r *itemRepo) Create(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *itemRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&item).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *itemRepo) FindByName(ctx context.Context, orgID uuid.UUID, name string) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND name = ?", orgID, name).
		First(&item).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *itemRepo) List(ctx context.Context, orgID uuid.UUID, filter ItemFilter) ([]model.Item, error) {
	q := r.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	var items []model.Item
	err := q.Order("category, name").Find(&items).Error
	return items, err
}

func (r *itemRepo) LockForUpdateTx(tx *gorm.DB, orgID uuid.UUID, ids []uuid.UUID) ([]model.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []model.Item
	err := conn(r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organization_id = ? AND id IN ?", orgID, ids).
		Order("id").
		Find(&items).Error
	return items, err
}
