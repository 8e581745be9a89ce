package repository

import (
	"context"

	"depot-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockEntryRepository interface {
	Create(ctx context.Context, entry *model.StockEntry) error
	Update(ctx context.Context, entry *model.StockEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockEntry, error)
	List(ctx context.Context, page, limit int) ([]model.StockEntry, int64, error)
}

type stockEntryRepository struct {
	db *gorm.DB
}

func NewStockEntryRepository(db *gorm.DB) StockEntryRepository {
	return &stockEntryRepository{db: db}
}

func (r *stockEntryRepository) Create(ctx context.Context, entry *model.StockEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *stockEntryRepository) Update(ctx context.Context, entry *model.StockEntry) error {
	return GetDB(ctx, r.db).Save(entry).Error
}

func (r *stockEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.StockEntry{}).Error
}

func (r *stockEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StockEntry, error) {
	var entry model.StockEntry
	if err := GetDB(ctx, r.db).Preload("Product").First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *stockEntryRepository) List(ctx context.Context, page, limit int) ([]model.StockEntry, int64, error) {
	var entries []model.StockEntry
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockEntry{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := GetDB(ctx, r.db).Preload("Product").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
