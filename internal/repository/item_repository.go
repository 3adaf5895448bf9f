package repository

import (
	"context"
	"sync/atomic"

	"github.com/re-earth/re-earth-api/internal/model"
	"gorm.io/gorm"
)

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, id uint64) (*model.Item, error)
	List(ctx context.Context, sellStatus string) ([]model.Item, error)
	// Update saves item fields. When images is non-nil the image set is replaced and
	// the previous images are returned so their files can be removed.
	Update(ctx context.Context, item *model.Item, images []model.ItemImage) ([]model.ItemImage, error)
	Delete(ctx context.Context, id uint64) ([]model.ItemImage, error)
	SetDB(db *gorm.DB)
}

type itemRepository struct {
	db atomic.Pointer[gorm.DB]
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	r := &itemRepository{}
	r.db.Store(db)
	return r
}

func (r *itemRepository) Create(ctx context.Context, item *model.Item) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	return db.WithContext(ctx).Create(item).Error
}

func (r *itemRepository) FindByID(ctx context.Context, id uint64) (*model.Item, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var item model.Item
	if err := db.WithContext(ctx).Preload("Images").First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) List(ctx context.Context, sellStatus string) ([]model.Item, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var items []model.Item
	q := db.WithContext(ctx).Preload("Images")
	if sellStatus != "" {
		q = q.Where("item_sell_status = ?", sellStatus)
	}
	if err := q.Order("created_at desc").Order("id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) Update(ctx context.Context, item *model.Item, images []model.ItemImage) ([]model.ItemImage, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var old []model.ItemImage
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Item{ID: item.ID}).Select(
			"item_nm", "price", "item_detail", "item_sell_status", "stock_number",
			"item_summary", "brand_name", "vendor_name",
		).Updates(item).Error; err != nil {
			return err
		}
		if images == nil {
			return nil
		}
		if err := tx.Where("item_id = ?", item.ID).Find(&old).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", item.ID).Delete(&model.ItemImage{}).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].ItemID = item.ID
		}
		if len(images) > 0 {
			return tx.Create(&images).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return old, nil
}

func (r *itemRepository) Delete(ctx context.Context, id uint64) ([]model.ItemImage, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var images []model.ItemImage
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Find(&images).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", id).Delete(&model.ItemImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Item{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *itemRepository) SetDB(db *gorm.DB) {
	r.db.Store(db)
}
