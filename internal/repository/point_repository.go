package repository

import (
	"context"
	"sync/atomic"

	"github.com/re-earth/re-earth-api/internal/model"
	"gorm.io/gorm"
)

// PointRepository reads the append-only ledger. Writes happen inside the
// transactions of the flows that earn or spend points.
type PointRepository interface {
	Balance(ctx context.Context, userID uint64) (int64, error)
	ListByUser(ctx context.Context, userID uint64, p Page) ([]model.Point, int64, error)
	SetDB(db *gorm.DB)
}

type pointRepository struct {
	db atomic.Pointer[gorm.DB]
}

func NewPointRepository(db *gorm.DB) PointRepository {
	r := &pointRepository{}
	r.db.Store(db)
	return r
}

func (r *pointRepository) Balance(ctx context.Context, userID uint64) (int64, error) {
	db := r.db.Load()
	if db == nil {
		return 0, ErrDBNotReady
	}
	return balance(db.WithContext(ctx), userID)
}

func (r *pointRepository) ListByUser(ctx context.Context, userID uint64, p Page) ([]model.Point, int64, error) {
	db := r.db.Load()
	if db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		rows  []model.Point
		total int64
	)
	q := db.WithContext(ctx).Model(&model.Point{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("id desc").Limit(p.Size).Offset(p.Offset()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *pointRepository) SetDB(db *gorm.DB) {
	r.db.Store(db)
}

// balance sums the ledger for userID using the given handle, which may be a transaction.
func balance(tx *gorm.DB, userID uint64) (int64, error) {
	var sum int64
	err := tx.Model(&model.Point{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&sum).Error
	return sum, err
}

// postPoint appends a ledger row inside tx.
func postPoint(tx *gorm.DB, p *model.Point) error {
	return tx.Create(p).Error
}
