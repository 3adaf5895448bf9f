package repository

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/re-earth/re-earth-api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EcoRepository interface {
	FindActionByCode(ctx context.Context, code string, activeOnly bool) (*model.EcoAction, error)
	FindActionByID(ctx context.Context, id uint64) (*model.EcoAction, error)
	ListActions(ctx context.Context) ([]model.EcoAction, error)
	CreateAction(ctx context.Context, a *model.EcoAction) error
	UpdateAction(ctx context.Context, id uint64, fields map[string]interface{}) (*model.EcoAction, error)
	// Record writes an activity log and its point credit in one transaction.
	Record(ctx context.Context, log *model.EcoActionLog, credit *model.Point) error
	ListLogsByUser(ctx context.Context, userID uint64, p Page) ([]model.EcoActionLog, int64, error)
	ListLogs(ctx context.Context, status string, p Page) ([]model.EcoActionLog, int64, error)
	// CorrectStatus changes a log's status and keeps the ledger consistent: leaving
	// COMPLETED appends a reversal, returning to COMPLETED re-credits the points.
	CorrectStatus(ctx context.Context, logID uint64, status model.EcoLogStatus) (*model.EcoActionLog, error)
	SumCO2ByUser(ctx context.Context, userID uint64) (float64, error)
	SetDB(db *gorm.DB)
}

type ecoRepository struct {
	db atomic.Pointer[gorm.DB]
}

func NewEcoRepository(db *gorm.DB) EcoRepository {
	r := &ecoRepository{}
	r.db.Store(db)
	return r
}

func (r *ecoRepository) FindActionByCode(ctx context.Context, code string, activeOnly bool) (*model.EcoAction, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	q := db.WithContext(ctx).Where("code = ?", code)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var a model.EcoAction
	if err := q.First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ecoRepository) FindActionByID(ctx context.Context, id uint64) (*model.EcoAction, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var a model.EcoAction
	if err := db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ecoRepository) ListActions(ctx context.Context) ([]model.EcoAction, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var rows []model.EcoAction
	err := db.WithContext(ctx).Order("id asc").Find(&rows).Error
	return rows, err
}

func (r *ecoRepository) CreateAction(ctx context.Context, a *model.EcoAction) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	return db.WithContext(ctx).Create(a).Error
}

func (r *ecoRepository) UpdateAction(ctx context.Context, id uint64, fields map[string]interface{}) (*model.EcoAction, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	if len(fields) > 0 {
		res := db.WithContext(ctx).Model(&model.EcoAction{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return r.FindActionByID(ctx, id)
}

func (r *ecoRepository) Record(ctx context.Context, log *model.EcoActionLog, credit *model.Point) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("EcoAction").Create(log).Error; err != nil {
			return err
		}
		if credit == nil || credit.Delta == 0 {
			return nil
		}
		credit.EcoActionLogID = &log.ID
		return postPoint(tx, credit)
	})
}

func (r *ecoRepository) ListLogsByUser(ctx context.Context, userID uint64, p Page) ([]model.EcoActionLog, int64, error) {
	db := r.db.Load()
	if db == nil {
		return nil, 0, ErrDBNotReady
	}
	q := db.WithContext(ctx).Model(&model.EcoActionLog{}).Where("user_id = ?", userID)
	return r.pageLogs(q.Session(&gorm.Session{}), p)
}

func (r *ecoRepository) ListLogs(ctx context.Context, status string, p Page) ([]model.EcoActionLog, int64, error) {
	db := r.db.Load()
	if db == nil {
		return nil, 0, ErrDBNotReady
	}
	q := db.WithContext(ctx).Model(&model.EcoActionLog{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return r.pageLogs(q.Session(&gorm.Session{}), p)
}

func (r *ecoRepository) pageLogs(q *gorm.DB, p Page) ([]model.EcoActionLog, int64, error) {
	var (
		rows  []model.EcoActionLog
		total int64
	)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Preload("EcoAction").Order("id desc").Limit(p.Size).Offset(p.Offset()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *ecoRepository) CorrectStatus(ctx context.Context, logID uint64, status model.EcoLogStatus) (*model.EcoActionLog, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var log model.EcoActionLog
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&log, logID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "eco action log", ID: logID}
			}
			return err
		}
		prev := log.Status
		if prev == status {
			return nil
		}
		if err := tx.Model(&model.EcoActionLog{}).Where("id = ?", log.ID).Update("status", status).Error; err != nil {
			return err
		}
		log.Status = status
		if log.PointEarned == 0 {
			return nil
		}
		var p *model.Point
		switch {
		case prev == model.EcoLogCompleted:
			p = model.NewPoint(log.UserID, -log.PointEarned, model.ReasonEcoLogRejected, fmt.Sprintf("활동 기록 #%d 정정", log.ID))
		case status == model.EcoLogCompleted:
			p = model.NewPoint(log.UserID, log.PointEarned, model.ReasonEcoLogRestored, fmt.Sprintf("활동 기록 #%d 재승인", log.ID))
		default:
			return nil
		}
		p.EcoActionLogID = &log.ID
		return postPoint(tx, p)
	})
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *ecoRepository) SumCO2ByUser(ctx context.Context, userID uint64) (float64, error) {
	db := r.db.Load()
	if db == nil {
		return 0, ErrDBNotReady
	}
	var sum float64
	err := db.WithContext(ctx).Model(&model.EcoActionLog{}).
		Where("user_id = ? AND status = ?", userID, model.EcoLogCompleted).
		Select("COALESCE(SUM(co2_saved), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *ecoRepository) SetDB(db *gorm.DB) {
	r.db.Store(db)
}
