package repository

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/re-earth/re-earth-api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QnaRepository interface {
	Create(ctx context.Context, q *model.Qna) error
	FindByID(ctx context.Context, id uint64) (*model.Qna, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Qna, error)
	List(ctx context.Context, status string, p Page) ([]model.Qna, int64, error)
	Delete(ctx context.Context, id uint64) error
	// Answer stores an admin comment and moves an OPEN question to ANSWERED.
	Answer(ctx context.Context, qnaID uint64, c *model.QnaComment) error
	UpdateStatus(ctx context.Context, id uint64, status model.QnaStatus) (*model.Qna, error)
	SetDB(db *gorm.DB)
}

type qnaRepository struct {
	db atomic.Pointer[gorm.DB]
}

func NewQnaRepository(db *gorm.DB) QnaRepository {
	r := &qnaRepository{}
	r.db.Store(db)
	return r
}

func (r *qnaRepository) Create(ctx context.Context, q *model.Qna) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	return db.WithContext(ctx).Omit("User").Create(q).Error
}

func (r *qnaRepository) FindByID(ctx context.Context, id uint64) (*model.Qna, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var q model.Qna
	err := db.WithContext(ctx).
		Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Comments.Admin").
		First(&q, id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *qnaRepository) ListByUser(ctx context.Context, userID uint64) ([]model.Qna, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var rows []model.Qna
	err := db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Order("id desc").Find(&rows).Error
	return rows, err
}

func (r *qnaRepository) List(ctx context.Context, status string, p Page) ([]model.Qna, int64, error) {
	db := r.db.Load()
	if db == nil {
		return nil, 0, ErrDBNotReady
	}
	q := db.WithContext(ctx).Model(&model.Qna{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})
	var (
		rows  []model.Qna
		total int64
	)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Preload("User").Order("created_at desc").Order("id desc").
		Limit(p.Size).Offset(p.Offset()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *qnaRepository) Delete(ctx context.Context, id uint64) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("qna_id = ?", id).Delete(&model.QnaComment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Qna{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *qnaRepository) Answer(ctx context.Context, qnaID uint64, c *model.QnaComment) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q model.Qna
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, qnaID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "qna", ID: qnaID}
			}
			return err
		}
		c.QnaID = q.ID
		if err := tx.Omit("Admin").Create(c).Error; err != nil {
			return err
		}
		if q.Status != model.QnaOpen {
			return nil
		}
		return tx.Model(&model.Qna{}).Where("id = ?", q.ID).Update("status", model.QnaAnswered).Error
	})
}

func (r *qnaRepository) UpdateStatus(ctx context.Context, id uint64, status model.QnaStatus) (*model.Qna, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var q model.Qna
	if err := db.WithContext(ctx).First(&q, id).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&q).Update("status", status).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *qnaRepository) SetDB(db *gorm.DB) {
	r.db.Store(db)
}
