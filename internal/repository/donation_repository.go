package repository

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/re-earth/re-earth-api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DonationFilter struct {
	Status string
	Query  string
	Page   Page
}

// DonationUpdate carries the optional fields of a status change.
// OwnerID and OnlyFrom restrict who may apply it and from which state.
type DonationUpdate struct {
	Status     *model.DonationStatus
	ReceiptURL *string
	Memo       *string
	OwnerID    uint64
	OnlyFrom   model.DonationStatus
}

type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type DonationRepository interface {
	Create(ctx context.Context, d *model.Donation) error
	FindByID(ctx context.Context, id uint64) (*model.Donation, error)
	ListByUser(ctx context.Context, userID uint64, p Page) ([]model.Donation, int64, error)
	List(ctx context.Context, f DonationFilter) ([]model.Donation, int64, error)
	// Apply validates the transition against the donation state machine and writes
	// the change. Entering PICKED credits the expected points to a member donor and
	// leaving PICKED for CANCELLED reverses that credit, in the same transaction.
	Apply(ctx context.Context, id uint64, upd DonationUpdate) (*model.Donation, model.DonationStatus, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	SumExpectedSince(ctx context.Context, since time.Time) (int64, error)
	CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error)
	Recent(ctx context.Context, n int) ([]model.Donation, error)
	CountByStatus(ctx context.Context) (map[model.DonationStatus]int64, error)
	SetDB(db *gorm.DB)
}

type donationRepository struct {
	db atomic.Pointer[gorm.DB]
}

func NewDonationRepository(db *gorm.DB) DonationRepository {
	r := &donationRepository{}
	r.db.Store(db)
	return r
}

func (r *donationRepository) Create(ctx context.Context, d *model.Donation) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	// Create writes the donation and its items in one transaction.
	return db.WithContext(ctx).Create(d).Error
}

func (r *donationRepository) FindByID(ctx context.Context, id uint64) (*model.Donation, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var d model.Donation
	if err := db.WithContext(ctx).Preload("Items").First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *donationRepository) ListByUser(ctx context.Context, userID uint64, p Page) ([]model.Donation, int64, error) {
	db := r.db.Load()
	if db == nil {
		return nil, 0, ErrDBNotReady
	}
	q := db.WithContext(ctx).Model(&model.Donation{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	return r.page(q, p)
}

func (r *donationRepository) List(ctx context.Context, f DonationFilter) ([]model.Donation, int64, error) {
	db := r.db.Load()
	if db == nil {
		return nil, 0, ErrDBNotReady
	}
	q := db.WithContext(ctx).Model(&model.Donation{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where(
			"donor_name LIKE ? OR donor_phone LIKE ? OR donor_email LIKE ? OR address1 LIKE ? OR address2 LIKE ? OR zipcode LIKE ?",
			like, like, like, like, like, like,
		)
	}
	return r.page(q.Session(&gorm.Session{}), f.Page)
}

func (r *donationRepository) page(q *gorm.DB, p Page) ([]model.Donation, int64, error) {
	var (
		rows  []model.Donation
		total int64
	)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Preload("Items").Order("created_at desc").Order("id desc").
		Limit(p.Size).Offset(p.Offset()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *donationRepository) Apply(ctx context.Context, id uint64, upd DonationUpdate) (*model.Donation, model.DonationStatus, error) {
	db := r.db.Load()
	if db == nil {
		return nil, "", ErrDBNotReady
	}
	var (
		d    model.Donation
		prev model.DonationStatus
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "donation", ID: id}
			}
			return err
		}
		prev = d.Status
		if upd.OwnerID != 0 && (d.UserID == nil || *d.UserID != upd.OwnerID) {
			return ErrNotOwner
		}
		if upd.OnlyFrom != "" && d.Status != upd.OnlyFrom {
			to := upd.OnlyFrom
			if upd.Status != nil {
				to = *upd.Status
			}
			return &TransitionError{From: d.Status, To: to}
		}

		fields := map[string]interface{}{}
		if upd.Status != nil {
			next := *upd.Status
			if !prev.CanTransition(next) {
				return &TransitionError{From: prev, To: next}
			}
			fields["status"] = next
			d.Status = next
		}
		if upd.ReceiptURL != nil {
			fields["receipt_url"] = *upd.ReceiptURL
			d.ReceiptURL = *upd.ReceiptURL
		}
		if upd.Memo != nil {
			fields["memo"] = *upd.Memo
			d.Memo = *upd.Memo
		}
		if len(fields) > 0 {
			if err := tx.Model(&model.Donation{}).Where("id = ?", d.ID).Updates(fields).Error; err != nil {
				return err
			}
		}
		if d.UserID == nil || d.ExpectedPoint <= 0 || prev == d.Status {
			return nil
		}
		var p *model.Point
		switch {
		case d.Status == model.DonationPicked:
			p = model.NewPoint(*d.UserID, d.ExpectedPoint, model.ReasonDonationPicked, fmt.Sprintf("의류 기부 #%d 수거 완료", d.ID))
		case prev == model.DonationPicked && d.Status == model.DonationCancelled:
			p = model.NewPoint(*d.UserID, -d.ExpectedPoint, model.ReasonDonationCancelled, fmt.Sprintf("의류 기부 #%d 취소", d.ID))
		default:
			return nil
		}
		p.DonationID = &d.ID
		return postPoint(tx, p)
	})
	if err != nil {
		return nil, prev, err
	}
	reloaded, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, prev, err
	}
	return reloaded, prev, nil
}

func (r *donationRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	db := r.db.Load()
	if db == nil {
		return 0, ErrDBNotReady
	}
	var n int64
	err := db.WithContext(ctx).Model(&model.Donation{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

func (r *donationRepository) SumExpectedSince(ctx context.Context, since time.Time) (int64, error) {
	db := r.db.Load()
	if db == nil {
		return 0, ErrDBNotReady
	}
	var sum int64
	err := db.WithContext(ctx).Model(&model.Donation{}).
		Where("created_at >= ?", since).
		Select("COALESCE(SUM(expected_point), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *donationRepository) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var ts []time.Time
	err := db.WithContext(ctx).Model(&model.Donation{}).
		Where("created_at >= ?", since).
		Pluck("created_at", &ts).Error
	return ts, err
}

func (r *donationRepository) Recent(ctx context.Context, n int) ([]model.Donation, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var rows []model.Donation
	err := db.WithContext(ctx).Order("created_at desc").Order("id desc").Limit(n).Find(&rows).Error
	return rows, err
}

func (r *donationRepository) CountByStatus(ctx context.Context) (map[model.DonationStatus]int64, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var rows []struct {
		Status model.DonationStatus
		Cnt    int64
	}
	if err := db.WithContext(ctx).Model(&model.Donation{}).
		Select("status, COUNT(id) AS cnt").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[model.DonationStatus]int64{
		model.DonationRequested: 0,
		model.DonationScheduled: 0,
		model.DonationPicked:    0,
		model.DonationCancelled: 0,
	}
	for _, row := range rows {
		out[row.Status] = row.Cnt
	}
	return out, nil
}

func (r *donationRepository) SetDB(db *gorm.DB) {
	r.db.Store(db)
}
