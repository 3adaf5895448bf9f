package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/re-earth/re-earth-api/internal/model"
	"gorm.io/gorm"
)

type MemberFilter struct {
	LoginID    string
	Name       string
	Email      string
	JoinedFrom *time.Time
	JoinedTo   *time.Time
	MinPoint   *int64
	MaxPoint   *int64
	Sort       string
	Desc       bool
	Page       Page
}

// MemberRow is a user together with the sum of their ledger.
type MemberRow struct {
	model.User
	PointTotal int64 `gorm:"column:point_total"`
}

var memberSortColumns = map[string]string{
	"id":         "users.id",
	"userId":     "users.login_id",
	"name":       "users.name",
	"email":      "users.email",
	"createdAt":  "users.created_at",
	"updatedAt":  "users.updated_at",
	"pointTotal": "point_total",
}

// MemberSortColumn reports whether sort is an accepted member sort key.
func MemberSortColumn(sort string) bool {
	_, ok := memberSortColumns[sort]
	return ok
}

type MemberRepository interface {
	List(ctx context.Context, f MemberFilter) ([]MemberRow, int64, error)
	Get(ctx context.Context, id uint64) (*MemberRow, error)
	CountAll(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context) (map[model.Role]int64, error)
	CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error)
	Recent(ctx context.Context, n int) ([]model.User, error)
	// DeleteMany removes the users and everything they own. Their donations are
	// kept as guest donations.
	DeleteMany(ctx context.Context, ids []uint64) (int64, error)
	SetDB(db *gorm.DB)
}

type memberRepository struct {
	db atomic.Pointer[gorm.DB]
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	r := &memberRepository{}
	r.db.Store(db)
	return r
}

func (r *memberRepository) base(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Table("users").
		Select("users.*, COALESCE(SUM(points.delta), 0) AS point_total").
		Joins("LEFT JOIN points ON points.user_id = users.id").
		Group("users.id")
}

func (r *memberRepository) List(ctx context.Context, f MemberFilter) ([]MemberRow, int64, error) {
	db := r.db.Load()
	if db == nil {
		return nil, 0, ErrDBNotReady
	}
	q := r.base(ctx, db)
	if f.LoginID != "" {
		q = q.Where("users.login_id LIKE ?", "%"+f.LoginID+"%")
	}
	if f.Name != "" {
		q = q.Where("users.name LIKE ?", "%"+f.Name+"%")
	}
	if f.Email != "" {
		q = q.Where("users.email LIKE ?", "%"+f.Email+"%")
	}
	if f.JoinedFrom != nil {
		q = q.Where("users.created_at >= ?", *f.JoinedFrom)
	}
	if f.JoinedTo != nil {
		q = q.Where("users.created_at <= ?", *f.JoinedTo)
	}
	if f.MinPoint != nil {
		q = q.Having("COALESCE(SUM(points.delta), 0) >= ?", *f.MinPoint)
	}
	if f.MaxPoint != nil {
		q = q.Having("COALESCE(SUM(points.delta), 0) <= ?", *f.MaxPoint)
	}

	var total int64
	if err := db.WithContext(ctx).Table("(?) AS m", q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, ok := memberSortColumns[f.Sort]
	if !ok {
		col = memberSortColumns["createdAt"]
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	var rows []MemberRow
	if err := q.Order(col + " " + dir).Order("users.id " + dir).
		Limit(f.Page.Size).Offset(f.Page.Offset()).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *memberRepository) Get(ctx context.Context, id uint64) (*MemberRow, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var rows []MemberRow
	if err := r.base(ctx, db).Where("users.id = ?", id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *memberRepository) CountAll(ctx context.Context) (int64, error) {
	db := r.db.Load()
	if db == nil {
		return 0, ErrDBNotReady
	}
	var n int64
	err := db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}

func (r *memberRepository) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var rows []struct {
		Role model.Role
		Cnt  int64
	}
	if err := db.WithContext(ctx).Model(&model.User{}).
		Select("role, COUNT(id) AS cnt").Group("role").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[model.Role]int64{model.RoleAdmin: 0, model.RoleUser: 0}
	for _, row := range rows {
		out[row.Role] = row.Cnt
	}
	return out, nil
}

func (r *memberRepository) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var ts []time.Time
	err := db.WithContext(ctx).Model(&model.User{}).Where("created_at >= ?", since).Pluck("created_at", &ts).Error
	return ts, err
}

func (r *memberRepository) Recent(ctx context.Context, n int) ([]model.User, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var users []model.User
	err := db.WithContext(ctx).Order("created_at desc").Order("id desc").Limit(n).Find(&users).Error
	return users, err
}

func (r *memberRepository) DeleteMany(ctx context.Context, ids []uint64) (int64, error) {
	db := r.db.Load()
	if db == nil {
		return 0, ErrDBNotReady
	}
	var deleted int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := tx.Model(&model.PointOrder{}).Select("id").Where("user_id IN ?", ids)
		if err := tx.Where("order_id IN (?)", orders).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		qnas := tx.Model(&model.Qna{}).Select("id").Where("user_id IN ?", ids)
		if err := tx.Where("qna_id IN (?)", qnas).Delete(&model.QnaComment{}).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{&model.PointOrder{}, &model.Qna{}, &model.Point{}, &model.EcoActionLog{}} {
			if err := tx.Where("user_id IN ?", ids).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&model.Donation{}).Where("user_id IN ?", ids).Update("user_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&model.User{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

func (r *memberRepository) SetDB(db *gorm.DB) {
	r.db.Store(db)
}
