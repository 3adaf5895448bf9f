package repository

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/re-earth/re-earth-api/internal/model"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByLoginID(ctx context.Context, loginID string) (*model.User, error)
	FindByPhoneOrEmail(ctx context.Context, phoneOrEmail string) (*model.User, error)
	ExistsEmail(ctx context.Context, email string) (bool, error)
	ExistsLoginID(ctx context.Context, loginID string) (bool, error)
	ExistsName(ctx context.Context, name string) (bool, error)
	Update(ctx context.Context, id uint64, fields map[string]interface{}) error
	SetDB(db *gorm.DB)
}

type userRepository struct {
	db atomic.Pointer[gorm.DB]
}

func NewUserRepository(db *gorm.DB) UserRepository {
	r := &userRepository{}
	r.db.Store(db)
	return r
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	return db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) FindByLoginID(ctx context.Context, loginID string) (*model.User, error) {
	return r.first(ctx, "login_id = ?", loginID)
}

func (r *userRepository) FindByPhoneOrEmail(ctx context.Context, phoneOrEmail string) (*model.User, error) {
	return r.first(ctx, "email = ? OR phone_number = ?", phoneOrEmail, phoneOrEmail)
}

func (r *userRepository) first(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var u model.User
	if err := db.WithContext(ctx).Where(query, args...).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) ExistsEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *userRepository) ExistsLoginID(ctx context.Context, loginID string) (bool, error) {
	return r.exists(ctx, "login_id = ?", loginID)
}

func (r *userRepository) ExistsName(ctx context.Context, name string) (bool, error) {
	return r.exists(ctx, "name = ?", name)
}

func (r *userRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	_, err := r.first(ctx, query, arg)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *userRepository) Update(ctx context.Context, id uint64, fields map[string]interface{}) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	if len(fields) == 0 {
		return nil
	}
	var u model.User
	if err := db.WithContext(ctx).Select("id").First(&u, id).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Model(&u).Updates(fields).Error
}

func (r *userRepository) SetDB(db *gorm.DB) {
	r.db.Store(db)
}
