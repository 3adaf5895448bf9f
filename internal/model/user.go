package model

import "time"

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type Provider string

const (
	ProviderLocal  Provider = "LOCAL"
	ProviderGoogle Provider = "GOOGLE"
	ProviderKakao  Provider = "KAKAO"
)

// User is a member account. LoginID is the public "userId" handle; ID is the row key.
type User struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;size:50;not null"`
	Password    *string   `gorm:"column:password;size:100"`
	Address     string    `gorm:"column:address;size:255"`
	Gender      *string   `gorm:"column:gender;size:1"`
	LoginID     string    `gorm:"column:login_id;size:50;uniqueIndex;not null"`
	Role        Role      `gorm:"column:role;size:10;not null;default:USER"`
	PhoneNumber *string   `gorm:"column:phone_number;size:20"`
	Email       string    `gorm:"column:email;size:100;uniqueIndex;not null"`
	Provider    Provider  `gorm:"column:provider;size:10;not null;default:LOCAL"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
