package model

import "time"

type QnaStatus string

const (
	QnaOpen     QnaStatus = "OPEN"
	QnaAnswered QnaStatus = "ANSWERED"
	QnaClosed   QnaStatus = "CLOSED"
)

func (s QnaStatus) Valid() bool {
	switch s {
	case QnaOpen, QnaAnswered, QnaClosed:
		return true
	}
	return false
}

type Qna struct {
	ID        uint64       `gorm:"primaryKey;autoIncrement"`
	UserID    uint64       `gorm:"column:user_id;not null;index"`
	Title     string       `gorm:"column:title;size:200;not null"`
	Question  string       `gorm:"column:question;type:text;not null"`
	Status    QnaStatus    `gorm:"column:status;size:10;not null;default:OPEN;index"`
	User      *User        `gorm:"foreignKey:UserID"`
	Comments  []QnaComment `gorm:"foreignKey:QnaID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time    `gorm:"autoCreateTime"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime"`
}

func (Qna) TableName() string {
	return "qnas"
}

type QnaComment struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	QnaID     uint64    `gorm:"column:qna_id;not null;index"`
	AdminID   uint64    `gorm:"column:admin_id;not null"`
	Body      string    `gorm:"column:body;type:text;not null"`
	Admin     *User     `gorm:"foreignKey:AdminID"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (QnaComment) TableName() string {
	return "qna_comments"
}
