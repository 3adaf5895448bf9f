package model

import "time"

type PointReason string

const (
	ReasonSpendOrder        PointReason = "SPEND_ORDER"
	ReasonBicycleRide       PointReason = "BICYCLE_RIDE"
	ReasonPetRecycle        PointReason = "PET_RECYCLE"
	ReasonDonationPicked    PointReason = "DONATION_PICKED"
	ReasonDonationCancelled PointReason = "DONATION_CANCELLED"
	ReasonEcoLogRejected    PointReason = "ECO_LOG_REJECTED"
	ReasonEcoLogRestored    PointReason = "ECO_LOG_RESTORED"
)

// Point is one append-only ledger row. A user's balance is the sum of Delta.
type Point struct {
	ID             uint64      `gorm:"primaryKey;autoIncrement"`
	UserID         uint64      `gorm:"column:user_id;not null;index"`
	Amount         int64       `gorm:"column:amount;not null"`
	Delta          int64       `gorm:"column:delta;not null"`
	Reason         PointReason `gorm:"column:reason;size:30;not null"`
	Description    string      `gorm:"column:description;size:255"`
	EcoActionLogID *uint64     `gorm:"column:eco_action_log_id;index"`
	DonationID     *uint64     `gorm:"column:donation_id;index"`
	CreatedAt      time.Time   `gorm:"autoCreateTime"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime"`
}

func (Point) TableName() string {
	return "points"
}

// NewPoint builds a ledger row with Amount kept as the absolute value of delta.
func NewPoint(userID uint64, delta int64, reason PointReason, desc string) *Point {
	amount := delta
	if amount < 0 {
		amount = -amount
	}
	return &Point{UserID: userID, Amount: amount, Delta: delta, Reason: reason, Description: desc}
}
