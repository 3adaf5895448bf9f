package model

import "time"

type DonationStatus string

const (
	DonationRequested DonationStatus = "REQUESTED"
	DonationScheduled DonationStatus = "SCHEDULED"
	DonationPicked    DonationStatus = "PICKED"
	DonationCancelled DonationStatus = "CANCELLED"
)

var donationTransitions = map[DonationStatus][]DonationStatus{
	DonationRequested: {DonationScheduled, DonationCancelled},
	DonationScheduled: {DonationPicked, DonationCancelled},
	DonationPicked:    {DonationCancelled},
	DonationCancelled: {},
}

// CanTransition reports whether a donation may move from s to next.
func (s DonationStatus) CanTransition(next DonationStatus) bool {
	for _, n := range donationTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

func (s DonationStatus) Valid() bool {
	_, ok := donationTransitions[s]
	return ok
}

type Donation struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement"`
	UserID        *uint64        `gorm:"column:user_id;index"`
	DonorName     string         `gorm:"column:donor_name;size:50;not null"`
	DonorPhone    string         `gorm:"column:donor_phone;size:20;not null"`
	DonorEmail    string         `gorm:"column:donor_email;size:100"`
	Zipcode       string         `gorm:"column:zipcode;size:10;not null"`
	Address1      string         `gorm:"column:address1;size:255;not null"`
	Address2      string         `gorm:"column:address2;size:255"`
	PickupDate    time.Time      `gorm:"column:pickup_date;not null"`
	Memo          string         `gorm:"column:memo;type:text"`
	Status        DonationStatus `gorm:"column:status;size:12;not null;default:REQUESTED;index"`
	AgreePolicy   bool           `gorm:"column:agree_policy;not null"`
	Count         int64          `gorm:"column:count;not null;default:0"`
	ExpectedPoint int64          `gorm:"column:expected_point;not null;default:0"`
	ReceiptURL    string         `gorm:"column:receipt_url;size:512"`
	Items         []DonationItem `gorm:"foreignKey:DonationID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
}

func (Donation) TableName() string {
	return "donations"
}

type DonationItem struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	DonationID uint64    `gorm:"column:donation_id;not null;index"`
	Category   string    `gorm:"column:category;size:10;not null;default:ETC"`
	Condition  string    `gorm:"column:condition;size:10;not null;default:NORMAL"`
	Quantity   int64     `gorm:"column:quantity;not null"`
	Note       string    `gorm:"column:note;size:255"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (DonationItem) TableName() string {
	return "donation_items"
}
