package model

import "time"

const (
	EcoActionBicycle = "BICYCLE"
	EcoActionPet     = "PET"
)

type EcoAction struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Code        string    `gorm:"column:code;size:30;uniqueIndex;not null"`
	Description string    `gorm:"column:description;size:255"`
	Unit        string    `gorm:"column:unit;size:5;not null"` // KG, KM or EA
	CarbonUnit  float64   `gorm:"column:carbon_unit;not null;default:0"`
	PointUnit   float64   `gorm:"column:point_unit;not null;default:0"`
	Active      bool      `gorm:"column:active;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (EcoAction) TableName() string {
	return "eco_actions"
}

type EcoLogStatus string

const (
	EcoLogCompleted EcoLogStatus = "COMPLETED"
	EcoLogPending   EcoLogStatus = "PENDING"
	EcoLogRejected  EcoLogStatus = "REJECTED"
)

type EcoLogProvider string

const (
	EcoProviderManual EcoLogProvider = "MANUAL"
	EcoProviderTmoney EcoLogProvider = "TMONEY"
	EcoProviderKakao  EcoLogProvider = "KAKAO"
	EcoProviderAPI    EcoLogProvider = "API"
)

// EcoActionLog records one verified activity with the unit values in force at the time.
type EcoActionLog struct {
	ID                uint64         `gorm:"primaryKey;autoIncrement"`
	UserID            uint64         `gorm:"column:user_id;not null;index"`
	EcoActionID       uint64         `gorm:"column:eco_action_id;not null;index"`
	Quantity          float64        `gorm:"column:quantity;not null"`
	Provider          EcoLogProvider `gorm:"column:provider;size:10;not null;default:MANUAL"`
	Status            EcoLogStatus   `gorm:"column:status;size:10;not null;default:COMPLETED"`
	PointEarned       int64          `gorm:"column:point_earned;not null;default:0"`
	CO2Saved          float64        `gorm:"column:co2_saved;not null;default:0"`
	SnapPointUnit     float64        `gorm:"column:snap_point_unit"`
	SnapCO2PerUnit    float64        `gorm:"column:snap_co2_per_unit"`
	SnapUnit          string         `gorm:"column:snap_unit;size:5"`
	QuantityCanonical float64        `gorm:"column:quantity_canonical"`
	VerifiedAt        *time.Time     `gorm:"column:verified_at"`
	VerifiedBy        string         `gorm:"column:verified_by;size:50"`
	SourceRef         string         `gorm:"column:source_ref;size:100;index"`
	EcoAction         *EcoAction     `gorm:"foreignKey:EcoActionID"`
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
}

func (EcoActionLog) TableName() string {
	return "eco_action_logs"
}
