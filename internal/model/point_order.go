package model

import "time"

type OrderStatus string

const (
	OrderStatusOrder     OrderStatus = "ORDER"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancel    OrderStatus = "CANCEL"
)

type PointOrder struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement"`
	UserID      uint64      `gorm:"column:user_id;not null;index"`
	PointID     uint64      `gorm:"column:point_id;not null"`
	OrderDate   time.Time   `gorm:"column:order_date;not null;index"`
	TotalPrice  int64       `gorm:"column:total_price;not null"`
	OrderStatus OrderStatus `gorm:"column:order_status;size:10;not null;default:ORDER"`
	Items       []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time   `gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime"`
}

func (PointOrder) TableName() string {
	return "point_orders"
}

type OrderItem struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	OrderID    uint64    `gorm:"column:order_id;not null;index"`
	ItemID     uint64    `gorm:"column:item_id;not null;index"`
	Count      int64     `gorm:"column:count;not null"`
	OrderPrice int64     `gorm:"column:order_price;not null"`
	Item       *Item     `gorm:"foreignKey:ItemID"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
