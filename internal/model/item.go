package model

import "time"

type SellStatus string

const (
	SellStatusSell    SellStatus = "SELL"
	SellStatusSoldOut SellStatus = "SOLD_OUT"
)

type Item struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement"`
	Name        string      `gorm:"column:item_nm;size:100;not null"`
	Price       int64       `gorm:"column:price;not null"`
	Detail      string      `gorm:"column:item_detail;type:text"`
	SellStatus  SellStatus  `gorm:"column:item_sell_status;size:10;not null;default:SELL;index"`
	StockNumber int64       `gorm:"column:stock_number;not null;default:0"`
	Summary     string      `gorm:"column:item_summary;size:255"`
	BrandName   string      `gorm:"column:brand_name;size:100"`
	VendorName  string      `gorm:"column:vendor_name;size:100"`
	Images      []ItemImage `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time   `gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime"`
}

func (Item) TableName() string {
	return "items"
}

// RepImage returns the representative image, falling back to the first one.
func (it *Item) RepImage() *ItemImage {
	for i := range it.Images {
		if it.Images[i].RepImgYn == "Y" {
			return &it.Images[i]
		}
	}
	if len(it.Images) > 0 {
		return &it.Images[0]
	}
	return nil
}
