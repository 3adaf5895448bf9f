package model

import "time"

type ItemImage struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	ItemID       uint64    `gorm:"column:item_id;not null;index:idx_item_images_item_id"`
	OriginalName string    `gorm:"column:ori_img_name;size:255"`
	ImgURL       string    `gorm:"column:img_url;size:512;not null"`
	RepImgYn     string    `gorm:"column:rep_img_yn;size:1;not null;default:N"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (ItemImage) TableName() string {
	return "item_images"
}
