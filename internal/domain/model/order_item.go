package model

import "time"

// 注文時点の商品情報を固定で持つ（後から商品が変わっても履歴は変わらない）
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	BrandSnapshot       string    `gorm:"type:varchar(255);not null;default:''" json:"brand_snapshot"`
	VolumeMLSnapshot    int       `gorm:"column:volume_ml_snapshot;not null;default:0" json:"volume_ml_snapshot"`
	UnitPriceSnapshot   int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (i OrderItem) LineTotal() int64 {
	return i.UnitPriceSnapshot * i.Quantity
}
