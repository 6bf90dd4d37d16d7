package model

import "time"

// カートの明細
// (cart_id, product_id)は一意。同じ商品は数量を足す。
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64     `gorm:"not null;uniqueIndex:ux_cart_items_cart_product,priority:1" json:"cart_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:ux_cart_items_cart_product,priority:2;index" json:"product_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
