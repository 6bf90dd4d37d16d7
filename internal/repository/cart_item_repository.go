package repository

import (
	"context"

	"perfumeshop/internal/domain/model"
)

// 商品情報をjoinした明細
type CartLine struct {
	ItemID    int64
	ProductID int64
	Quantity  int64
	Name      string
	Brand     string
	VolumeML  int `gorm:"column:volume_ml"`
	ImageURL  string
	Price     int64
	Stock     int64
	IsActive  bool
}

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	ListLines(ctx context.Context, cartID int64) ([]CartLine, error)
	// 同一商品はプラス（1文で加算するので同時更新でも失われない）
	AddQuantity(ctx context.Context, cartID int64, productID int64, addQty int64) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
}
