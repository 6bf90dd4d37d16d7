package repository

import (
	"context"

	"perfumeshop/internal/domain/model"
)

// products.stock を直接触るのはここだけ
type InventoryRepository interface {
	SetStock(ctx context.Context, productID int64, newStock int64) error
	// stock >= qty のときだけ減らす。足りなければ false
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)
	// キャンセル時の戻し
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
	ListAdjustments(ctx context.Context, productID int64, limit int) ([]model.InventoryAdjustment, error)
}
