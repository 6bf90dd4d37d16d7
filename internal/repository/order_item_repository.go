package repository

import (
	"context"

	"perfumeshop/internal/domain/model"
)

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	// CSV用: 注文IDごとの点数
	CountUnitsByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64]int64, error)
}
