package repository

import (
	"context"
	"time"

	"perfumeshop/internal/domain/model"
)

type WishlistLine struct {
	ProductID int64
	Name      string
	Brand     string
	ImageURL  string
	Price     int64
	Stock     int64
	AddedAt   time.Time
}

type WishlistRepository interface {
	// 既にあれば何もしない
	Add(ctx context.Context, item model.WishlistItem) error
	Remove(ctx context.Context, userID, productID int64) error
	Exists(ctx context.Context, userID, productID int64) (bool, error)
	ListLines(ctx context.Context, userID int64) ([]WishlistLine, error)
}
