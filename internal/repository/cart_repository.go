package repository

import (
	"context"

	"perfumeshop/internal/domain/model"
)

type CartRepository interface {
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindBySessionToken(ctx context.Context, token string) (model.Cart, error)
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	CreateForSession(ctx context.Context, token string) (model.Cart, error)
	// 明細だけ消す（カート自体は残る）
	Clear(ctx context.Context, cartID int64) error
	// 明細ごとカートを消す
	Delete(ctx context.Context, cartID int64) error
}
