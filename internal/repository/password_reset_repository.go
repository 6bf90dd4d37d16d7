package repository

import (
	"context"
	"time"

	"perfumeshop/internal/domain/model"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, t model.PasswordResetToken) error
	FindByTokenHash(ctx context.Context, hash string) (model.PasswordResetToken, error)
	// 未使用のときだけ使用済みにする（falseなら既に使われた）
	MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error)
	DeleteByUserID(ctx context.Context, userID int64) error
}
