package repository

import (
	"context"
	"time"

	"perfumeshop/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（email重複はErrDuplicate）
	Create(ctx context.Context, user *model.User) error
	// 見つからなければ ErrNotFound
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByGoogleSub(ctx context.Context, sub string) (*model.User, error)
	// ユーザー情報の更新=>名前・ロール・最後のログインなど
	Update(ctx context.Context, user *model.User) error
	//パスワードを変えてtoken_versionを＋１
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error
	// CSV出力用（USERのみ）
	ListCustomers(ctx context.Context) ([]CustomerRow, error)
}

type CustomerRow struct {
	ID         int64
	Email      string
	Name       string
	OrderCount int64
	TotalSpent int64
	CreatedAt  time.Time
}
