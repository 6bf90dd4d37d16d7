package repository

import (
	"context"

	"perfumeshop/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Page  int
	Limit int
	Q     string
	// Qから作ったLIKEパターン（小文字）。どれか1つに当たれば対象
	Patterns []string
	Brand    string
	Gender   string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// おすすめ候補（公開中、excludeID以外）
	ListActiveExcept(ctx context.Context, excludeID int64) ([]model.Product, error)
	// CSV出力用（非公開も含む）
	ListAll(ctx context.Context) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
