package repository

import (
	"context"

	"perfumeshop/internal/domain/model"
)

// 住所(Address)を保存・取得する窓口
type AddressRepository interface {
	//作成後はaddress（IDなどが埋まったもの）を返す
	Create(ctx context.Context, address model.Address) (model.Address, error)

	//ユーザーが持つ住所一覧を返す（defaultが先頭）
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)

	CountByUserID(ctx context.Context, userID int64) (int64, error)

	FindByID(ctx context.Context, addressID int64) (model.Address, error)

	Update(ctx context.Context, address model.Address) error

	Delete(ctx context.Context, addressID int64) error

	//住所がそのユーザーのものか
	IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error)

	//defaultの切り替え（ユーザー内で1つだけ）
	SetDefault(ctx context.Context, userID, addressID int64) error
}
