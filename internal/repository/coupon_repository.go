package repository

import (
	"context"

	"perfumeshop/internal/domain/model"
)

type CouponRepository interface {
	Create(ctx context.Context, c model.Coupon) (model.Coupon, error)
	Update(ctx context.Context, c model.Coupon) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (model.Coupon, error)
	FindByCode(ctx context.Context, code string) (model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)

	// 上限未満のときだけ times_redeemed を+1（falseなら上限到達）
	Redeem(ctx context.Context, couponID int64) (bool, error)
	// キャンセル時に戻す
	Release(ctx context.Context, couponID int64) error
}
