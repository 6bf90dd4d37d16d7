package repository

import (
	"context"
	"strings"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"

	"gorm.io/gorm"
)

type CouponGormRepository struct {
	db *gorm.DB
}

func NewCouponGormRepository(db *gorm.DB) *CouponGormRepository {
	return &CouponGormRepository{db: db}
}

// コードは大文字で保存（重複はErrDuplicate）
func (r *CouponGormRepository) Create(ctx context.Context, c model.Coupon) (model.Coupon, error) {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Coupon{}, translate(err)
	}
	return c, nil
}

func (r *CouponGormRepository) Update(ctx context.Context, c model.Coupon) error {
	res := r.db.WithContext(ctx).Model(&model.Coupon{}).Where("id = ?", c.ID).Updates(map[string]any{
		"description":     c.Description,
		"discount_type":   c.DiscountType,
		"value":           c.Value,
		"min_subtotal":    c.MinSubtotal,
		"max_redemptions": c.MaxRedemptions,
		"starts_at":       c.StartsAt,
		"expires_at":      c.ExpiresAt,
		"is_active":       c.IsActive,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CouponGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Coupon{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CouponGormRepository) FindByID(ctx context.Context, id int64) (model.Coupon, error) {
	var c model.Coupon
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return model.Coupon{}, translate(err)
	}
	return c, nil
}

func (r *CouponGormRepository) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&c).Error
	if err != nil {
		return model.Coupon{}, translate(err)
	}
	return c, nil
}

func (r *CouponGormRepository) List(ctx context.Context) ([]model.Coupon, error) {
	list := []model.Coupon{}
	if err := r.db.WithContext(ctx).Order("id desc").Find(&list).Error; err != nil {
		return []model.Coupon{}, err
	}
	return list, nil
}

// 上限チェックと加算を1文で行う
func (r *CouponGormRepository) Redeem(ctx context.Context, couponID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Coupon{}).
		Where("id = ? AND (max_redemptions = 0 OR times_redeemed < max_redemptions)", couponID).
		UpdateColumn("times_redeemed", gorm.Expr("times_redeemed + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *CouponGormRepository) Release(ctx context.Context, couponID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Coupon{}).
		Where("id = ? AND times_redeemed > 0", couponID).
		UpdateColumn("times_redeemed", gorm.Expr("times_redeemed - ?", 1)).Error
}
