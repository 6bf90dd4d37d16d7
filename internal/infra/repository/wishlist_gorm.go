package repository

import (
	"context"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistGormRepository struct {
	db *gorm.DB
}

func NewWishlistGormRepository(db *gorm.DB) *WishlistGormRepository {
	return &WishlistGormRepository{db: db}
}

// 既に登録済みなら何もしない
func (r *WishlistGormRepository) Add(ctx context.Context, item model.WishlistItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&item).Error
}

func (r *WishlistGormRepository) Remove(ctx context.Context, userID, productID int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.WishlistItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *WishlistGormRepository) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	return n > 0, err
}

// 新しく追加した順（削除済み商品は出さない）
func (r *WishlistGormRepository) ListLines(ctx context.Context, userID int64) ([]repo.WishlistLine, error) {
	lines := []repo.WishlistLine{}
	err := r.db.WithContext(ctx).
		Table("wishlist_items").
		Select(`wishlist_items.product_id, products.name, products.brand, products.image_url,
			products.price, products.stock, wishlist_items.created_at AS added_at`).
		Joins("JOIN products ON products.id = wishlist_items.product_id AND products.deleted_at IS NULL").
		Where("wishlist_items.user_id = ?", userID).
		Order("wishlist_items.id desc").
		Scan(&lines).Error
	if err != nil {
		return []repo.WishlistLine{}, err
	}
	return lines, nil
}
