package repository

import (
	"context"
	"time"

	"perfumeshop/internal/domain/model"

	"gorm.io/gorm"
)

type PasswordResetGormRepository struct {
	db *gorm.DB
}

func NewPasswordResetGormRepository(db *gorm.DB) *PasswordResetGormRepository {
	return &PasswordResetGormRepository{db: db}
}

func (r *PasswordResetGormRepository) Create(ctx context.Context, t model.PasswordResetToken) error {
	return translate(r.db.WithContext(ctx).Create(&t).Error)
}

func (r *PasswordResetGormRepository) FindByTokenHash(ctx context.Context, hash string) (model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&t).Error; err != nil {
		return model.PasswordResetToken{}, translate(err)
	}
	return t, nil
}

// used_atがNULLのときだけ更新（二重使用を防ぐ）
func (r *PasswordResetGormRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.PasswordResetToken{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", usedAt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PasswordResetGormRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.PasswordResetToken{}).Error
}
