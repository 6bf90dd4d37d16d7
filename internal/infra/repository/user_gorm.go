package repository

import (
	"context"
	"strings"

	"perfumeshop/internal/domain/model"
	domainrepo "perfumeshop/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// Create はユーザーを新規作成
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = normalizeEmail(user.Email)
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// emailでユーザーを1件取得
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userGormRepository) FindByGoogleSub(ctx context.Context, sub string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("google_sub = ?", sub).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ユーザーを更新。
func (r *userGormRepository) Update(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

// パスワード変更と同時に既存トークンを失効させる
func (r *userGormRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"token_version": gorm.Expr("token_version + ?", 1),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

// token_versionを+1 します。
func (r *userGormRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1))

	if res.Error != nil {
		return res.Error
	}

	// 0件更新は「対象がない」
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

// 顧客一覧（キャンセル以外の注文数と購入額つき）
func (r *userGormRepository) ListCustomers(ctx context.Context) ([]domainrepo.CustomerRow, error) {
	var rows []domainrepo.CustomerRow
	err := r.db.WithContext(ctx).
		Table("users").
		Select(`users.id, users.email, users.name, users.created_at,
			COUNT(orders.id) AS order_count,
			COALESCE(SUM(orders.total_price), 0) AS total_spent`).
		Joins("LEFT JOIN orders ON orders.user_id = users.id AND orders.status <> ?", model.OrderStatusCanceled).
		Where("users.role = ?", model.RoleUser).
		Group("users.id, users.email, users.name, users.created_at").
		Order("users.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
