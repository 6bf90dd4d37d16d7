package repository

import (
	"context"
	"errors"
	"time"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// carts と cart_items の両方を扱う
type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

func (r *CartGormRepository) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		return model.Cart{}, translate(err)
	}
	return cart, nil
}

func (r *CartGormRepository) FindBySessionToken(ctx context.Context, token string) (model.Cart, error) {
	if token == "" {
		return model.Cart{}, repo.ErrNotFound
	}
	var cart model.Cart
	err := r.db.WithContext(ctx).Where("session_token = ?", token).First(&cart).Error
	if err != nil {
		return model.Cart{}, translate(err)
	}
	return cart, nil
}

// ユーザーのカートを取得し、無ければ作成
// user_idは一意なので、同時に作られてもON CONFLICTで1つに収まる
func (r *CartGormRepository) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	uid := userID
	newCart := model.Cart{UserID: &uid}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&newCart).Error; err != nil {
		return model.Cart{}, translate(err)
	}

	return r.FindByUserID(ctx, userID)
}

// ゲストカートを作る
func (r *CartGormRepository) CreateForSession(ctx context.Context, token string) (model.Cart, error) {
	if token == "" {
		return model.Cart{}, errors.New("empty session token")
	}
	t := token
	cart := model.Cart{SessionToken: &t}
	if err := r.db.WithContext(ctx).Create(&cart).Error; err != nil {
		return model.Cart{}, translate(err)
	}
	return cart, nil
}

// 指定カートの明細を全削除
func (r *CartGormRepository) Clear(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error
}

// カートごと削除（マージ済みのゲストカート）
func (r *CartGormRepository) Delete(ctx context.Context, cartID int64) error {
	if err := r.Clear(ctx, cartID); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&model.Cart{}, cartID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// カート明細を一覧取得
func (r *CartGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	items := []model.CartItem{}
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

// 商品情報つきの明細（削除済み商品は出さない）
func (r *CartGormRepository) ListLines(ctx context.Context, cartID int64) ([]repo.CartLine, error) {
	lines := []repo.CartLine{}
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select(`cart_items.id AS item_id, cart_items.product_id, cart_items.quantity,
			products.name, products.brand, products.volume_ml, products.image_url, products.price,
			products.stock, products.is_active`).
		Joins("JOIN products ON products.id = cart_items.product_id AND products.deleted_at IS NULL").
		Where("cart_items.cart_id = ?", cartID).
		Order("cart_items.id asc").
		Scan(&lines).Error
	if err != nil {
		return []repo.CartLine{}, err
	}
	return lines, nil
}

// 同一商品は数量加算（INSERT ... ON CONFLICT DO UPDATE の1文）
func (r *CartGormRepository) AddQuantity(ctx context.Context, cartID int64, productID int64, addQty int64) error {
	if addQty <= 0 {
		return errors.New("invalid quantity")
	}

	item := model.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  addQty,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"updated_at": time.Now(),
			}),
		}).
		Create(&item).Error
}

// 明細の数量を更新
func (r *CartGormRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", cartItemID).
		Update("quantity", qty)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を削除
func (r *CartGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CartItem{}, cartItemID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を取得
func (r *CartGormRepository) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	var item model.CartItem
	if err := r.db.WithContext(ctx).Where("id = ?", cartItemID).First(&item).Error; err != nil {
		return model.CartItem{}, translate(err)
	}
	return item, nil
}
