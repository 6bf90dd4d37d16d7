package repository

import (
	"context"
	"strings"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"

	"gorm.io/gorm"
)

// 検索対象のカラム
var productSearchColumns = []string{"name", "brand", "top_notes", "heart_notes", "base_notes"}

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 公開商品のみを、検索/絞り込み/ソート/ページング付きで返す。
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	products := []model.Product{}
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{})

	// 公開（is_active=true）かつ、商品削除されていないものだけ
	tx = tx.Where("is_active = ?", true)

	// キーワード（名前・ブランド・香調）
	// ILIKEはsqliteに無いのでLOWER+LIKE
	if len(q.Patterns) > 0 {
		conds := make([]string, 0, len(q.Patterns)*len(productSearchColumns))
		args := make([]any, 0, cap(conds))
		for _, p := range q.Patterns {
			for _, col := range productSearchColumns {
				conds = append(conds, "LOWER("+col+") LIKE ?")
				args = append(args, p)
			}
		}
		tx = tx.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	if b := strings.TrimSpace(q.Brand); b != "" {
		tx = tx.Where("LOWER(brand) = ?", strings.ToLower(b))
	}
	if g := strings.TrimSpace(q.Gender); g != "" {
		tx = tx.Where("gender = ?", g)
	}

	//価格帯
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	//sort
	switch q.Sort {
	case "price_asc":
		tx = tx.Order("price asc").Order("id asc")
	case "price_desc":
		tx = tx.Order("price desc").Order("id desc")
	case "name":
		tx = tx.Order("name asc").Order("id asc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Offset(offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return model.Product{}, translate(err)
	}
	return p, nil
}

// おすすめ候補
func (r *ProductGormRepository) ListActiveExcept(ctx context.Context, excludeID int64) ([]model.Product, error) {
	products := []model.Product{}
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND id <> ?", true, excludeID).
		Order("id asc").
		Find(&products).Error
	if err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

// 非公開も含めて全件
func (r *ProductGormRepository) ListAll(ctx context.Context) ([]model.Product, error) {
	products := []model.Product{}
	if err := r.db.WithContext(ctx).Order("id asc").Find(&products).Error; err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, translate(err)
	}
	return p, nil
}

// 商品の更新
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":          p.Name,
		"brand":         p.Brand,
		"description":   p.Description,
		"gender":        p.Gender,
		"concentration": p.Concentration,
		"volume_ml":     p.VolumeML,
		"top_notes":     p.TopNotes,
		"heart_notes":   p.HeartNotes,
		"base_notes":    p.BaseNotes,
		"image_url":     p.ImageURL,
		"price":         p.Price,
		"stock":         p.Stock,
		"is_active":     p.IsActive,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
