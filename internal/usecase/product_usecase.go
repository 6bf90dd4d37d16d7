package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"
)

const (
	defaultRecommendLimit = 4
	maxRecommendLimit     = 12
)

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	tx            repo.TransactionManager
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, inventoryRepo repo.InventoryRepository, tx repo.TransactionManager) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		tx:            tx,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Brand    string
	Gender   string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, errBadRequest("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, errBadRequest("invalid limit")
	}
	if utf8.RuneCountInString(in.Q) > 100 {
		return ProductListOutput{}, errBadRequest("q too long")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return ProductListOutput{}, errBadRequest("min_price must be >= 0")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return ProductListOutput{}, errBadRequest("max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return ProductListOutput{}, errBadRequest("min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc", "name":
	default:
		return ProductListOutput{}, errBadRequest("invalid sort")
	}
	if in.Gender != "" && !validGender(in.Gender) {
		return ProductListOutput{}, errBadRequest("invalid gender")
	}

	q := strings.TrimSpace(in.Q)
	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        q,
		Patterns: SearchPatterns(q),
		Brand:    in.Brand,
		Gender:   in.Gender,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, errDB()
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, errBadRequest("invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, errNotFound()
	}
	if err != nil {
		return model.Product{}, errDB()
	}

	if !p.IsActive {
		return model.Product{}, errNotFound()
	}
	return p, nil
}

// 香調の相性でおすすめを返す
func (u *ProductUsecase) Recommendations(ctx context.Context, productID int64, limit int) ([]Recommendation, error) {
	if limit == 0 {
		limit = defaultRecommendLimit
	}
	if limit < 1 || limit > maxRecommendLimit {
		return nil, errBadRequest("invalid limit")
	}

	base, err := u.GetProductDetail(ctx, productID)
	if err != nil {
		return nil, err
	}

	candidates, err := u.productRepo.ListActiveExcept(ctx, base.ID)
	if err != nil {
		return nil, errDB()
	}
	return RankRecommendations(base, candidates, limit), nil
}

type AdminProductInput struct {
	Name          string
	Brand         string
	Description   string
	Gender        string
	Concentration string
	VolumeML      int
	TopNotes      string
	HeartNotes    string
	BaseNotes     string
	ImageURL      string
	Price         int64
	Stock         int64
	IsActive      bool
}

func (in AdminProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errBadRequest("name required")
	}
	if in.Price < 0 {
		return errBadRequest("price must be >= 0")
	}
	if in.Stock < 0 {
		return errBadRequest("stock must be >= 0")
	}
	if in.VolumeML < 0 {
		return errBadRequest("volume_ml must be >= 0")
	}
	if in.Gender != "" && !validGender(in.Gender) {
		return errBadRequest("invalid gender")
	}
	return nil
}

func (in AdminProductInput) toModel() model.Product {
	gender := model.Gender(in.Gender)
	if gender == "" {
		gender = model.GenderUnisex
	}
	return model.Product{
		Name:          strings.TrimSpace(in.Name),
		Brand:         strings.TrimSpace(in.Brand),
		Description:   in.Description,
		Gender:        gender,
		Concentration: strings.TrimSpace(in.Concentration),
		VolumeML:      in.VolumeML,
		TopNotes:      normalizeNotes(in.TopNotes),
		HeartNotes:    normalizeNotes(in.HeartNotes),
		BaseNotes:     normalizeNotes(in.BaseNotes),
		ImageURL:      strings.TrimSpace(in.ImageURL),
		Price:         in.Price,
		Stock:         in.Stock,
		IsActive:      in.IsActive,
	}
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (int64, error) {
	if adminUserID <= 0 {
		return 0, errUnauthorized()
	}
	if err := in.validate(); err != nil {
		return 0, err
	}

	var id int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, in.toModel())
		if err != nil {
			return errDB()
		}
		id = p.ID

		if err := r.AuditLogs().Create(ctx, newAuditLog(adminUserID, model.AuditActionCreateProduct, model.AuditResourceProduct, p.ID, nil, p)); err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if productID <= 0 {
		return errBadRequest("invalid product id")
	}
	if err := in.validate(); err != nil {
		return err
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}

		after := in.toModel()
		after.ID = productID
		after.CreatedAt = before.CreatedAt
		after.UpdatedAt = time.Now()

		if err := r.Products().Update(ctx, after); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound()
			}
			return errDB()
		}

		if err := r.AuditLogs().Create(ctx, newAuditLog(adminUserID, model.AuditActionUpdateProduct, model.AuditResourceProduct, productID, before, after)); err != nil {
			return errDB()
		}
		return nil
	})
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if productID <= 0 {
		return errBadRequest("invalid product id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.Products().SoftDelete(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}

		if err := r.AuditLogs().Create(ctx, newAuditLog(adminUserID, model.AuditActionDeleteProduct, model.AuditResourceProduct, productID, nil, nil)); err != nil {
			return errDB()
		}
		return nil
	})
}

// 在庫の更新・調整履歴・監査ログを1つのトランザクションで
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if productID <= 0 {
		return errBadRequest("invalid product id")
	}
	if newStock < 0 {
		return errBadRequest("stock must be >= 0")
	}
	if strings.TrimSpace(reason) == "" {
		return errBadRequest("reason required")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}

		//在庫の現在値を更新
		if err := r.Inventory().SetStock(ctx, productID, newStock); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound()
			}
			return errDB()
		}

		//履歴を作成（差分）
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: adminUserID,
			Delta:       newStock - p.Stock,
			StockAfter:  newStock,
			Reason:      strings.TrimSpace(reason),
			CreatedAt:   time.Now(),
		}); err != nil {
			return errDB()
		}

		//監査ログ（誰が・何を・どう変えたか）
		log := newAuditLog(adminUserID, model.AuditActionUpdateStock, model.AuditResourceProduct, productID,
			map[string]int64{"stock": p.Stock}, map[string]int64{"stock": newStock})
		if err := r.AuditLogs().Create(ctx, log); err != nil {
			return errDB()
		}
		return nil
	})
}

// 在庫調整の履歴（新しい順）
func (u *ProductUsecase) AdminListInventoryAdjustments(ctx context.Context, productID int64, limit int) ([]model.InventoryAdjustment, error) {
	if productID <= 0 {
		return nil, errBadRequest("invalid product id")
	}
	if limit < 1 || limit > 200 {
		return nil, errBadRequest("invalid limit")
	}

	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errNotFound()
		}
		return nil, errDB()
	}

	list, err := u.inventoryRepo.ListAdjustments(ctx, productID, limit)
	if err != nil {
		return nil, errDB()
	}
	return list, nil
}

func validGender(g string) bool {
	switch model.Gender(g) {
	case model.GenderWomen, model.GenderMen, model.GenderUnisex:
		return true
	}
	return false
}

// "Rose ,  oud" -> "Rose, oud"
func normalizeNotes(s string) string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
