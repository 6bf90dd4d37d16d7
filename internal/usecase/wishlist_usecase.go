package usecase

import (
	"context"
	"errors"
	"time"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"
)

// カートへの追加（CartUsecaseが満たす）
type CartAdder interface {
	AddToCart(ctx context.Context, s CartSession, in AddCartInput) (CartResult, error)
}

type WishlistUsecase struct {
	wishlist repo.WishlistRepository
	products repo.ProductRepository
	cart     CartAdder
}

func NewWishlistUsecase(wishlist repo.WishlistRepository, products repo.ProductRepository, cart CartAdder) *WishlistUsecase {
	return &WishlistUsecase{wishlist: wishlist, products: products, cart: cart}
}

type WishlistItemResponse struct {
	ProductID int64     `json:"product_id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	ImageURL  string    `json:"image_url"`
	Price     int64     `json:"price"`
	InStock   bool      `json:"in_stock"`
	AddedAt   time.Time `json:"added_at"`
}

func (u *WishlistUsecase) List(ctx context.Context, userID int64) ([]WishlistItemResponse, error) {
	if userID <= 0 {
		return nil, errUnauthorized()
	}

	lines, err := u.wishlist.ListLines(ctx, userID)
	if err != nil {
		return nil, errDB()
	}

	out := make([]WishlistItemResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, WishlistItemResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Brand:     l.Brand,
			ImageURL:  l.ImageURL,
			Price:     l.Price,
			InStock:   l.Stock > 0,
			AddedAt:   l.AddedAt,
		})
	}
	return out, nil
}

// 追加（既にあれば何もしない）
func (u *WishlistUsecase) Add(ctx context.Context, userID, productID int64) error {
	if userID <= 0 {
		return errUnauthorized()
	}
	if productID <= 0 {
		return errBadRequest("invalid product_id")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return errDB()
	}
	if !p.IsActive {
		return errNotFound()
	}

	if err := u.wishlist.Add(ctx, model.WishlistItem{
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}); err != nil {
		return errDB()
	}
	return nil
}

func (u *WishlistUsecase) Remove(ctx context.Context, userID, productID int64) error {
	if userID <= 0 {
		return errUnauthorized()
	}
	if productID <= 0 {
		return errBadRequest("invalid product_id")
	}

	if err := u.wishlist.Remove(ctx, userID, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		return errDB()
	}
	return nil
}

// カートへ1個移して、お気に入りから外す
func (u *WishlistUsecase) MoveToCart(ctx context.Context, userID, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	if productID <= 0 {
		return CartResponse{}, errBadRequest("invalid product_id")
	}

	ok, err := u.wishlist.Exists(ctx, userID, productID)
	if err != nil {
		return CartResponse{}, errDB()
	}
	if !ok {
		return CartResponse{}, errNotFound()
	}

	res, err := u.cart.AddToCart(ctx, CartSession{UserID: userID}, AddCartInput{ProductID: productID, Quantity: 1})
	if err != nil {
		return CartResponse{}, err
	}

	if err := u.wishlist.Remove(ctx, userID, productID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, errDB()
	}
	return res.Cart, nil
}
