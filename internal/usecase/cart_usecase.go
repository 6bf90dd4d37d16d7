package usecase

import (
	"context"
	"errors"
	"net/http"

	"perfumeshop/internal/domain/model"
	"perfumeshop/internal/metrics"
	repo "perfumeshop/internal/repository"
)

// CartSession はリクエストごとのカートの持ち主。
// middlewareが認証情報とcart_session cookieから作り、handlerが引数で渡す。
type CartSession struct {
	UserID     int64 // 0ならゲスト
	GuestToken string
}

func (s CartSession) IsGuest() bool {
	return s.UserID <= 0
}

// CartUsecase は /cart の業務ロジック。
type CartUsecase struct {
	carts    repo.CartRepository
	items    repo.CartItemRepository
	products repo.ProductRepository
	tx       repo.TransactionManager
	metrics  *metrics.Metrics

	newToken func() (string, error)
}

func NewCartUsecase(
	carts repo.CartRepository,
	items repo.CartItemRepository,
	products repo.ProductRepository,
	tx repo.TransactionManager,
	m *metrics.Metrics,
) *CartUsecase {
	return &CartUsecase{
		carts:    carts,
		items:    items,
		products: products,
		tx:       tx,
		metrics:  m,
		newToken: newRandomToken,
	}
}

// 価格は商品の現在価格
type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	ImageURL  string `json:"image_url"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Stock     int64  `json:"stock"`
	LineTotal int64  `json:"line_total"`
	// 非公開になった・在庫が足りない明細はfalse（合計に入れない）
	Available bool `json:"available"`
}

type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	Total     int64              `json:"total"`
	ItemCount int64              `json:"item_count"`
}

// handlerに返す結果。IssuedTokenが空でなければcookieをセットする
type CartResult struct {
	Cart        CartResponse
	IssuedToken string
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// ゲストカートの1行（マージの入力）
type GuestLine struct {
	ProductID int64
	Quantity  int64
}

func emptyCart() CartResponse {
	return CartResponse{Items: []CartItemResponse{}}
}

// GetCart はカート取得。ゲストでカートがまだ無いなら空を返す（作らない）
func (u *CartUsecase) GetCart(ctx context.Context, s CartSession) (CartResult, error) {
	cart, ok, err := u.findCart(ctx, s)
	if err != nil {
		return CartResult{}, err
	}
	if !ok {
		return CartResult{Cart: emptyCart()}, nil
	}

	resp, err := u.buildCartResponse(ctx, u.items, cart.ID)
	if err != nil {
		return CartResult{}, err
	}
	return CartResult{Cart: resp}, nil
}

// AddToCart はカートに追加（同一商品は数量加算）。ゲストの初回はカートとトークンを作る
func (u *CartUsecase) AddToCart(ctx context.Context, s CartSession, in AddCartInput) (CartResult, error) {
	if in.ProductID <= 0 {
		return CartResult{}, errBadRequest("invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResult{}, errBadRequest("invalid quantity")
	}

	// 商品チェック（公開のみ）
	p, err := u.products.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResult{}, errNotFound()
	}
	if err != nil {
		return CartResult{}, errDB()
	}
	if !p.IsActive {
		return CartResult{}, errNotFound()
	}

	cart, issued, err := u.findOrCreateCart(ctx, s)
	if err != nil {
		return CartResult{}, err
	}

	// 既存数量と合わせて在庫チェック
	items, err := u.items.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResult{}, errDB()
	}
	var existingQty int64
	for _, it := range items {
		if it.ProductID == in.ProductID {
			existingQty = it.Quantity
			break
		}
	}
	if existingQty+in.Quantity > p.Stock {
		return CartResult{}, errBadRequest("stock exceeded")
	}

	if err := u.items.AddQuantity(ctx, cart.ID, in.ProductID, in.Quantity); err != nil {
		return CartResult{}, errDB()
	}

	resp, err := u.buildCartResponse(ctx, u.items, cart.ID)
	if err != nil {
		return CartResult{}, err
	}
	return CartResult{Cart: resp, IssuedToken: issued}, nil
}

// 数量変更（所有チェック＋在庫チェック）。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, s CartSession, cartItemID int64, in UpdateCartItemInput) (CartResult, error) {
	if cartItemID <= 0 {
		return CartResult{}, errBadRequest("invalid id")
	}
	if in.Quantity < 1 {
		return CartResult{}, errBadRequest("invalid quantity")
	}

	cart, item, err := u.ownedItem(ctx, s, cartItemID)
	if err != nil {
		return CartResult{}, err
	}

	//商品の在庫チェック
	p, err := u.products.FindByID(ctx, item.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResult{}, errBadRequest("product unavailable")
	}
	if err != nil {
		return CartResult{}, errDB()
	}
	if !p.IsActive {
		return CartResult{}, errBadRequest("product unavailable")
	}
	if in.Quantity > p.Stock {
		return CartResult{}, errBadRequest("stock exceeded")
	}

	if err := u.items.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResult{}, errNotFound()
		}
		return CartResult{}, errDB()
	}

	resp, err := u.buildCartResponse(ctx, u.items, cart.ID)
	if err != nil {
		return CartResult{}, err
	}
	return CartResult{Cart: resp}, nil
}

// 明細削除。最後の1件を消しても空のカートが残る
func (u *CartUsecase) DeleteCartItem(ctx context.Context, s CartSession, cartItemID int64) (CartResult, error) {
	if cartItemID <= 0 {
		return CartResult{}, errBadRequest("invalid id")
	}

	cart, _, err := u.ownedItem(ctx, s, cartItemID)
	if err != nil {
		return CartResult{}, err
	}

	if err := u.items.DeleteByID(ctx, cartItemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResult{}, errNotFound()
		}
		return CartResult{}, errDB()
	}

	resp, err := u.buildCartResponse(ctx, u.items, cart.ID)
	if err != nil {
		return CartResult{}, err
	}
	return CartResult{Cart: resp}, nil
}

// 全明細を削除
func (u *CartUsecase) ClearCart(ctx context.Context, s CartSession) (CartResult, error) {
	cart, ok, err := u.findCart(ctx, s)
	if err != nil {
		return CartResult{}, err
	}
	if !ok {
		return CartResult{Cart: emptyCart()}, nil
	}
	if err := u.carts.Clear(ctx, cart.ID); err != nil {
		return CartResult{}, errDB()
	}
	return CartResult{Cart: emptyCart()}, nil
}

// MergeGuestItems はゲストの明細をユーザーのカートに足し込み、マージ後のカートを返す。
// 同じ商品は数量を合計、無い商品は追加。空の入力でもユーザーのカートを返す。
func (u *CartUsecase) MergeGuestItems(ctx context.Context, userID int64, lines []GuestLine) (CartResponse, error) {
	out, _, err := u.merge(ctx, userID, func(repo.TxRepos) ([]GuestLine, bool, error) {
		return lines, true, nil
	})
	return out, err
}

// MergeGuestCart はcart_sessionのカートをユーザーのカートにマージし、ゲストカートを消す。
// merged=falseならゲストカートが無かった（ユーザーのカートだけ返す）
func (u *CartUsecase) MergeGuestCart(ctx context.Context, userID int64, guestToken string) (CartResponse, bool, error) {
	return u.merge(ctx, userID, func(r repo.TxRepos) ([]GuestLine, bool, error) {
		guest, err := r.Carts().FindBySessionToken(ctx, guestToken)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, errDB()
		}
		items, err := r.CartItems().ListByCartID(ctx, guest.ID)
		if err != nil {
			return nil, false, errDB()
		}
		lines := make([]GuestLine, 0, len(items))
		for _, it := range items {
			lines = append(lines, GuestLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		// 同じゲストカートを二度マージしない
		if err := r.Carts().Delete(ctx, guest.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, false, errDB()
		}
		return lines, true, nil
	})
}

// guestがトランザクション内でマージ対象の明細を返す。ok=falseなら何もマージしない
func (u *CartUsecase) merge(ctx context.Context, userID int64, guest func(r repo.TxRepos) ([]GuestLine, bool, error)) (CartResponse, bool, error) {
	if userID <= 0 {
		return CartResponse{}, false, errUnauthorized()
	}

	var (
		out    CartResponse
		merged bool
		count  int
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		lines, ok, err := guest(r)
		if err != nil {
			return err
		}
		cart, err := mergeInto(ctx, r, userID, lines)
		if err != nil {
			return err
		}
		merged, count = ok, len(lines)

		out, err = u.buildCartResponse(ctx, r.CartItems(), cart.ID)
		return err
	})
	if err != nil {
		return CartResponse{}, false, err
	}
	if merged {
		u.metrics.CartMerged(count)
	}
	return out, merged, nil
}

func mergeInto(ctx context.Context, r repo.TxRepos, userID int64, lines []GuestLine) (model.Cart, error) {
	cart, err := r.Carts().GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return model.Cart{}, errDB()
	}
	for _, l := range lines {
		if l.ProductID <= 0 || l.Quantity <= 0 {
			continue
		}
		if err := r.CartItems().AddQuantity(ctx, cart.ID, l.ProductID, l.Quantity); err != nil {
			return model.Cart{}, errDB()
		}
	}
	return cart, nil
}

// 既存カートを探す（作らない）
func (u *CartUsecase) findCart(ctx context.Context, s CartSession) (model.Cart, bool, error) {
	if !s.IsGuest() {
		cart, err := u.carts.GetOrCreateByUserID(ctx, s.UserID)
		if err != nil {
			return model.Cart{}, false, errDB()
		}
		return cart, true, nil
	}
	if s.GuestToken == "" {
		return model.Cart{}, false, nil
	}

	cart, err := u.carts.FindBySessionToken(ctx, s.GuestToken)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, false, nil
	}
	if err != nil {
		return model.Cart{}, false, errDB()
	}
	return cart, true, nil
}

// カートが無ければ作る。ゲストなら新しいトークンも返す
func (u *CartUsecase) findOrCreateCart(ctx context.Context, s CartSession) (model.Cart, string, error) {
	cart, ok, err := u.findCart(ctx, s)
	if err != nil {
		return model.Cart{}, "", err
	}
	if ok {
		return cart, "", nil
	}

	token, err := u.newToken()
	if err != nil {
		return model.Cart{}, "", NewHTTPError(http.StatusInternalServerError, "token error")
	}
	cart, err = u.carts.CreateForSession(ctx, token)
	if err != nil {
		return model.Cart{}, "", errDB()
	}
	return cart, token, nil
}

// 自分のカートの明細か（他人の明細は404）
func (u *CartUsecase) ownedItem(ctx context.Context, s CartSession, cartItemID int64) (model.Cart, model.CartItem, error) {
	cart, ok, err := u.findCart(ctx, s)
	if err != nil {
		return model.Cart{}, model.CartItem{}, err
	}
	if !ok {
		return model.Cart{}, model.CartItem{}, errNotFound()
	}

	item, err := u.items.FindByID(ctx, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, model.CartItem{}, errNotFound()
	}
	if err != nil {
		return model.Cart{}, model.CartItem{}, errDB()
	}
	if item.CartID != cart.ID {
		return model.Cart{}, model.CartItem{}, errNotFound()
	}
	return cart, item, nil
}

// cartIDの明細をまとめてCartResponseを作る。
func (u *CartUsecase) buildCartResponse(ctx context.Context, items repo.CartItemRepository, cartID int64) (CartResponse, error) {
	lines, err := items.ListLines(ctx, cartID)
	if err != nil {
		return CartResponse{}, errDB()
	}
	return toCartResponse(lines), nil
}

func toCartResponse(lines []repo.CartLine) CartResponse {
	resp := CartResponse{Items: make([]CartItemResponse, 0, len(lines))}
	for _, l := range lines {
		available := l.IsActive && l.Quantity <= l.Stock
		item := CartItemResponse{
			ID:        l.ItemID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Brand:     l.Brand,
			ImageURL:  l.ImageURL,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Stock:     l.Stock,
			LineTotal: l.Price * l.Quantity,
			Available: available,
		}
		resp.Items = append(resp.Items, item)
		resp.ItemCount += l.Quantity
		if available {
			resp.Total += item.LineTotal
		}
	}
	return resp
}
