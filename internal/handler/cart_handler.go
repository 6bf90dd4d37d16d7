package handler

import (
	"context"
	"net/http"

	"perfumeshop/internal/config"
	"perfumeshop/internal/middleware"
	"perfumeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc     *usecase.CartUsecase
	cookie config.CookieConfig
}

// DI
func NewCartHandler(uc *usecase.CartUsecase, cookie config.CookieConfig) *CartHandler {
	return &CartHandler{uc: uc, cookie: cookie}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gte=1,lte=99"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gte=1,lte=99"`
}

// /cart を登録（ゲストも使える。mergeだけログイン必須）
func (h *CartHandler) RegisterRoutes(e *echo.Echo, mw Middlewares) {
	g := e.Group("/cart", append(mw.Optional, middleware.CartSession())...)

	g.GET("", h.getCart)
	g.DELETE("", h.clearCart)
	g.POST("/items", h.addToCart)
	g.PATCH("/items/:id", h.patchItem)
	g.DELETE("/items/:id", h.deleteItem)

	auth := e.Group("/cart", append(mw.Auth, middleware.CartSession())...)
	auth.POST("/merge", h.merge)
}

// 新しいゲストトークンが発行されたらcookieに入れる
func (h *CartHandler) respond(c echo.Context, res usecase.CartResult) error {
	if res.IssuedToken != "" {
		c.SetCookie(middleware.NewCartCookie(res.IssuedToken, int(h.cookie.CartSessionTTL.Seconds()), h.cookie.Secure, h.cookie.Domain))
	}
	return c.JSON(http.StatusOK, res.Cart)
}

func (h *CartHandler) getCart(c echo.Context) error {
	res, err := h.uc.GetCart(c.Request().Context(), middleware.CartSessionFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, res)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	var req AddCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	res, err := h.uc.AddToCart(c.Request().Context(), middleware.CartSessionFrom(c), usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, res)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req UpdateCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	res, err := h.uc.UpdateCartItem(c.Request().Context(), middleware.CartSessionFrom(c), itemID, usecase.UpdateCartItemInput{
		Quantity: req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, res)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	res, err := h.uc.DeleteCartItem(c.Request().Context(), middleware.CartSessionFrom(c), itemID)
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, res)
}

func (h *CartHandler) clearCart(c echo.Context) error {
	res, err := h.uc.ClearCart(c.Request().Context(), middleware.CartSessionFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, res)
}

// ゲストカートをログインユーザーのカートへ
func (h *CartHandler) merge(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	s := middleware.CartSessionFrom(c)
	cart, merged, err := h.uc.MergeGuestCart(c.Request().Context(), userID, s.GuestToken)
	if err != nil {
		return writeError(c, err)
	}
	if merged || s.GuestToken != "" {
		c.SetCookie(middleware.ExpiredCartCookie(h.cookie.Secure, h.cookie.Domain))
	}
	return c.JSON(http.StatusOK, map[string]any{"cart": cart, "merged": merged})
}

// ログイン直後のマージ（CartUsecaseが満たす）
type guestCartMerger interface {
	MergeGuestCart(ctx context.Context, userID int64, guestToken string) (usecase.CartResponse, bool, error)
}

// ログイン自体は失敗させない（マージ失敗はログだけ）
func mergeAfterLogin(c echo.Context, merger guestCartMerger, cookie config.CookieConfig, userID int64) *usecase.CartResponse {
	token := middleware.CartSessionFrom(c).GuestToken
	if merger == nil || token == "" {
		return nil
	}

	ctx := c.Request().Context()
	cart, merged, err := merger.MergeGuestCart(ctx, userID, token)
	if err != nil {
		errLogger.Error(ctx, "guest cart merge failed", err)
		return nil
	}
	c.SetCookie(middleware.ExpiredCartCookie(cookie.Secure, cookie.Domain))
	if !merged {
		return nil
	}
	return &cart
}
