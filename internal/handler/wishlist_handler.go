package handler

import (
	"net/http"

	"perfumeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type WishlistHandler struct {
	uc *usecase.WishlistUsecase
}

func NewWishlistHandler(uc *usecase.WishlistUsecase) *WishlistHandler {
	return &WishlistHandler{uc: uc}
}

type wishlistAddRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

func (h *WishlistHandler) RegisterRoutes(e *echo.Echo, mw Middlewares) {
	g := e.Group("/wishlist", mw.Auth...)

	g.GET("", h.list)
	g.POST("", h.add)
	g.DELETE("/:product_id", h.remove)
	g.POST("/:product_id/move-to-cart", h.moveToCart)
}

func (h *WishlistHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.List(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": out})
}

func (h *WishlistHandler) add(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req wishlistAddRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	if err := h.uc.Add(c.Request().Context(), userID, req.ProductID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "added"})
}

func (h *WishlistHandler) remove(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.Remove(c.Request().Context(), userID, productID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WishlistHandler) moveToCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}

	cart, err := h.uc.MoveToCart(c.Request().Context(), userID, productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}
