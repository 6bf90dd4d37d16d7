package handler

import (
	"net/http"
	"time"

	"perfumeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminCouponHandler struct {
	uc *usecase.CouponUsecase
}

func NewAdminCouponHandler(uc *usecase.CouponUsecase) *AdminCouponHandler {
	return &AdminCouponHandler{uc: uc}
}

type couponRequest struct {
	Code           string     `json:"code" validate:"required,max=64"`
	Description    string     `json:"description" validate:"max=255"`
	DiscountType   string     `json:"discount_type" validate:"required,oneof=PERCENT FIXED"`
	Value          int64      `json:"value" validate:"gt=0"`
	MinSubtotal    int64      `json:"min_subtotal" validate:"gte=0"`
	MaxRedemptions int64      `json:"max_redemptions" validate:"gte=0"`
	StartsAt       *time.Time `json:"starts_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
	IsActive       *bool      `json:"is_active"`
}

func (r couponRequest) toInput() usecase.CouponInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return usecase.CouponInput{
		Code:           r.Code,
		Description:    r.Description,
		DiscountType:   r.DiscountType,
		Value:          r.Value,
		MinSubtotal:    r.MinSubtotal,
		MaxRedemptions: r.MaxRedemptions,
		StartsAt:       r.StartsAt,
		ExpiresAt:      r.ExpiresAt,
		IsActive:       active,
	}
}

func (h *AdminCouponHandler) RegisterRoutes(e *echo.Echo, mw Middlewares) {
	admin := e.Group("/admin/coupons", mw.Admin...)

	admin.GET("", h.list)
	admin.POST("", h.create)
	admin.PUT("/:id", h.update)
	admin.DELETE("/:id", h.delete)
}

func (h *AdminCouponHandler) list(c echo.Context) error {
	list, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": list})
}

func (h *AdminCouponHandler) create(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req couponRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Create(c.Request().Context(), adminID, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminCouponHandler) update(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req couponRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Update(c.Request().Context(), adminID, id, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminCouponHandler) delete(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.Delete(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
