package handler

import (
	"net/http"

	"perfumeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ProductRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	Brand         string `json:"brand" validate:"max=255"`
	Description   string `json:"description"`
	Gender        string `json:"gender" validate:"omitempty,oneof=women men unisex"`
	Concentration string `json:"concentration" validate:"max=30"`
	VolumeML      int    `json:"volume_ml" validate:"gte=0"`
	TopNotes      string `json:"top_notes"`
	HeartNotes    string `json:"heart_notes"`
	BaseNotes     string `json:"base_notes"`
	ImageURL      string `json:"image_url" validate:"omitempty,url,max=1024"`
	Price         int64  `json:"price" validate:"gte=0"`
	Stock         int64  `json:"stock" validate:"gte=0"`
	IsActive      bool   `json:"is_active"`
}

func (r ProductRequest) toInput() usecase.AdminProductInput {
	return usecase.AdminProductInput{
		Name:          r.Name,
		Brand:         r.Brand,
		Description:   r.Description,
		Gender:        r.Gender,
		Concentration: r.Concentration,
		VolumeML:      r.VolumeML,
		TopNotes:      r.TopNotes,
		HeartNotes:    r.HeartNotes,
		BaseNotes:     r.BaseNotes,
		ImageURL:      r.ImageURL,
		Price:         r.Price,
		Stock:         r.Stock,
		IsActive:      r.IsActive,
	}
}

// InventoryUpdateRequest は在庫更新の入力です。
type InventoryUpdateRequest struct {
	Stock  int64  `json:"stock" validate:"gte=0"`
	Reason string `json:"reason" validate:"required,max=255"`
}

// /admin/products と /admin/inventory をまとめる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, mw Middlewares) {
	admin := e.Group("/admin", mw.Admin...)

	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.PUT("/inventory/:product_id", h.updateInventory)
	admin.GET("/inventory/:product_id/adjustments", h.listAdjustments)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{"id": id})
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, req.toInput()); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}

	var req InventoryUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.AdminUpdateInventory(
		c.Request().Context(),
		adminID,
		productID,
		req.Stock,
		req.Reason,
	); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "stock updated"})
}

func (h *AdminProductHandler) listAdjustments(c echo.Context) error {
	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return writeError(c, err)
	}

	list, err := h.uc.AdminListInventoryAdjustments(c.Request().Context(), productID, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": list})
}
