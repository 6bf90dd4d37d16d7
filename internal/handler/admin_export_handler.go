package handler

import (
	"fmt"
	"net/http"

	"perfumeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminExportHandler struct {
	uc *usecase.ExportUsecase
}

func NewAdminExportHandler(uc *usecase.ExportUsecase) *AdminExportHandler {
	return &AdminExportHandler{uc: uc}
}

func (h *AdminExportHandler) RegisterRoutes(e *echo.Echo, mw Middlewares) {
	admin := e.Group("/admin/exports", mw.Admin...)

	admin.GET("/orders.csv", h.orders)
	admin.GET("/customers.csv", h.customers)
	admin.GET("/products.csv", h.products)
}

// ダウンロードとして返す
func writeCSV(c echo.Context, f usecase.ExportFile) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", f.Filename))
	return c.Blob(http.StatusOK, f.ContentType, f.Body)
}

func (h *AdminExportHandler) orders(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	from, err := usecase.ParseTimeParam(c.QueryParam("from"))
	if err != nil {
		return writeError(c, err)
	}
	to, err := usecase.ParseTimeParam(c.QueryParam("to"))
	if err != nil {
		return writeError(c, err)
	}

	f, err := h.uc.ExportOrders(c.Request().Context(), adminID, from, to)
	if err != nil {
		return writeError(c, err)
	}
	return writeCSV(c, f)
}

func (h *AdminExportHandler) customers(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	f, err := h.uc.ExportCustomers(c.Request().Context(), adminID)
	if err != nil {
		return writeError(c, err)
	}
	return writeCSV(c, f)
}

func (h *AdminExportHandler) products(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	f, err := h.uc.ExportProducts(c.Request().Context(), adminID)
	if err != nil {
		return writeError(c, err)
	}
	return writeCSV(c, f)
}
