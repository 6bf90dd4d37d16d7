package handler

import (
	"net/http"

	"perfumeshop/internal/repository"
	"perfumeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminTicketHandler struct {
	uc *usecase.SupportUsecase
}

func NewAdminTicketHandler(uc *usecase.SupportUsecase) *AdminTicketHandler {
	return &AdminTicketHandler{uc: uc}
}

type updateTicketRequest struct {
	Status     string  `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
	AdminReply *string `json:"admin_reply" validate:"omitempty,max=5000"`
}

func (h *AdminTicketHandler) RegisterRoutes(e *echo.Echo, mw Middlewares) {
	admin := e.Group("/admin/tickets", mw.Admin...)

	admin.GET("", h.list)
	admin.PATCH("/:id", h.update)
}

func (h *AdminTicketHandler) list(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return writeError(c, err)
	}
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AdminList(c.Request().Context(), repository.TicketListFilter{
		Status: c.QueryParam("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminTicketHandler) update(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req updateTicketRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AdminUpdate(c.Request().Context(), adminID, id, usecase.UpdateTicketInput{
		Status:     req.Status,
		AdminReply: req.AdminReply,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
