package handler

import (
	"net/http"

	"perfumeshop/internal/middleware"
	"perfumeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type SupportHandler struct {
	uc *usecase.SupportUsecase
}

func NewSupportHandler(uc *usecase.SupportUsecase) *SupportHandler {
	return &SupportHandler{uc: uc}
}

type createTicketRequest struct {
	Email   string `json:"email" validate:"omitempty,email"`
	Subject string `json:"subject" validate:"required,max=255"`
	Message string `json:"message" validate:"required,max=5000"`
	OrderID *int64 `json:"order_id" validate:"omitempty,gt=0"`
}

// 作成はゲストも可、一覧は本人のみ
func (h *SupportHandler) RegisterRoutes(e *echo.Echo, mw Middlewares) {
	e.POST("/support/tickets", h.create, append(mw.Optional, limitOrNoop(mw.RegisterLimit))...)
	e.GET("/support/tickets", h.listMine, mw.Auth...)
}

func (h *SupportHandler) create(c echo.Context) error {
	var req createTicketRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	userID, _ := c.Get(middleware.CtxUserIDKey).(int64)
	t, err := h.uc.Create(c.Request().Context(), userID, usecase.CreateTicketInput{
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
		OrderID: req.OrderID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *SupportHandler) listMine(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	list, err := h.uc.ListMine(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": list})
}
