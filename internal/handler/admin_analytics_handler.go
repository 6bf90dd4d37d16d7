package handler

import (
	"net/http"

	"perfumeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminAnalyticsHandler struct {
	uc *usecase.AnalyticsUsecase
}

func NewAdminAnalyticsHandler(uc *usecase.AnalyticsUsecase) *AdminAnalyticsHandler {
	return &AdminAnalyticsHandler{uc: uc}
}

func (h *AdminAnalyticsHandler) RegisterRoutes(e *echo.Echo, mw Middlewares) {
	e.GET("/admin/analytics/summary", h.summary, mw.Admin...)
}

func (h *AdminAnalyticsHandler) summary(c echo.Context) error {
	from, err := usecase.ParseTimeParam(c.QueryParam("from"))
	if err != nil {
		return writeError(c, err)
	}
	to, err := usecase.ParseTimeParam(c.QueryParam("to"))
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Summary(c.Request().Context(), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
