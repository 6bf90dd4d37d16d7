package handler

import (
	"net/http"
	"strings"

	"perfumeshop/internal/domain/model"
	"perfumeshop/internal/repository"
	"perfumeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	uc    *usecase.AuthUsecase
	audit *usecase.AuditLogUsecase
}

func NewAdminUserHandler(uc *usecase.AuthUsecase, audit *usecase.AuditLogUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc, audit: audit}
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo, mw Middlewares) {
	// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
	admin := e.Group("/admin", mw.Admin...)

	admin.POST("/users/:id/force-logout", h.ForceLogout)
	admin.GET("/audit-logs", h.AuditLogs)
}

func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	res, err := h.uc.ForceLogout(c.Request().Context(), adminID, userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *AdminUserHandler) AuditLogs(c echo.Context) error {
	var f repository.AuditLogFilter

	actor, err := queryInt64Ptr(c, "actor_user_id")
	if err != nil {
		return writeError(c, err)
	}
	f.ActorUserID = actor

	resourceID, err := queryInt64Ptr(c, "resource_id")
	if err != nil {
		return writeError(c, err)
	}
	f.ResourceID = resourceID

	if v := strings.TrimSpace(c.QueryParam("action")); v != "" {
		a := model.AuditAction(strings.ToUpper(v))
		f.Action = &a
	}
	if v := strings.TrimSpace(c.QueryParam("resource_type")); v != "" {
		rt := model.AuditResourceType(strings.ToLower(v))
		f.ResourceType = &rt
	}
	if f.CreatedFrom, err = usecase.ParseTimeParam(c.QueryParam("from")); err != nil {
		return writeError(c, err)
	}
	if f.CreatedTo, err = usecase.ParseTimeParam(c.QueryParam("to")); err != nil {
		return writeError(c, err)
	}
	if f.Limit, err = queryInt(c, "limit", 50); err != nil {
		return writeError(c, err)
	}
	if f.Offset, err = queryInt(c, "offset", 0); err != nil {
		return writeError(c, err)
	}

	page, err := h.audit.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}
