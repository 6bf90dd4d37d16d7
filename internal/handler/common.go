package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"perfumeshop/internal/logger"
	"perfumeshop/internal/usecase"
	"perfumeshop/internal/validator"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// ルートごとのミドルウェア（server側で組み立てる）
type Middlewares struct {
	Auth          []echo.MiddlewareFunc // JWT必須
	Optional      []echo.MiddlewareFunc // ゲストも可（カート）
	Admin         []echo.MiddlewareFunc // JWT必須＋ADMIN
	LoginLimit    echo.MiddlewareFunc
	RegisterLimit echo.MiddlewareFunc
}

// 5xxのログ出力先（serverで差し替える）
var errLogger = logger.Nop()

func SetLogger(l *logger.Logger) {
	if l != nil {
		errLogger = l
	}
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ve, ok := validator.AsValidationError(err); ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: ve.Fields})
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Status >= 500 {
			errLogger.Error(c.Request().Context(), he.Message, err)
		}
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	switch {
	case errors.Is(err, usecase.ErrValidation):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid input"})
	case errors.Is(err, usecase.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	case errors.Is(err, usecase.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	case errors.Is(err, usecase.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, usecase.ErrConflict):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "conflict"})
	}

	//500
	errLogger.Error(c.Request().Context(), "unexpected error", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// JSONを読み込んでvalidateタグで検証
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return validator.Struct(dst)
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get("user_id")
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// 空なら def
func queryInt(c echo.Context, name string, def int) (int, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}

func queryInt64Ptr(c echo.Context, name string) (*int64, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &n, nil
}
