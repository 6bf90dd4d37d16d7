package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	//400 入力不足
	ErrValidation = errors.New("validation error")
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//403　権限
	ErrForbidden = errors.New("forbidden")
	//404
	ErrNotFound = errors.New("not found")
	//競合
	ErrConflict = errors.New("conflict")
	//500
	ErrInternal = errors.New("internal error")
)

// ステータスとメッセージをそのままレスポンスにするエラー
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// よく使うもの
func errDB() error           { return NewHTTPError(http.StatusInternalServerError, "db error") }
func errNotFound() error     { return NewHTTPError(http.StatusNotFound, "not found") }
func errUnauthorized() error { return NewHTTPError(http.StatusUnauthorized, "unauthorized") }
func errBadRequest(msg string) error {
	return NewHTTPError(http.StatusBadRequest, msg)
}
