package middleware

import (
	"net/http"
	"strings"

	"perfumeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	CartSessionCookie = "cart_session"
	CtxCartSessionKey = "cart_session" // usecase.CartSession
)

// 認証情報とcart_session cookieからCartSessionを作る（OptionalAuth/AuthJWTの後ろに置く）
func CartSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var s usecase.CartSession
			if id, ok := c.Get(CtxUserIDKey).(int64); ok {
				s.UserID = id
			}
			if ck, err := c.Cookie(CartSessionCookie); err == nil {
				s.GuestToken = strings.TrimSpace(ck.Value)
			}

			c.Set(CtxCartSessionKey, s)
			return next(c)
		}
	}
}

// handlerから取り出す
func CartSessionFrom(c echo.Context) usecase.CartSession {
	s, _ := c.Get(CtxCartSessionKey).(usecase.CartSession)
	return s
}

// cart_session cookie（HttpOnly、30日、Path=/）
func NewCartCookie(token string, maxAgeSeconds int, secure bool, domain string) *http.Cookie {
	return &http.Cookie{
		Name:     CartSessionCookie,
		Value:    token,
		Path:     "/",
		Domain:   domain,
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// マージ後にcookieを消す
func ExpiredCartCookie(secure bool, domain string) *http.Cookie {
	return NewCartCookie("", -1, secure, domain)
}
