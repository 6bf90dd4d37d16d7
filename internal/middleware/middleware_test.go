package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"perfumeshop/internal/config"
	"perfumeshop/internal/domain/model"
	"perfumeshop/internal/logger"
	"perfumeshop/internal/metrics"
	"perfumeshop/internal/middleware"
	"perfumeshop/internal/repository"
	"perfumeshop/internal/usecase"
	auth "perfumeshop/internal/usecase/auth_usecase"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var jwtCfg = config.JWTConfig{Secret: testSecret, AccessTTL: time.Minute}

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
}

// middleware用のUserRepositoryモック
type userRepoMock struct {
	mock.Mock
	repository.UserRepository
}

func (m *userRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type limiterMock struct{ mock.Mock }

func (m *limiterMock) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	args := m.Called(ctx, scope, limit, window)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}

func issue(t *testing.T, userID int64, role model.Role, tv int) string {
	t.Helper()
	tok, _, err := auth.NewJWTIssuer(testSecret, time.Minute).Issue(userID, role, tv, time.Now())
	require.NoError(t, err)
	return tok
}

// contextの中身をそのまま返すハンドラ
func echoClaims(c echo.Context) error {
	out := mwOKResponse{}
	out.UserID, _ = c.Get(middleware.CtxUserIDKey).(int64)
	out.Role, _ = c.Get(middleware.CtxUserRoleKey).(string)
	out.TokenVersion, _ = c.Get(middleware.CtxTokenVersionKey).(int)
	return c.JSON(http.StatusOK, out)
}

func runRequest(t *testing.T, e *echo.Echo, method, path, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeMWError(t *testing.T, rec *httptest.ResponseRecorder) mwErrorResponse {
	t.Helper()
	var r mwErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	return r
}

func decodeMWOK(t *testing.T, rec *httptest.ResponseRecorder) mwOKResponse {
	t.Helper()
	var r mwOKResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	return r
}

func TestAuthJWT(t *testing.T) {
	e := echo.New()
	e.GET("/protected", echoClaims, middleware.AuthJWT(jwtCfg))

	t.Run("no header", func(t *testing.T) {
		rec := runRequest(t, e, http.MethodGet, "/protected", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decodeMWError(t, rec).Error)
	})

	t.Run("bad scheme", func(t *testing.T) {
		rec := runRequest(t, e, http.MethodGet, "/protected", "Token "+issue(t, 1, model.RoleUser, 0))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, _, err := auth.NewJWTIssuer("other", time.Minute).Issue(1, model.RoleUser, 0, time.Now())
		require.NoError(t, err)
		rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired", func(t *testing.T) {
		tok, _, err := auth.NewJWTIssuer(testSecret, time.Minute).Issue(1, model.RoleUser, 0, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("other signing method", func(t *testing.T) {
		claims := jwt.MapClaims{"sub": "1", "role": "USER", "tv": 0, "exp": time.Now().Add(time.Minute).Unix()}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ok", func(t *testing.T) {
		rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+issue(t, 42, model.RoleAdmin, 3))
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeMWOK(t, rec)
		assert.Equal(t, int64(42), body.UserID)
		assert.Equal(t, "ADMIN", body.Role)
		assert.Equal(t, 3, body.TokenVersion)
	})
}

func TestOptionalAuth(t *testing.T) {
	e := echo.New()
	e.GET("/cart", echoClaims, middleware.OptionalAuth(jwtCfg))

	// トークン無しはゲスト
	rec := runRequest(t, e, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decodeMWOK(t, rec).UserID)

	rec = runRequest(t, e, http.MethodGet, "/cart", "Bearer "+issue(t, 5, model.RoleUser, 0))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), decodeMWOK(t, rec).UserID)

	// 壊れたトークンはゲスト扱いにしない
	rec = runRequest(t, e, http.MethodGet, "/cart", "Bearer broken")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenVersionGuard(t *testing.T) {
	repo := new(userRepoMock)
	repo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, TokenVersion: 2, IsActive: true}, nil)
	repo.On("FindByID", mock.Anything, int64(2)).Return(&model.User{ID: 2, TokenVersion: 0, IsActive: false}, nil)
	repo.On("FindByID", mock.Anything, int64(3)).Return(nil, errors.New("not found"))

	e := echo.New()
	e.GET("/me", echoClaims, middleware.AuthJWT(jwtCfg), middleware.TokenVersionGuard(repo))
	e.GET("/cart", echoClaims, middleware.OptionalAuth(jwtCfg), middleware.TokenVersionGuard(repo))

	tests := []struct {
		name string
		path string
		auth string
		want int
	}{
		{name: "current version", path: "/me", auth: "Bearer " + issue(t, 1, model.RoleUser, 2), want: http.StatusOK},
		{name: "stale version", path: "/me", auth: "Bearer " + issue(t, 1, model.RoleUser, 1), want: http.StatusUnauthorized},
		{name: "inactive user", path: "/me", auth: "Bearer " + issue(t, 2, model.RoleUser, 0), want: http.StatusForbidden},
		{name: "deleted user", path: "/me", auth: "Bearer " + issue(t, 3, model.RoleUser, 0), want: http.StatusUnauthorized},
		{name: "guest passes", path: "/cart", auth: "", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := runRequest(t, e, http.MethodGet, tt.path, tt.auth)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAdminRoleGuard(t *testing.T) {
	e := echo.New()
	e.GET("/admin/ping", echoClaims, middleware.AuthJWT(jwtCfg), middleware.AdminRoleGuard())
	e.GET("/no-auth", echoClaims, middleware.AdminRoleGuard())

	rec := runRequest(t, e, http.MethodGet, "/admin/ping", "Bearer "+issue(t, 1, model.RoleAdmin, 0))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runRequest(t, e, http.MethodGet, "/admin/ping", "Bearer "+issue(t, 1, model.RoleUser, 0))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin only", decodeMWError(t, rec).Error)

	rec = runRequest(t, e, http.MethodGet, "/no-auth", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartSession(t *testing.T) {
	e := echo.New()
	e.GET("/cart", func(c echo.Context) error {
		return c.JSON(http.StatusOK, middleware.CartSessionFrom(c))
	}, middleware.OptionalAuth(jwtCfg), middleware.CartSession())

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CartSessionCookie, Value: " guest-token "})
	req.Header.Set("Authorization", "Bearer "+issue(t, 9, model.RoleUser, 0))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var s usecase.CartSession
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))
	assert.Equal(t, int64(9), s.UserID)
	assert.Equal(t, "guest-token", s.GuestToken)
}

func TestCartCookies(t *testing.T) {
	ck := middleware.NewCartCookie("tok", 3600, true, "shop.test")
	assert.Equal(t, middleware.CartSessionCookie, ck.Name)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)

	expired := middleware.ExpiredCartCookie(false, "")
	assert.Empty(t, expired.Value)
	assert.Negative(t, expired.MaxAge)
}

func TestRateLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	limiter := new(limiterMock)
	window := time.Minute

	e := echo.New()
	e.POST("/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, middleware.RateLimit(limiter, "login", 2, window, m, logger.Nop()))

	limiter.On("FixedWindowAllow", mock.Anything, "login:10.0.0.1", int64(2), window).Return(true, int64(1), nil).Once()
	limiter.On("FixedWindowAllow", mock.Anything, "login:10.0.0.1", int64(2), window).Return(false, int64(3), nil).Once()
	limiter.On("FixedWindowAllow", mock.Anything, "login:10.0.0.1", int64(2), window).Return(false, int64(0), errors.New("redis down")).Once()

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := send()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Redisが落ちていても通す
	rec = send()
	assert.Equal(t, http.StatusNoContent, rec.Code)

	limiter.AssertExpectations(t)
	n, err := testutil.GatherAndCount(reg, "perfumeshop_rate_limited_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRateLimit_NilLimiterIsNoop(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, middleware.RateLimit(nil, "login", 5, time.Minute, nil, logger.Nop()))

	rec := runRequest(t, e, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "api", Output: &buf})

	e := echo.New()
	e.GET("/products/:id", func(c echo.Context) error {
		c.Set(middleware.CtxUserIDKey, int64(7))
		return c.NoContent(http.StatusOK)
	}, middleware.RequestLogger(logg))

	req := httptest.NewRequest(http.MethodGet, "/products/3", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	e.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "/products/:id", line["path"])
	assert.Equal(t, float64(200), line["status"])
	assert.Equal(t, float64(7), line["user_id"])
	assert.Equal(t, "request completed", line["message"])
}
