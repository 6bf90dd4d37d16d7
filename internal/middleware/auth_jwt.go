package middleware

import (
	"errors"
	"net/http"
	"strings"

	"perfumeshop/internal/config"
	auth "perfumeshop/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

var errNoToken = errors.New("no bearer token")

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(cfg config.JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authenticate(c, cfg.Secret); err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			return next(c)
		}
	}
}

// トークンが無ければゲストとして通す（カート用）。あるのに不正なら401
func OptionalAuth(cfg config.JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := authenticate(c, cfg.Secret)
			if err != nil && !errors.Is(err, errNoToken) {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			return next(c)
		}
	}
}

// Authorizationヘッダを検証してcontextへ保存
func authenticate(c echo.Context, secret string) error {
	authz := c.Request().Header.Get("Authorization")
	if authz == "" {
		return errNoToken
	}

	//Bearer形式か確認してtokenを抜く
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return errors.New("malformed authorization header")
	}
	rawToken := strings.TrimSpace(parts[1])
	if rawToken == "" {
		return errors.New("empty token")
	}

	//JWTをパースして検証する
	claims, err := auth.ParseAccessToken(secret, rawToken)
	if err != nil {
		return err
	}
	userID, err := claims.UserID()
	if err != nil {
		return err
	}
	if claims.Role == "" {
		return errors.New("missing role")
	}

	//contextへ保存
	c.Set(CtxUserIDKey, userID)
	c.Set(CtxUserRoleKey, claims.Role)
	c.Set(CtxTokenVersionKey, claims.TokenVersion)
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
