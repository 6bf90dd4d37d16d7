package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"perfumeshop/internal/config"
	"perfumeshop/internal/middleware"
	"perfumeshop/internal/usecase"
	auth "perfumeshop/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	registerUC *auth.RegisterUserUsecase // 会員登録usecase
	loginUC    *auth.LoginUsecase        // ログインusecase
	googleUC   *auth.GoogleLoginUsecase
	accountUC  *usecase.AuthUsecase
	merger     guestCartMerger
	cookie     config.CookieConfig
	newState   func() (string, error)
}

// DIコンストラクタ
func NewAuthHandler(
	registerUC *auth.RegisterUserUsecase,
	loginUC *auth.LoginUsecase,
	googleUC *auth.GoogleLoginUsecase,
	accountUC *usecase.AuthUsecase,
	merger guestCartMerger,
	cookie config.CookieConfig,
) *AuthHandler {
	return &AuthHandler{
		registerUC: registerUC,
		loginUC:    loginUC,
		googleUC:   googleUC,
		accountUC:  accountUC,
		merger:     merger,
		cookie:     cookie,
		newState:   newOAuthState,
	}
}

// /auth/register のリクエストボディ。
type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type updateProfileRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// ログイン結果＋マージしたカート
type loginResponse struct {
	auth.LoginOutput
	MergedCart *usecase.CartResponse `json:"merged_cart,omitempty"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, mw Middlewares) {
	g := e.Group("/auth")

	g.POST("/register", h.register, limitOrNoop(mw.RegisterLimit))
	g.POST("/login", h.login, limitOrNoop(mw.LoginLimit), middleware.CartSession())
	g.GET("/google/login", h.googleLogin)
	g.GET("/google/callback", h.googleCallback, middleware.CartSession())
	g.POST("/password/forgot", h.forgotPassword, limitOrNoop(mw.LoginLimit))
	g.POST("/password/reset", h.resetPassword, limitOrNoop(mw.LoginLimit))
	g.POST("/logout", h.logout, mw.Auth...)

	me := e.Group("/me", mw.Auth...)
	me.GET("", h.me)
	me.PATCH("", h.updateProfile)
	me.PUT("/password", h.changePassword)
}

func limitOrNoop(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}

// authパッケージのエラーをステータスに
func writeAuthError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidEmailFormat),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrWeakPassword):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrGoogleExchange),
		errors.Is(err, auth.ErrEmailNotVerified):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrUserInactive):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrGoogleDisabled):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	}
	return writeError(c, err)
}

// POST /auth/register
func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

// POST /auth/login。cart_sessionがあればマージする
func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, loginResponse{
		LoginOutput: out,
		MergedCart:  mergeAfterLogin(c, h.merger, h.cookie, out.User.ID),
	})
}

// GET /auth/google/login（stateをcookieに入れてGoogleへ）
func (h *AuthHandler) googleLogin(c echo.Context) error {
	if !h.googleUC.Enabled() {
		return writeAuthError(c, auth.ErrGoogleDisabled)
	}

	state, err := h.newState()
	if err != nil {
		return writeError(c, err)
	}
	url, err := h.googleUC.AuthURL(state)
	if err != nil {
		return writeAuthError(c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, url)
}

// GET /auth/google/callback
func (h *AuthHandler) googleCallback(c echo.Context) error {
	ck, err := c.Cookie(oauthStateCookie)
	state := c.QueryParam("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(ck.Value), []byte(state)) != 1 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid state"})
	}
	c.SetCookie(&http.Cookie{Name: oauthStateCookie, Path: "/auth/google", MaxAge: -1, HttpOnly: true, Secure: h.cookie.Secure})

	out, err := h.googleUC.Execute(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, loginResponse{
		LoginOutput: out,
		MergedCart:  mergeAfterLogin(c, h.merger, h.cookie, out.User.ID),
	})
}

// POST /auth/logout（全端末のトークンを失効）
func (h *AuthHandler) logout(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	res, err := h.accountUC.Logout(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// 登録の有無に関わらず200
func (h *AuthHandler) forgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	if err := h.accountUC.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "if the email is registered, a reset link has been sent"})
}

func (h *AuthHandler) resetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	if err := h.accountUC.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "password updated"})
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.accountUC.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) updateProfile(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.accountUC.UpdateProfile(c.Request().Context(), userID, req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 新しいトークンを返す（古いトークンは失効）
func (h *AuthHandler) changePassword(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	token, err := h.accountUC.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"token": token})
}
