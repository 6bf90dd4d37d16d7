package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"perfumeshop/internal/domain/model"
	"perfumeshop/internal/repository"
	auth "perfumeshop/internal/usecase/auth_usecase"

	"github.com/google/uuid"
)

// パスワード再設定メールを送る約束（実装はinfra/mailer）
type Mailer interface {
	SendPasswordReset(ctx context.Context, to string, resetURL string) error
}

// ハッシュ化と照合
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain string, hashed string) bool
}

type UserDTO struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	TokenVersion int        `json:"token_version"`
	IsActive     bool       `json:"is_active"`
	HasPassword  bool       `json:"has_password"`
	GoogleLinked bool       `json:"google_linked"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type ForceLogoutResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type AuthUsecase struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	auditLogs  repository.AuditLogRepository
	hasher     PasswordHasher
	issuer     auth.AccessTokenIssuer
	mailer     Mailer
	resetTTL   time.Duration
	resetURL   string
	now        func() time.Time
	newTokenFn func() (string, string, error)
}

func NewAuthUsecase(
	users repository.UserRepository,
	resets repository.PasswordResetRepository,
	auditLogs repository.AuditLogRepository,
	hasher PasswordHasher,
	issuer auth.AccessTokenIssuer,
	mailer Mailer,
	resetTTL time.Duration,
	frontendURL string,
) *AuthUsecase {
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &AuthUsecase{
		users:      users,
		resets:     resets,
		auditLogs:  auditLogs,
		hasher:     hasher,
		issuer:     issuer,
		mailer:     mailer,
		resetTTL:   resetTTL,
		resetURL:   strings.TrimRight(frontendURL, "/") + "/reset-password",
		now:        time.Now,
		newTokenFn: newRandomTokenAndHash,
	}
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
		HasPassword:  u.PasswordHash != "",
		GoogleLinked: u.GoogleSub != nil,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}

func (u *AuthUsecase) activeUser(ctx context.Context, userID int64) (*model.User, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}

	if !user.IsActive {
		return nil, ErrForbidden
	}
	return user, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	user, err := u.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := toUserDTO(user)
	return &dto, nil
}

func (u *AuthUsecase) UpdateProfile(ctx context.Context, userID int64, name string) (*UserDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		return nil, ErrValidation
	}

	user, err := u.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.UpdatedAt = u.now()
	if err := u.users.Update(ctx, user); err != nil {
		return nil, ErrInternal
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// パスワード変更。token_versionが上がるので新しいトークンを返す
func (u *AuthUsecase) ChangePassword(ctx context.Context, userID int64, current, next string) (*auth.JwtAccessToken, error) {
	user, err := u.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.hasher.Verify(current, user.PasswordHash) {
		return nil, NewHTTPError(http.StatusBadRequest, "current password is incorrect")
	}
	if err := auth.ValidatePassword(next); err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	hashed, err := u.hasher.Hash(next)
	if err != nil {
		return nil, ErrInternal
	}
	if err := u.users.UpdatePassword(ctx, userID, hashed); err != nil {
		return nil, ErrInternal
	}

	//更新後のtvで発行し直す
	user.TokenVersion++
	now := u.now()
	token, exp, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return nil, ErrInternal
	}
	return &auth.JwtAccessToken{
		AccessToken:  token,
		ExpiresIn:    int(exp.Sub(now).Seconds()),
		TokenVersion: user.TokenVersion,
	}, nil
}

// ログアウト（token_versionを上げて全トークン失効）
func (u *AuthUsecase) Logout(ctx context.Context, userID int64) (*SuccessResponse, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	if err := u.users.IncrementTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, ErrInternal
	}

	return &SuccessResponse{Message: "logout success"}, nil
}

func (u *AuthUsecase) ForceLogout(ctx context.Context, actorAdminUserID int64, targetUserID int64) (*ForceLogoutResponse, error) {
	if actorAdminUserID <= 0 {
		return nil, ErrUnauthorized
	}
	if targetUserID <= 0 {
		return nil, ErrValidation
	}

	before, err := u.users.FindByID(ctx, targetUserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, ErrInternal
	}

	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal
	}

	//更新後を取得してnew_token_versionを返す
	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil || user == nil {
		return nil, ErrInternal
	}

	log := newAuditLog(actorAdminUserID, model.AuditActionForceLogout, model.AuditResourceUser, targetUserID,
		map[string]int{"token_version": before.TokenVersion},
		map[string]int{"token_version": user.TokenVersion},
	)
	if err := u.auditLogs.Create(ctx, log); err != nil {
		return nil, ErrInternal
	}

	return &ForceLogoutResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}

// 再設定メール送信。ユーザーの有無は返さない（常に成功）
func (u *AuthUsecase) ForgotPassword(ctx context.Context, email string) error {
	email = auth.NormalizeEmail(email)
	if email == "" {
		return ErrValidation
	}

	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return ErrInternal
	}
	if !user.IsActive {
		return nil
	}

	// 古いトークンは無効にする
	if err := u.resets.DeleteByUserID(ctx, user.ID); err != nil {
		return ErrInternal
	}

	plain, hash, err := u.newTokenFn()
	if err != nil {
		return ErrInternal
	}
	now := u.now()
	if err := u.resets.Create(ctx, model.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(u.resetTTL),
		CreatedAt: now,
	}); err != nil {
		return ErrInternal
	}

	link := u.resetURL + "?token=" + url.QueryEscape(plain)
	if err := u.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		return ErrInternal
	}
	return nil
}

// トークンは1回だけ、期限内のみ。成功したら全トークン失効
func (u *AuthUsecase) ResetPassword(ctx context.Context, token string, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrValidation
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return NewHTTPError(http.StatusBadRequest, err.Error())
	}

	invalid := NewHTTPError(http.StatusBadRequest, "invalid or expired token")

	rt, err := u.resets.FindByTokenHash(ctx, hashToken(token))
	if errors.Is(err, repository.ErrNotFound) {
		return invalid
	}
	if err != nil {
		return ErrInternal
	}
	now := u.now()
	if rt.UsedAt != nil || !now.Before(rt.ExpiresAt) {
		return invalid
	}

	// 先に使用済みにする（同時リクエストは片方だけ通る）
	ok, err := u.resets.MarkUsed(ctx, rt.ID, now)
	if err != nil {
		return ErrInternal
	}
	if !ok {
		return invalid
	}

	hashed, err := u.hasher.Hash(newPassword)
	if err != nil {
		return ErrInternal
	}
	if err := u.users.UpdatePassword(ctx, rt.UserID, hashed); err != nil {
		return ErrInternal
	}
	return nil
}
