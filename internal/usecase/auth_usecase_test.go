package usecase_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"
	"perfumeshop/internal/usecase"
	auth "perfumeshop/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mailerMock struct{ mock.Mock }

func (m *mailerMock) SendPasswordReset(ctx context.Context, to string, resetURL string) error {
	args := m.Called(ctx, to, resetURL)
	return args.Error(0)
}

// 送られたリンクを覚えておく
func (m *mailerMock) lastToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.Calls)
	link := m.Calls[len(m.Calls)-1].Arguments.String(2)
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func newAccountUC(env *testEnv, mailer usecase.Mailer) (*usecase.AuthUsecase, *auth.BcryptPasswordHasher) {
	hasher := auth.NewBcryptPasswordHasher(4)
	issuer := auth.NewJWTIssuer("test-secret", 15*time.Minute)
	return usecase.NewAuthUsecase(env.users, env.resets, env.audit, hasher, issuer, mailer, time.Hour, "http://shop.test/"), hasher
}

func seedUserWithPassword(t *testing.T, env *testEnv, hasher *auth.BcryptPasswordHasher, email, password string) *model.User {
	t.Helper()
	h, err := hasher.Hash(password)
	require.NoError(t, err)
	u := &model.User{Email: email, Name: "Test", PasswordHash: h, Role: model.RoleUser, IsActive: true}
	require.NoError(t, env.users.Create(context.Background(), u))
	return u
}

func TestAuthUsecase_PasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	mailer := new(mailerMock)
	mailer.On("SendPasswordReset", mock.Anything, "a@example.com", mock.MatchedBy(func(link string) bool {
		return strings.HasPrefix(link, "http://shop.test/reset-password?token=")
	})).Return(nil)
	uc, hasher := newAccountUC(env, mailer)
	ctx := context.Background()
	u := seedUserWithPassword(t, env, hasher, "a@example.com", "Old-Password-1")

	require.NoError(t, uc.ForgotPassword(ctx, " A@Example.com "))
	token := mailer.lastToken(t)
	require.NotEmpty(t, token)

	require.NoError(t, uc.ResetPassword(ctx, token, "Vetiver-Rain-77"))

	got, err := env.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, hasher.Verify("Vetiver-Rain-77", got.PasswordHash))
	assert.Greater(t, got.TokenVersion, u.TokenVersion)

	// 同じトークンは2回使えない
	err = uc.ResetPassword(ctx, token, "Another-Pass-88")
	assertStatus(t, err, http.StatusBadRequest)
	mailer.AssertExpectations(t)
}

func TestAuthUsecase_ForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	env := newTestEnv(t)
	mailer := new(mailerMock)
	uc, _ := newAccountUC(env, mailer)

	require.NoError(t, uc.ForgotPassword(context.Background(), "nobody@example.com"))
	mailer.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthUsecase_ResetPassword_UnknownToken(t *testing.T) {
	env := newTestEnv(t)
	uc, _ := newAccountUC(env, new(mailerMock))

	err := uc.ResetPassword(context.Background(), "not-a-token", "Vetiver-Rain-77")
	assertStatus(t, err, http.StatusBadRequest)
}

func TestAuthUsecase_ChangePassword_ReissuesToken(t *testing.T) {
	env := newTestEnv(t)
	uc, hasher := newAccountUC(env, new(mailerMock))
	ctx := context.Background()
	u := seedUserWithPassword(t, env, hasher, "a@example.com", "Old-Password-1")

	_, err := uc.ChangePassword(ctx, u.ID, "wrong", "Vetiver-Rain-77")
	assertStatus(t, err, http.StatusBadRequest)

	tok, err := uc.ChangePassword(ctx, u.ID, "Old-Password-1", "Vetiver-Rain-77")
	require.NoError(t, err)
	assert.Equal(t, u.TokenVersion+1, tok.TokenVersion)

	claims, err := auth.ParseAccessToken("test-secret", tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tok.TokenVersion, claims.TokenVersion)

	got, err := env.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, tok.TokenVersion, got.TokenVersion)
}

func TestAuthUsecase_ForceLogout_Audited(t *testing.T) {
	env := newTestEnv(t)
	uc, _ := newAccountUC(env, new(mailerMock))
	ctx := context.Background()
	u := env.seedUser(t, "a@example.com")

	res, err := uc.ForceLogout(ctx, 42, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.TokenVersion+1, res.NewTokenVersion)

	logs, err := env.audit.List(ctx, repo.AuditLogFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionForceLogout, logs[0].Action)
	assert.Equal(t, int64(42), logs[0].ActorUserID)

	_, err = uc.ForceLogout(ctx, 42, 9999)
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestAuthUsecase_MeAndUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	uc, _ := newAccountUC(env, new(mailerMock))
	ctx := context.Background()
	u := env.seedUser(t, "a@example.com")

	me, err := uc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", me.Email)
	assert.False(t, me.GoogleLinked)

	updated, err := uc.UpdateProfile(ctx, u.ID, "  Chanel Fan ")
	require.NoError(t, err)
	assert.Equal(t, "Chanel Fan", updated.Name)

	_, err = uc.UpdateProfile(ctx, u.ID, "   ")
	assert.ErrorIs(t, err, usecase.ErrValidation)

	_, err = uc.Me(ctx, 0)
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)
}
