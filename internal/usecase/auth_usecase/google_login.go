package auth

import (
	"context"
	"errors"
	"strings"

	"perfumeshop/internal/domain/model"
	"perfumeshop/internal/metrics"
	"perfumeshop/internal/repository"
)

// Googleのuserinfo
type GoogleUser struct {
	Sub           string
	Email         string
	EmailVerified bool
	Name          string
}

// 認可URLとcode交換の約束（実装はinfra/oauth）
type GoogleProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (GoogleUser, error)
}

var (
	ErrGoogleDisabled   = errors.New("google login disabled")
	ErrGoogleExchange   = errors.New("google exchange failed")
	ErrEmailNotVerified = errors.New("google email not verified")
)

type GoogleLoginUsecase struct {
	userRepo repository.UserRepository
	provider GoogleProvider
	issuer   AccessTokenIssuer
	clock    Clock
	metrics  *metrics.Metrics
}

// providerがnilならGoogleログインは無効
func NewGoogleLoginUsecase(
	userRepo repository.UserRepository,
	provider GoogleProvider,
	issuer AccessTokenIssuer,
	clock Clock,
	m *metrics.Metrics,
) *GoogleLoginUsecase {
	return &GoogleLoginUsecase{
		userRepo: userRepo,
		provider: provider,
		issuer:   issuer,
		clock:    clock,
		metrics:  m,
	}
}

func (u *GoogleLoginUsecase) Enabled() bool {
	return u.provider != nil
}

func (u *GoogleLoginUsecase) AuthURL(state string) (string, error) {
	if u.provider == nil {
		return "", ErrGoogleDisabled
	}
	return u.provider.AuthCodeURL(state), nil
}

// codeを交換して、sub→email の順でユーザーを探す。無ければ作る
func (u *GoogleLoginUsecase) Execute(ctx context.Context, code string) (LoginOutput, error) {
	out, err := u.execute(ctx, code)
	if err != nil {
		u.metrics.Login("google", "failure")
		return out, err
	}
	u.metrics.Login("google", "success")
	return out, nil
}

func (u *GoogleLoginUsecase) execute(ctx context.Context, code string) (LoginOutput, error) {
	if u.provider == nil {
		return LoginOutput{}, ErrGoogleDisabled
	}
	if strings.TrimSpace(code) == "" {
		return LoginOutput{}, ErrGoogleExchange
	}

	gu, err := u.provider.Exchange(ctx, code)
	if err != nil {
		return LoginOutput{}, ErrGoogleExchange
	}
	if gu.Sub == "" || !gu.EmailVerified {
		return LoginOutput{}, ErrEmailNotVerified
	}

	user, err := u.findOrLink(ctx, gu)
	if err != nil {
		return LoginOutput{}, err
	}
	if !user.IsActive {
		return LoginOutput{}, ErrUserInactive
	}

	return issueFor(ctx, u.userRepo, u.issuer, u.clock.Now(), user)
}

func (u *GoogleLoginUsecase) findOrLink(ctx context.Context, gu GoogleUser) (*model.User, error) {
	//google_subで既存ユーザー
	user, err := u.userRepo.FindByGoogleSub(ctx, gu.Sub)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	//同じemailのパスワードユーザーがいれば紐づける
	email := NormalizeEmail(gu.Email)
	user, err = u.userRepo.FindByEmail(ctx, email)
	if err == nil {
		sub := gu.Sub
		user.GoogleSub = &sub
		if user.Name == "" {
			user.Name = gu.Name
		}
		if err := u.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	//新規（パスワードなし）
	now := u.clock.Now()
	sub := gu.Sub
	user = &model.User{
		Email:     email,
		Name:      strings.TrimSpace(gu.Name),
		GoogleSub: &sub,
		Role:      model.RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
