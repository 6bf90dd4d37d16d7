package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"perfumeshop/internal/config"
	auth "perfumeshop/internal/usecase/auth_usecase"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

type GoogleProvider struct {
	conf        *oauth2.Config
	userInfoURL string
}

// 設定が無ければnil（Googleログイン無効）
func NewGoogleProvider(cfg config.GoogleConfig) *GoogleProvider {
	if !cfg.Enabled() {
		return nil
	}
	return &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type userInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// codeをトークンに交換してuserinfoを取る
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (auth.GoogleUser, error) {
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return auth.GoogleUser{}, fmt.Errorf("exchanging code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return auth.GoogleUser{}, err
	}
	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return auth.GoogleUser{}, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return auth.GoogleUser{}, fmt.Errorf("userinfo status %d: %s", resp.StatusCode, body)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return auth.GoogleUser{}, fmt.Errorf("decoding userinfo: %w", err)
	}

	return auth.GoogleUser{
		Sub:           info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
	}, nil
}
